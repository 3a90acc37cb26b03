package provider

import "testing"

func TestParseID(t *testing.T) {
	tests := []struct {
		in      string
		want    ID
		wantErr bool
	}{
		{"claude", Claude, false},
		{"gemini", Gemini, false},
		{"exaone", Exaone, false},
		{"openai", "", true},
		{"", "", true},
		{"Claude", "", true},
	}
	for _, tt := range tests {
		got, err := ParseID(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseID(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseID(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIDsOrderAndLabels(t *testing.T) {
	ids := IDs()
	want := []string{"Claude", "Gemini", "EXAONE"}
	if len(ids) != len(want) {
		t.Fatalf("len(IDs()) = %d, want %d", len(ids), len(want))
	}
	for i, id := range ids {
		if id.Label() != want[i] {
			t.Errorf("IDs()[%d].Label() = %q, want %q", i, id.Label(), want[i])
		}
	}

	// Callers must not be able to reorder the package's list.
	ids[0] = "mutated"
	if IDs()[0] != Claude {
		t.Error("IDs() returned the package slice instead of a copy")
	}
}

func TestAPIErrorMessage(t *testing.T) {
	err := &APIError{Provider: "anthropic", StatusCode: 401, Type: "authentication_error", Message: "bad key"}
	want := "anthropic API error (HTTP 401, authentication_error): bad key"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
