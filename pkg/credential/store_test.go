package credential

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/jdgilhuly/workout_log/pkg/provider"
)

func TestSet(t *testing.T) {
	s := NewStore()
	s.ToggleManual(provider.Claude)

	if !s.Set(provider.Claude, "sk-ant-api03-abcdef") {
		t.Fatal("Set() = false, want true")
	}
	got, ok := s.Get(provider.Claude)
	if !ok || got != "sk-ant-api03-abcdef" {
		t.Errorf("Get() = %q, %v; want key, true", got, ok)
	}
	if s.ManualOpen(provider.Claude) {
		t.Error("ManualOpen() = true after Set, want false")
	}
	if _, ok := s.Get(provider.Gemini); ok {
		t.Error("Get(gemini) reported a credential that was never set")
	}
}

func TestSet_EmptyIgnored(t *testing.T) {
	s := NewStore()
	s.Set(provider.Gemini, "AIza-original")
	s.ToggleManual(provider.Gemini)

	if s.Set(provider.Gemini, "") {
		t.Fatal("Set(\"\") = true, want false")
	}
	got, _ := s.Get(provider.Gemini)
	if got != "AIza-original" {
		t.Errorf("Get() = %q, want the previous credential", got)
	}
	if !s.ManualOpen(provider.Gemini) {
		t.Error("empty paste closed the manual-input box")
	}
}

func TestLoadFile_TrimsAndClosesManual(t *testing.T) {
	s := NewStore()
	s.ToggleManual(provider.Exaone)

	if err := s.LoadFile(provider.Exaone, strings.NewReader("  \n\tflp_token_123\r\n\n")); err != nil {
		t.Fatalf("LoadFile() error: %v", err)
	}
	got, ok := s.Get(provider.Exaone)
	if !ok || got != "flp_token_123" {
		t.Errorf("Get() = %q, %v; want %q, true", got, ok, "flp_token_123")
	}
	if s.ManualOpen(provider.Exaone) {
		t.Error("ManualOpen() = true after LoadFile, want false")
	}
}

func TestLoadFile_BlankFileUnsets(t *testing.T) {
	s := NewStore()
	s.Set(provider.Claude, "sk-ant-old")

	if err := s.LoadFile(provider.Claude, strings.NewReader(" \n ")); err != nil {
		t.Fatalf("LoadFile() error: %v", err)
	}
	if _, ok := s.Get(provider.Claude); ok {
		t.Error("blank file left a credential set")
	}
}

func TestLoadFile_TooLarge(t *testing.T) {
	s := NewStore()
	big := strings.Repeat("x", MaxFileSize+10)
	if err := s.LoadFile(provider.Claude, strings.NewReader(big)); !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("LoadFile() error = %v, want ErrFileTooLarge", err)
	}
	if _, ok := s.Get(provider.Claude); ok {
		t.Error("oversized file was stored")
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("disk gone") }

func TestLoadFile_ReadError(t *testing.T) {
	s := NewStore()
	if err := s.LoadFile(provider.Claude, failingReader{}); err == nil {
		t.Fatal("LoadFile() expected error, got nil")
	}
}

func TestToggleManual(t *testing.T) {
	s := NewStore()
	if !s.ToggleManual(provider.Gemini) {
		t.Error("first ToggleManual() = false, want true")
	}
	if s.ToggleManual(provider.Gemini) {
		t.Error("second ToggleManual() = true, want false")
	}
	if s.ManualOpen(provider.Claude) {
		t.Error("toggling gemini opened claude")
	}
}

func TestMasked(t *testing.T) {
	s := NewStore()
	if got := s.Masked(provider.Claude); got != "미설정" {
		t.Errorf("Masked(unset) = %q, want %q", got, "미설정")
	}

	s.Set(provider.Claude, "sk-ant-REDACTED")
	if got := s.Masked(provider.Claude); got != "sk-ant-api03-01..." {
		t.Errorf("Masked() = %q, want %q", got, "sk-ant-api03-01...")
	}

	s.Set(provider.Gemini, "short")
	if got := s.Masked(provider.Gemini); got != "short..." {
		t.Errorf("Masked(short) = %q, want %q", got, "short...")
	}
}

func TestStatuses(t *testing.T) {
	s := NewStore()
	s.Set(provider.Gemini, "AIzaSyA-secret-value-here")
	s.ToggleManual(provider.Exaone)

	st := s.Statuses()
	if len(st) != 3 {
		t.Fatalf("len(Statuses()) = %d, want 3", len(st))
	}
	if st[0].Provider != provider.Claude || st[0].Set {
		t.Errorf("Statuses()[0] = %+v, want unset claude", st[0])
	}
	if !st[1].Set || st[1].Masked != "AIzaSyA-secret-..." {
		t.Errorf("Statuses()[1] = %+v", st[1])
	}
	if !st[2].ManualOpen || st[2].Label != "EXAONE" {
		t.Errorf("Statuses()[2] = %+v", st[2])
	}
	for _, status := range st {
		if strings.Contains(status.Masked, "here") {
			t.Errorf("status leaks the full credential: %+v", status)
		}
	}
}

func TestStore_ConcurrentAccess(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(3)
		go func() { defer wg.Done(); s.Set(provider.Claude, "key") }()
		go func() { defer wg.Done(); s.ToggleManual(provider.Claude) }()
		go func() { defer wg.Done(); _ = s.Statuses() }()
	}
	wg.Wait()

	if got, _ := s.Get(provider.Claude); got != "key" {
		t.Errorf("Get() = %q, want %q", got, "key")
	}
}
