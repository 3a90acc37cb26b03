package report

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jdgilhuly/workout_log/pkg/generator"
	"github.com/jdgilhuly/workout_log/pkg/presenter"
	"github.com/jdgilhuly/workout_log/pkg/provider"
)

const (
	ansiGreen  = "\x1b[32m"
	ansiRed    = "\x1b[31m"
	ansiYellow = "\x1b[33m"
)

func sampleEntries() []Entry {
	return []Entry{
		{
			Provider: provider.Claude, Label: "Claude", Status: generator.StatusOK,
			Elapsed: 1500 * time.Millisecond, Usage: provider.Usage{InputTokens: 120, OutputTokens: 800},
			Text: "## 운동 일지\n스쿼트 4세트",
		},
		{
			Provider: provider.Gemini, Label: "Gemini", Status: generator.StatusFailed,
			Elapsed: 200 * time.Millisecond, Text: "Gemini API 오류: quota exceeded",
		},
		{
			Provider: provider.Exaone, Label: "EXAONE", Status: generator.StatusSkipped,
			Text: "EXAONE API 키를 먼저 입력해주세요.",
		},
	}
}

func TestEntries(t *testing.T) {
	panes := []presenter.Pane{
		{Provider: provider.Claude, Label: "Claude", Text: "일지"},
		{Provider: provider.Gemini, Label: "Gemini", Text: "Gemini API 오류: boom"},
	}
	outcomes := map[provider.ID]generator.Outcome{
		provider.Claude: {Provider: provider.Claude, Status: generator.StatusOK, Elapsed: time.Second, Usage: provider.Usage{OutputTokens: 9}},
	}

	entries := Entries(panes, outcomes)
	if len(entries) != 2 {
		t.Fatalf("len(Entries()) = %d, want 2", len(entries))
	}
	if e := entries[0]; e.Status != generator.StatusOK || e.Elapsed != time.Second || e.Usage.OutputTokens != 9 || e.Text != "일지" {
		t.Errorf("entries[0] = %+v", e)
	}
	if e := entries[1]; e.Status != generator.StatusSkipped || e.Label != "Gemini" {
		t.Errorf("entries[1] = %+v, want skipped without outcome", e)
	}
}

func TestStatusLabel(t *testing.T) {
	tests := []struct {
		status generator.Status
		expect string
	}{
		{generator.StatusOK, "OK"},
		{generator.StatusFailed, "FAILED"},
		{generator.StatusSkipped, "SKIPPED"},
	}

	for _, tt := range tests {
		t.Run(tt.expect, func(t *testing.T) {
			label := StatusLabelPlain(tt.status)
			if label != tt.expect {
				t.Errorf("StatusLabelPlain() = %q, want %q", label, tt.expect)
			}

			colored := StatusLabel(tt.status, 8)
			if !strings.Contains(colored, fmt.Sprintf("%-8s", tt.expect)) {
				t.Errorf("StatusLabel() = %q, should contain %q", colored, tt.expect)
			}
			if !strings.Contains(colored, "\x1b[") {
				t.Errorf("StatusLabel() = %q, want ANSI escape", colored)
			}
		})
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{500 * time.Microsecond, "500us"},
		{150 * time.Millisecond, "150ms"},
		{2500 * time.Millisecond, "2.5s"},
		{0, "0us"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got := FormatDuration(tt.d)
			if got != tt.want {
				t.Errorf("FormatDuration(%v) = %q, want %q", tt.d, got, tt.want)
			}
		})
	}
}

func TestPrintSummaryTable_Plain(t *testing.T) {
	var buf bytes.Buffer
	PrintSummaryTable(&buf, sampleEntries(), false)
	output := buf.String()

	for _, want := range []string{
		"PROVIDER", "STATUS", "LATENCY", "TOKENS IN/OUT",
		"Claude", "OK", "1.5s", "120/800",
		"Gemini", "FAILED", "200ms",
		"EXAONE", "SKIPPED",
		"1 of 3 providers generated a log",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q", want)
		}
	}
	if strings.Contains(output, "\x1b[") {
		t.Error("plain output contains ANSI escapes")
	}
}

func TestPrintSummaryTable_Colored(t *testing.T) {
	var buf bytes.Buffer
	PrintSummaryTable(&buf, sampleEntries(), true)
	output := buf.String()

	for name, code := range map[string]string{"green": ansiGreen, "red": ansiRed, "yellow": ansiYellow} {
		if !strings.Contains(output, code) {
			t.Errorf("colored output missing %s ANSI code", name)
		}
	}
	for _, e := range sampleEntries() {
		if label := StatusLabel(e.Status, 8); !strings.Contains(output, label) {
			t.Errorf("colored output missing padded label %q", label)
		}
	}
}

func TestPrintPanes(t *testing.T) {
	var buf bytes.Buffer
	PrintPanes(&buf, sampleEntries(), false)
	output := buf.String()

	for _, want := range []string{
		"=== Claude ===",
		"  ## 운동 일지\n  스쿼트 4세트",
		"=== Gemini ===",
		"Gemini API 오류: quota exceeded",
		"=== EXAONE ===",
		"EXAONE API 키를 먼저 입력해주세요.",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		input string
		max   int
		want  string
	}{
		{"short", 10, "short"},
		{"a-very-long-provider-name", 10, "a-very-..."},
		{"exact", 5, "exact"},
		{"헬스트레이너운동일지", 6, "헬스트..."},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := truncate(tt.input, tt.max)
			if got != tt.want {
				t.Errorf("truncate(%q, %d) = %q, want %q", tt.input, tt.max, got, tt.want)
			}
		})
	}
}
