// Package report prints the outcome of a generation cycle to a terminal.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/jdgilhuly/workout_log/pkg/generator"
	"github.com/jdgilhuly/workout_log/pkg/presenter"
	"github.com/jdgilhuly/workout_log/pkg/provider"
)

// Entry is one provider's row: the pane as the user sees it plus how the
// task ended.
type Entry struct {
	Provider provider.ID
	Label    string
	Status   generator.Status
	Elapsed  time.Duration
	Usage    provider.Usage
	Text     string
}

// Entries joins panes with the outcomes observed for the same cycle. A pane
// without an outcome is reported as skipped.
func Entries(panes []presenter.Pane, outcomes map[provider.ID]generator.Outcome) []Entry {
	entries := make([]Entry, 0, len(panes))
	for _, p := range panes {
		e := Entry{Provider: p.Provider, Label: p.Label, Text: p.Text, Status: generator.StatusSkipped}
		if o, ok := outcomes[p.Provider]; ok {
			e.Status = o.Status
			e.Elapsed = o.Elapsed
			e.Usage = o.Usage
		}
		entries = append(entries, e)
	}
	return entries
}

func statusColor(s generator.Status) *color.Color {
	switch s {
	case generator.StatusOK:
		return color.New(color.FgGreen)
	case generator.StatusSkipped:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgRed)
	}
}

// StatusLabel returns a colored status string for terminal display, padded
// to width before coloring so escape codes do not skew table columns.
func StatusLabel(s generator.Status, width int) string {
	c := statusColor(s)
	c.EnableColor()
	return c.Sprint(fmt.Sprintf("%-*s", width, StatusLabelPlain(s)))
}

// StatusLabelPlain returns an uncolored status string.
func StatusLabelPlain(s generator.Status) string {
	return strings.ToUpper(s.String())
}

// FormatDuration formats a duration for table display.
func FormatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dus", d.Microseconds())
	}
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

// PrintSummaryTable writes one row per provider with status, latency and
// token usage.
func PrintSummaryTable(w io.Writer, entries []Entry, colored bool) {
	sep := strings.Repeat("-", 60)
	fmt.Fprintf(w, "%s\n", sep)
	fmt.Fprintf(w, "  %-10s  %-8s  %8s  %16s\n", "PROVIDER", "STATUS", "LATENCY", "TOKENS IN/OUT")
	fmt.Fprintf(w, "%s\n", sep)

	var ok int
	for _, e := range entries {
		status := StatusLabelPlain(e.Status)
		if colored {
			status = StatusLabel(e.Status, 8)
		}
		if e.Status == generator.StatusOK {
			ok++
		}
		fmt.Fprintf(w, "  %-10s  %-8s  %8s  %16s\n",
			truncate(e.Label, 10), status, FormatDuration(e.Elapsed),
			fmt.Sprintf("%d/%d", e.Usage.InputTokens, e.Usage.OutputTokens))
	}

	fmt.Fprintf(w, "%s\n", sep)
	fmt.Fprintf(w, "  %d of %d providers generated a log\n", ok, len(entries))
	fmt.Fprintf(w, "%s\n", sep)
}

// PrintPanes writes the summary table followed by each pane's full text.
func PrintPanes(w io.Writer, entries []Entry, colored bool) {
	PrintSummaryTable(w, entries, colored)

	heading := color.New(color.FgCyan, color.Bold)
	if colored {
		heading.EnableColor()
	} else {
		heading.DisableColor()
	}

	for _, e := range entries {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "%s\n", heading.Sprintf("=== %s ===", e.Label))
		for _, line := range strings.Split(e.Text, "\n") {
			fmt.Fprintf(w, "  %s\n", line)
		}
	}
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
