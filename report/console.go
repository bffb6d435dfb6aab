package report

import (
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// ConsoleSink prints a summary table to a writer when the run completes.
type ConsoleSink struct {
	collector
	out io.Writer
}

// NewConsoleSink builds a sink that writes to w; pass nil for stdout.
func NewConsoleSink(w io.Writer) *ConsoleSink {
	if w == nil {
		w = os.Stdout
	}
	return &ConsoleSink{out: w}
}

func (s *ConsoleSink) CreateTestEntry(name, description string) Entry {
	return s.create(name, description)
}

// Flush renders the summary table.
func (s *ConsoleSink) Flush() error {
	records := s.snapshots()
	stats := computeStats(records)

	t := table.NewWriter()
	t.SetOutputMirror(s.out)
	t.SetTitle("Test Results")
	t.Style().Format.Footer = text.FormatDefault
	t.AppendHeader(table.Row{"Test", "Status", "Duration", "Error"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Test", WidthMax: 50},
		{Name: "Duration", Align: text.AlignRight},
		{Name: "Error", WidthMax: 60},
	})

	for _, r := range records {
		status := r.status
		if !r.finished {
			status = StatusFailed
		}
		errText := ""
		if r.err != nil {
			errText = r.err.Error()
		}
		t.AppendRow(table.Row{r.name, statusCell(status), formatDuration(r.elapsed), errText})
	}

	t.AppendFooter(table.Row{
		fmt.Sprintf("%d tests", stats.Total),
		fmt.Sprintf("%d/%d/%d", stats.Passed, stats.Failed, stats.Skipped),
		"",
		fmt.Sprintf("pass rate %.1f%%", stats.PassRate),
	})
	t.Render()
	return nil
}

func statusCell(s Status) string {
	switch s {
	case StatusPassed:
		return text.FgGreen.Sprint("PASS")
	case StatusSkipped:
		return text.FgYellow.Sprint("SKIP")
	default:
		return text.FgRed.Sprint("FAIL")
	}
}
