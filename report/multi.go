package report

import (
	"time"

	"github.com/pkg/errors"
)

// MultiSink fans every entry out to a set of underlying sinks, so one run
// can feed the console and an HTML file at the same time.
type MultiSink struct {
	sinks []Sink
}

func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

func (m *MultiSink) CreateTestEntry(name, description string) Entry {
	entries := make([]Entry, 0, len(m.sinks))
	for _, s := range m.sinks {
		entries = append(entries, s.CreateTestEntry(name, description))
	}
	return multiEntry{entries: entries}
}

// Flush flushes all sinks, returning the first error but not stopping on it.
func (m *MultiSink) Flush() error {
	var first error
	for _, s := range m.sinks {
		if err := s.Flush(); err != nil && first == nil {
			first = errors.Wrap(err, "flushing report sink")
		}
	}
	return first
}

type multiEntry struct {
	entries []Entry
}

func (e multiEntry) Log(level Level, msg string) {
	for _, en := range e.entries {
		en.Log(level, msg)
	}
}

func (e multiEntry) Logf(level Level, format string, args ...interface{}) {
	for _, en := range e.entries {
		en.Logf(level, format, args...)
	}
}

func (e multiEntry) AttachArtifact(path, caption string) {
	for _, en := range e.entries {
		en.AttachArtifact(path, caption)
	}
}

func (e multiEntry) Finish(status Status, elapsed time.Duration, err error) {
	for _, en := range e.entries {
		en.Finish(status, elapsed, err)
	}
}
