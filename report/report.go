// Package report collects test outcomes during a run and renders them
// through pluggable sinks. A sink hands out one Entry per test; workers
// write logs and artifacts into their entry while the run is live, and
// Flush renders everything once the run completes.
package report

import (
	"fmt"
	"sync"
	"time"
)

// Status is the terminal state of a single test.
type Status string

const (
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// Level classifies a log line inside an entry.
type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Entry is the per-test handle a sink hands to the runner. Entries are
// safe for use from the worker goroutine that owns the test.
type Entry interface {
	Log(level Level, msg string)
	Logf(level Level, format string, args ...interface{})
	AttachArtifact(path, caption string)
	Finish(status Status, elapsed time.Duration, err error)
}

// Sink receives test outcomes and renders them on Flush.
type Sink interface {
	CreateTestEntry(name, description string) Entry
	Flush() error
}

// Stats aggregates outcomes for a whole run.
type Stats struct {
	Total    int
	Passed   int
	Failed   int
	Skipped  int
	PassRate float64
}

type logLine struct {
	Time    time.Time
	Level   Level
	Message string
}

type artifact struct {
	Path    string
	Caption string
}

// record backs an Entry for the in-tree sinks. It accumulates lines and
// artifacts until Finish stamps the outcome.
type record struct {
	mu          sync.Mutex
	name        string
	description string
	start       time.Time
	status      Status
	elapsed     time.Duration
	err         error
	finished    bool
	lines       []logLine
	artifacts   []artifact
}

func newRecord(name, description string) *record {
	return &record{
		name:        name,
		description: description,
		start:       time.Now(),
	}
}

func (r *record) Log(level Level, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, logLine{Time: time.Now(), Level: level, Message: msg})
}

func (r *record) Logf(level Level, format string, args ...interface{}) {
	r.Log(level, fmt.Sprintf(format, args...))
}

func (r *record) AttachArtifact(path, caption string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.artifacts = append(r.artifacts, artifact{Path: path, Caption: caption})
}

// Finish stamps the outcome. Later calls are ignored so a recovered panic
// handler and a normal completion path cannot double-report.
func (r *record) Finish(status Status, elapsed time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finished {
		return
	}
	r.finished = true
	r.status = status
	r.elapsed = elapsed
	r.err = err
}

func (r *record) snapshot() record {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := record{
		name:        r.name,
		description: r.description,
		start:       r.start,
		status:      r.status,
		elapsed:     r.elapsed,
		err:         r.err,
		finished:    r.finished,
		lines:       append([]logLine(nil), r.lines...),
		artifacts:   append([]artifact(nil), r.artifacts...),
	}
	return cp
}

// computeStats rolls records up into run-level numbers. Unfinished records
// count as failed; a test that never reported is not a pass.
func computeStats(records []record) Stats {
	s := Stats{Total: len(records)}
	for _, r := range records {
		switch {
		case !r.finished:
			s.Failed++
		case r.status == StatusPassed:
			s.Passed++
		case r.status == StatusSkipped:
			s.Skipped++
		default:
			s.Failed++
		}
	}
	if executed := s.Total - s.Skipped; executed > 0 {
		s.PassRate = float64(s.Passed) / float64(executed) * 100
	}
	return s
}

// collector is the shared record store embedded by the in-tree sinks.
type collector struct {
	mu      sync.Mutex
	records []*record
}

func (c *collector) create(name, description string) *record {
	r := newRecord(name, description)
	c.mu.Lock()
	c.records = append(c.records, r)
	c.mu.Unlock()
	return r
}

func (c *collector) snapshots() []record {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]record, 0, len(c.records))
	for _, r := range c.records {
		out = append(out, r.snapshot())
	}
	return out
}

func formatDuration(d time.Duration) string {
	return d.Round(time.Millisecond).String()
}
