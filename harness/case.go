// Package harness runs suites of browser test cases. Each case gets a
// fresh session created in its worker's slot before the body runs and
// destroyed afterwards regardless of outcome, so no state leaks between
// cases or workers.
package harness

import (
	"log/slog"
	"time"

	"github.com/tebeka/selenium"

	"github.com/wanmail/webtest/config"
	"github.com/wanmail/webtest/driver"
	"github.com/wanmail/webtest/report"
	"github.com/wanmail/webtest/wait"
)

// Case is one test. Cases sharing a Group run on the same worker between a
// ClassStart and ClassEnd hook pair; an empty Group joins the default group.
type Case struct {
	Name        string
	Description string
	Group       string
	Run         func(*T) error
}

// T is the per-case context handed to a case body. It owns nothing; the
// runner creates and destroys the underlying session.
type T struct {
	sess  *driver.Session
	sync  *wait.Engine
	cfg   *config.Config
	entry report.Entry
	log   *slog.Logger
}

// Session returns the case's browser session.
func (t *T) Session() *driver.Session { return t.sess }

// Driver returns the raw WebDriver for the case's session.
func (t *T) Driver() selenium.WebDriver { return t.sess.Driver() }

// Sync returns a synchronization engine bound to the case's session.
func (t *T) Sync() *wait.Engine { return t.sync }

// Config returns the active configuration.
func (t *T) Config() *config.Config { return t.cfg }

// Log records a line in the test's report entry and the run log.
func (t *T) Log(format string, args ...interface{}) {
	t.entry.Logf(report.LevelInfo, format, args...)
}

// Skip aborts the case body and marks the case skipped.
func (t *T) Skip(reason string) {
	panic(skipPanic{reason: reason})
}

type skipPanic struct {
	reason string
}

// Outcome is the terminal record of one case.
type Outcome struct {
	Case       Case
	Status     report.Status
	Elapsed    time.Duration
	Err        error
	Screenshot string
}

// Results summarizes a completed run.
type Results struct {
	Outcomes []Outcome
	Passed   int
	Failed   int
	Skipped  int
}

// HasFailures reports whether any case failed.
func (r Results) HasFailures() bool { return r.Failed > 0 }
