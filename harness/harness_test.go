package harness

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tebeka/selenium"

	"github.com/wanmail/webtest/config"
	"github.com/wanmail/webtest/driver"
	"github.com/wanmail/webtest/report"
)

// harnessDriver is the minimal WebDriver the runner touches: quit on
// teardown and screenshots on capture.
type harnessDriver struct {
	selenium.WebDriver
	mu   sync.Mutex
	quit bool
}

func (d *harnessDriver) Quit() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.quit = true
	return nil
}

func (d *harnessDriver) Screenshot() ([]byte, error) {
	return []byte("png-bytes"), nil
}

func (d *harnessDriver) wasQuit() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.quit
}

// sessionTracker is a driver.Factory that remembers every driver it made.
type sessionTracker struct {
	mu      sync.Mutex
	drivers []*harnessDriver
}

func (f *sessionTracker) factory(b driver.Browser, opts driver.Options) (*driver.Session, error) {
	wd := &harnessDriver{}
	f.mu.Lock()
	f.drivers = append(f.drivers, wd)
	f.mu.Unlock()
	return driver.WrapDriver(wd, b), nil
}

func (f *sessionTracker) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.drivers)
}

func (f *sessionTracker) allQuit() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range f.drivers {
		if !d.wasQuit() {
			return false
		}
	}
	return true
}

type memEntry struct {
	mu        sync.Mutex
	name      string
	status    report.Status
	err       error
	finished  bool
	lines     []string
	artifacts []string
}

func (e *memEntry) Log(level report.Level, msg string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lines = append(e.lines, msg)
}

func (e *memEntry) Logf(level report.Level, format string, args ...interface{}) {
	e.Log(level, fmt.Sprintf(format, args...))
}

func (e *memEntry) AttachArtifact(path, caption string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.artifacts = append(e.artifacts, path)
}

func (e *memEntry) Finish(status report.Status, elapsed time.Duration, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.finished = true
	e.status = status
	e.err = err
}

type memSink struct {
	mu      sync.Mutex
	entries []*memEntry
	flushed bool
}

func (s *memSink) CreateTestEntry(name, description string) report.Entry {
	e := &memEntry{name: name}
	s.mu.Lock()
	s.entries = append(s.entries, e)
	s.mu.Unlock()
	return e
}

func (s *memSink) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flushed = true
	return nil
}

func (s *memSink) entry(name string) *memEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		if e.name == name {
			return e
		}
	}
	return nil
}

func suiteConfig(t *testing.T, extra ...string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	envDir := filepath.Join(dir, "environments")
	require.NoError(t, os.MkdirAll(envDir, 0o755))
	values := map[string]string{
		"browser":               `"chrome"`,
		"explicit.wait.timeout": "1",
		"fluent.wait.polling":   "1",
		"screenshots.path":      `"` + filepath.Join(dir, "shots") + `"`,
		"reports.path":          `"` + filepath.Join(dir, "reports") + `"`,
		"screenshot.on.failure": "false",
	}
	for _, kv := range extra {
		k, v, ok := strings.Cut(kv, ": ")
		require.True(t, ok, "extra settings must look like key: value")
		values[k] = v
	}
	var lines []string
	for k, v := range values {
		lines = append(lines, k+": "+v)
	}
	doc := strings.Join(lines, "\n")
	require.NoError(t, os.WriteFile(filepath.Join(envDir, "test.yaml"), []byte(doc), 0o644))
	cfg, err := config.Load("test", config.WithDir(dir))
	require.NoError(t, err)
	return cfg
}

func newTestSuite(t *testing.T, cfg *config.Config, sink report.Sink, tracker *sessionTracker, opts ...SuiteOption) *Suite {
	t.Helper()
	reg := driver.NewRegistry(driver.WithFactory(tracker.factory))
	opts = append([]SuiteOption{WithRegistry(reg)}, opts...)
	return NewSuite(cfg, sink, opts...)
}

func TestRunReportsOutcomesAndContinuesOnFailure(t *testing.T) {
	cfg := suiteConfig(t)
	sink := &memSink{}
	tracker := &sessionTracker{}
	s := newTestSuite(t, cfg, sink, tracker)

	cases := []Case{
		{Name: "TestA", Run: func(tt *T) error { tt.Log("step one"); return nil }},
		{Name: "TestB", Run: func(tt *T) error { return errors.New("assertion blew up") }},
		{Name: "TestC", Run: func(tt *T) error { return nil }},
	}
	results, err := s.Run(context.Background(), cases)
	require.NoError(t, err)

	assert.Equal(t, 2, results.Passed)
	assert.Equal(t, 1, results.Failed)
	assert.Zero(t, results.Skipped)
	assert.True(t, results.HasFailures())
	assert.Len(t, results.Outcomes, 3)

	assert.True(t, sink.flushed)
	assert.Equal(t, report.StatusPassed, sink.entry("TestA").status)
	assert.Equal(t, report.StatusFailed, sink.entry("TestB").status)
	assert.EqualError(t, sink.entry("TestB").err, "assertion blew up")
	assert.Equal(t, report.StatusPassed, sink.entry("TestC").status)
	assert.Contains(t, sink.entry("TestA").lines, "step one")
}

func TestEachCaseGetsFreshSessionAndTeardown(t *testing.T) {
	cfg := suiteConfig(t)
	tracker := &sessionTracker{}
	s := newTestSuite(t, cfg, &memSink{}, tracker)

	var seen []selenium.WebDriver
	var mu sync.Mutex
	run := func(tt *T) error {
		mu.Lock()
		seen = append(seen, tt.Driver())
		mu.Unlock()
		return nil
	}
	_, err := s.Run(context.Background(), []Case{
		{Name: "TestOne", Run: run},
		{Name: "TestTwo", Run: run},
	})
	require.NoError(t, err)

	require.Equal(t, 2, tracker.count())
	assert.NotSame(t, seen[0], seen[1])
	assert.True(t, tracker.allQuit(), "every session must be destroyed after its case")
}

func TestSkipMarksCaseSkipped(t *testing.T) {
	cfg := suiteConfig(t)
	sink := &memSink{}
	s := newTestSuite(t, cfg, sink, &sessionTracker{})

	results, err := s.Run(context.Background(), []Case{
		{Name: "TestSkipped", Run: func(tt *T) error {
			tt.Skip("feature flag off in this environment")
			return nil
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, results.Skipped)
	assert.Equal(t, report.StatusSkipped, sink.entry("TestSkipped").status)
	assert.Contains(t, sink.entry("TestSkipped").lines, "skipped: feature flag off in this environment")
}

func TestPanicInCaseBodyIsContained(t *testing.T) {
	cfg := suiteConfig(t)
	tracker := &sessionTracker{}
	s := newTestSuite(t, cfg, &memSink{}, tracker)

	results, err := s.Run(context.Background(), []Case{
		{Name: "TestBoom", Run: func(tt *T) error { panic("nil map write") }},
		{Name: "TestAfter", Run: func(tt *T) error { return nil }},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, results.Failed)
	assert.Equal(t, 1, results.Passed)
	var boom Outcome
	for _, o := range results.Outcomes {
		if o.Case.Name == "TestBoom" {
			boom = o
		}
	}
	require.Error(t, boom.Err)
	assert.Contains(t, boom.Err.Error(), "nil map write")
	assert.True(t, tracker.allQuit())
}

func TestScreenshotOnFailure(t *testing.T) {
	cfg := suiteConfig(t, `screenshot.on.failure: true`)
	sink := &memSink{}
	s := newTestSuite(t, cfg, sink, &sessionTracker{})

	results, err := s.Run(context.Background(), []Case{
		{Name: "TestShot", Run: func(tt *T) error { return errors.New("nope") }},
	})
	require.NoError(t, err)

	out := results.Outcomes[0]
	require.NotEmpty(t, out.Screenshot)
	assert.FileExists(t, out.Screenshot)
	assert.Contains(t, sink.entry("TestShot").artifacts, out.Screenshot)

	body, err := os.ReadFile(out.Screenshot)
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), body)
}

func TestNoScreenshotOnSuccessByDefault(t *testing.T) {
	cfg := suiteConfig(t, `screenshot.on.failure: true`)
	s := newTestSuite(t, cfg, &memSink{}, &sessionTracker{})

	results, err := s.Run(context.Background(), []Case{
		{Name: "TestOK", Run: func(tt *T) error { return nil }},
	})
	require.NoError(t, err)
	assert.Empty(t, results.Outcomes[0].Screenshot)
}

func TestHookOrderSingleWorker(t *testing.T) {
	cfg := suiteConfig(t)
	var mu sync.Mutex
	var events []string
	record := func(ev string) {
		mu.Lock()
		events = append(events, ev)
		mu.Unlock()
	}
	hooks := Hooks{
		SuiteStart:  func() { record("suite-start") },
		ClassStart:  func(g string) { record("class-start " + g) },
		MethodStart: func(c Case) { record("method-start " + c.Name) },
		MethodEnd:   func(o Outcome) { record("method-end " + o.Case.Name) },
		ClassEnd:    func(g string) { record("class-end " + g) },
		SuiteEnd:    func(r Results) { record("suite-end") },
	}
	s := newTestSuite(t, cfg, &memSink{}, &sessionTracker{}, WithHooks(hooks))

	_, err := s.Run(context.Background(), []Case{
		{Name: "TestL1", Group: "login", Run: func(tt *T) error { return nil }},
		{Name: "TestL2", Group: "login", Run: func(tt *T) error { return nil }},
		{Name: "TestH1", Group: "home", Run: func(tt *T) error { return nil }},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"suite-start",
		"class-start login",
		"method-start TestL1", "method-end TestL1",
		"method-start TestL2", "method-end TestL2",
		"class-end login",
		"class-start home",
		"method-start TestH1", "method-end TestH1",
		"class-end home",
		"suite-end",
	}, events)
}

func TestParallelWorkersRunDistinctSessions(t *testing.T) {
	cfg := suiteConfig(t, `parallel.tests: true`, `thread.count: 2`)
	tracker := &sessionTracker{}
	s := newTestSuite(t, cfg, &memSink{}, tracker)

	var mu sync.Mutex
	active := 0
	peak := 0
	run := func(tt *T) error {
		mu.Lock()
		active++
		if active > peak {
			peak = active
		}
		mu.Unlock()
		time.Sleep(50 * time.Millisecond)
		mu.Lock()
		active--
		mu.Unlock()
		return nil
	}
	results, err := s.Run(context.Background(), []Case{
		{Name: "TestG1", Group: "g1", Run: run},
		{Name: "TestG2", Group: "g2", Run: run},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, results.Passed)
	assert.Equal(t, 2, tracker.count())
	assert.Equal(t, 2, peak, "both groups should run concurrently")
	assert.True(t, tracker.allQuit())
}

func TestUnsupportedBrowserFailsFast(t *testing.T) {
	cfg := suiteConfig(t, `browser: "safari"`)
	s := newTestSuite(t, cfg, &memSink{}, &sessionTracker{})

	_, err := s.Run(context.Background(), []Case{
		{Name: "TestNever", Run: func(tt *T) error { return nil }},
	})
	require.Error(t, err)
	var ub *driver.UnsupportedBrowserError
	assert.ErrorAs(t, err, &ub)
}

func TestSessionFactoryErrorFailsCaseNotSuite(t *testing.T) {
	cfg := suiteConfig(t)
	broken := func(b driver.Browser, opts driver.Options) (*driver.Session, error) {
		return nil, errors.New("driver binary not found")
	}
	reg := driver.NewRegistry(driver.WithFactory(broken))
	sink := &memSink{}
	s := NewSuite(cfg, sink, WithRegistry(reg))

	results, err := s.Run(context.Background(), []Case{
		{Name: "TestNoDriver", Run: func(tt *T) error { return nil }},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, results.Failed)
	assert.Contains(t, sink.entry("TestNoDriver").err.Error(), "driver binary not found")
}
