package harness

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/wanmail/webtest/config"
	"github.com/wanmail/webtest/driver"
	"github.com/wanmail/webtest/logging"
	"github.com/wanmail/webtest/report"
	"github.com/wanmail/webtest/screenshot"
	"github.com/wanmail/webtest/wait"
)

// Hooks are optional callbacks fired at suite, group, and case boundaries.
// Nil fields are skipped. Hooks for the same group fire on the worker that
// runs the group; SuiteStart and SuiteEnd fire on the caller's goroutine.
type Hooks struct {
	SuiteStart  func()
	ClassStart  func(group string)
	MethodStart func(c Case)
	MethodEnd   func(o Outcome)
	ClassEnd    func(group string)
	SuiteEnd    func(r Results)
}

// Suite executes cases against browser sessions and reports outcomes.
type Suite struct {
	cfg   *config.Config
	sink  report.Sink
	reg   *driver.Registry
	hooks Hooks
	log   *slog.Logger

	browser driver.Browser
	opts    driver.Options
}

// SuiteOption configures a Suite.
type SuiteOption func(*Suite)

// WithRegistry replaces the session registry, letting tests inject a
// factory-backed one.
func WithRegistry(reg *driver.Registry) SuiteOption {
	return func(s *Suite) { s.reg = reg }
}

// WithHooks installs lifecycle callbacks.
func WithHooks(h Hooks) SuiteOption {
	return func(s *Suite) { s.hooks = h }
}

// NewSuite builds a suite over cfg, reporting into sink.
func NewSuite(cfg *config.Config, sink report.Sink, opts ...SuiteOption) *Suite {
	s := &Suite{
		cfg:  cfg,
		sink: sink,
		reg:  driver.NewRegistry(),
		log:  logging.New("harness"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes the cases and returns the aggregated results. Case failures
// never abort the run; the returned error reports infrastructure problems
// such as an unusable browser name or a failed report flush.
func (s *Suite) Run(ctx context.Context, cases []Case) (Results, error) {
	b, err := driver.ParseBrowser(s.cfg.Browser())
	if err != nil {
		return Results{}, err
	}
	s.browser = b
	s.opts = driver.OptionsFromConfig(s.cfg)

	workers := 1
	if s.cfg.ParallelTests() {
		if n := s.cfg.ThreadCount(); n > 1 {
			workers = n
		}
	}
	groups := groupCases(cases)
	s.log.Info("starting suite",
		"cases", len(cases), "groups", len(groups),
		"browser", s.browser, "workers", workers)

	if s.hooks.SuiteStart != nil {
		s.hooks.SuiteStart()
	}

	var (
		mu       sync.Mutex
		outcomes []Outcome
	)
	feed := make(chan groupBlock)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(feed)
		for _, blk := range groups {
			select {
			case feed <- blk:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})
	for i := 0; i < workers; i++ {
		worker := fmt.Sprintf("worker-%d", i)
		g.Go(func() error {
			slot := s.reg.Slot(worker)
			for blk := range feed {
				if s.hooks.ClassStart != nil {
					s.hooks.ClassStart(blk.name)
				}
				for _, c := range blk.cases {
					if err := ctx.Err(); err != nil {
						return err
					}
					out := s.runCase(slot, c)
					mu.Lock()
					outcomes = append(outcomes, out)
					mu.Unlock()
				}
				if s.hooks.ClassEnd != nil {
					s.hooks.ClassEnd(blk.name)
				}
			}
			return nil
		})
	}
	runErr := g.Wait()

	s.reg.Close()
	results := summarize(outcomes)
	if s.hooks.SuiteEnd != nil {
		s.hooks.SuiteEnd(results)
	}

	if err := s.sink.Flush(); err != nil {
		s.log.Error("flushing report sink", "error", err)
		if runErr == nil {
			runErr = err
		}
	}
	if _, err := screenshot.CleanupOlderThan(s.cfg.ScreenshotsPath(), s.cfg.ScreenshotRetention()); err != nil {
		s.log.Warn("pruning screenshots", "error", err)
	}

	s.log.Info("suite finished",
		"passed", results.Passed, "failed", results.Failed, "skipped", results.Skipped)
	return results, runErr
}

// runCase runs one case on the worker's slot: fresh session in, outcome
// out, session destroyed no matter how the body exits.
func (s *Suite) runCase(slot *driver.Slot, c Case) (out Outcome) {
	entry := s.sink.CreateTestEntry(c.Name, c.Description)
	if s.hooks.MethodStart != nil {
		s.hooks.MethodStart(c)
	}
	start := time.Now()
	out = Outcome{Case: c, Status: report.StatusPassed}
	defer func() {
		entry.Finish(out.Status, out.Elapsed, out.Err)
		if s.hooks.MethodEnd != nil {
			s.hooks.MethodEnd(out)
		}
	}()

	sess, err := s.createSession(slot)
	if err != nil {
		out.Status = report.StatusFailed
		out.Err = errors.Wrap(err, "creating session")
		out.Elapsed = time.Since(start)
		s.log.Error("session creation failed", "test", c.Name, "error", err)
		return out
	}
	defer slot.Destroy()

	s.runBody(c, sess, entry, &out)
	out.Elapsed = time.Since(start)

	capture := (out.Status == report.StatusFailed && s.cfg.ScreenshotOnFailure()) ||
		(out.Status == report.StatusPassed && s.cfg.ScreenshotOnSuccess())
	if capture {
		path, err := screenshot.CaptureToFile(sess.Driver(), s.cfg.ScreenshotsPath(), c.Name)
		if err != nil {
			s.log.Warn("screenshot capture failed", "test", c.Name, "error", err)
		} else {
			out.Screenshot = path
			entry.AttachArtifact(path, "screenshot")
		}
	}

	switch out.Status {
	case report.StatusFailed:
		s.log.Error("test failed", "test", c.Name, "elapsed", out.Elapsed, "error", out.Err)
	case report.StatusSkipped:
		s.log.Info("test skipped", "test", c.Name)
	default:
		s.log.Info("test passed", "test", c.Name, "elapsed", out.Elapsed)
	}
	return out
}

// runBody invokes the case body with panic containment. A Skip panic marks
// the case skipped; any other panic fails it without killing the worker.
func (s *Suite) runBody(c Case, sess *driver.Session, entry report.Entry, out *Outcome) {
	defer func() {
		if r := recover(); r != nil {
			if sk, ok := r.(skipPanic); ok {
				out.Status = report.StatusSkipped
				entry.Log(report.LevelInfo, "skipped: "+sk.reason)
				return
			}
			out.Status = report.StatusFailed
			out.Err = errors.Errorf("panic: %v", r)
		}
	}()
	t := &T{
		sess:  sess,
		sync:  wait.NewEngine(sess.Driver(), s.cfg),
		cfg:   s.cfg,
		entry: entry,
		log:   s.log,
	}
	if err := c.Run(t); err != nil {
		out.Status = report.StatusFailed
		out.Err = err
		entry.Log(report.LevelError, err.Error())
	}
}

func (s *Suite) createSession(slot *driver.Slot) (*driver.Session, error) {
	if hub := s.cfg.HubURL(); hub != "" {
		return slot.CreateRemote(s.browser, s.opts, hub)
	}
	return slot.Create(s.browser, s.opts)
}

type groupBlock struct {
	name  string
	cases []Case
}

// groupCases buckets cases by Group, keeping first-seen group order and
// case order within each group.
func groupCases(cases []Case) []groupBlock {
	index := map[string]int{}
	var blocks []groupBlock
	for _, c := range cases {
		name := c.Group
		if name == "" {
			name = "default"
		}
		i, ok := index[name]
		if !ok {
			i = len(blocks)
			index[name] = i
			blocks = append(blocks, groupBlock{name: name})
		}
		blocks[i].cases = append(blocks[i].cases, c)
	}
	return blocks
}

func summarize(outcomes []Outcome) Results {
	r := Results{Outcomes: outcomes}
	for _, o := range outcomes {
		switch o.Status {
		case report.StatusPassed:
			r.Passed++
		case report.StatusSkipped:
			r.Skipped++
		default:
			r.Failed++
		}
	}
	return r
}
