// Package wait implements the synchronization primitive the harness is built
// on: a bounded polling loop that evaluates a condition against live browser
// state until it holds or a deadline elapses.
//
// There is exactly one mechanism here. Every specialized wait (visibility,
// clickability, page readiness, ...) is a Condition built in conditions.go and
// fed through Engine.Until. The underlying WebDriver protocol only answers
// synchronous queries, so polling with a fixed interval is the whole story:
// it bounds both the query rate and the worst-case detection latency.
package wait

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/tebeka/selenium"

	"github.com/wanmail/webtest/config"
	"github.com/wanmail/webtest/logging"
)

// Condition is a named predicate over current browser state. Eval returning
// a transient lookup error (element not found yet, stale reference) counts as
// "not yet satisfied" and the engine keeps polling; any other error aborts
// the wait immediately.
type Condition struct {
	Desc string
	Eval func(wd selenium.WebDriver) (bool, error)
}

// TimeoutError reports a wait that expired before its condition held. LastErr
// carries the most recent transient evaluation failure, when there was one.
type TimeoutError struct {
	Desc    string
	Timeout time.Duration
	LastErr error
}

func (e *TimeoutError) Error() string {
	if e.LastErr != nil {
		return fmt.Sprintf("timed out after %s waiting for %s (last state: %v)", e.Timeout, e.Desc, e.LastErr)
	}
	return fmt.Sprintf("timed out after %s waiting for %s", e.Timeout, e.Desc)
}

// IsTimeout reports whether err is, or wraps, a wait timeout.
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}

// Engine drives waits for one browser session. Default deadline and polling
// interval come from configuration; individual calls may override them.
type Engine struct {
	wd       selenium.WebDriver
	timeout  time.Duration
	interval time.Duration
	log      *slog.Logger
}

// NewEngine builds an engine bound to wd with defaults from cfg.
func NewEngine(wd selenium.WebDriver, cfg *config.Config) *Engine {
	return &Engine{
		wd:       wd,
		timeout:  cfg.ExplicitWaitTimeout(),
		interval: cfg.FluentWaitPolling(),
		log:      logging.New("wait"),
	}
}

// NewEngineWith builds an engine with explicit defaults, for callers without
// a configuration in hand.
func NewEngineWith(wd selenium.WebDriver, timeout, interval time.Duration) *Engine {
	return &Engine{wd: wd, timeout: timeout, interval: interval, log: logging.New("wait")}
}

// Driver exposes the session the engine polls against.
func (e *Engine) Driver() selenium.WebDriver { return e.wd }

// Until polls cond with the engine's default timeout and interval.
func (e *Engine) Until(cond Condition) error {
	return e.UntilWithin(cond, e.timeout, e.interval)
}

// UntilWithin polls cond every interval until it holds or timeout elapses.
// The first evaluation happens immediately; expiry is detected on the first
// evaluation at or past the deadline, so a failed wait returns between
// timeout and timeout+interval after the call.
func (e *Engine) UntilWithin(cond Condition, timeout, interval time.Duration) error {
	if timeout <= 0 || interval <= 0 {
		return errors.Errorf("wait for %s: timeout and interval must be positive (got %s, %s)", cond.Desc, timeout, interval)
	}

	start := time.Now()
	var lastErr error
	for {
		ok, err := cond.Eval(e.wd)
		if err != nil {
			if !isTransient(err) {
				return errors.Wrapf(err, "waiting for %s", cond.Desc)
			}
			lastErr = err
		}
		if ok {
			return nil
		}
		if time.Since(start) >= timeout {
			e.log.Debug("wait expired", "condition", cond.Desc, "timeout", timeout)
			return &TimeoutError{Desc: cond.Desc, Timeout: timeout, LastErr: lastErr}
		}
		time.Sleep(interval)
	}
}

// VisibleElement waits for the element to be displayed and returns it.
func (e *Engine) VisibleElement(by, value string) (selenium.WebElement, error) {
	if err := e.Until(ElementVisible(by, value)); err != nil {
		return nil, err
	}
	return e.wd.FindElement(by, value)
}

// ClickableElement waits for the element to be displayed and enabled and
// returns it.
func (e *Engine) ClickableElement(by, value string) (selenium.WebElement, error) {
	if err := e.Until(ElementClickable(by, value)); err != nil {
		return nil, err
	}
	return e.wd.FindElement(by, value)
}

// PresentElement waits for the element to exist in the DOM and returns it.
func (e *Engine) PresentElement(by, value string) (selenium.WebElement, error) {
	if err := e.Until(ElementPresent(by, value)); err != nil {
		return nil, err
	}
	return e.wd.FindElement(by, value)
}

// Transient driver errors, in the wire protocol's message vocabulary. These
// mean "not yet", not "broken".
var transientMessages = []string{
	"no such element",
	"stale element reference",
	"element not visible",
	"element is not selectable",
}

func isTransient(err error) bool {
	msg := err.Error()
	for _, t := range transientMessages {
		if strings.Contains(msg, t) {
			return true
		}
	}
	return false
}
