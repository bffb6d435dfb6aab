package driver

import (
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/tebeka/selenium"

	"github.com/wanmail/webtest/logging"
)

// hubConnectDeadline bounds how long NewRemote keeps retrying a hub that is
// not accepting sessions yet.
const (
	hubConnectDeadline = 30 * time.Second
	hubConnectInterval = 2 * time.Second
)

// Session is one live browser-automation handle. It is owned by exactly one
// worker; the registry enforces that ownership.
type Session struct {
	wd      selenium.WebDriver
	service *selenium.Service
	browser Browser
	log     *slog.Logger

	mu     sync.Mutex
	closed bool
}

// Driver exposes the underlying WebDriver connection.
func (s *Session) Driver() selenium.WebDriver { return s.wd }

// Browser reports which back-end this session runs.
func (s *Session) Browser() Browser { return s.browser }

// Quit releases the browser and, for locally-spawned drivers, stops the
// driver service. It is idempotent and safe under concurrent callers; driver
// errors during teardown are logged and swallowed so one worker's cleanup
// never blocks the suite's.
func (s *Session) Quit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		s.log.Debug("session already destroyed", "browser", s.browser)
		return
	}
	s.closed = true

	if err := s.wd.Quit(); err != nil {
		s.log.Warn("error quitting browser", "browser", s.browser, "err", err)
	}
	if s.service != nil {
		if err := s.service.Stop(); err != nil {
			s.log.Warn("error stopping driver service", "browser", s.browser, "err", err)
		}
		s.service = nil
	}
	s.log.Info("session destroyed", "browser", s.browser)
}

// Closed reports whether Quit has run.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// WrapDriver builds a Session around an existing WebDriver connection. Used
// when the caller manages the driver process itself, and by tests.
func WrapDriver(wd selenium.WebDriver, b Browser) *Session {
	return &Session{wd: wd, browser: b, log: logging.New("driver")}
}

// New creates a local session: it starts the matching driver service when
// opts.ServicePath is set, connects, and applies timeouts and window state.
// Creation failures are fatal to the calling test; nothing retries here.
func New(b Browser, opts Options) (*Session, error) {
	log := logging.New("driver")
	log.Info("creating session", "browser", b, "headless", opts.Headless)

	caps := capabilitiesFor(b, opts)

	var service *selenium.Service
	addr := opts.DriverURL
	if opts.ServicePath != "" {
		var err error
		service, addr, err = startService(b, opts.ServicePath, opts.ServicePort)
		if err != nil {
			return nil, errors.Wrapf(err, "starting %s driver service", b)
		}
	}
	if addr == "" {
		addr = fmt.Sprintf("http://localhost:%d/wd/hub", opts.ServicePort)
	}

	wd, err := selenium.NewRemote(caps, addr)
	if err != nil {
		if service != nil {
			_ = service.Stop()
		}
		return nil, errors.Wrapf(err, "creating %s session at %s", b, addr)
	}

	s := &Session{wd: wd, service: service, browser: b, log: log}
	if err := s.configure(opts); err != nil {
		s.Quit()
		return nil, err
	}
	return s, nil
}

// NewRemote creates a session against an already-running remote browser
// pool. The hub URL must parse as an absolute http(s) URL; connection
// attempts are bounded by a fixed deadline.
func NewRemote(b Browser, opts Options, hubURL string) (*Session, error) {
	log := logging.New("driver")

	u, err := url.Parse(hubURL)
	if err != nil {
		return nil, &HubAddressError{URL: hubURL, Reason: err.Error()}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, &HubAddressError{URL: hubURL, Reason: "scheme must be http or https"}
	}
	if u.Host == "" {
		return nil, &HubAddressError{URL: hubURL, Reason: "missing host"}
	}

	log.Info("creating remote session", "browser", b, "hub", hubURL, "headless", opts.Headless)
	caps := capabilitiesFor(b, opts)

	deadline := time.Now().Add(hubConnectDeadline)
	var wd selenium.WebDriver
	var lastErr error
	for {
		wd, lastErr = selenium.NewRemote(caps, hubURL)
		if lastErr == nil {
			break
		}
		if time.Now().After(deadline) {
			return nil, &HubUnreachableError{URL: hubURL, LastErr: lastErr}
		}
		time.Sleep(hubConnectInterval)
	}

	s := &Session{wd: wd, browser: b, log: log}
	if err := s.configure(opts); err != nil {
		s.Quit()
		return nil, err
	}
	return s, nil
}

// configure applies the three session timeouts and the window state. These
// come from configuration and are independently settable.
func (s *Session) configure(opts Options) error {
	if err := s.wd.SetImplicitWaitTimeout(opts.Timeouts.Implicit); err != nil {
		return errors.Wrap(err, "setting implicit wait")
	}
	if err := s.wd.SetPageLoadTimeout(opts.Timeouts.PageLoad); err != nil {
		return errors.Wrap(err, "setting page load timeout")
	}
	if err := s.wd.SetAsyncScriptTimeout(opts.Timeouts.Script); err != nil {
		return errors.Wrap(err, "setting script timeout")
	}
	if opts.Maximize {
		if err := s.wd.MaximizeWindow(""); err != nil {
			// Headless windows cannot always maximize; not fatal.
			s.log.Debug("maximize window failed", "err", err)
		}
	}
	return nil
}
