// Package config loads environment-scoped settings for the harness.
//
// Settings live in YAML profiles under <dir>/environments/<env>.yaml using
// flat dotted keys (nested mappings are flattened with dot separators). A
// Config is immutable once loaded; components receive it explicitly rather
// than through a hidden global, though Active offers a once-guarded
// process-wide instance for callers that want the classic singleton.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/wanmail/webtest/logging"
)

// EnvVar selects the active environment name when Load is called with an
// empty name.
const EnvVar = "WEBTEST_ENV"

// DefaultEnvironment is used when neither the caller nor EnvVar names one.
const DefaultEnvironment = "dev"

// Config is an immutable key/value view of one environment profile.
type Config struct {
	env    string
	values map[string]string
	log    *slog.Logger
}

type loader struct {
	dir       string
	overrides map[string]string
}

// Option adjusts how Load locates the profile.
type Option func(*loader)

// WithDir sets the configuration root directory. The default is "config",
// relative to the working directory.
func WithDir(dir string) Option {
	return func(l *loader) { l.dir = dir }
}

// WithOverrides layers key/value pairs on top of the loaded profile. Used
// by the command line to let flags win over the YAML file.
func WithOverrides(values map[string]string) Option {
	return func(l *loader) {
		if l.overrides == nil {
			l.overrides = make(map[string]string, len(values))
		}
		for k, v := range values {
			l.overrides[k] = v
		}
	}
}

// Load reads the profile for the named environment. An empty name falls back
// to the WEBTEST_ENV environment variable and then to "dev". A missing
// profile yields a *NotFoundError.
func Load(env string, opts ...Option) (*Config, error) {
	l := &loader{dir: "config"}
	for _, opt := range opts {
		opt(l)
	}
	if env == "" {
		env = os.Getenv(EnvVar)
	}
	if env == "" {
		env = DefaultEnvironment
	}

	path := filepath.Join(l.dir, "environments", env+".yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &NotFoundError{Env: env, Path: path}
		}
		return nil, errors.Wrapf(err, "reading configuration %s", path)
	}

	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrapf(err, "parsing configuration %s", path)
	}

	cfg := &Config{
		env:    env,
		values: make(map[string]string, len(raw)),
		log:    logging.New("config"),
	}
	flatten("", raw, cfg.values)
	for k, v := range l.overrides {
		cfg.values[k] = v
	}
	cfg.log.Info("configuration loaded", "environment", env, "keys", len(cfg.values))
	return cfg, nil
}

var (
	activeOnce sync.Once
	active     *Config
	activeErr  error
)

// Active returns the process-wide configuration, loading it on first use for
// the environment selected by WEBTEST_ENV. The environment never changes for
// the life of the process.
func Active(opts ...Option) (*Config, error) {
	activeOnce.Do(func() {
		active, activeErr = Load("", opts...)
	})
	return active, activeErr
}

func flatten(prefix string, in map[string]interface{}, out map[string]string) {
	for k, v := range in {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if m, ok := v.(map[string]interface{}); ok {
			flatten(key, m, out)
			continue
		}
		out[key] = fmt.Sprint(v)
	}
}

// Environment returns the profile name this configuration was loaded for.
func (c *Config) Environment() string { return c.env }

// Get returns the raw string value for key.
func (c *Config) Get(key string) (string, bool) {
	v, ok := c.values[key]
	return v, ok
}

// GetOr returns the value for key, or def when the key is absent.
func (c *Config) GetOr(key, def string) string {
	if v, ok := c.values[key]; ok {
		return v
	}
	return def
}

// Int returns the value for key parsed as an integer. A missing key yields
// ErrMissingKey; an unparseable value yields a *TypeError.
func (c *Config) Int(key string) (int, error) {
	v, ok := c.values[key]
	if !ok {
		return 0, errors.Wrapf(ErrMissingKey, "key %q", key)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, &TypeError{Key: key, Value: v, Want: "int"}
	}
	return n, nil
}

// Bool returns the value for key parsed as a boolean. Error semantics match
// Int.
func (c *Config) Bool(key string) (bool, error) {
	v, ok := c.values[key]
	if !ok {
		return false, errors.Wrapf(ErrMissingKey, "key %q", key)
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, &TypeError{Key: key, Value: v, Want: "bool"}
	}
	return b, nil
}

// IntOr returns the integer value for key, falling back to def when the key
// is absent or its value cannot be parsed. Malformed values are logged, not
// raised.
func (c *Config) IntOr(key string, def int) int {
	n, err := c.Int(key)
	if err != nil {
		if errors.Is(err, ErrMissingKey) {
			c.log.Debug("using default value", "key", key, "default", def)
		} else {
			c.log.Warn("using default for malformed value", "key", key, "default", def, "err", err)
		}
		return def
	}
	return n
}

// BoolOr is the boolean counterpart of IntOr.
func (c *Config) BoolOr(key string, def bool) bool {
	b, err := c.Bool(key)
	if err != nil {
		if errors.Is(err, ErrMissingKey) {
			c.log.Debug("using default value", "key", key, "default", def)
		} else {
			c.log.Warn("using default for malformed value", "key", key, "default", def, "err", err)
		}
		return def
	}
	return b
}

func (c *Config) secondsOr(key string, def int) time.Duration {
	return time.Duration(c.IntOr(key, def)) * time.Second
}

// BaseURL returns the address of the application under test.
func (c *Config) BaseURL() string { return c.GetOr("base.url", "") }

// Browser returns the configured browser kind name.
func (c *Config) Browser() string { return c.GetOr("browser", "chrome") }

// Headless reports whether browsers run without a display.
func (c *Config) Headless() bool { return c.BoolOr("headless", false) }

// ImplicitWait is the driver-side element lookup timeout.
func (c *Config) ImplicitWait() time.Duration { return c.secondsOr("browser.implicit.wait", 10) }

// PageLoadTimeout bounds full page navigation.
func (c *Config) PageLoadTimeout() time.Duration { return c.secondsOr("browser.page.load.timeout", 30) }

// ScriptTimeout bounds asynchronous script execution.
func (c *Config) ScriptTimeout() time.Duration { return c.secondsOr("browser.script.timeout", 30) }

// ExplicitWaitTimeout is the default deadline for synchronization waits.
func (c *Config) ExplicitWaitTimeout() time.Duration { return c.secondsOr("explicit.wait.timeout", 15) }

// FluentWaitTimeout is the deadline for caller-supplied custom conditions.
func (c *Config) FluentWaitTimeout() time.Duration { return c.secondsOr("fluent.wait.timeout", 20) }

// FluentWaitPolling is the default polling interval for waits.
func (c *Config) FluentWaitPolling() time.Duration { return c.secondsOr("fluent.wait.polling", 2) }

// WindowMaximize reports whether new sessions maximize their window.
func (c *Config) WindowMaximize() bool { return c.BoolOr("browser.window.maximize", true) }

// ScreenshotOnFailure reports whether failed tests attach a screenshot.
func (c *Config) ScreenshotOnFailure() bool { return c.BoolOr("screenshot.on.failure", true) }

// ScreenshotOnSuccess reports whether passing tests attach a screenshot.
func (c *Config) ScreenshotOnSuccess() bool { return c.BoolOr("screenshot.on.success", false) }

// ScreenshotRetention is how long captured screenshots are kept.
func (c *Config) ScreenshotRetention() time.Duration {
	return time.Duration(c.IntOr("screenshot.cleanup.days", 7)) * 24 * time.Hour
}

// ReportsPath is the directory reports are written under.
func (c *Config) ReportsPath() string { return c.GetOr("reports.path", "target/reports") }

// ScreenshotsPath is the directory screenshots are written under.
func (c *Config) ScreenshotsPath() string { return c.GetOr("screenshots.path", "target/screenshots") }

// ParallelTests reports whether the runner uses more than one worker.
func (c *Config) ParallelTests() bool { return c.BoolOr("parallel.tests", false) }

// ThreadCount is the number of parallel workers when ParallelTests is set.
func (c *Config) ThreadCount() int { return c.IntOr("thread.count", 1) }

// HubURL is the remote WebDriver hub address, empty when running locally.
func (c *Config) HubURL() string { return c.GetOr("grid.hub.url", "") }
