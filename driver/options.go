package driver

import (
	"time"

	"github.com/tebeka/selenium"
	"github.com/tebeka/selenium/chrome"
	"github.com/tebeka/selenium/firefox"

	"github.com/wanmail/webtest/config"
)

// Timeouts are the three driver-side deadlines applied to every new session.
type Timeouts struct {
	Implicit time.Duration
	PageLoad time.Duration
	Script   time.Duration
}

// Options configures session creation. Hardening flags are not here: they
// encode fixed safe defaults for CI and are applied unconditionally.
type Options struct {
	Headless bool
	Maximize bool
	Timeouts Timeouts

	// ServicePath is the local driver binary (chromedriver, geckodriver,
	// msedgedriver). When empty, DriverURL names an already-running driver
	// endpoint instead.
	ServicePath string
	ServicePort int
	DriverURL   string
}

// OptionsFromConfig builds Options from an environment profile.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Headless: cfg.Headless(),
		Maximize: cfg.WindowMaximize(),
		Timeouts: Timeouts{
			Implicit: cfg.ImplicitWait(),
			PageLoad: cfg.PageLoadTimeout(),
			Script:   cfg.ScriptTimeout(),
		},
		ServicePath: cfg.GetOr("driver.path", ""),
		ServicePort: cfg.IntOr("driver.port", 9515),
		DriverURL:   cfg.GetOr("driver.url", ""),
	}
}

// Fixed hardening flags per browser, matching what CI containers need:
// sandboxing off under the container user, GPU off, no notification or
// popup prompts that would hang a headless run.
var (
	chromeArgs = []string{
		"--no-sandbox",
		"--disable-dev-shm-usage",
		"--disable-gpu",
		"--disable-extensions",
		"--disable-infobars",
		"--disable-notifications",
		"--disable-popup-blocking",
		"--disable-translate",
		"--disable-background-timer-throttling",
		"--disable-backgrounding-occluded-windows",
		"--disable-renderer-backgrounding",
	}
	chromePrefs = map[string]interface{}{
		"profile.default_content_setting_values.notifications": 2,
		"profile.default_content_settings.popups":              0,
	}
	firefoxArgs  = []string{"--no-sandbox", "--disable-dev-shm-usage"}
	firefoxPrefs = map[string]interface{}{
		"dom.webnotifications.enabled": false,
		"media.volume_scale":           "0.0",
	}
	edgeArgs = []string{
		"--no-sandbox",
		"--disable-dev-shm-usage",
		"--disable-gpu",
		"--disable-extensions",
		"--disable-infobars",
		"--disable-notifications",
	}
)

// edgeOptionsKey is where msedgedriver expects Chromium-style options.
const edgeOptionsKey = "ms:edgeOptions"

// capabilitiesFor assembles the desired capabilities for a browser kind.
func capabilitiesFor(b Browser, opts Options) selenium.Capabilities {
	caps := selenium.Capabilities{}

	switch b {
	case Chrome:
		caps["browserName"] = "chrome"
		args := append([]string{}, chromeArgs...)
		if opts.Headless {
			args = append(args, "--headless")
		}
		caps.AddChrome(chrome.Capabilities{
			Args:  args,
			Prefs: chromePrefs,
			W3C:   true,
		})
	case Firefox:
		caps["browserName"] = "firefox"
		args := append([]string{}, firefoxArgs...)
		if opts.Headless {
			args = append(args, "--headless")
		}
		caps.AddFirefox(firefox.Capabilities{
			Args:  args,
			Prefs: firefoxPrefs,
		})
	case Edge:
		caps["browserName"] = "MicrosoftEdge"
		args := append([]string{}, edgeArgs...)
		if opts.Headless {
			args = append(args, "--headless")
		}
		caps[edgeOptionsKey] = map[string]interface{}{"args": args}
	}

	return caps
}
