package driver

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tebeka/selenium/chrome"
	"github.com/tebeka/selenium/firefox"

	"github.com/wanmail/webtest/config"
)

func TestOptionsFromConfig(t *testing.T) {
	dir := t.TempDir()
	envDir := filepath.Join(dir, "environments")
	require.NoError(t, os.MkdirAll(envDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(envDir, "dev.yaml"), []byte(`
browser: chrome
headless: true
browser.implicit.wait: 10
browser.page.load.timeout: 30
browser.script.timeout: 30
browser.window.maximize: true
driver.port: 9515
`), 0o644))

	cfg, err := config.Load("dev", config.WithDir(dir))
	require.NoError(t, err)

	opts := OptionsFromConfig(cfg)
	assert.True(t, opts.Headless)
	assert.True(t, opts.Maximize)
	assert.Equal(t, 10*time.Second, opts.Timeouts.Implicit)
	assert.Equal(t, 30*time.Second, opts.Timeouts.PageLoad)
	assert.Equal(t, 30*time.Second, opts.Timeouts.Script)
	assert.Equal(t, 9515, opts.ServicePort)
}

func TestChromeCapabilitiesCarryHardeningFlags(t *testing.T) {
	caps := capabilitiesFor(Chrome, Options{Headless: true})
	assert.Equal(t, "chrome", caps["browserName"])

	cc, ok := caps[chrome.CapabilitiesKey].(chrome.Capabilities)
	require.True(t, ok)
	assert.Contains(t, cc.Args, "--no-sandbox")
	assert.Contains(t, cc.Args, "--disable-gpu")
	assert.Contains(t, cc.Args, "--disable-notifications")
	assert.Contains(t, cc.Args, "--headless")
	assert.Equal(t, 2, cc.Prefs["profile.default_content_setting_values.notifications"])
}

func TestChromeHeadlessFlagIsConditional(t *testing.T) {
	caps := capabilitiesFor(Chrome, Options{Headless: false})
	cc := caps[chrome.CapabilitiesKey].(chrome.Capabilities)
	assert.NotContains(t, cc.Args, "--headless")
}

func TestFirefoxCapabilities(t *testing.T) {
	caps := capabilitiesFor(Firefox, Options{Headless: true})
	assert.Equal(t, "firefox", caps["browserName"])

	fc, ok := caps[firefox.CapabilitiesKey].(firefox.Capabilities)
	require.True(t, ok)
	assert.Contains(t, fc.Args, "--no-sandbox")
	assert.Contains(t, fc.Args, "--headless")
	assert.Equal(t, false, fc.Prefs["dom.webnotifications.enabled"])
}

func TestEdgeCapabilities(t *testing.T) {
	caps := capabilitiesFor(Edge, Options{Headless: true})
	assert.Equal(t, "MicrosoftEdge", caps["browserName"])

	eo, ok := caps[edgeOptionsKey].(map[string]interface{})
	require.True(t, ok)
	args, ok := eo["args"].([]string)
	require.True(t, ok)
	assert.Contains(t, args, "--no-sandbox")
	assert.Contains(t, args, "--headless")
}

func TestCapabilityArgsAreNotShared(t *testing.T) {
	// Building headless capabilities must not append into the shared
	// hardening slice.
	before := len(chromeArgs)
	_ = capabilitiesFor(Chrome, Options{Headless: true})
	_ = capabilitiesFor(Chrome, Options{Headless: true})
	assert.Len(t, chromeArgs, before)
	assert.NotContains(t, chromeArgs, "--headless")
}
