// Package driver owns browser session lifecycle: enumerated browser
// dispatch, capability assembly with fixed CI-safe hardening flags, local
// driver services, remote hub sessions, and a worker-keyed registry that
// makes cross-worker session access structurally impossible.
package driver

import (
	"fmt"
	"strings"
)

// Browser enumerates the supported browser back-ends. The set is closed on
// purpose: three back-ends cover every deployment, so dispatch is an explicit
// switch rather than open-ended plugin loading.
type Browser string

const (
	Chrome  Browser = "chrome"
	Firefox Browser = "firefox"
	Edge    Browser = "edge"
)

// ParseBrowser maps a configured browser name to a Browser. Unknown names
// yield an *UnsupportedBrowserError rather than a silent fallback.
func ParseBrowser(name string) (Browser, error) {
	switch Browser(strings.ToLower(strings.TrimSpace(name))) {
	case Chrome:
		return Chrome, nil
	case Firefox:
		return Firefox, nil
	case Edge:
		return Edge, nil
	default:
		return "", &UnsupportedBrowserError{Name: name}
	}
}

func (b Browser) String() string { return string(b) }

// UnsupportedBrowserError reports a browser kind outside the supported set.
type UnsupportedBrowserError struct {
	Name string
}

func (e *UnsupportedBrowserError) Error() string {
	return fmt.Sprintf("unsupported browser %q (supported: chrome, firefox, edge)", e.Name)
}

// HubAddressError reports a remote hub URL that could not be parsed.
type HubAddressError struct {
	URL    string
	Reason string
}

func (e *HubAddressError) Error() string {
	return fmt.Sprintf("invalid hub address %q: %s", e.URL, e.Reason)
}

// HubUnreachableError reports a hub that never accepted a session within the
// connect deadline.
type HubUnreachableError struct {
	URL     string
	LastErr error
}

func (e *HubUnreachableError) Error() string {
	return fmt.Sprintf("hub %s did not accept a session: %v", e.URL, e.LastErr)
}

func (e *HubUnreachableError) Unwrap() error { return e.LastErr }
