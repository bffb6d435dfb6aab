package driver

import (
	"fmt"

	"github.com/tebeka/selenium"
)

// startService launches the local driver binary for the browser kind and
// returns the service handle plus the address to dial. ChromeDriver and
// msedgedriver share the Chromium driver flag set (including --url-base);
// geckodriver serves at the root path.
func startService(b Browser, path string, port int) (*selenium.Service, string, error) {
	switch b {
	case Chrome, Edge:
		svc, err := selenium.NewChromeDriverService(path, port)
		if err != nil {
			return nil, "", err
		}
		return svc, fmt.Sprintf("http://localhost:%d/wd/hub", port), nil
	case Firefox:
		svc, err := selenium.NewGeckoDriverService(path, port)
		if err != nil {
			return nil, "", err
		}
		return svc, fmt.Sprintf("http://localhost:%d", port), nil
	default:
		return nil, "", &UnsupportedBrowserError{Name: b.String()}
	}
}
