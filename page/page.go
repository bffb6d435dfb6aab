// Package page implements the page-object layer. A Page is built by
// composition: it holds the owning session's driver and a synchronization
// engine, and every interaction resolves its target through the engine
// before acting. Navigation methods on concrete pages return a new page
// value for the destination screen; nothing mutates a shared "current page".
package page

import (
	"fmt"
	"log/slog"

	"github.com/tebeka/selenium"

	"github.com/wanmail/webtest/config"
	"github.com/wanmail/webtest/logging"
	"github.com/wanmail/webtest/wait"
)

// Page bundles the capabilities every page object needs: a session-bound
// driver and a synchronization engine. Concrete pages embed it.
type Page struct {
	wd   selenium.WebDriver
	sync *wait.Engine
	cfg  *config.Config
	log  *slog.Logger
}

// New builds a Page bound to the given driver, with wait defaults from cfg.
func New(wd selenium.WebDriver, cfg *config.Config) Page {
	return Page{
		wd:   wd,
		sync: wait.NewEngine(wd, cfg),
		cfg:  cfg,
		log:  logging.New("page"),
	}
}

// Driver exposes the owning session's driver.
func (p *Page) Driver() selenium.WebDriver { return p.wd }

// Sync exposes the synchronization engine for custom waits.
func (p *Page) Sync() *wait.Engine { return p.sync }

// Open navigates to the URL and waits for the document to finish loading.
func (p *Page) Open(url string) error {
	if err := p.wd.Get(url); err != nil {
		return err
	}
	return p.WaitForLoad()
}

// WaitForLoad blocks until document.readyState reports complete.
func (p *Page) WaitForLoad() error {
	return p.sync.Until(wait.PageLoadComplete())
}

// Title returns the current page title.
func (p *Page) Title() (string, error) { return p.wd.Title() }

// Click waits for the element to be clickable, then clicks it.
func (p *Page) Click(by, value string) error {
	el, err := p.sync.ClickableElement(by, value)
	if err != nil {
		return err
	}
	p.log.Debug("click", "by", by, "value", value)
	return el.Click()
}

// ClickJS waits for visibility and clicks through the script engine, for
// targets that intercept native clicks.
func (p *Page) ClickJS(by, value string) error {
	el, err := p.sync.VisibleElement(by, value)
	if err != nil {
		return err
	}
	_, err = p.wd.ExecuteScript("arguments[0].click();", []interface{}{el})
	return err
}

// Type waits for visibility, clears the field, and types text into it.
func (p *Page) Type(by, value, text string) error {
	el, err := p.sync.VisibleElement(by, value)
	if err != nil {
		return err
	}
	if err := el.Clear(); err != nil {
		return err
	}
	p.log.Debug("type", "by", by, "value", value)
	return el.SendKeys(text)
}

// Text waits for visibility and returns the element's text.
func (p *Page) Text(by, value string) (string, error) {
	el, err := p.sync.VisibleElement(by, value)
	if err != nil {
		return "", err
	}
	return el.Text()
}

// Value waits for visibility and returns the element's value attribute.
func (p *Page) Value(by, value string) (string, error) {
	return p.Attribute(by, value, "value")
}

// Attribute waits for visibility and returns the named attribute.
func (p *Page) Attribute(by, value, name string) (string, error) {
	el, err := p.sync.VisibleElement(by, value)
	if err != nil {
		return "", err
	}
	return el.GetAttribute(name)
}

// IsDisplayed reports whether the element currently exists and is shown.
// Unlike the interaction methods it does not wait: it answers "now".
func (p *Page) IsDisplayed(by, value string) bool {
	el, err := p.wd.FindElement(by, value)
	if err != nil {
		return false
	}
	shown, err := el.IsDisplayed()
	return err == nil && shown
}

// IsEnabled reports whether the element currently exists and is enabled.
func (p *Page) IsEnabled(by, value string) bool {
	el, err := p.wd.FindElement(by, value)
	if err != nil {
		return false
	}
	enabled, err := el.IsEnabled()
	return err == nil && enabled
}

// ScrollTo scrolls the element into view.
func (p *Page) ScrollTo(by, value string) error {
	el, err := p.sync.PresentElement(by, value)
	if err != nil {
		return err
	}
	_, err = p.wd.ExecuteScript("arguments[0].scrollIntoView({block: 'center'});", []interface{}{el})
	return err
}

// ExecuteScript runs a script in the page context.
func (p *Page) ExecuteScript(script string, args []interface{}) (interface{}, error) {
	return p.wd.ExecuteScript(script, args)
}

// baseURL joins the configured application address with a path.
func (p *Page) baseURL(path string) string {
	return fmt.Sprintf("%s%s", p.cfg.BaseURL(), path)
}
