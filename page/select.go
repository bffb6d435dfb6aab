package page

import (
	"fmt"
	"strings"

	"github.com/tebeka/selenium"
)

// Dropdown helpers. Option matching runs through XPath against the select
// element, the same way the WebDriver support classes do it; an option is
// clicked only when not already selected.

// SelectByText selects the option whose visible text equals text.
func (p *Page) SelectByText(by, value, text string) error {
	el, err := p.sync.VisibleElement(by, value)
	if err != nil {
		return err
	}
	opts, err := el.FindElements(selenium.ByXPATH,
		`.//option[normalize-space(.) = "`+escapeQuotes(text)+`"]`)
	if err != nil {
		return err
	}
	if len(opts) == 0 {
		return fmt.Errorf("cannot locate option with text %q", text)
	}
	return selectOption(opts[0])
}

// SelectByValue selects the option whose value attribute equals v.
func (p *Page) SelectByValue(by, value, v string) error {
	el, err := p.sync.VisibleElement(by, value)
	if err != nil {
		return err
	}
	opts, err := el.FindElements(selenium.ByXPATH,
		`.//option[@value = "`+escapeQuotes(v)+`"]`)
	if err != nil {
		return err
	}
	if len(opts) == 0 {
		return fmt.Errorf("cannot locate option with value %q", v)
	}
	return selectOption(opts[0])
}

// SelectByIndex selects the option at the given position.
func (p *Page) SelectByIndex(by, value string, index int) error {
	el, err := p.sync.VisibleElement(by, value)
	if err != nil {
		return err
	}
	opts, err := el.FindElements(selenium.ByTagName, "option")
	if err != nil {
		return err
	}
	if index < 0 || index >= len(opts) {
		return fmt.Errorf("option index %d out of range (%d options)", index, len(opts))
	}
	return selectOption(opts[index])
}

func selectOption(opt selenium.WebElement) error {
	selected, err := opt.IsSelected()
	if err == nil && selected {
		return nil
	}
	return opt.Click()
}

func escapeQuotes(s string) string {
	return strings.ReplaceAll(s, `"`, `\"`)
}
