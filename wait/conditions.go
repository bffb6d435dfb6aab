package wait

import (
	"fmt"
	"strings"

	"github.com/tebeka/selenium"
)

// The closed vocabulary of wait conditions. Each is a thin predicate over
// element or document state; composition beyond this set happens by writing
// a Condition literal at the call site.

// ElementPresent holds once the element exists in the DOM, visible or not.
func ElementPresent(by, value string) Condition {
	return Condition{
		Desc: fmt.Sprintf("element {%s: %s} present", by, value),
		Eval: func(wd selenium.WebDriver) (bool, error) {
			if _, err := wd.FindElement(by, value); err != nil {
				return false, err
			}
			return true, nil
		},
	}
}

// ElementVisible holds once the element exists and is displayed.
func ElementVisible(by, value string) Condition {
	return Condition{
		Desc: fmt.Sprintf("element {%s: %s} visible", by, value),
		Eval: func(wd selenium.WebDriver) (bool, error) {
			el, err := wd.FindElement(by, value)
			if err != nil {
				return false, err
			}
			return el.IsDisplayed()
		},
	}
}

// ElementsVisible holds once the locator matches at least one element and
// every match is displayed.
func ElementsVisible(by, value string) Condition {
	return Condition{
		Desc: fmt.Sprintf("all elements {%s: %s} visible", by, value),
		Eval: func(wd selenium.WebDriver) (bool, error) {
			els, err := wd.FindElements(by, value)
			if err != nil {
				return false, err
			}
			if len(els) == 0 {
				return false, nil
			}
			for _, el := range els {
				shown, err := el.IsDisplayed()
				if err != nil || !shown {
					return false, err
				}
			}
			return true, nil
		},
	}
}

// ElementClickable holds once the element is displayed and enabled.
func ElementClickable(by, value string) Condition {
	return Condition{
		Desc: fmt.Sprintf("element {%s: %s} clickable", by, value),
		Eval: func(wd selenium.WebDriver) (bool, error) {
			el, err := wd.FindElement(by, value)
			if err != nil {
				return false, err
			}
			shown, err := el.IsDisplayed()
			if err != nil || !shown {
				return false, err
			}
			return el.IsEnabled()
		},
	}
}

// ElementInvisible holds once the element is absent from the DOM or not
// displayed.
func ElementInvisible(by, value string) Condition {
	return Condition{
		Desc: fmt.Sprintf("element {%s: %s} invisible", by, value),
		Eval: func(wd selenium.WebDriver) (bool, error) {
			el, err := wd.FindElement(by, value)
			if err != nil {
				if isTransient(err) {
					return true, nil
				}
				return false, err
			}
			shown, err := el.IsDisplayed()
			if err != nil {
				return false, err
			}
			return !shown, nil
		},
	}
}

// TextPresent holds once the element's text contains want.
func TextPresent(by, value, want string) Condition {
	return Condition{
		Desc: fmt.Sprintf("element {%s: %s} text contains %q", by, value, want),
		Eval: func(wd selenium.WebDriver) (bool, error) {
			el, err := wd.FindElement(by, value)
			if err != nil {
				return false, err
			}
			text, err := el.Text()
			if err != nil {
				return false, err
			}
			return strings.Contains(text, want), nil
		},
	}
}

// AttributeContains holds once the named attribute's value contains want.
func AttributeContains(by, value, attribute, want string) Condition {
	return Condition{
		Desc: fmt.Sprintf("element {%s: %s} attribute %q contains %q", by, value, attribute, want),
		Eval: func(wd selenium.WebDriver) (bool, error) {
			el, err := wd.FindElement(by, value)
			if err != nil {
				return false, err
			}
			got, err := el.GetAttribute(attribute)
			if err != nil {
				return false, err
			}
			return strings.Contains(got, want), nil
		},
	}
}

// TitleContains holds once the page title contains want.
func TitleContains(want string) Condition {
	return Condition{
		Desc: fmt.Sprintf("page title contains %q", want),
		Eval: func(wd selenium.WebDriver) (bool, error) {
			title, err := wd.Title()
			if err != nil {
				return false, err
			}
			return strings.Contains(title, want), nil
		},
	}
}

// PageLoadComplete holds once document.readyState reports "complete".
func PageLoadComplete() Condition {
	return Condition{
		Desc: "page load complete",
		Eval: func(wd selenium.WebDriver) (bool, error) {
			state, err := wd.ExecuteScript("return document.readyState", nil)
			if err != nil {
				return false, err
			}
			return state == "complete", nil
		},
	}
}

// JQueryIdle holds once no jQuery requests are in flight. Pages without
// jQuery satisfy it immediately.
func JQueryIdle() Condition {
	return Condition{
		Desc: "jQuery idle",
		Eval: func(wd selenium.WebDriver) (bool, error) {
			idle, err := wd.ExecuteScript("return window.jQuery == null || jQuery.active === 0", nil)
			if err != nil {
				return false, err
			}
			b, ok := idle.(bool)
			return ok && b, nil
		},
	}
}

// AngularIdle holds once all Angular testabilities report stable. Pages
// without Angular satisfy it immediately.
func AngularIdle() Condition {
	return Condition{
		Desc: "Angular idle",
		Eval: func(wd selenium.WebDriver) (bool, error) {
			stable, err := wd.ExecuteScript(
				"return window.getAllAngularTestabilities == null || window.getAllAngularTestabilities().findIndex(function(x){return !x.isStable()}) === -1",
				nil)
			if err != nil {
				return false, err
			}
			b, ok := stable.(bool)
			return ok && b, nil
		},
	}
}
