package page

import (
	"github.com/tebeka/selenium"

	"github.com/wanmail/webtest/config"
)

// HomePage locators.
const (
	welcomeMessageID    = "welcomeMessage"
	userMenuID          = "userMenu"
	logoutButtonID      = "logoutButton"
	searchBoxID         = "searchBox"
	searchButtonID      = "searchButton"
	navigationMenuClass = "navigation-menu"
	mainContentClass    = "main-content"
)

// HomePage drives the landing screen shown after authentication.
type HomePage struct {
	Page
}

// NewHomePage binds a HomePage to the worker's session.
func NewHomePage(wd selenium.WebDriver, cfg *config.Config) *HomePage {
	return &HomePage{Page: New(wd, cfg)}
}

// IsLoaded reports whether the home screen's frame is on screen.
func (p *HomePage) IsLoaded() bool {
	return p.IsDisplayed(selenium.ByID, welcomeMessageID) &&
		p.IsDisplayed(selenium.ByClassName, navigationMenuClass) &&
		p.IsDisplayed(selenium.ByClassName, mainContentClass)
}

// IsUserLoggedIn reports whether the signed-in chrome is present.
func (p *HomePage) IsUserLoggedIn() bool {
	return p.IsDisplayed(selenium.ByID, welcomeMessageID) &&
		p.IsDisplayed(selenium.ByID, userMenuID)
}

// WelcomeMessage waits for and returns the greeting text.
func (p *HomePage) WelcomeMessage() (string, error) {
	return p.Text(selenium.ByID, welcomeMessageID)
}

// Logout signs out and returns the login page.
func (p *HomePage) Logout() (*LoginPage, error) {
	if err := p.Click(selenium.ByID, logoutButtonID); err != nil {
		return nil, err
	}
	login := &LoginPage{Page: New(p.wd, p.cfg)}
	if err := login.WaitForLoad(); err != nil {
		return nil, err
	}
	return login, nil
}

// Search submits a search and waits for navigation to settle.
func (p *HomePage) Search(term string) error {
	if err := p.Type(selenium.ByID, searchBoxID, term); err != nil {
		return err
	}
	if err := p.Click(selenium.ByID, searchButtonID); err != nil {
		return err
	}
	return p.WaitForLoad()
}
