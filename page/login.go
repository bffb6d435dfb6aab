package page

import (
	"github.com/tebeka/selenium"

	"github.com/wanmail/webtest/config"
	"github.com/wanmail/webtest/wait"
)

// LoginPage locators.
const (
	loginPath          = "/login"
	usernameField      = "username"
	passwordField      = "password"
	loginButton        = "loginButton"
	rememberMeCheckbox = "rememberMeCheckbox"
	forgotPasswordLink = "forgotPasswordLink"
	errorMessageClass  = "error-message"
)

// LoginPage drives the authentication screen.
type LoginPage struct {
	Page
}

// NewLoginPage binds a LoginPage to the worker's session.
func NewLoginPage(wd selenium.WebDriver, cfg *config.Config) *LoginPage {
	return &LoginPage{Page: New(wd, cfg)}
}

// Open navigates to the login screen and waits for it to load.
func (p *LoginPage) Open() error {
	return p.Page.Open(p.baseURL(loginPath))
}

// IsLoaded reports whether the login form is on screen.
func (p *LoginPage) IsLoaded() bool {
	return p.IsDisplayed(selenium.ByID, usernameField) &&
		p.IsDisplayed(selenium.ByID, passwordField) &&
		p.IsDisplayed(selenium.ByID, loginButton)
}

// TypeUsername fills the username field.
func (p *LoginPage) TypeUsername(username string) error {
	return p.Type(selenium.ByID, usernameField, username)
}

// TypePassword fills the password field.
func (p *LoginPage) TypePassword(password string) error {
	return p.Type(selenium.ByID, passwordField, password)
}

// SetRememberMe checks or unchecks the remember-me box.
func (p *LoginPage) SetRememberMe(check bool) error {
	el, err := p.sync.ClickableElement(selenium.ByID, rememberMeCheckbox)
	if err != nil {
		return err
	}
	selected, err := el.IsSelected()
	if err != nil {
		return err
	}
	if selected != check {
		return el.Click()
	}
	return nil
}

// Submit clicks the login button and returns the destination page. The user
// may still land back on the login screen when credentials are rejected;
// callers verify with HomePage.IsUserLoggedIn or ErrorMessage.
func (p *LoginPage) Submit() (*HomePage, error) {
	if err := p.Click(selenium.ByID, loginButton); err != nil {
		return nil, err
	}
	home := &HomePage{Page: New(p.wd, p.cfg)}
	if err := home.WaitForLoad(); err != nil {
		return nil, err
	}
	return home, nil
}

// Login fills both credential fields and submits.
func (p *LoginPage) Login(username, password string) (*HomePage, error) {
	if err := p.TypeUsername(username); err != nil {
		return nil, err
	}
	if err := p.TypePassword(password); err != nil {
		return nil, err
	}
	return p.Submit()
}

// ErrorMessage waits for the error banner and returns its text.
func (p *LoginPage) ErrorMessage() (string, error) {
	return p.Text(selenium.ByClassName, errorMessageClass)
}

// IsErrorDisplayed reports whether the error banner is currently visible.
func (p *LoginPage) IsErrorDisplayed() bool {
	return p.IsDisplayed(selenium.ByClassName, errorMessageClass)
}

// WaitForError blocks until the error banner shows, within the default wait.
func (p *LoginPage) WaitForError() error {
	return p.sync.Until(wait.ElementVisible(selenium.ByClassName, errorMessageClass))
}

// ForgotPassword follows the reset link and returns the login page's view of
// the reset screen.
func (p *LoginPage) ForgotPassword() error {
	return p.Click(selenium.ByID, forgotPasswordLink)
}
