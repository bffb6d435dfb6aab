package main

import (
	"github.com/pkg/errors"

	"github.com/wanmail/webtest/harness"
	"github.com/wanmail/webtest/page"
)

// loginCases is the shipped example suite: the authentication flows every
// deployment of the template exercises first.
func loginCases() []harness.Case {
	return []harness.Case{
		{
			Name:        "TestLoginPageLoads",
			Description: "login form renders with all fields",
			Group:       "login",
			Run: func(t *harness.T) error {
				login := page.NewLoginPage(t.Driver(), t.Config())
				if err := login.Open(); err != nil {
					return err
				}
				if !login.IsLoaded() {
					return errors.New("login form did not render")
				}
				return nil
			},
		},
		{
			Name:        "TestValidLogin",
			Description: "valid credentials land on the home page",
			Group:       "login",
			Run: func(t *harness.T) error {
				login := page.NewLoginPage(t.Driver(), t.Config())
				if err := login.Open(); err != nil {
					return err
				}
				user := t.Config().GetOr("login.username", "testuser")
				pass := t.Config().GetOr("login.password", "testpass")
				t.Log("signing in as %s", user)
				home, err := login.Login(user, pass)
				if err != nil {
					return err
				}
				if !home.IsUserLoggedIn() {
					return errors.New("user menu not shown after login")
				}
				return nil
			},
		},
		{
			Name:        "TestInvalidLoginShowsError",
			Description: "bad credentials surface the error banner",
			Group:       "login",
			Run: func(t *harness.T) error {
				login := page.NewLoginPage(t.Driver(), t.Config())
				if err := login.Open(); err != nil {
					return err
				}
				if _, err := login.Login("wrong", "credentials"); err != nil {
					return err
				}
				if err := login.WaitForError(); err != nil {
					return err
				}
				msg, err := login.ErrorMessage()
				if err != nil {
					return err
				}
				t.Log("error banner: %s", msg)
				return nil
			},
		},
		{
			Name:        "TestLogoutReturnsToLogin",
			Description: "logout lands back on the login form",
			Group:       "home",
			Run: func(t *harness.T) error {
				login := page.NewLoginPage(t.Driver(), t.Config())
				if err := login.Open(); err != nil {
					return err
				}
				user := t.Config().GetOr("login.username", "testuser")
				pass := t.Config().GetOr("login.password", "testpass")
				home, err := login.Login(user, pass)
				if err != nil {
					return err
				}
				back, err := home.Logout()
				if err != nil {
					return err
				}
				if !back.IsLoaded() {
					return errors.New("login form not shown after logout")
				}
				return nil
			},
		},
	}
}
