package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/client/models"
	"github.com/dmitrijs2005/gophauth/internal/client/services"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// describe returns the user-facing text for err.
func describe(err error) string {
	var ae *services.ActionError
	if errors.As(err, &ae) && ae.Message != "" {
		return ae.Message
	}
	return err.Error()
}

// report prints the outcome the session state recorded for the last action:
// its error on failure, its message on success.
func (a *App) report(err error) {
	st := a.tracker.State()
	if err != nil {
		msg := st.Error
		if msg == "" {
			msg = describe(err)
		}
		printlnFn("Error:", msg)
		return
	}
	if st.Message != "" {
		printlnFn(st.Message)
	}
}

// askPassword reads a password and returns it as a string, wiping the
// terminal buffer.
func (a *App) askPassword(prompt string) (string, error) {
	pw, err := getPassword(a.out, prompt)
	if err != nil {
		return "", err
	}
	defer wipe(pw)
	return string(pw), nil
}

// Login prompts for an email and password and opens a session.
// The password buffer is wiped before returning.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := a.askPassword("Enter password")
	if err != nil {
		return err
	}

	u, err := a.authService.Login(ctx, email, password)
	if err != nil {
		a.report(err)
		return err
	}

	if u != nil {
		printlnFn("Logged in as", u.DisplayName())
	} else {
		printlnFn("Logged in")
	}
	return nil
}

// Signup prompts for the registration fields and creates an account. The
// account must be activated from the e-mailed link before login.
func (a *App) Signup(ctx context.Context) error {
	var r models.Registration
	var err error

	fields := []struct {
		prompt string
		dst    *string
	}{
		{"Enter first name", &r.FirstName},
		{"Enter last name", &r.LastName},
		{"Enter email", &r.Email},
	}
	for _, f := range fields {
		if *f.dst, err = getSimpleText(a.reader, f.prompt, a.out); err != nil {
			return err
		}
	}

	if r.Password, err = a.askPassword("Enter password"); err != nil {
		return err
	}
	if r.ConfirmPassword, err = a.askPassword("Repeat password"); err != nil {
		return err
	}

	_, err = a.authService.Signup(ctx, r)
	a.report(err)
	return err
}

// linkArgs resolves a uid and token from command arguments: either the two
// values or a single link. With no arguments it prompts for both.
func (a *App) linkArgs(args []string) (uid, token string, err error) {
	switch len(args) {
	case 0:
		if uid, err = getSimpleText(a.reader, "Enter uid", a.out); err != nil {
			return "", "", err
		}
		if token, err = getSimpleText(a.reader, "Enter token", a.out); err != nil {
			return "", "", err
		}
		return uid, token, nil
	case 1:
		uid, token, ok := parseLink(args[0])
		if !ok {
			return "", "", fmt.Errorf("cannot read uid and token from %q", args[0])
		}
		return uid, token, nil
	default:
		return args[0], args[1], nil
	}
}

// Activate confirms an account with the uid and token from its activation
// mail.
func (a *App) Activate(ctx context.Context, args []string) error {
	uid, token, err := a.linkArgs(args)
	if err != nil {
		printlnFn("Usage: activate <uid> <token> | activate <link>")
		return err
	}

	err = a.authService.VerifyEmail(ctx, uid, token)
	a.report(err)
	return err
}

// ResetPassword asks the API to mail a password reset link.
func (a *App) ResetPassword(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	err = a.authService.ResetPassword(ctx, email)
	a.report(err)
	return err
}

// ConfirmReset sets a new password using the uid and token from a reset
// mail.
func (a *App) ConfirmReset(ctx context.Context, args []string) error {
	uid, token, err := a.linkArgs(args)
	if err != nil {
		printlnFn("Usage: reset-confirm <uid> <token> | reset-confirm <link>")
		return err
	}

	c := models.PasswordResetConfirmation{UID: uid, Token: token}
	if c.NewPassword, err = a.askPassword("Enter new password"); err != nil {
		return err
	}
	if c.ConfirmNewPassword, err = a.askPassword("Repeat new password"); err != nil {
		return err
	}

	err = a.authService.ConfirmPasswordReset(ctx, c)
	a.report(err)
	return err
}

// WhoAmI loads and prints the current user's profile.
func (a *App) WhoAmI(ctx context.Context) error {
	u, err := a.authService.LoadCurrentUser(ctx)
	if err != nil {
		a.report(err)
		return err
	}

	printlnFn(fmt.Sprintf("%s <%s>", u.DisplayName(), u.Email))
	return nil
}

// Status re-checks the stored session and prints the resulting state.
func (a *App) Status(ctx context.Context) error {
	a.authService.CheckAuthenticated(ctx)

	st := a.tracker.State()
	printlnFn("Session:", st.Auth.String())
	if st.User != nil {
		printlnFn("User:", st.User.DisplayName())
	}
	if st.Error != "" {
		printlnFn("Last error:", st.Error)
	}
	return nil
}

// Logout forgets the stored tokens.
func (a *App) Logout(ctx context.Context) error {
	a.authService.Logout(ctx)
	printlnFn("Logged out")
	return nil
}

// ClearErrors drops the last error and message from the session state.
func (a *App) ClearErrors(ctx context.Context) error {
	a.authService.ClearErrors(ctx)
	return nil
}
