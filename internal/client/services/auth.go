// Package services holds the session actions a front end invokes. Each
// action reports its progress on the event bus and returns a typed result.
package services

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/gophauth/internal/client/client"
	"github.com/dmitrijs2005/gophauth/internal/client/events"
	"github.com/dmitrijs2005/gophauth/internal/client/models"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/redact"
)

// User-facing outcome messages.
const (
	MsgLoginFailed         = "Login failed. Please check your credentials."
	MsgSignupSucceeded     = "Signup successful, please activate your account."
	MsgSignupFailed        = "Registration failed"
	MsgActivationSucceeded = "Account activated successfully!"
	MsgActivationFailed    = "Account activation failed. Please check your activation link."
	MsgResetSent           = "Password reset email sent successfully!"
	MsgResetFailed         = "Failed to send password reset email."
	MsgResetConfirmed      = "Password reset successfully!"
	MsgResetConfirmFailed  = "Password reset failed"
	MsgResetTokenInvalid   = "Invalid or expired reset token"
	MsgResetLinkInvalid    = "Invalid reset link"
	MsgUserLoadFailed      = "Failed to load user data"
	MsgNotAuthenticated    = "Not authenticated"
)

// AuthService defines the session actions.
//
// Contract:
//   - Login: create a session, persist both tokens, then load the user.
//   - Signup: register an account; the session stays logged out.
//   - Logout: clear both tokens. Never fails.
//   - VerifyEmail, ResetPassword, ConfirmPasswordReset: account flows that
//     never touch stored tokens.
//   - CheckAuthenticated: verify the stored access token, renewing once.
//   - LoadCurrentUser: fetch the profile through the authorizing client.
//   - ClearErrors: drop the last reported error and message.
//
// Failures are returned as *ActionError.
type AuthService interface {
	Login(ctx context.Context, email, password string) (*models.User, error)
	Signup(ctx context.Context, r models.Registration) (*models.User, error)
	Logout(ctx context.Context)
	VerifyEmail(ctx context.Context, uid, token string) error
	ResetPassword(ctx context.Context, email string) error
	ConfirmPasswordReset(ctx context.Context, c models.PasswordResetConfirmation) error
	CheckAuthenticated(ctx context.Context) bool
	LoadCurrentUser(ctx context.Context) (*models.User, error)
	ClearErrors(ctx context.Context)
	Close(ctx context.Context) error
}

// Credentials is the part of the credential store actions use.
type Credentials interface {
	AccessToken(ctx context.Context) string
	SaveTokens(ctx context.Context, access, refresh string)
	ClearTokens(ctx context.Context)
}

// Renewer replaces a rejected access token.
type Renewer interface {
	Renew(ctx context.Context, stale string) (string, error)
}

type authService struct {
	api     client.Client
	store   Credentials
	renewer Renewer
	events  events.Dispatcher
	log     logging.Logger
}

// NewAuthService wires the actions to an API client, the credential store,
// the renewal coordinator and the event bus.
func NewAuthService(api client.Client, store Credentials, renewer Renewer, d events.Dispatcher, log logging.Logger) AuthService {
	return &authService{
		api:     api,
		store:   store,
		renewer: renewer,
		events:  d,
		log:     log.With("component", "auth"),
	}
}

func (a *authService) emit(ctx context.Context, t events.Type, payload any, msg string) {
	a.events.Dispatch(ctx, events.Event{Type: t, Payload: payload, Message: msg})
}

// fail reports t with msg and builds the matching ActionError.
func (a *authService) fail(ctx context.Context, t events.Type, msg string, err error) *ActionError {
	a.emit(ctx, t, nil, msg)
	return &ActionError{Kind: classify(err), Message: msg, Err: err}
}

// Login succeeds once the tokens are stored. The user is nil when the
// follow-up profile load failed; that failure is reported on the bus only.
func (a *authService) Login(ctx context.Context, email, password string) (*models.User, error) {
	a.emit(ctx, events.LoginRequest, nil, "")

	pair, err := a.api.CreateSession(ctx, email, password)
	if err != nil {
		a.log.Info(ctx, "login rejected", "email", redact.Email(email), "error", err)
		return nil, a.fail(ctx, events.LoginFail, client.Message(err, MsgLoginFailed), err)
	}

	a.store.SaveTokens(ctx, pair.Access, pair.Refresh)
	a.emit(ctx, events.LoginSuccess, nil, "")
	a.log.Info(ctx, "logged in", "email", redact.Email(email))

	u, _ := a.LoadCurrentUser(ctx)
	return u, nil
}

func (a *authService) Signup(ctx context.Context, r models.Registration) (*models.User, error) {
	a.emit(ctx, events.SignupRequest, nil, "")

	u, err := a.api.Register(ctx, r)
	if err != nil {
		return nil, a.fail(ctx, events.SignupFail, client.Message(err, MsgSignupFailed), err)
	}

	a.emit(ctx, events.SignupSuccess, u, MsgSignupSucceeded)
	return u, nil
}

func (a *authService) Logout(ctx context.Context) {
	a.store.ClearTokens(ctx)
	a.emit(ctx, events.Logout, nil, "")
}

func (a *authService) VerifyEmail(ctx context.Context, uid, token string) error {
	a.emit(ctx, events.ActivationRequest, nil, "")

	if err := a.api.Activate(ctx, uid, token); err != nil {
		return a.fail(ctx, events.ActivationFail, client.Message(err, MsgActivationFailed), err)
	}

	a.emit(ctx, events.ActivationSuccess, nil, MsgActivationSucceeded)
	return nil
}

func (a *authService) ResetPassword(ctx context.Context, email string) error {
	a.emit(ctx, events.PasswordResetRequest, nil, "")

	if err := a.api.ResetPassword(ctx, email); err != nil {
		return a.fail(ctx, events.PasswordResetFail, client.Message(err, MsgResetFailed), err)
	}

	a.emit(ctx, events.PasswordResetSuccess, nil, MsgResetSent)
	return nil
}

func (a *authService) ConfirmPasswordReset(ctx context.Context, c models.PasswordResetConfirmation) error {
	a.emit(ctx, events.PasswordResetConfirmRequest, nil, "")

	if err := a.api.ResetPasswordConfirm(ctx, c); err != nil {
		return a.fail(ctx, events.PasswordResetConfirmFail, resetConfirmMessage(err), err)
	}

	a.emit(ctx, events.PasswordResetConfirmSuccess, nil, MsgResetConfirmed)
	return nil
}

// resetConfirmMessage prefers the new-password complaint, then names a bad
// token or uid without echoing the API text.
func resetConfirmMessage(err error) string {
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		return MsgResetConfirmFailed
	}
	if m, ok := apiErr.Field("new_password"); ok {
		return m
	}
	if _, ok := apiErr.Field("token"); ok {
		return MsgResetTokenInvalid
	}
	if _, ok := apiErr.Field("uid"); ok {
		return MsgResetLinkInvalid
	}
	return apiErr.Message(MsgResetConfirmFailed)
}

func (a *authService) CheckAuthenticated(ctx context.Context) bool {
	access := a.store.AccessToken(ctx)
	if access == "" {
		a.emit(ctx, events.AuthenticatedFail, nil, "")
		return false
	}

	err := a.api.VerifyToken(ctx, access)
	if err == nil {
		a.emit(ctx, events.AuthenticatedSuccess, nil, "")
		return true
	}
	a.log.Debug(ctx, "access token not verified, renewing", "error", err)

	if _, err := a.renewer.Renew(ctx, access); err != nil {
		a.emit(ctx, events.AuthenticatedFail, nil, "")
		return false
	}

	a.emit(ctx, events.AuthenticatedSuccess, nil, "")
	return true
}

func (a *authService) LoadCurrentUser(ctx context.Context) (*models.User, error) {
	if a.store.AccessToken(ctx) == "" {
		a.emit(ctx, events.UserLoadedFail, nil, "")
		return nil, &ActionError{Kind: KindNoCredentials, Message: MsgNotAuthenticated}
	}

	a.emit(ctx, events.UserLoadedRequest, nil, "")

	u, err := a.api.Me(ctx)
	if err == nil {
		a.emit(ctx, events.UserLoadedSuccess, u, "")
		return u, nil
	}

	if errors.Is(err, client.ErrUnauthorized) {
		a.emit(ctx, events.UserLoadedFail, nil, MsgUserLoadFailed)
		kind := KindUnauthorized
		if a.store.AccessToken(ctx) == "" {
			kind = KindSessionExpired
		}
		return nil, &ActionError{Kind: kind, Message: MsgUserLoadFailed, Err: err}
	}

	return nil, a.fail(ctx, events.UserLoadedFail, client.Message(err, MsgUserLoadFailed), err)
}

func (a *authService) ClearErrors(ctx context.Context) {
	a.emit(ctx, events.ClearAuthErrors, nil, "")
}

func (a *authService) Close(ctx context.Context) error {
	return a.api.Close()
}
