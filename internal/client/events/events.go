// Package events is the notification channel session actions report
// through. Any front end subscribes to a Bus; the core never depends on a
// particular presentation layer.
package events

// Type names a lifecycle event.
type Type string

const (
	LoginRequest Type = "LOGIN_REQUEST"
	LoginSuccess Type = "LOGIN_SUCCESS"
	LoginFail    Type = "LOGIN_FAIL"

	SignupRequest Type = "SIGNUP_REQUEST"
	SignupSuccess Type = "SIGNUP_SUCCESS"
	SignupFail    Type = "SIGNUP_FAIL"

	ActivationRequest Type = "ACTIVATION_REQUEST"
	ActivationSuccess Type = "ACTIVATION_SUCCESS"
	ActivationFail    Type = "ACTIVATION_FAIL"

	PasswordResetRequest Type = "PASSWORD_RESET_REQUEST"
	PasswordResetSuccess Type = "PASSWORD_RESET_SUCCESS"
	PasswordResetFail    Type = "PASSWORD_RESET_FAIL"

	PasswordResetConfirmRequest Type = "PASSWORD_RESET_CONFIRM_REQUEST"
	PasswordResetConfirmSuccess Type = "PASSWORD_RESET_CONFIRM_SUCCESS"
	PasswordResetConfirmFail    Type = "PASSWORD_RESET_CONFIRM_FAIL"

	UserLoadedRequest Type = "USER_LOADED_REQUEST"
	UserLoadedSuccess Type = "USER_LOADED_SUCCESS"
	UserLoadedFail    Type = "USER_LOADED_FAIL"

	AuthenticatedSuccess Type = "AUTHENTICATED_SUCCESS"
	AuthenticatedFail    Type = "AUTHENTICATED_FAIL"

	TokenRefreshSuccess Type = "TOKEN_REFRESH_SUCCESS"
	TokenRefreshFail    Type = "TOKEN_REFRESH_FAIL"

	Logout          Type = "LOGOUT"
	ClearAuthErrors Type = "CLEAR_AUTH_ERRORS"
)

// Event is one notification. Payload carries success data (a *models.User
// for USER_LOADED_SUCCESS), Message a human-readable outcome.
type Event struct {
	Type    Type
	Payload any
	Message string
}
