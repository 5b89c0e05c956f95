// Package session derives the read model a front end renders from the
// events session actions dispatch.
package session

import (
	"github.com/dmitrijs2005/gophauth/internal/client/events"
	"github.com/dmitrijs2005/gophauth/internal/client/models"
)

// AuthState is the three-valued authentication flag.
type AuthState int

const (
	AuthUnknown AuthState = iota
	Authenticated
	Unauthenticated
)

func (a AuthState) String() string {
	switch a {
	case Authenticated:
		return "authenticated"
	case Unauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// State is the derived session projection. It is never authoritative; the
// credential store and the API are.
type State struct {
	Auth    AuthState
	User    *models.User
	Loading bool
	Error   string
	Message string
}

// Reduce returns the state that follows s after e.
//
// Auth becomes Authenticated only on LOGIN_SUCCESS, TOKEN_REFRESH_SUCCESS and
// AUTHENTICATED_SUCCESS. Failures of actions that never touch credentials
// (signup, activation, password reset) leave Auth as it was.
func Reduce(s State, e events.Event) State {
	switch e.Type {
	case events.LoginRequest, events.SignupRequest, events.PasswordResetRequest,
		events.PasswordResetConfirmRequest, events.ActivationRequest:
		s.Loading = true
		s.Error = ""
		s.Message = ""

	case events.UserLoadedRequest:
		s.Loading = true

	case events.LoginSuccess, events.TokenRefreshSuccess:
		s.Auth = Authenticated
		s.Loading = false
		s.Error = ""

	case events.SignupSuccess:
		s.Auth = Unauthenticated
		s.Loading = false
		s.Error = ""
		s.Message = e.Message

	case events.UserLoadedSuccess:
		if u, ok := e.Payload.(*models.User); ok {
			s.User = u
		}
		s.Loading = false

	case events.AuthenticatedSuccess:
		s.Auth = Authenticated

	case events.PasswordResetSuccess, events.PasswordResetConfirmSuccess, events.ActivationSuccess:
		s.Loading = false
		s.Error = ""
		s.Message = e.Message

	case events.LoginFail, events.UserLoadedFail, events.AuthenticatedFail, events.TokenRefreshFail:
		s.Auth = Unauthenticated
		s.Loading = false
		s.Error = e.Message

	case events.SignupFail, events.PasswordResetFail, events.PasswordResetConfirmFail, events.ActivationFail:
		// Account flows never touch the tokens, so a failure here keeps Auth
		// as it was instead of forcing unauthenticated.
		s.Loading = false
		s.Error = e.Message

	case events.ClearAuthErrors:
		s.Error = ""
		s.Message = ""

	case events.Logout:
		s.Auth = Unauthenticated
		s.User = nil
		s.Loading = false
		s.Error = ""
	}
	return s
}
