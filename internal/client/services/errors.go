package services

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/gophauth/internal/client/client"
	"github.com/dmitrijs2005/gophauth/internal/client/renewal"
)

// Kind classifies why a session action failed.
type Kind string

const (
	KindValidation     Kind = "validation"
	KindUnauthorized   Kind = "unauthorized"
	KindSessionExpired Kind = "session_expired"
	KindTransport      Kind = "transport"
	KindNoCredentials  Kind = "no_credentials"
)

// ActionError is the failed outcome of a session action. Message is the
// same string reported on the event bus.
type ActionError struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *ActionError) Error() string {
	return string(e.Kind) + ": " + e.Message
}

func (e *ActionError) Unwrap() error {
	return e.Err
}

func classify(err error) Kind {
	var apiErr *client.APIError
	switch {
	case errors.Is(err, renewal.ErrNoRefreshToken), errors.Is(err, renewal.ErrRenewalAborted):
		return KindSessionExpired
	case errors.Is(err, client.ErrUnauthorized):
		return KindUnauthorized
	case errors.Is(err, client.ErrUnavailable):
		return KindTransport
	case errors.As(err, &apiErr) && apiErr.StatusCode < http.StatusInternalServerError:
		return KindValidation
	default:
		return KindTransport
	}
}
