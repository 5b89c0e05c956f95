package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")

	errMissingAccess = errors.New("response has no access token")
)

// messageFields is the order in which field errors are shown to the user.
var messageFields = []string{"email", "password", "first_name", "last_name", "non_field_errors", "detail"}

// APIError is a non-2xx answer from the API.
type APIError struct {
	StatusCode int
	// Fields maps a field name to its messages. A bare string value in the
	// body becomes a one-element slice.
	Fields map[string][]string
	Body   []byte
}

func newAPIError(status int, body []byte) *APIError {
	e := &APIError{StatusCode: status, Body: body}

	var raw map[string]json.RawMessage
	if json.Unmarshal(body, &raw) != nil {
		return e
	}

	e.Fields = make(map[string][]string, len(raw))
	for k, v := range raw {
		if msgs := decodeMessages(v); len(msgs) > 0 {
			e.Fields[k] = msgs
		}
	}
	return e
}

func decodeMessages(v json.RawMessage) []string {
	var s string
	if json.Unmarshal(v, &s) == nil {
		return []string{s}
	}

	var list []json.RawMessage
	if json.Unmarshal(v, &list) == nil {
		out := make([]string, 0, len(list))
		for _, item := range list {
			if json.Unmarshal(item, &s) == nil {
				out = append(out, s)
			} else {
				out = append(out, string(item))
			}
		}
		return out
	}

	return []string{string(v)}
}

func (e *APIError) Error() string {
	msg := e.Message("")
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("api error %d: %s", e.StatusCode, strings.TrimSpace(msg))
}

func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return ErrUnavailable
	default:
		return nil
	}
}

// Field returns the first message reported for name.
func (e *APIError) Field(name string) (string, bool) {
	msgs, ok := e.Fields[name]
	if !ok || len(msgs) == 0 {
		return "", false
	}
	return msgs[0], true
}

// Message resolves the body to one display string: the named field errors
// first, then non_field_errors, then detail, then fallback.
func (e *APIError) Message(fallback string) string {
	for _, f := range messageFields {
		if m, ok := e.Field(f); ok {
			return m
		}
	}
	return fallback
}

// Message extracts a display string from any error returned by this
// package. Errors without an API body yield fallback.
func Message(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message(fallback)
	}
	return fallback
}
