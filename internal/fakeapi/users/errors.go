package users

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrAlreadyExists      = errors.New("already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrStaleToken         = errors.New("stale token")
)

// Field messages returned to clients.
const (
	MsgBlank            = "This field may not be blank."
	MsgEmailTaken       = "user with this email already exists."
	MsgInvalidEmail     = "Enter a valid email address."
	MsgPasswordTooShort = "This password is too short. It must contain at least 8 characters."
	MsgPasswordMismatch = "The two password fields didn't match."
	MsgInvalidUID       = "Invalid user id or user doesn't exist."
	MsgInvalidToken     = "Invalid token for given user."
)

// ValidationError maps a field name to its messages. "non_field_errors"
// holds messages about the payload as a whole.
type ValidationError map[string][]string

func (v ValidationError) Error() string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+strings.Join(v[f], " "))
	}
	return "validation: " + strings.Join(parts, "; ")
}

func (v ValidationError) add(field, msg string) {
	v[field] = append(v[field], msg)
}

func (v ValidationError) orNil() error {
	if len(v) == 0 {
		return nil
	}
	return v
}
