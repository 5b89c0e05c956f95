// Package users keeps the reference API's accounts: registration, activation,
// password checks and password resets. Everything lives in memory.
package users

import "time"

type User struct {
	ID              string
	Email           string
	FirstName       string
	LastName        string
	PasswordHash    []byte
	Active          bool
	ActivationToken string
	ResetToken      string
	CreatedAt       time.Time
}

// Registration is the sign-up payload.
type Registration struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	RePassword string `json:"re_password"`
}

// PasswordReset is the payload that completes a password reset.
type PasswordReset struct {
	UID           string `json:"uid"`
	Token         string `json:"token"`
	NewPassword   string `json:"new_password"`
	ReNewPassword string `json:"re_new_password"`
}

type MailKind string

const (
	MailActivation    MailKind = "activation"
	MailPasswordReset MailKind = "password_reset"
)

// Mail is a message the API would have e-mailed: the uid and token a user
// needs to activate the account or reset the password.
type Mail struct {
	Kind  MailKind
	Email string
	UID   string
	Token string
}
