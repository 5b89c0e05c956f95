package models

// TokenPair is issued by the create-session endpoint.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}

// Credentials is the create-session request.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration is the sign-up request.
type Registration struct {
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"re_password"`
}

// Activation is the uid/token pair from an activation link.
type Activation struct {
	UID   string `json:"uid"`
	Token string `json:"token"`
}

// PasswordResetConfirmation completes a password reset.
type PasswordResetConfirmation struct {
	UID                string `json:"uid"`
	Token              string `json:"token"`
	NewPassword        string `json:"new_password"`
	ConfirmNewPassword string `json:"re_new_password"`
}
