// Package models holds the request and response shapes exchanged with the
// authentication API.
package models

import "encoding/json"

// User is the current-user profile returned by the API. Fields the client
// does not model are kept in Extra.
type User struct {
	ID        json.RawMessage `json:"id,omitempty"`
	Email     string          `json:"email"`
	FirstName string          `json:"first_name"`
	LastName  string          `json:"last_name"`

	Extra map[string]json.RawMessage `json:"-"`
}

func (u *User) UnmarshalJSON(b []byte) error {
	type plain User
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}

	var all map[string]json.RawMessage
	if err := json.Unmarshal(b, &all); err != nil {
		return err
	}
	for _, known := range []string{"id", "email", "first_name", "last_name"} {
		delete(all, known)
	}
	if len(all) > 0 {
		p.Extra = all
	}

	*u = User(p)
	return nil
}

// DisplayName is "First Last", falling back to the email.
func (u *User) DisplayName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	default:
		return u.Email
	}
}
