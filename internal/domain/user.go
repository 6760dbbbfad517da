package domain

import (
	"encoding/json"
	"strconv"
)

// User is the signed-in account as returned by the backend.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
}

// ScopeID is the identifier that user-scoped storage keys are built from:
// the account id, falling back to the email address.
func (u User) ScopeID() string {
	return CoalesceStr(u.ID, u.Email)
}

// UnmarshalJSON accepts numeric ids as well as strings.
func (u *User) UnmarshalJSON(b []byte) error {
	var raw struct {
		ID       any    `json:"id"`
		Username string `json:"username"`
		Email    string `json:"email"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	u.Username = raw.Username
	u.Email = raw.Email
	switch v := raw.ID.(type) {
	case string:
		u.ID = v
	case float64:
		u.ID = strconv.FormatFloat(v, 'f', -1, 64)
	default:
		u.ID = ""
	}
	return nil
}
