// Package domain contains the core types shared by the store, service and API layers.
package domain

import "time"

// User represents an account, created either by local registration or by a first Google sign-in.
// Lists reference their owner by ID; a User never carries its lists.
type User struct {
	Timestamps
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"password_hash,omitempty"` // Stored hashed, filter from API responses
	GoogleID     string    `json:"google_id,omitempty"`
	DisplayName  string    `json:"display_name,omitempty"`
	LastLoginAt  time.Time `json:"last_login_at"`
}

// HasPassword reports whether the user can sign in with local credentials.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}

// IsFederated reports whether the user was created through Google sign-in.
func (u *User) IsFederated() bool {
	return u.GoogleID != ""
}

// Name returns the best human-readable name for the user.
func (u *User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Username
}
