// Package models defines the wire and domain types exchanged with the
// Park-IT backend. JSON field names follow the backend contract (camelCase;
// token expiry is a Unix timestamp in milliseconds).
package models

import "github.com/parkit-app/parkit-go/internal/timex"

// AuthProvider identifies the identity provider an account was created with.
type AuthProvider string

const (
	ProviderApple  AuthProvider = "apple"
	ProviderGoogle AuthProvider = "google"
)

// User is the authenticated account as returned by the backend.
type User struct {
	ID        string       `json:"id"`
	Email     string       `json:"email"`
	Name      string       `json:"name,omitempty"`
	AvatarURL string       `json:"avatarUrl,omitempty"`
	Provider  AuthProvider `json:"provider"`
	CreatedAt timex.Time   `json:"createdAt"`
	UpdatedAt timex.Time   `json:"updatedAt"`
}

// UserUpdate is a partial update applied to the locally cached user profile.
// Nil fields are left unchanged.
type UserUpdate struct {
	Name      *string `json:"name,omitempty"`
	AvatarURL *string `json:"avatarUrl,omitempty"`
}

// Merge returns a copy of u with the non-nil fields of upd applied.
func (u User) Merge(upd UserUpdate) User {
	if upd.Name != nil {
		u.Name = *upd.Name
	}
	if upd.AvatarURL != nil {
		u.AvatarURL = *upd.AvatarURL
	}
	return u
}
