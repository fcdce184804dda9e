/*
Package user contains the identity shared by every folio subsystem.

A User is what the auth gateway resolves from a session and what the comment board and the
chat responder receive as their "current user". It never carries credentials.
*/
package user

import (
	"strings"
	"time"
)

const (
	// ProviderPassword marks accounts created with email and password.
	ProviderPassword = "password"

	// ProviderGoogle marks accounts created through Google sign-in.
	ProviderGoogle = "google"
)

// User represents a signed-in visitor.
// Fields use JSON tags for serialization in API responses and socket frames.
type User struct {
	// ID is the account identifier (a UUID string).
	ID string `json:"id"`

	// Email is the sign-in address. It is never shown next to public content.
	Email string `json:"email"`

	// DisplayName is optional; federated accounts usually carry one.
	DisplayName string `json:"displayName,omitempty"`

	// Provider is ProviderPassword or ProviderGoogle.
	Provider string `json:"provider"`

	LastLoginAt time.Time `json:"lastLoginAt,omitzero"`
}

// Name is the label shown for the user: the display name, else the part of the email before "@".
func (u *User) Name() string {
	if u == nil {
		return ""
	}
	if name := strings.TrimSpace(u.DisplayName); name != "" {
		return name
	}
	local, _, _ := strings.Cut(u.Email, "@")
	return local
}
