package jwt

import "github.com/golang-jwt/jwt"

// Payload is the claim set of a folio session token.
type Payload struct {
	// StandardClaims carries exp, iat and iss.
	jwt.StandardClaims

	// UserID is the account id.
	UserID string `json:"uid"`

	// SessionID identifies the sign-in this token belongs to. Signing out revokes it.
	SessionID string `json:"sid"`

	// Email is the account email at issue time.
	Email string `json:"email"`

	// DisplayName is optional; empty for password accounts that never set one.
	DisplayName string `json:"name,omitempty"`
}
