package jwtx

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultSessionTTL is the default lifetime for session tokens. Sessions are
// stateless, so this is also the longest a stolen token stays usable.
const DefaultSessionTTL = 7 * 24 * time.Hour

// Role values carried in the "role" claim.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Claims are the session-token claims. The registered part carries "sub",
// "iat" and "exp"; everything else is denormalised user data so handlers
// never need a lookup to know who is calling.
type Claims struct {
	jwt.RegisteredClaims

	// Email of the authenticated user (lowercased).
	Email string `json:"email"`

	// Role is "user" or "admin".
	Role string `json:"role"`

	// DisplayName is shown next to reviews and replies.
	DisplayName string `json:"display_name"`
}

// NewSessionClaims builds the caller-supplied part of a session token.
// Issue fills in iat and exp.
func NewSessionClaims(subject, email, role, displayName string) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: subject,
		},
		Email:       email,
		Role:        role,
		DisplayName: displayName,
	}
}

// IsAdmin reports whether the token grants the admin role.
func (c *Claims) IsAdmin() bool { return c.Role == RoleAdmin }

// HasRole reports whether the token's role matches role exactly.
func (c *Claims) HasRole(role string) bool { return c.Role == role }

// ValidateExpiry reports ErrInvalidToken once the whole second of now is
// past "exp". A token is still valid during its exp second. Tokens without
// "exp" are accepted, matching Verify.
func (c *Claims) ValidateExpiry(now time.Time) error {
	if c.ExpiresAt != nil && now.Truncate(time.Second).After(c.ExpiresAt.Time) {
		return ErrInvalidToken
	}
	return nil
}
