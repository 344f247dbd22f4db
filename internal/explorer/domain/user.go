package domain

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is a registered account. The credential fields never leave the
// service layer; handlers only ever see PublicUser.
type User struct {
	ID                string
	Email             string // stored lower-cased
	PasswordHash      string // hex PBKDF2-SHA256 digest
	Salt              string // hex, 16 bytes
	DisplayName       string
	Role              string
	EmailVerified     bool
	VerifyToken       *string
	ResetToken        *string
	ResetTokenExpires *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

// Public strips credentials and tokens.
func (u User) Public() PublicUser {
	return PublicUser{
		ID:            u.ID,
		Email:         u.Email,
		DisplayName:   u.DisplayName,
		Role:          u.Role,
		EmailVerified: u.EmailVerified,
		CreatedAt:     u.CreatedAt,
	}
}

type PublicUser struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	DisplayName   string    `json:"display_name"`
	Role          string    `json:"role"`
	EmailVerified bool      `json:"email_verified"`
	CreatedAt     time.Time `json:"created_at"`
}

// Caller is the authenticated identity performing a write, taken from the
// session token.
type Caller struct {
	UserID string
	Role   string
}

func (c Caller) IsAdmin() bool { return c.Role == RoleAdmin }

// CanModify reports whether the caller owns the resource or is an admin.
func (c Caller) CanModify(ownerID string) bool {
	return c.IsAdmin() || (c.UserID != "" && c.UserID == ownerID)
}
