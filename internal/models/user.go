package models

import (
	"time"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string // never leaves the repository/service boundary
	Role         string // "user" or "admin"
	IsVerified   bool
	IsActive     bool

	// At most one live refresh token per user. Overwritten on login,
	// cleared on logout. NULL means no active session.
	RefreshToken *string

	// Ephemeral token pairs. Hash and expiry are set and cleared together.
	VerificationTokenHash      *string
	VerificationTokenExpiresAt *time.Time
	ResetTokenHash             *string
	ResetTokenExpiresAt        *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}
