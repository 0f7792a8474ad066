package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is a registered account. PasswordHash is a salted one-way hash.
type User struct {
	ID           uuid.UUID
	Name         string
	Email        string
	PasswordHash string
	// Token is the most recently issued session credential, kept so that
	// login can hand back a still-valid token instead of minting a new one.
	Token     string
	CreatedAt time.Time
}

// Session is an issued credential and the identity it carries.
type Session struct {
	UserID    uuid.UUID
	Token     string
	ExpiresAt time.Time
}
