package entity

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	Id           uuid.UUID
	Username     string
	PasswordHash string
	PasswordSalt string
	CreatedAt    time.Time
}

// SessionToken is an opaque bearer session. Only the SHA-256 hash of the raw
// token is ever stored; the raw token is returned to the caller exactly once.
type SessionToken struct {
	TokenHash string
	UserId    uuid.UUID
	CreatedAt time.Time
	ExpiresAt time.Time
}

func (t *SessionToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
