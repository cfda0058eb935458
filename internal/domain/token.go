package domain

import (
	"errors"
	"time"
)

var (
	// Expected lifecycle outcomes. Callers branch on these; they are
	// results, not faults.
	ErrTokenMalformed = errors.New("token is malformed")
	ErrTokenNotFound  = errors.New("token not found")
	ErrTokenExpired   = errors.New("token has expired")
	ErrTokenUsed      = errors.New("token already used")

	// Insert-time constraint violations.
	ErrUserUnknown = errors.New("user does not exist")
	ErrTokenExists = errors.New("token hash already stored")
)

// LoginToken is a single-use credential record. Only the SHA-256 hash of
// the raw token is ever persisted; the raw value leaves the process once,
// inside the email.
type LoginToken struct {
	TokenHash string
	UserID    string
	CreatedAt time.Time
	ExpiresAt time.Time
	Used      bool
	UsedAt    *time.Time
}

// Expired reports whether the token is past its expiry at the given instant.
func (t *LoginToken) Expired(now time.Time) bool {
	return !t.ExpiresAt.After(now)
}

// TokenStats partitions a user's tokens by state. Active means unused and
// unexpired; Expired means unused and past expiry; Used counts used tokens
// regardless of expiry.
type TokenStats struct {
	Total   int `json:"total"`
	Active  int `json:"active"`
	Used    int `json:"used"`
	Expired int `json:"expired"`
}
