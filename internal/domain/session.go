package domain

import (
	"errors"
	"time"
)

var ErrSessionNotFound = errors.New("session not found")

// Session is a sibling record to LoginToken: same shape, no single-use
// semantics. It exists so a verified login has something durable to hang
// a JWT on, and so the retention sweeper can expire logins server-side.
type Session struct {
	ID         string
	UserID     string
	CreatedAt  time.Time
	ExpiresAt  time.Time
	LastSeenAt time.Time
}
