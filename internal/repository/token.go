package repository

import (
	"context"
	"time"

	"github.com/aidosbek/loginlink/internal/domain"
)

// TokenRepository is the durable store of login token records, keyed by
// token hash. Consume is the only mutating operation after insert and must
// be a single atomic conditional update in any implementation.
type TokenRepository interface {
	// Insert stores a new unused token record. Returns
	// domain.ErrUserUnknown when userID violates the foreign key and
	// domain.ErrTokenExists on a hash collision with a stored record.
	Insert(ctx context.Context, tokenHash, userID string, expiresAt time.Time) error

	// FindByHash is a point lookup; returns domain.ErrTokenNotFound when
	// no record matches.
	FindByHash(ctx context.Context, tokenHash string) (*domain.LoginToken, error)

	// Consume flips the record to used iff it is currently unused and
	// unexpired, and returns the owning user ID. At most one concurrent
	// caller may succeed per hash; losers get domain.ErrTokenNotFound
	// (the caller disambiguates with FindByHash).
	Consume(ctx context.Context, tokenHash string) (string, error)

	// CountByUser aggregates the user's records by state. A user with no
	// records yields all zeros, not an error.
	CountByUser(ctx context.Context, userID string) (domain.TokenStats, error)

	// DeleteExpired removes every record past its expiry.
	DeleteExpired(ctx context.Context) (int64, error)

	// DeleteUsedBefore removes used records whose used_at is older than
	// the cutoff.
	DeleteUsedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
