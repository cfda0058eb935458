package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aidosbek/loginlink/internal/domain"
	"github.com/aidosbek/loginlink/internal/metrics"
	"github.com/aidosbek/loginlink/internal/repository"
	"github.com/aidosbek/loginlink/internal/token"
)

// IssuedToken is the outcome of Issue: the raw token for out-of-band
// delivery and the digest/expiry pair for storage. Raw must never be
// persisted or logged.
type IssuedToken struct {
	Raw       string
	Hash      string
	UserID    string
	ExpiresAt time.Time
}

// TokenLifecycle orchestrates issuance, validity checks, and consume-once
// redemption. It holds no state of its own; all synchronization is the
// store's conditional update, so any number of instances may run against
// the same database.
type TokenLifecycle struct {
	tokens repository.TokenRepository
	codec  *token.Codec
	logger *slog.Logger
}

func NewTokenLifecycle(tokens repository.TokenRepository, codec *token.Codec, logger *slog.Logger) *TokenLifecycle {
	return &TokenLifecycle{
		tokens: tokens,
		codec:  codec,
		logger: logger.With("component", "token_lifecycle"),
	}
}

// Issue generates a raw token and digest without persisting anything.
// A ttl of zero means the codec's default. Callers that fail to store the
// result can simply drop it; nothing has happened yet.
func (l *TokenLifecycle) Issue(userID string, ttl time.Duration) (IssuedToken, error) {
	raw, err := l.codec.Generate()
	if err != nil {
		return IssuedToken{}, fmt.Errorf("generate token: %w", err)
	}
	if ttl <= 0 {
		ttl = l.codec.Params().DefaultTTL
	}
	return IssuedToken{
		Raw:       raw,
		Hash:      l.codec.Hash(raw),
		UserID:    userID,
		ExpiresAt: time.Now().Add(ttl),
	}, nil
}

// Store persists an issued token. Expected constraint failures come back
// as domain.ErrUserUnknown / domain.ErrTokenExists; anything else is an
// infrastructure error.
func (l *TokenLifecycle) Store(ctx context.Context, tok IssuedToken) error {
	err := l.tokens.Insert(ctx, tok.Hash, tok.UserID, tok.ExpiresAt)
	if err != nil {
		if errors.Is(err, domain.ErrUserUnknown) || errors.Is(err, domain.ErrTokenExists) {
			return err
		}
		return fmt.Errorf("store token: %w", err)
	}
	metrics.TokensIssuedTotal.Inc()
	return nil
}

// CheckValidity reports whether the raw token would redeem right now,
// without mutating anything. Repeated calls give identical answers unless
// the token is redeemed or crosses its expiry in between.
func (l *TokenLifecycle) CheckValidity(ctx context.Context, raw string) (string, error) {
	if !l.codec.ValidFormat(raw) {
		return "", domain.ErrTokenMalformed
	}

	rec, err := l.tokens.FindByHash(ctx, l.codec.Hash(raw))
	if err != nil {
		if errors.Is(err, domain.ErrTokenNotFound) {
			return "", domain.ErrTokenNotFound
		}
		return "", fmt.Errorf("look up token: %w", err)
	}
	if !l.codec.Matches(raw, rec.TokenHash) {
		return "", domain.ErrTokenNotFound
	}

	switch {
	case rec.Used:
		return "", domain.ErrTokenUsed
	case rec.Expired(time.Now()):
		return "", domain.ErrTokenExpired
	}
	return rec.UserID, nil
}

// Redeem consumes the token. The store's conditional update is the entire
// correctness argument: across N concurrent calls for the same token,
// exactly one gets a row back. When the update matches nothing, a
// best-effort second read names the reason; a concurrent winner may have
// flipped the record between the two queries, in which case "already used"
// is the honest answer anyway.
func (l *TokenLifecycle) Redeem(ctx context.Context, raw string) (string, error) {
	if !l.codec.ValidFormat(raw) {
		metrics.TokensRedeemedTotal.WithLabelValues("malformed").Inc()
		return "", domain.ErrTokenMalformed
	}
	hash := l.codec.Hash(raw)

	userID, err := l.tokens.Consume(ctx, hash)
	if err == nil {
		metrics.TokensRedeemedTotal.WithLabelValues("redeemed").Inc()
		return userID, nil
	}
	if !errors.Is(err, domain.ErrTokenNotFound) {
		metrics.TokensRedeemedTotal.WithLabelValues("error").Inc()
		return "", fmt.Errorf("consume token: %w", err)
	}

	reason := l.diagnoseFailedConsume(ctx, hash)
	metrics.TokensRedeemedTotal.WithLabelValues(redeemOutcome(reason)).Inc()
	return "", reason
}

// diagnoseFailedConsume runs after a conditional update affected zero
// rows. It only refines the error message; the redemption itself has
// already failed for good.
func (l *TokenLifecycle) diagnoseFailedConsume(ctx context.Context, hash string) error {
	rec, err := l.tokens.FindByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, domain.ErrTokenNotFound) {
			return domain.ErrTokenNotFound
		}
		l.logger.Warn("diagnostic read after failed consume", "error", err)
		return domain.ErrTokenNotFound
	}
	switch {
	case rec.Used:
		return domain.ErrTokenUsed
	case rec.Expired(time.Now()):
		return domain.ErrTokenExpired
	default:
		// The record looks redeemable but our update missed it, so a
		// concurrent redeemer must have held it at update time.
		return domain.ErrTokenUsed
	}
}

// Stats aggregates the user's token records by state. Unknown users get
// all zeros.
func (l *TokenLifecycle) Stats(ctx context.Context, userID string) (domain.TokenStats, error) {
	stats, err := l.tokens.CountByUser(ctx, userID)
	if err != nil {
		return domain.TokenStats{}, fmt.Errorf("token stats: %w", err)
	}
	return stats, nil
}

func redeemOutcome(err error) string {
	switch {
	case errors.Is(err, domain.ErrTokenNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrTokenUsed):
		return "already_used"
	case errors.Is(err, domain.ErrTokenExpired):
		return "expired"
	default:
		return "error"
	}
}
