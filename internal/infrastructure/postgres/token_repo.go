package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aidosbek/loginlink/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TokenRepository struct {
	pool *pgxpool.Pool
}

func NewTokenRepository(pool *pgxpool.Pool) *TokenRepository {
	return &TokenRepository{pool: pool}
}

func (r *TokenRepository) Insert(ctx context.Context, tokenHash, userID string, expiresAt time.Time) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO login_tokens (token_hash, user_id, expires_at)
		VALUES ($1, $2, $3)`,
		tokenHash, userID, expiresAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23503":
				return domain.ErrUserUnknown
			case "23505":
				return domain.ErrTokenExists
			}
		}
		return fmt.Errorf("insert login token: %w", err)
	}
	return nil
}

func (r *TokenRepository) FindByHash(ctx context.Context, tokenHash string) (*domain.LoginToken, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT token_hash, user_id, created_at, expires_at, used, used_at
		FROM login_tokens
		WHERE token_hash = $1`,
		tokenHash,
	)
	return scanToken(row)
}

// Consume is the single synchronization primitive of the whole subsystem.
// The WHERE predicate makes the flip conditional; Postgres guarantees that
// for one hash at most one concurrent UPDATE matches the row while it is
// still unused, so exactly one caller gets it back from RETURNING.
func (r *TokenRepository) Consume(ctx context.Context, tokenHash string) (string, error) {
	var userID string
	err := r.pool.QueryRow(ctx, `
		UPDATE login_tokens
		SET    used    = TRUE,
		       used_at = NOW()
		WHERE  token_hash = $1
		  AND  used       = FALSE
		  AND  expires_at > NOW()
		RETURNING user_id`,
		tokenHash,
	).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.ErrTokenNotFound
		}
		return "", fmt.Errorf("consume login token: %w", err)
	}
	return userID, nil
}

func (r *TokenRepository) CountByUser(ctx context.Context, userID string) (domain.TokenStats, error) {
	var stats domain.TokenStats
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE NOT used AND expires_at > NOW()),
		       COUNT(*) FILTER (WHERE used),
		       COUNT(*) FILTER (WHERE NOT used AND expires_at <= NOW())
		FROM login_tokens
		WHERE user_id = $1`,
		userID,
	).Scan(&stats.Total, &stats.Active, &stats.Used, &stats.Expired)
	if err != nil {
		return domain.TokenStats{}, fmt.Errorf("count login tokens: %w", err)
	}
	return stats, nil
}

func (r *TokenRepository) DeleteExpired(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM login_tokens WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, fmt.Errorf("delete expired login tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *TokenRepository) DeleteUsedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM login_tokens WHERE used AND used_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete used login tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanToken(row pgx.Row) (*domain.LoginToken, error) {
	var t domain.LoginToken
	err := row.Scan(&t.TokenHash, &t.UserID, &t.CreatedAt, &t.ExpiresAt, &t.Used, &t.UsedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTokenNotFound
		}
		return nil, fmt.Errorf("scan login token: %w", err)
	}
	return &t, nil
}
