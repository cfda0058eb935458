package repository

import (
	"context"
	"time"

	"github.com/aidosbek/loginlink/internal/domain"
)

type SessionRepository interface {
	Create(ctx context.Context, session *domain.Session) error
	FindByID(ctx context.Context, id string) (*domain.Session, error)
	// Touch updates last_seen_at; best-effort, missing rows are not an error.
	Touch(ctx context.Context, id string, seenAt time.Time) error
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context) (int64, error)
}
