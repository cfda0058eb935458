// Package sweeper removes login token and session records that no longer
// serve any purpose: anything past its expiry, and used tokens older than
// the retention window. Passes are idempotent bulk deletes, so overlapping
// or skipped runs are harmless.
package sweeper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aidosbek/loginlink/internal/metrics"
	"github.com/aidosbek/loginlink/internal/repository"
	"github.com/robfig/cron/v3"
)

type Sweeper struct {
	tokens    repository.TokenRepository
	sessions  repository.SessionRepository
	logger    *slog.Logger
	expiry    cron.Schedule
	used      cron.Schedule
	retention time.Duration
}

// New parses both schedules up front so a bad expression fails at startup
// rather than on the first tick.
func New(
	tokens repository.TokenRepository,
	sessions repository.SessionRepository,
	logger *slog.Logger,
	expiryExpr, usedExpr string,
	retention time.Duration,
) (*Sweeper, error) {
	expiry, err := cron.ParseStandard(expiryExpr)
	if err != nil {
		return nil, fmt.Errorf("parse expiry sweep schedule: %w", err)
	}
	used, err := cron.ParseStandard(usedExpr)
	if err != nil {
		return nil, fmt.Errorf("parse used sweep schedule: %w", err)
	}
	return &Sweeper{
		tokens:    tokens,
		sessions:  sessions,
		logger:    logger.With("component", "sweeper"),
		expiry:    expiry,
		used:      used,
		retention: retention,
	}, nil
}

// Start runs both sweep loops until ctx is cancelled. The loops share no
// state; a failed pass just waits for its next slot.
func (s *Sweeper) Start(ctx context.Context) {
	s.logger.Info("sweeper started", "retention", s.retention)

	go s.run(ctx, "used", s.used, s.SweepUsed)
	s.run(ctx, "expiry", s.expiry, s.SweepExpired)
}

func (s *Sweeper) run(ctx context.Context, pass string, sched cron.Schedule, sweep func(context.Context)) {
	for {
		next := sched.Next(time.Now())
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info("sweep loop shut down", "pass", pass)
			return
		case <-timer.C:
			sweep(ctx)
		}
	}
}

// SweepExpired deletes every token and session past its expiry. The two
// deletes are independent; a failure in one does not block the other.
func (s *Sweeper) SweepExpired(ctx context.Context) {
	start := time.Now()

	tokens, err := s.tokens.DeleteExpired(ctx)
	if err != nil {
		s.logger.Error("sweep expired tokens", "error", err)
	} else if tokens > 0 {
		metrics.SweeperDeletedTotal.WithLabelValues("expired_token").Add(float64(tokens))
		s.logger.Info("swept expired tokens", "count", tokens)
	}

	sessions, err := s.sessions.DeleteExpired(ctx)
	if err != nil {
		s.logger.Error("sweep expired sessions", "error", err)
	} else if sessions > 0 {
		metrics.SweeperDeletedTotal.WithLabelValues("expired_session").Add(float64(sessions))
		s.logger.Info("swept expired sessions", "count", sessions)
	}

	metrics.SweepCycleDuration.WithLabelValues("expiry").Observe(time.Since(start).Seconds())
}

// SweepUsed deletes tokens redeemed more than the retention window ago.
// Used records are kept around that long for audit queries and stats.
func (s *Sweeper) SweepUsed(ctx context.Context) {
	start := time.Now()
	cutoff := time.Now().Add(-s.retention)

	deleted, err := s.tokens.DeleteUsedBefore(ctx, cutoff)
	if err != nil {
		s.logger.Error("sweep used tokens", "error", err)
	} else if deleted > 0 {
		metrics.SweeperDeletedTotal.WithLabelValues("used_token").Add(float64(deleted))
		s.logger.Info("swept used tokens", "count", deleted, "cutoff", cutoff)
	}

	metrics.SweepCycleDuration.WithLabelValues("used").Observe(time.Since(start).Seconds())
}
