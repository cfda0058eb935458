package usecase

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aidosbek/loginlink/internal/domain"
	"github.com/aidosbek/loginlink/internal/email"
	"github.com/aidosbek/loginlink/internal/repository"
	"github.com/golang-jwt/jwt/v5"
)

const defaultJWTTTL = 24 * time.Hour

// AuthUsecase is the issuer and consumer around the token lifecycle:
// it turns an email address into a mailed login link, and a redeemed
// token into a session plus a signed JWT.
type AuthUsecase struct {
	users     repository.UserRepository
	sessions  repository.SessionRepository
	lifecycle *TokenLifecycle
	email     email.Sender
	jwtKey    []byte
	jwtTTL    time.Duration
	tokenTTL  time.Duration
	linkBase  string
	logger    *slog.Logger
}

func NewAuthUsecase(
	users repository.UserRepository,
	sessions repository.SessionRepository,
	lifecycle *TokenLifecycle,
	emailSender email.Sender,
	jwtKey []byte,
	tokenTTL time.Duration,
	linkBase string,
	logger *slog.Logger,
) *AuthUsecase {
	return &AuthUsecase{
		users:     users,
		sessions:  sessions,
		lifecycle: lifecycle,
		email:     emailSender,
		jwtKey:    jwtKey,
		jwtTTL:    defaultJWTTTL,
		tokenTTL:  tokenTTL,
		linkBase:  linkBase,
		logger:    logger.With("component", "auth_usecase"),
	}
}

// RequestLoginLink finds or creates the user, issues and stores a
// single-use token, and emails the login link. Only the link in the email
// ever carries the raw token.
func (u *AuthUsecase) RequestLoginLink(ctx context.Context, emailAddr string) error {
	user, err := u.users.FindOrCreate(ctx, emailAddr)
	if err != nil {
		return fmt.Errorf("find or create user: %w", err)
	}

	tok, err := u.lifecycle.Issue(user.ID, u.tokenTTL)
	if err != nil {
		return fmt.Errorf("issue token: %w", err)
	}
	if err = u.lifecycle.Store(ctx, tok); err != nil {
		return fmt.Errorf("store token: %w", err)
	}

	link := u.linkBase + "/auth/verify?token=" + tok.Raw
	subject := "Your sign-in link"
	body := fmt.Sprintf(
		`<p>Click the link below to sign in (expires at %s):</p><p><a href="%s">%s</a></p>`,
		tok.ExpiresAt.UTC().Format(time.RFC1123), link, link,
	)
	if err = u.email.Send(ctx, emailAddr, subject, body); err != nil {
		return fmt.Errorf("send login link: %w", err)
	}
	return nil
}

// VerifyLoginLink redeems the raw token, opens a session, and returns a
// signed JWT. Lifecycle errors (malformed, not found, expired, used) pass
// through untouched so the handler can map them to responses.
func (u *AuthUsecase) VerifyLoginLink(ctx context.Context, rawToken string) (string, error) {
	userID, err := u.lifecycle.Redeem(ctx, rawToken)
	if err != nil {
		return "", err
	}

	user, err := u.users.FindByID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("find user: %w", err)
	}

	now := time.Now()
	session := &domain.Session{
		ID:         newSessionID(),
		UserID:     user.ID,
		ExpiresAt:  now.Add(u.jwtTTL),
		LastSeenAt: now,
	}
	if err = u.sessions.Create(ctx, session); err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}

	claims := jwt.MapClaims{
		"sub":   user.ID,
		"sid":   session.ID,
		"email": user.Email,
		"iat":   now.Unix(),
		"exp":   session.ExpiresAt.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(u.jwtKey)
	if err != nil {
		return "", fmt.Errorf("sign jwt: %w", err)
	}
	return signed, nil
}

// Logout removes the session; the JWT dies with it at expiry.
func (u *AuthUsecase) Logout(ctx context.Context, sessionID string) error {
	if err := u.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// newSessionID returns 64 hex characters of fresh randomness. Session IDs
// only ever travel inside signed JWTs, so unlike login tokens they are
// stored as-is.
func newSessionID() string {
	buf := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		panic(fmt.Sprintf("read random bytes: %v", err))
	}
	return hex.EncodeToString(buf)
}
