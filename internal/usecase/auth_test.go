package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/aidosbek/loginlink/internal/domain"
	"github.com/aidosbek/loginlink/internal/token"
	"github.com/aidosbek/loginlink/internal/usecase"
	"github.com/golang-jwt/jwt/v5"
)

// ---- fakes ----

type fakeUserRepo struct {
	findOrCreate func(ctx context.Context, email string) (*domain.User, error)
	findByID     func(ctx context.Context, id string) (*domain.User, error)
}

func (r *fakeUserRepo) FindOrCreate(ctx context.Context, email string) (*domain.User, error) {
	return r.findOrCreate(ctx, email)
}

func (r *fakeUserRepo) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return r.findByID(ctx, id)
}

type fakeSessionRepo struct {
	create        func(ctx context.Context, s *domain.Session) error
	findByID      func(ctx context.Context, id string) (*domain.Session, error)
	touch         func(ctx context.Context, id string, seenAt time.Time) error
	delete        func(ctx context.Context, id string) error
	deleteExpired func(ctx context.Context) (int64, error)
}

func (r *fakeSessionRepo) Create(ctx context.Context, s *domain.Session) error {
	return r.create(ctx, s)
}

func (r *fakeSessionRepo) FindByID(ctx context.Context, id string) (*domain.Session, error) {
	return r.findByID(ctx, id)
}

func (r *fakeSessionRepo) Touch(ctx context.Context, id string, seenAt time.Time) error {
	return r.touch(ctx, id, seenAt)
}

func (r *fakeSessionRepo) Delete(ctx context.Context, id string) error {
	return r.delete(ctx, id)
}

func (r *fakeSessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	return r.deleteExpired(ctx)
}

type fakeEmailSender struct {
	send func(ctx context.Context, to, subject, body string) error
}

func (s *fakeEmailSender) Send(ctx context.Context, to, subject, body string) error {
	return s.send(ctx, to, subject, body)
}

// ---- helpers ----

const (
	testJWTKey   = "test-jwt-secret-at-least-32-chars!!"
	testLinkBase = "http://localhost:8080"
)

var testUser = &domain.User{ID: "user-1", Email: "test@example.com"}

func okUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		findOrCreate: func(_ context.Context, _ string) (*domain.User, error) {
			return testUser, nil
		},
		findByID: func(_ context.Context, _ string) (*domain.User, error) {
			return testUser, nil
		},
	}
}

func okSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{
		create: func(_ context.Context, _ *domain.Session) error { return nil },
		delete: func(_ context.Context, _ string) error { return nil },
	}
}

func newAuth(users *fakeUserRepo, sessions *fakeSessionRepo, sender *fakeEmailSender) (*usecase.AuthUsecase, *memTokenStore) {
	store := newMemTokenStore()
	lifecycle := usecase.NewTokenLifecycle(store, token.NewCodec(token.Default()), slog.Default())
	auth := usecase.NewAuthUsecase(
		users, sessions, lifecycle, sender,
		[]byte(testJWTKey), 15*time.Minute, testLinkBase, slog.Default(),
	)
	return auth, store
}

// extractRawToken pulls the raw token out of the link embedded in the email body.
func extractRawToken(t *testing.T, body string) string {
	t.Helper()
	idx := strings.Index(body, "?token=")
	if idx == -1 {
		t.Fatal("email body does not contain ?token=")
	}
	return strings.SplitN(body[idx+len("?token="):], `"`, 2)[0]
}

// ---- RequestLoginLink ----

func TestRequestLoginLink_StoresHashOfEmailedToken(t *testing.T) {
	var capturedBody string
	sender := &fakeEmailSender{
		send: func(_ context.Context, _, _, body string) error {
			capturedBody = body
			return nil
		},
	}
	auth, store := newAuth(okUserRepo(), okSessionRepo(), sender)

	if err := auth.RequestLoginLink(context.Background(), testUser.Email); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	raw := extractRawToken(t, capturedBody)
	codec := token.NewCodec(token.Default())
	rec, ok := store.records[codec.Hash(raw)]
	if !ok {
		t.Fatalf("no stored record for SHA-256 of emailed token %q", raw)
	}
	if rec.UserID != testUser.ID {
		t.Errorf("stored userID = %q, want %q", rec.UserID, testUser.ID)
	}
	if strings.Contains(capturedBody, rec.TokenHash) {
		t.Error("email body leaks the stored digest")
	}
}

func TestRequestLoginLink_TokenExpiresInFuture(t *testing.T) {
	sender := &fakeEmailSender{
		send: func(_ context.Context, _, _, _ string) error { return nil },
	}
	auth, store := newAuth(okUserRepo(), okSessionRepo(), sender)

	before := time.Now()
	if err := auth.RequestLoginLink(context.Background(), testUser.Email); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, rec := range store.records {
		if !rec.ExpiresAt.After(before) {
			t.Errorf("expiry %v is not after request time %v", rec.ExpiresAt, before)
		}
	}
}

func TestRequestLoginLink_UserRepoError_Propagates(t *testing.T) {
	repoErr := errors.New("db down")
	users := &fakeUserRepo{
		findOrCreate: func(_ context.Context, _ string) (*domain.User, error) {
			return nil, repoErr
		},
	}
	auth, _ := newAuth(users, okSessionRepo(), &fakeEmailSender{})

	err := auth.RequestLoginLink(context.Background(), testUser.Email)
	if !errors.Is(err, repoErr) {
		t.Errorf("want wrapped repoErr, got %v", err)
	}
}

func TestRequestLoginLink_EmailError_Propagates(t *testing.T) {
	sendErr := errors.New("smtp unavailable")
	sender := &fakeEmailSender{
		send: func(_ context.Context, _, _, _ string) error { return sendErr },
	}
	auth, _ := newAuth(okUserRepo(), okSessionRepo(), sender)

	err := auth.RequestLoginLink(context.Background(), testUser.Email)
	if !errors.Is(err, sendErr) {
		t.Errorf("want wrapped sendErr, got %v", err)
	}
}

// ---- VerifyLoginLink ----

func TestVerifyLoginLink_ReturnsSignedJWTAndCreatesSession(t *testing.T) {
	var capturedBody string
	var capturedSession *domain.Session
	sender := &fakeEmailSender{
		send: func(_ context.Context, _, _, body string) error {
			capturedBody = body
			return nil
		},
	}
	sessions := okSessionRepo()
	sessions.create = func(_ context.Context, s *domain.Session) error {
		capturedSession = s
		return nil
	}
	auth, _ := newAuth(okUserRepo(), sessions, sender)

	if err := auth.RequestLoginLink(context.Background(), testUser.Email); err != nil {
		t.Fatalf("request: %v", err)
	}
	raw := extractRawToken(t, capturedBody)

	signed, err := auth.VerifyLoginLink(context.Background(), raw)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}

	if capturedSession == nil {
		t.Fatal("no session created")
	}
	if capturedSession.UserID != testUser.ID {
		t.Errorf("session userID = %q, want %q", capturedSession.UserID, testUser.ID)
	}
	if len(capturedSession.ID) != 64 {
		t.Errorf("session ID length = %d, want 64", len(capturedSession.ID))
	}

	parsed, parseErr := jwt.Parse(signed, func(tk *jwt.Token) (any, error) {
		if _, ok := tk.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected method")
		}
		return []byte(testJWTKey), nil
	})
	if parseErr != nil || !parsed.Valid {
		t.Fatalf("returned JWT is invalid: %v", parseErr)
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		t.Fatal("could not cast claims")
	}
	if claims["sub"] != testUser.ID {
		t.Errorf("sub = %v, want %q", claims["sub"], testUser.ID)
	}
	if claims["sid"] != capturedSession.ID {
		t.Errorf("sid = %v, want %q", claims["sid"], capturedSession.ID)
	}
}

func TestVerifyLoginLink_SecondUseFails(t *testing.T) {
	var capturedBody string
	sender := &fakeEmailSender{
		send: func(_ context.Context, _, _, body string) error {
			capturedBody = body
			return nil
		},
	}
	auth, _ := newAuth(okUserRepo(), okSessionRepo(), sender)

	if err := auth.RequestLoginLink(context.Background(), testUser.Email); err != nil {
		t.Fatalf("request: %v", err)
	}
	raw := extractRawToken(t, capturedBody)

	if _, err := auth.VerifyLoginLink(context.Background(), raw); err != nil {
		t.Fatalf("first verify: %v", err)
	}
	if _, err := auth.VerifyLoginLink(context.Background(), raw); !errors.Is(err, domain.ErrTokenUsed) {
		t.Errorf("second verify: want ErrTokenUsed, got %v", err)
	}
}

func TestVerifyLoginLink_UnknownToken_ReturnsNotFound(t *testing.T) {
	auth, _ := newAuth(okUserRepo(), okSessionRepo(), &fakeEmailSender{})

	_, err := auth.VerifyLoginLink(context.Background(), "AAAAAAAAAAAAAAAA")
	if !errors.Is(err, domain.ErrTokenNotFound) {
		t.Errorf("want ErrTokenNotFound, got %v", err)
	}
}

func TestVerifyLoginLink_MalformedToken(t *testing.T) {
	auth, _ := newAuth(okUserRepo(), okSessionRepo(), &fakeEmailSender{})

	_, err := auth.VerifyLoginLink(context.Background(), "bad-token")
	if !errors.Is(err, domain.ErrTokenMalformed) {
		t.Errorf("want ErrTokenMalformed, got %v", err)
	}
}

// ---- Logout ----

func TestLogout_DeletesSession(t *testing.T) {
	var deletedID string
	sessions := okSessionRepo()
	sessions.delete = func(_ context.Context, id string) error {
		deletedID = id
		return nil
	}
	auth, _ := newAuth(okUserRepo(), sessions, &fakeEmailSender{})

	if err := auth.Logout(context.Background(), "session-42"); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if deletedID != "session-42" {
		t.Errorf("deleted session = %q, want session-42", deletedID)
	}
}
