package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/aidosbek/loginlink/internal/domain"
	"github.com/gin-gonic/gin"
)

// authUsecaser is the subset of AuthUsecase the handler needs.
// Defined here (point of use) so tests can inject a fake.
type authUsecaser interface {
	RequestLoginLink(ctx context.Context, email string) error
	VerifyLoginLink(ctx context.Context, rawToken string) (string, error)
	Logout(ctx context.Context, sessionID string) error
}

type AuthHandler struct {
	auth   authUsecaser
	logger *slog.Logger
}

func NewAuthHandler(auth authUsecaser, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		auth:   auth,
		logger: logger.With("component", "auth_handler"),
	}
}

type loginLinkRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// POST /auth/magic-link
// Always returns 200 to avoid revealing whether the email exists.
func (h *AuthHandler) RequestLoginLink(c *gin.Context) {
	var req loginLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.auth.RequestLoginLink(c.Request.Context(), req.Email); err != nil {
		h.logger.ErrorContext(c.Request.Context(), "request login link", "error", err)
	}

	c.Status(http.StatusOK)
}

// GET /auth/verify?token=<raw>
// Returns {"token": "<jwt>"} on success; the failure code names the exact
// reason so the login page can react.
func (h *AuthHandler) Verify(c *gin.Context) {
	rawToken := c.Query("token")

	jwtToken, err := h.auth.VerifyLoginLink(c.Request.Context(), rawToken)
	if err != nil {
		status, code := verifyError(err)
		if status == http.StatusInternalServerError {
			h.logger.ErrorContext(c.Request.Context(), "verify login link", "error", err)
		}
		c.JSON(status, gin.H{"error": code})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": jwtToken})
}

// DELETE /auth/session
// Requires auth; removes the caller's own session.
func (h *AuthHandler) Logout(c *gin.Context) {
	sessionID := c.GetString("sessionID")
	if sessionID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": errInvalidToken})
		return
	}

	if err := h.auth.Logout(c.Request.Context(), sessionID); err != nil {
		h.logger.ErrorContext(c.Request.Context(), "logout", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}
	c.Status(http.StatusNoContent)
}

func verifyError(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrTokenMalformed):
		return http.StatusBadRequest, errMalformedToken
	case errors.Is(err, domain.ErrTokenNotFound):
		return http.StatusUnauthorized, errInvalidToken
	case errors.Is(err, domain.ErrTokenExpired):
		return http.StatusUnauthorized, errExpiredToken
	case errors.Is(err, domain.ErrTokenUsed):
		return http.StatusUnauthorized, errUsedToken
	default:
		return http.StatusInternalServerError, errInternalServer
	}
}
