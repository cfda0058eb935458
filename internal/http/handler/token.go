package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/aidosbek/loginlink/internal/domain"
	"github.com/gin-gonic/gin"
)

type tokenUsecaser interface {
	CheckValidity(ctx context.Context, raw string) (string, error)
	Stats(ctx context.Context, userID string) (domain.TokenStats, error)
}

type TokenHandler struct {
	tokens tokenUsecaser
	logger *slog.Logger
}

func NewTokenHandler(tokens tokenUsecaser, logger *slog.Logger) *TokenHandler {
	return &TokenHandler{
		tokens: tokens,
		logger: logger.With("component", "token_handler"),
	}
}

// GET /auth/check?token=<raw>
// Non-mutating probe: reports whether the token would redeem right now,
// without consuming it. Always 200 for resolvable outcomes.
func (h *TokenHandler) Check(c *gin.Context) {
	raw := c.Query("token")

	_, err := h.tokens.CheckValidity(c.Request.Context(), raw)
	if err == nil {
		c.JSON(http.StatusOK, gin.H{"valid": true})
		return
	}

	_, code := verifyError(err)
	if code == errInternalServer {
		h.logger.ErrorContext(c.Request.Context(), "check token", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": false, "reason": code})
}

// GET /tokens/stats
// Requires auth; reports the caller's own token counts by state.
func (h *TokenHandler) Stats(c *gin.Context) {
	userID := c.GetString("userID")

	stats, err := h.tokens.Stats(c.Request.Context(), userID)
	if err != nil {
		h.logger.ErrorContext(c.Request.Context(), "token stats", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}
	c.JSON(http.StatusOK, stats)
}
