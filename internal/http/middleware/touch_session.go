package middleware

import (
	"log/slog"
	"time"

	"github.com/aidosbek/loginlink/internal/repository"
	"github.com/gin-gonic/gin"
)

// TouchSession runs after Auth and updates the session's last_seen_at.
// Best-effort: a failed touch is logged but never blocks the request.
func TouchSession(sessions repository.SessionRepository, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if sessionID := c.GetString("sessionID"); sessionID != "" {
			if err := sessions.Touch(c.Request.Context(), sessionID, time.Now()); err != nil {
				logger.WarnContext(c.Request.Context(), "touch session", "error", err)
			}
		}
		c.Next()
	}
}
