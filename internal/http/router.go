package httptransport

import (
	"log/slog"

	"github.com/aidosbek/loginlink/internal/http/handler"
	"github.com/aidosbek/loginlink/internal/http/middleware"
	"github.com/aidosbek/loginlink/internal/repository"
	"github.com/gin-gonic/gin"

	sloggin "github.com/samber/slog-gin"
)

func NewRouter(
	logger *slog.Logger,
	authHandler *handler.AuthHandler,
	tokenHandler *handler.TokenHandler,
	sessions repository.SessionRepository,
	jwtKey []byte,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Security())
	r.Use(sloggin.New(logger))
	r.Use(middleware.Metrics())

	// Public login flow
	auth := r.Group("/auth")
	auth.POST("/magic-link", authHandler.RequestLoginLink)
	auth.GET("/verify", authHandler.Verify)
	auth.GET("/check", tokenHandler.Check)

	// Protected routes
	authMW := middleware.Auth(jwtKey)
	touch := middleware.TouchSession(sessions, logger)

	auth.DELETE("/session", authMW, touch, authHandler.Logout)
	r.GET("/tokens/stats", authMW, touch, tokenHandler.Stats)

	return r
}
