package config

import (
	"fmt"
	"log/slog"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
)

type Config struct {
	Env      string `env:"ENV" envDefault:"local" validate:"required,oneof=local staging production"`
	Port     string `env:"PORT" envDefault:"8080" validate:"required"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`

	DatabaseURL string `env:"DATABASE_URL,required" validate:"required"`
	MetricsPort string `env:"METRICS_PORT" envDefault:"9090"`

	JWTSecret    string `env:"JWT_SECRET,required"  validate:"required,min=32"`
	ResendAPIKey string `env:"RESEND_API_KEY"       validate:"required_if=Env production,required_if=Env staging"`
	ResendFrom   string `env:"RESEND_FROM"          validate:"required_if=Env production,required_if=Env staging"`
	LinkBase     string `env:"LINK_BASE_URL"        envDefault:"http://localhost:8080"`

	TokenTTLMin int `env:"TOKEN_TTL_MIN" envDefault:"60" validate:"min=1,max=1440"`

	// Sweep schedules use the standard 5-field cron syntax, plus the
	// @every shorthand, parsed by robfig/cron.
	ExpirySweepSchedule string `env:"EXPIRY_SWEEP_SCHEDULE" envDefault:"@every 10m"`
	UsedSweepSchedule   string `env:"USED_SWEEP_SCHEDULE"   envDefault:"@every 24h"`
	UsedRetentionDays   int    `env:"USED_RETENTION_DAYS"   envDefault:"30" validate:"min=1"`
}

func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	for _, expr := range []string{cfg.ExpirySweepSchedule, cfg.UsedSweepSchedule} {
		if _, err := cron.ParseStandard(expr); err != nil {
			return nil, fmt.Errorf("invalid sweep schedule %q: %w", expr, err)
		}
	}

	return cfg, nil
}

func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
