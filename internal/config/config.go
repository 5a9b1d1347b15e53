// Package config declares the command-line and environment settings of the
// LifeBoard server. Values are parsed by kong; every flag has a LIFEBOARD_*
// environment fallback.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lifeboard/lifeboard/internal/habit"
)

type Config struct {
	Port     int    `help:"HTTP listen port." default:"8080" env:"LIFEBOARD_PORT"`
	DBPath   string `name:"db" help:"SQLite database path." default:"lifeboard.db" env:"LIFEBOARD_DB_PATH"`
	LogLevel string `help:"Log level (debug, info, warn, error)." default:"info" env:"LIFEBOARD_LOG_LEVEL"`
	LogFile  string `help:"Also write logs to this file, rotated by size." env:"LIFEBOARD_LOG_FILE"`

	JWTSecret string        `name:"jwt-secret" help:"HMAC secret for access tokens." env:"LIFEBOARD_JWT_SECRET"`
	TokenTTL  time.Duration `name:"token-ttl" help:"Access token lifetime." default:"24h" env:"LIFEBOARD_TOKEN_TTL"`

	CompletionMode string `help:"What toggling a completed day does: one_way or toggle." default:"one_way" env:"LIFEBOARD_COMPLETION_MODE"`
	AllowFuture    bool   `help:"Allow completing habits on future dates." env:"LIFEBOARD_ALLOW_FUTURE"`
	HeatmapDays    int    `help:"Days of history returned with a habit detail." default:"365" env:"LIFEBOARD_HEATMAP_DAYS"`

	AllowedOrigins []string `help:"Origin patterns accepted for WebSocket upgrades." env:"LIFEBOARD_ALLOWED_ORIGINS"`
	TrustProxy     bool     `help:"Take client IPs from X-Real-IP / X-Forwarded-For (only behind a reverse proxy)." env:"LIFEBOARD_TRUST_PROXY"`
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks the settings shared by every command.
func (c *Config) Validate() error {
	var errs []error
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if strings.TrimSpace(c.DBPath) == "" {
		errs = append(errs, errors.New("db path is required"))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Errorf("unknown log level %q", c.LogLevel))
	}
	if _, err := habit.ParseMode(c.CompletionMode); err != nil {
		errs = append(errs, err)
	}
	if c.HeatmapDays < 1 {
		errs = append(errs, fmt.Errorf("heatmap days must be positive, got %d", c.HeatmapDays))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, fmt.Errorf("token ttl must be positive, got %s", c.TokenTTL))
	}
	return errors.Join(errs...)
}

// ValidateServe adds the checks that only apply when serving HTTP.
func (c *Config) ValidateServe() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if len(c.JWTSecret) < 16 {
		return errors.New("jwt secret must be at least 16 characters (set LIFEBOARD_JWT_SECRET)")
	}
	return nil
}

// Policy returns the completion policy described by the settings.
// It assumes Validate has passed.
func (c *Config) Policy() habit.Policy {
	mode, _ := habit.ParseMode(c.CompletionMode)
	return habit.Policy{
		Mode:        mode,
		AllowFuture: c.AllowFuture,
		HeatmapDays: c.HeatmapDays,
	}
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
