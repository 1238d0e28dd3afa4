// Package config loads runtime settings for the bankist binaries from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	defaultHTTPAddr     = ":8080"
	defaultGRPCAddr     = ":9091"
	defaultSessionTTL   = 10 * time.Minute
	defaultRateBurst    = 20
	defaultRatePerSec   = 10
	defaultReportErrors = false

	envHTTPAddr      = "BANKIST_HTTP_ADDR"
	envGRPCAddr      = "BANKIST_GRPC_ADDR"
	envPGDSN         = "BANKIST_PG_DSN"
	envSessionSecret = "BANKIST_SESSION_SECRET"
	envSessionTTL    = "BANKIST_SESSION_TTL"
	envRateBurst     = "BANKIST_RATE_BURST"
	envRatePerSec    = "BANKIST_RATE_PER_SEC"
	envReportErrors  = "BANKIST_REPORT_ERRORS"
)

// Config holds the settings shared by cmd/bankist-api and cmd/migrate.
type Config struct {
	HTTPAddr string
	GRPCAddr string

	// PGDSN selects the Postgres account store when non-empty; otherwise the
	// in-memory store seeded with the demo accounts is used.
	PGDSN string

	SessionSecret string
	SessionTTL    time.Duration

	RateBurst  int
	RatePerSec int

	// ReportErrors makes the HTTP adapter answer failed operations with error
	// bodies instead of an empty render frame.
	ReportErrors bool
}

// Load reads the configuration from environment variables, logging a warning
// for every value that is present but unusable.
func Load(logger *zap.Logger) Config {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg := Config{
		HTTPAddr:      Env(envHTTPAddr, defaultHTTPAddr),
		GRPCAddr:      Env(envGRPCAddr, defaultGRPCAddr),
		PGDSN:         strings.TrimSpace(os.Getenv(envPGDSN)),
		SessionSecret: strings.TrimSpace(os.Getenv(envSessionSecret)),
		SessionTTL:    envDuration(logger, envSessionTTL, defaultSessionTTL),
		RateBurst:     envPositiveInt(logger, envRateBurst, defaultRateBurst),
		RatePerSec:    envPositiveInt(logger, envRatePerSec, defaultRatePerSec),
		ReportErrors:  envBool(logger, envReportErrors, defaultReportErrors),
	}
	if cfg.SessionSecret == "" {
		logger.Warn("session secret not configured, tokens will not survive a restart",
			zap.String("env", envSessionSecret))
	}
	return cfg
}

// Env returns the value of key or def when it is unset or empty.
func Env(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envPositiveInt(logger *zap.Logger, key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		logger.Warn("invalid integer, using default",
			zap.String("env", key), zap.String("value", raw), zap.Int("default", def))
		return def
	}
	return n
}

func envBool(logger *zap.Logger, key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		logger.Warn("invalid boolean, using default",
			zap.String("env", key), zap.String("value", raw), zap.Bool("default", def), zap.Error(err))
		return def
	}
	return b
}

func envDuration(logger *zap.Logger, key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		logger.Warn("invalid duration, using default",
			zap.String("env", key), zap.String("value", raw), zap.Duration("default", def))
		return def
	}
	return d
}
