// Package config provides environment-driven configuration for auditflow.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Secret wraps a sensitive string to prevent accidental logging or marshalling.
type Secret string

// String implements fmt.Stringer, returning a redacted placeholder.
func (s Secret) String() string { return "[REDACTED]" }

// GoString implements fmt.GoStringer, returning a redacted placeholder.
func (s Secret) GoString() string { return "[REDACTED]" }

// MarshalText implements encoding.TextMarshaler, returning a redacted placeholder.
func (s Secret) MarshalText() ([]byte, error) { return []byte("[REDACTED]"), nil }

// Value returns the underlying secret string.
func (s Secret) Value() string { return string(s) }

// Config holds all application configuration values.
type Config struct {
	DatabaseURL Secret
	Port        string
	ListenHost  string
	CORSOrigins []string
	LogLevel    string

	IndexWorkers       int
	QueueBatchSize     int
	QueuePollInterval  time.Duration
	QueueVisibility    time.Duration
	QueueMaxAttempts   int
	StalenessThreshold time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL: Secret(envOrDefault("DATABASE_URL", "")),
		Port:        envOrDefault("PORT", "3000"),
		ListenHost:  envOrDefault("LISTEN_HOST", "127.0.0.1"),
		LogLevel:    envOrDefault("LOG_LEVEL", "info"),
	}

	indexWorkers, err := strconv.Atoi(envOrDefault("INDEX_WORKERS", "2"))
	if err != nil || indexWorkers < 1 || indexWorkers > 16 {
		return nil, fmt.Errorf("INDEX_WORKERS must be an integer between 1 and 16")
	}
	cfg.IndexWorkers = indexWorkers

	batchSize, err := strconv.Atoi(envOrDefault("QUEUE_BATCH_SIZE", "100"))
	if err != nil || batchSize < 1 || batchSize > 1000 {
		return nil, fmt.Errorf("QUEUE_BATCH_SIZE must be an integer between 1 and 1000")
	}
	cfg.QueueBatchSize = batchSize

	maxAttempts, err := strconv.Atoi(envOrDefault("QUEUE_MAX_ATTEMPTS", "10"))
	if err != nil || maxAttempts < 1 || maxAttempts > 100 {
		return nil, fmt.Errorf("QUEUE_MAX_ATTEMPTS must be an integer between 1 and 100")
	}
	cfg.QueueMaxAttempts = maxAttempts

	if cfg.QueuePollInterval, err = durationOrDefault("QUEUE_POLL_INTERVAL", time.Second); err != nil {
		return nil, err
	}
	if cfg.QueueVisibility, err = durationOrDefault("QUEUE_VISIBILITY_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.StalenessThreshold, err = durationOrDefault("STALENESS_THRESHOLD", time.Hour); err != nil {
		return nil, err
	}

	origins := envOrDefault("CORS_ORIGINS", "http://localhost:3001")
	cfg.CORSOrigins = strings.Split(origins, ",")

	for i, o := range cfg.CORSOrigins {
		cfg.CORSOrigins[i] = strings.TrimSpace(o)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// Addr returns the listen address in host:port format.
func (c *Config) Addr() string {
	return c.ListenHost + ":" + c.Port
}

func durationOrDefault(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}

	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration (e.g. 30s, 1h)", key)
	}

	return d, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}
