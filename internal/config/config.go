// Package config provides centralized configuration management for the
// application. It loads configuration from environment variables with
// sensible defaults and validates all settings on startup to fail fast on
// misconfiguration.
package config

import "time"

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server  ServerConfig
	Catalog CatalogConfig
	Ingest  IngestConfig
	History HistoryConfig
	Rate    RateLimitConfig
	Logging LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing response (default: 0 for SSE)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"0s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`
}

// CatalogConfig holds settings for the catalog service the pipeline
// uploads to.
type CatalogConfig struct {
	// BaseURL is the catalog service root, e.g. http://localhost:8000 (required)
	// Supports both CATALOG_URL and API_BASE_URL env vars for compatibility
	BaseURL string `env:"CATALOG_URL" envAlt:"API_BASE_URL" required:"true"`

	// Timeout is the per-request timeout for bulk upload calls (default: 30s)
	Timeout time.Duration `env:"CATALOG_TIMEOUT" default:"30s"`
}

// IngestConfig holds ingestion pipeline settings.
type IngestConfig struct {
	// BatchSize is the number of products sent per bulk request (default: 10)
	BatchSize int `env:"INGEST_BATCH_SIZE" default:"10"`

	// PaceInterval is the fixed pause between batches (default: 500ms)
	PaceInterval time.Duration `env:"INGEST_PACE_INTERVAL" default:"500ms"`

	// MaxConcurrentRuns is the maximum number of parallel runs (default: 5)
	MaxConcurrentRuns int `env:"INGEST_MAX_CONCURRENT_RUNS" default:"5"`

	// MaxFileSize is the maximum allowed source file size in bytes (default: 25MB)
	MaxFileSize int64 `env:"INGEST_MAX_FILE_SIZE" default:"26214400"`

	// DefaultTrendID associates uploaded products with a trend when the
	// source has no trend_id column. Zero means no association.
	DefaultTrendID int `env:"INGEST_DEFAULT_TREND_ID" default:"0"`
}

// HistoryConfig holds run history persistence settings.
type HistoryConfig struct {
	// Path is the history database location (default: ingest-history.db)
	Path string `env:"HISTORY_DB_PATH" default:"ingest-history.db"`

	// Retention is how long run records are kept (default: 2160h = 90 days)
	Retention time.Duration `env:"HISTORY_RETENTION" default:"2160h"`

	// CheckInterval is how often the prune job runs (default: 24h)
	CheckInterval time.Duration `env:"HISTORY_CHECK_INTERVAL" default:"24h"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// RunLimit is requests per minute for run-creating endpoints (default: 10)
	RunLimit int `env:"RATE_LIMIT_RUNS" default:"10"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// TrendID returns the configured default trend association, or nil when
// none is set.
func (c *IngestConfig) TrendID() *int {
	if c.DefaultTrendID == 0 {
		return nil
	}
	id := c.DefaultTrendID
	return &id
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	if c.Host == "" {
		return ":" + itoa(c.Port)
	}
	return c.Host + ":" + itoa(c.Port)
}

// itoa converts an int to string without importing strconv in this file.
func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	var b [20]byte
	n := len(b)
	neg := i < 0
	if neg {
		i = -i
	}
	for i > 0 {
		n--
		b[n] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		n--
		b[n] = '-'
	}
	return string(b[n:])
}
