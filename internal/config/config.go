// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Data     DataConfig
	Ranking  RankingConfig
	Metrics  MetricsConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading the request (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing the response (default: 30s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"30s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 30s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"30s"`

	// TrustedProxies lists CIDRs whose X-Real-IP and X-Forwarded-For headers
	// are believed. Comma-separated; empty trusts nobody.
	TrustedProxies []string `env:"SERVER_TRUSTED_PROXIES"`

	// RateLimit is the requests allowed per client IP each minute; 0 disables (default: 100)
	RateLimit int `env:"SERVER_RATE_LIMIT" default:"100"`
}

// DatabaseConfig holds run persistence settings.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string or the SQLite DSN.
	// Empty disables persistence.
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// Driver selects the store: postgres or sqlite (default: postgres)
	Driver string `env:"DB_DRIVER" default:"postgres"`

	// MaxConns is the maximum number of connections in the pool (default: 10)
	MaxConns int `env:"DB_MAX_CONNS" default:"10"`

	// MinConns is the minimum number of connections to keep open (default: 1)
	MinConns int `env:"DB_MIN_CONNS" default:"1"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// Enabled reports whether a store is configured.
func (c *DatabaseConfig) Enabled() bool {
	return c.URL != ""
}

// DataConfig holds the pipeline inputs.
type DataConfig struct {
	// EmissionsPath is the emissions file. Empty means boot from the
	// latest stored run.
	EmissionsPath string `env:"DATA_EMISSIONS_PATH"`

	// ContinentsPath is the ISO_CODE<TAB>Continent table (default: data/continents.txt)
	ContinentsPath string `env:"DATA_CONTINENTS_PATH" default:"data/continents.txt"`

	// Format is how far the emissions file is processed: raw, normalized
	// or annotated (default: raw)
	Format string `env:"DATA_FORMAT" default:"raw"`

	// MergePolicy handles a year supplied twice: keep-first or overwrite (default: keep-first)
	MergePolicy string `env:"DATA_MERGE_POLICY" default:"keep-first"`

	// YearTracking is faithful or corrected (default: faithful)
	YearTracking string `env:"DATA_YEAR_TRACKING" default:"faithful"`

	// SkipInvalidCodes logs and skips records with a bad ISO code (default: false)
	SkipInvalidCodes bool `env:"DATA_SKIP_INVALID_CODES" default:"false"`

	// SaveRun stores every loaded dataset when a database is configured (default: true)
	SaveRun bool `env:"DATA_SAVE_RUN" default:"true"`

	// ReloadInterval re-runs the pipeline from the files this often; 0 disables (default: 0s)
	ReloadInterval time.Duration `env:"DATA_RELOAD_INTERVAL" default:"0s"`
}

// RankingConfig holds top-N defaults.
type RankingConfig struct {
	// TopN is the ranking size used when a request gives none (default: 10)
	TopN int `env:"RANKING_TOP_N" default:"10"`

	// MaxTopN caps the n query parameter (default: 250)
	MaxTopN int `env:"RANKING_MAX_TOP_N" default:"250"`
}

// MetricsConfig holds Prometheus settings.
type MetricsConfig struct {
	// Enabled exposes /metrics and records pipeline and request metrics (default: true)
	Enabled bool `env:"METRICS_ENABLED" default:"true"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
