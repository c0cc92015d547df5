// Package config loads application configuration from environment variables,
// applying defaults and validating everything on startup so a bad setting
// fails fast instead of halfway through a query.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Source   SourceConfig
	Database DatabaseConfig
	Session  SessionConfig
	Server   ServerConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// SourceConfig describes how to talk to the data source.
type SourceConfig struct {
	// Encoding is the native encoding of byte-valued text (default: utf-8).
	// Any WHATWG label is accepted, e.g. windows-1252 or utf-16le.
	Encoding string `env:"SOURCE_ENCODING" default:"utf-8"`

	// ConnectTimeout bounds establishing a connection (default: 15s)
	ConnectTimeout time.Duration `env:"SOURCE_CONNECT_TIMEOUT" default:"15s"`

	// ApplicationName is reported to the server unless the target sets one
	ApplicationName string `env:"SOURCE_APPLICATION_NAME" default:"querydump"`
}

// DatabaseConfig holds the server's connection pool settings. The CLI takes
// its target from the command line and ignores these.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string (required by the server)
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 10)
	MaxConns int `env:"DB_MAX_CONNS" default:"10"`

	// MinConns is the minimum number of connections to keep open (default: 1)
	MinConns int `env:"DB_MIN_CONNS" default:"1"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// SessionConfig limits query sessions run by the server.
type SessionConfig struct {
	// MaxConcurrent is the maximum number of sessions running at once (default: 5)
	MaxConcurrent int `env:"SESSION_MAX_CONCURRENT" default:"5"`

	// MaxWaitTime is how long a request waits for a session slot (default: 30s)
	MaxWaitTime time.Duration `env:"SESSION_MAX_WAIT_TIME" default:"30s"`

	// Timeout bounds a whole session; 0 disables it (default: 5m)
	Timeout time.Duration `env:"SESSION_TIMEOUT" default:"5m"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading the request (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// RequireAPIKey enables X-API-Key checking on /api routes (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted keys
	APIKeys []string `env:"API_KEYS"`

	// TrustedProxies lists CIDRs whose X-Real-IP / X-Forwarded-For headers
	// are believed. Empty means client IPs always come from RemoteAddr.
	TrustedProxies []string `env:"TRUSTED_PROXIES"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: warn)
	Level string `env:"LOG_LEVEL" default:"warn"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
