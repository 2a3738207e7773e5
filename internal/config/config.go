// Package config loads application settings from environment variables.
// Values come from struct tags: env names the variable, envAlt an older
// name, default the fallback and validate the constraints checked after
// loading. A .env file, when present, is read before the environment.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Import   ImportConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`
	Port int    `env:"SERVER_PORT" default:"8080" validate:"min=1,max=65535"`

	ReadTimeout  time.Duration `env:"SERVER_READ_TIMEOUT" default:"30s" validate:"min=0"`
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"60s" validate:"min=0"`
	IdleTimeout  time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s" validate:"min=0"`

	// ShutdownTimeout bounds graceful shutdown, including running imports.
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s" validate:"gt=0"`

	// RequestTimeout applies to every route except the upload itself.
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s" validate:"gt=0"`
}

// DatabaseConfig holds PostgreSQL settings. An empty URL disables persisting
// imported records.
type DatabaseConfig struct {
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	MaxConns        int           `env:"DB_MAX_CONNS" default:"10" validate:"gt=0,gtefield=MinConns"`
	MinConns        int           `env:"DB_MIN_CONNS" default:"2" validate:"min=0"`
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h" validate:"gt=0"`
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m" validate:"gt=0"`
}

// Enabled reports whether a database is configured.
func (c DatabaseConfig) Enabled() bool {
	return c.URL != ""
}

// ImportConfig holds workbook import settings.
type ImportConfig struct {
	// MaxFileSize is the largest accepted upload in bytes (default: 50MB)
	MaxFileSize int64 `env:"IMPORT_MAX_FILE_SIZE" default:"52428800" validate:"gt=0"`

	// MaxConcurrent is the number of imports processed at once
	MaxConcurrent int `env:"IMPORT_MAX_CONCURRENT" default:"5" validate:"gt=0"`

	// MaxWaitTime is how long a new import waits for a free slot
	MaxWaitTime time.Duration `env:"IMPORT_MAX_WAIT_TIME" default:"30s" validate:"gt=0"`

	// Timeout bounds a single import, persisting included
	Timeout time.Duration `env:"IMPORT_TIMEOUT" default:"10m" validate:"gt=0"`

	// Retention is how long finished imports stay queryable
	Retention time.Duration `env:"IMPORT_RETENTION" default:"15m" validate:"gt=0"`

	// MaxRows caps data rows per sheet; 0 disables the cap
	MaxRows int `env:"IMPORT_MAX_ROWS" default:"100000" validate:"min=0"`

	// StrictHeader rejects sheets whose header row differs from the layout
	StrictHeader bool `env:"IMPORT_STRICT_HEADER" default:"true"`

	// Charset decodes strings in legacy .xls workbooks
	Charset string `env:"IMPORT_XLS_CHARSET" default:"utf-8" validate:"required"`

	// SpoolDir holds uploads while they are imported (default: os.TempDir)
	SpoolDir string `env:"IMPORT_SPOOL_DIR"`
}

// RateLimitConfig holds per-IP request limits.
type RateLimitConfig struct {
	Enabled           bool `env:"RATE_LIMIT_ENABLED" default:"true"`
	RequestsPerMinute int  `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100" validate:"min=0"`

	// ImportLimit is requests per minute for the upload endpoint
	ImportLimit int `env:"RATE_LIMIT_IMPORT" default:"10" validate:"min=0"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies lists proxy CIDRs whose X-Real-IP and X-Forwarded-For
	// headers are believed
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`

	// RequireAPIKey guards /api routes with the X-API-Key header
	RequireAPIKey bool     `env:"REQUIRE_API_KEY" default:"false"`
	APIKeys       []string `env:"API_KEYS" validate:"required_if=RequireAPIKey true"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
	Format string `env:"LOG_FORMAT" default:"text" validate:"oneof=text json"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
