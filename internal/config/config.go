// Package config provides centralized configuration management for the application.
// It loads configuration from defaults, an optional YAML file and environment
// variables, and validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig    `envconfig:"SERVER" yaml:"server"`
	Upload   UploadConfig    `envconfig:"UPLOAD" yaml:"upload"`
	Dataset  DatasetConfig   `envconfig:"DATASET" yaml:"dataset"`
	Rate     RateLimitConfig `envconfig:"RATE_LIMIT" yaml:"rate_limit"`
	Security SecurityConfig  `envconfig:"SECURITY" yaml:"security"`
	Logging  LoggingConfig   `envconfig:"LOG" yaml:"logging"`
	Metrics  MetricsConfig   `envconfig:"METRICS" yaml:"metrics"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `envconfig:"HOST" yaml:"host"`

	// Port is the port to listen on (default: 8080)
	Port int `envconfig:"PORT" yaml:"port"`

	// ReadTimeout is the maximum duration for reading the request, body included (default: 30s)
	ReadTimeout time.Duration `envconfig:"READ_TIMEOUT" yaml:"read_timeout"`

	// WriteTimeout is the maximum duration for writing a response (default: 60s)
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT" yaml:"write_timeout"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `envconfig:"IDLE_TIMEOUT" yaml:"idle_timeout"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" yaml:"shutdown_timeout"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" yaml:"request_timeout"`
}

// UploadConfig holds CSV upload settings.
type UploadConfig struct {
	// MaxFileSize is the maximum allowed file size in bytes (default: 32MiB)
	MaxFileSize int64 `envconfig:"MAX_FILE_SIZE" yaml:"max_file_size"`

	// MaxConcurrent is the maximum number of uploads parsed at once (default: 5)
	MaxConcurrent int `envconfig:"MAX_CONCURRENT" yaml:"max_concurrent"`

	// MaxWaitTime is how long to wait for a parse slot (default: 30s)
	MaxWaitTime time.Duration `envconfig:"MAX_WAIT_TIME" yaml:"max_wait_time"`
}

// DatasetConfig holds in-memory dataset retention settings.
type DatasetConfig struct {
	// TTL is how long a dataset is kept without access (default: 30m)
	TTL time.Duration `envconfig:"TTL" yaml:"ttl"`

	// MaxCount is the maximum number of datasets held at once (default: 100)
	MaxCount int `envconfig:"MAX_COUNT" yaml:"max_count"`

	// SweepInterval is how often expired datasets are removed (default: 1m)
	SweepInterval time.Duration `envconfig:"SWEEP_INTERVAL" yaml:"sweep_interval"`

	// PreviewRows is the number of rows shown in table previews (default: 5)
	PreviewRows int `envconfig:"PREVIEW_ROWS" yaml:"preview_rows"`
}

// RateLimitConfig holds per-IP rate limiting settings.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `envconfig:"ENABLED" yaml:"enabled"`

	// RequestsPerMinute is the default rate limit per IP (default: 100)
	RequestsPerMinute int `envconfig:"REQUESTS_PER_MINUTE" yaml:"requests_per_minute"`

	// UploadLimit is requests per minute for upload endpoints (default: 10)
	UploadLimit int `envconfig:"UPLOAD" yaml:"upload"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `envconfig:"TRUSTED_PROXIES" yaml:"trusted_proxies"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `envconfig:"ENABLE_CSP" yaml:"enable_csp"`

	// RequireAPIKey enables X-API-Key checks on /api routes (default: false)
	RequireAPIKey bool `envconfig:"REQUIRE_API_KEY" yaml:"require_api_key"`

	// APIKeys is a comma-separated list of accepted API keys
	APIKeys []string `envconfig:"API_KEYS" yaml:"api_keys"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `envconfig:"LEVEL" yaml:"level"`

	// Format is the log format: text or json (default: text)
	Format string `envconfig:"FORMAT" yaml:"format"`
}

// MetricsConfig holds Prometheus exposition settings.
type MetricsConfig struct {
	// Enabled mounts the metrics handler (default: true)
	Enabled bool `envconfig:"ENABLED" yaml:"enabled"`

	// Path is the metrics route (default: /metrics)
	Path string `envconfig:"ENDPOINT" yaml:"path"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			RequestTimeout:  60 * time.Second,
		},
		Upload: UploadConfig{
			MaxFileSize:   32 << 20,
			MaxConcurrent: 5,
			MaxWaitTime:   30 * time.Second,
		},
		Dataset: DatasetConfig{
			TTL:           30 * time.Minute,
			MaxCount:      100,
			SweepInterval: time.Minute,
			PreviewRows:   5,
		},
		Rate: RateLimitConfig{
			Enabled:           true,
			RequestsPerMinute: 100,
			UploadLimit:       10,
		},
		Security: SecurityConfig{
			EnableCSP: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
