// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Logging holds settings shared by both binaries.
type Logging struct {
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`
}

// Config holds the teller client configuration.
// All fields are populated from environment variables.
type Config struct {
	Logging

	// Banking API root, e.g. https://bank.example.com
	APIURL string `env:"TELLER_API_URL" envDefault:"http://localhost:8080"`

	// Transport timeouts. RequestTimeout of zero leaves requests unbounded.
	DialTimeout           time.Duration `env:"TELLER_DIAL_TIMEOUT" envDefault:"10s"`
	ResponseHeaderTimeout time.Duration `env:"TELLER_RESPONSE_HEADER_TIMEOUT" envDefault:"15s"`
	RequestTimeout        time.Duration `env:"TELLER_REQUEST_TIMEOUT" envDefault:"0s"`

	// Number of recent transactions shown on the dashboard
	TxLimit int `env:"TELLER_TX_LIMIT" envDefault:"10"`

	// Optional Redis for keeping the session cookie between runs
	RedisURL   string        `env:"REDIS_URL"`
	SessionKey string        `env:"TELLER_SESSION_KEY" envDefault:"default"`
	SessionTTL time.Duration `env:"TELLER_SESSION_TTL" envDefault:"24h"`

	// Clear the terminal before each render
	ClearScreen bool `env:"TELLER_CLEAR_SCREEN" envDefault:"false"`
}

// SessionPersistence reports whether the session should be stored in Redis.
func (c *Config) SessionPersistence() bool {
	return c.RedisURL != ""
}

// Load parses environment variables and returns a client Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.TxLimit < 1 {
		return nil, fmt.Errorf("TELLER_TX_LIMIT must be positive, got %d", cfg.TxLimit)
	}
	return cfg, nil
}

// ServerConfig holds the bankd development backend configuration.
type ServerConfig struct {
	Logging

	// Application settings
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort int    `env:"APP_PORT" envDefault:"8080"`

	// Key used to sign session cookies
	SessionSecret string `env:"SESSION_SECRET,required"`

	// Optional PostgreSQL store; accounts live in memory when empty
	DatabaseURL string `env:"DATABASE_URL"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Request body size limit in bytes (default 1MB)
	MaxRequestBodySize int64 `env:"MAX_REQUEST_BODY_SIZE" envDefault:"1048576"`
}

// UsesDatabase reports whether accounts are stored in PostgreSQL.
func (c *ServerConfig) UsesDatabase() bool {
	return c.DatabaseURL != ""
}

// IsDevelopment returns true if running in development mode.
func (c *ServerConfig) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *ServerConfig) IsProduction() bool {
	return c.AppEnv == "production"
}

// LoadServer parses environment variables and returns a ServerConfig.
// Returns an error if required variables are missing.
func LoadServer() (*ServerConfig, error) {
	cfg := &ServerConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if len(cfg.SessionSecret) < 32 {
		return nil, fmt.Errorf("SESSION_SECRET must be at least 32 bytes")
	}
	return cfg, nil
}
