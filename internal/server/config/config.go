// Package config handles configuration for the server component,
// including defaults, JSON overlay, environment variables and command-line flags.
package config

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
)

// Refresh token transports.
const (
	TransportBody   = "body"
	TransportCookie = "cookie"
)

// Config holds runtime settings for the gophauth server.
//
// Fields:
//   - EndpointAddrHTTP: bind address for the HTTP API.
//   - DatabaseDSN: PostgreSQL DSN (pgx). Empty selects the in-memory store.
//   - AccessSecret / RefreshSecret: independent HMAC secrets for the two token kinds.
//   - RefreshTokenTransport: "body" or "cookie".
//   - SMTP*: mail transport; an empty SMTPHost logs verification codes instead.
type Config struct {
	EndpointAddrHTTP             string        `env:"HTTP_ADDR"`
	DatabaseDSN                  string        `env:"DATABASE_DSN"`
	AccessSecret                 string        `env:"ACCESS_SECRET"`
	RefreshSecret                string        `env:"REFRESH_SECRET"`
	AccessTokenValidityDuration  time.Duration `env:"ACCESS_TOKEN_TTL"`
	RefreshTokenValidityDuration time.Duration `env:"REFRESH_TOKEN_TTL"`
	RefreshTokenTransport        string        `env:"REFRESH_TOKEN_TRANSPORT"`
	CookieSecure                 bool          `env:"COOKIE_SECURE"`
	BcryptCost                   int           `env:"BCRYPT_COST"`
	SMTPHost                     string        `env:"SMTP_HOST"`
	SMTPPort                     int           `env:"SMTP_PORT"`
	SMTPUser                     string        `env:"SMTP_USER"`
	SMTPPassword                 string        `env:"SMTP_PASS"`
	MailFrom                     string        `env:"MAIL_FROM"`
	MailTimeout                  time.Duration `env:"MAIL_TIMEOUT"`
	LogBackend                   string        `env:"LOG_BACKEND"`
	LogLevel                     string        `env:"LOG_LEVEL"`
	ShutdownTimeout              time.Duration `env:"SHUTDOWN_TIMEOUT"`
}

// LoadDefaults populates Config with development defaults. Signing secrets
// are deliberately left empty and must be supplied.
func (c *Config) LoadDefaults() {
	c.EndpointAddrHTTP = ":8080"
	c.DatabaseDSN = ""
	c.AccessTokenValidityDuration = 15 * time.Minute
	c.RefreshTokenValidityDuration = 7 * 24 * time.Hour
	c.RefreshTokenTransport = TransportBody
	c.CookieSecure = true
	c.BcryptCost = 10
	c.SMTPPort = 587
	c.MailFrom = `"gophauth" <no-reply@gophauth.local>`
	c.MailTimeout = 10 * time.Second
	c.LogBackend = logging.BackendSlog
	c.LogLevel = "info"
	c.ShutdownTimeout = 10 * time.Second
}

// Validate reports settings the server cannot start with. The returned
// error wraps common.ErrConfig.
func (c *Config) Validate() error {
	if c.AccessSecret == "" {
		return fmt.Errorf("%w: access token secret is not set", common.ErrConfig)
	}
	if c.RefreshSecret == "" {
		return fmt.Errorf("%w: refresh token secret is not set", common.ErrConfig)
	}
	if c.AccessTokenValidityDuration <= 0 || c.RefreshTokenValidityDuration <= 0 {
		return fmt.Errorf("%w: token lifetimes must be positive", common.ErrConfig)
	}
	if c.RefreshTokenTransport != TransportBody && c.RefreshTokenTransport != TransportCookie {
		return fmt.Errorf("%w: unknown refresh token transport %q", common.ErrConfig, c.RefreshTokenTransport)
	}
	return nil
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file, the environment and finally command-line flags.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	if err := parseEnv(cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrConfig, err)
	}
	parseFlags(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
