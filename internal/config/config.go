// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package config loads the application configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// knownWeakSecrets contains default/example secrets that must be rejected.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
	"dreamcrafts-development-secret-32b",
}

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath        string `env:"DREAMCRAFTS_DB_PATH" envDefault:"./data/dreamcrafts.db"`
	DBDriver      string `env:"DREAMCRAFTS_DB_DRIVER" envDefault:"sqlite"`
	SessionSecret string `env:"DREAMCRAFTS_SESSION_SECRET,required"`
	ServerHost    string `env:"DREAMCRAFTS_SERVER_HOST" envDefault:"localhost"`
	ServerPort    int    `env:"DREAMCRAFTS_SERVER_PORT" envDefault:"8080"`
	Env           string `env:"DREAMCRAFTS_ENV" envDefault:"development"`
	LogLevel      string `env:"DREAMCRAFTS_LOG_LEVEL" envDefault:"info"`
	SiteURL       string `env:"DREAMCRAFTS_SITE_URL"` // Public base URL for robots.txt and sitemap.xml

	// Uploads
	UploadsDir        string `env:"DREAMCRAFTS_UPLOADS_DIR" envDefault:"./uploads"`
	MaxUploadBytes    int64  `env:"DREAMCRAFTS_MAX_UPLOAD_BYTES" envDefault:"5242880"`
	MaxImageDimension int    `env:"DREAMCRAFTS_MAX_IMAGE_DIMENSION" envDefault:"2000"`

	// Sessions and login throttling
	SessionTimeout   time.Duration `env:"DREAMCRAFTS_SESSION_TIMEOUT" envDefault:"1h"`
	LoginMaxAttempts int           `env:"DREAMCRAFTS_LOGIN_MAX_ATTEMPTS" envDefault:"5"`
	LoginWindow      time.Duration `env:"DREAMCRAFTS_LOGIN_WINDOW" envDefault:"15m"`

	// Cache configuration
	RedisURL    string        `env:"DREAMCRAFTS_REDIS_URL"` // Optional Redis URL for the settings cache
	CachePrefix string        `env:"DREAMCRAFTS_CACHE_PREFIX" envDefault:"dreamcrafts:"`
	CacheTTL    time.Duration `env:"DREAMCRAFTS_CACHE_TTL" envDefault:"1h"`

	// Security log
	GeoIPDBPath          string        `env:"DREAMCRAFTS_GEOIP_DB_PATH"` // Path to GeoLite2-Country.mmdb file
	SecurityLogRetention time.Duration `env:"DREAMCRAFTS_SECURITY_LOG_RETENTION" envDefault:"2160h"`

	// Seeding configuration
	AdminUsername string `env:"DREAMCRAFTS_ADMIN_USERNAME" envDefault:"admin"`
	AdminPassword string `env:"DREAMCRAFTS_ADMIN_PASSWORD"`
	DoSeed        bool   `env:"DREAMCRAFTS_DO_SEED" envDefault:"false"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedisCache returns true if Redis caching is configured.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// GeoIPEnabled returns true if GeoIP database is configured.
func (c Config) GeoIPEnabled() bool {
	return c.GeoIPDBPath != ""
}

// CSRFKey derives the 32-byte key of the cross-origin protection from the
// session secret.
func (c Config) CSRFKey() []byte {
	return []byte(c.SessionSecret)[:MinSessionSecretLength]
}

// MinSessionSecretLength is the minimum required length for the session secret.
const MinSessionSecretLength = 32

// LoadDotEnv reads .env files into the environment. Missing files are
// ignored and variables already set win.
func LoadDotEnv(files ...string) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		_ = godotenv.Load(f)
	}
}

// Load parses environment variables and returns a validated Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Warn about low-entropy secrets
	if !hasMinimumEntropy(cfg.SessionSecret) {
		slog.Warn("DREAMCRAFTS_SESSION_SECRET has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}
	return cfg, nil
}

// Validate checks values env tags cannot express.
func (c *Config) Validate() error {
	var errs []error

	if len(c.SessionSecret) < MinSessionSecretLength {
		errs = append(errs, fmt.Errorf("DREAMCRAFTS_SESSION_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinSessionSecretLength, len(c.SessionSecret)))
	}
	if slices.Contains(knownWeakSecrets, c.SessionSecret) {
		errs = append(errs, errors.New("DREAMCRAFTS_SESSION_SECRET is a known default value and must not be used; "+
			"generate a secure secret with: openssl rand -base64 32"))
	}
	if c.Env != "development" && c.Env != "production" {
		errs = append(errs, fmt.Errorf("DREAMCRAFTS_ENV must be development or production, got %q", c.Env))
	}
	if c.DBDriver != "sqlite" && c.DBDriver != "sqlite3" {
		errs = append(errs, fmt.Errorf("DREAMCRAFTS_DB_DRIVER must be sqlite or sqlite3, got %q", c.DBDriver))
	}
	if c.ServerPort < 1 || c.ServerPort > 65535 {
		errs = append(errs, fmt.Errorf("DREAMCRAFTS_SERVER_PORT out of range: %d", c.ServerPort))
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("DREAMCRAFTS_LOG_LEVEL must be debug, info, warn or error, got %q", c.LogLevel))
	}
	if c.SiteURL != "" && !strings.HasPrefix(c.SiteURL, "http://") && !strings.HasPrefix(c.SiteURL, "https://") {
		errs = append(errs, fmt.Errorf("DREAMCRAFTS_SITE_URL must start with http:// or https://, got %q", c.SiteURL))
	}
	if c.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("DREAMCRAFTS_MAX_UPLOAD_BYTES must be positive"))
	}
	if c.MaxImageDimension <= 0 {
		errs = append(errs, errors.New("DREAMCRAFTS_MAX_IMAGE_DIMENSION must be positive"))
	}
	if c.SessionTimeout <= 0 {
		errs = append(errs, errors.New("DREAMCRAFTS_SESSION_TIMEOUT must be positive"))
	}
	if c.LoginMaxAttempts <= 0 || c.LoginWindow <= 0 {
		errs = append(errs, errors.New("DREAMCRAFTS_LOGIN_MAX_ATTEMPTS and DREAMCRAFTS_LOGIN_WINDOW must be positive"))
	}
	if c.SecurityLogRetention < 24*time.Hour {
		errs = append(errs, errors.New("DREAMCRAFTS_SECURITY_LOG_RETENTION must be at least 24h"))
	}
	if c.DoSeed && c.AdminPassword == "" {
		errs = append(errs, errors.New("DREAMCRAFTS_ADMIN_PASSWORD is required when DREAMCRAFTS_DO_SEED is set"))
	}
	return errors.Join(errs...)
}

// hasMinimumEntropy checks that a secret contains at least 3 character classes
// (lowercase, uppercase, digits, special characters).
func hasMinimumEntropy(s string) bool {
	charTypes := 0
	if strings.ContainsAny(s, "abcdefghijklmnopqrstuvwxyz") {
		charTypes++
	}
	if strings.ContainsAny(s, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		charTypes++
	}
	if strings.ContainsAny(s, "0123456789") {
		charTypes++
	}
	if strings.ContainsAny(s, "!@#$%^&*()-_=+[]{}|;:,.<>?/~`'\"\\") {
		charTypes++
	}
	return charTypes >= 3
}
