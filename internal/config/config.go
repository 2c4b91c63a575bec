// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
)

// knownWeakSecrets contains default/example secrets that must be rejected in production.
var knownWeakSecrets = []string{
	"your-secret-key",
	"default_secret_replace_in_production",
	"change-me-to-32-byte-secret-key!",
}

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath        string `env:"FOLIO_DB_PATH" envDefault:"./data/folio.db"`
	SessionSecret string `env:"FOLIO_SESSION_SECRET,required"`
	ServerHost    string `env:"FOLIO_SERVER_HOST" envDefault:"localhost"`
	ServerPort    int    `env:"FOLIO_SERVER_PORT" envDefault:"8080"`
	Env           string `env:"FOLIO_ENV" envDefault:"development"`
	LogLevel      string `env:"FOLIO_LOG_LEVEL" envDefault:"info"`

	// GeoIP configuration
	GeoIPDBPath   string `env:"FOLIO_GEOIP_DB_PATH"`                   // Path to GeoLite2-City.mmdb file (optional)
	GeoCallBudget int    `env:"FOLIO_GEO_CALL_BUDGET" envDefault:"45"` // Max external geo lookups per process

	// AI configuration
	AIEnabled    bool   `env:"FOLIO_AI_ENABLED" envDefault:"false"`
	OpenAIAPIKey string `env:"FOLIO_OPENAI_API_KEY"`

	// Seeding configuration
	DoSeed bool `env:"FOLIO_DO_SEED" envDefault:"false"` // Enable database seeding
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// GeoIPEnabled returns true if a local GeoIP database is configured.
func (c Config) GeoIPEnabled() bool {
	return c.GeoIPDBPath != ""
}

// AIConfigured returns true if AI endpoints are enabled and an API key is present.
func (c Config) AIConfigured() bool {
	return c.AIEnabled && c.OpenAIAPIKey != ""
}

// MinSessionSecretLength is the minimum required length for the session secret.
// HS256 signing keys should be at least 32 bytes.
const MinSessionSecretLength = 32

// Load parses environment variables and returns a Config struct.
// A missing or weak signing secret is a startup defect: the process refuses
// to run rather than falling back to an insecure default.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if len(cfg.SessionSecret) < MinSessionSecretLength {
		return nil, fmt.Errorf("FOLIO_SESSION_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinSessionSecretLength, len(cfg.SessionSecret))
	}

	for _, weak := range knownWeakSecrets {
		if cfg.SessionSecret == weak {
			return nil, fmt.Errorf("FOLIO_SESSION_SECRET is a known default value and must not be used; " +
				"generate a secure secret with: openssl rand -base64 32")
		}
	}

	if !hasMinimumEntropy(cfg.SessionSecret) {
		slog.Warn("FOLIO_SESSION_SECRET has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}

	return cfg, nil
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
