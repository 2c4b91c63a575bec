// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"os"
	"testing"
)

func setEnv(t *testing.T, key, value string) {
	t.Helper()
	if err := os.Setenv(key, value); err != nil {
		t.Fatalf("failed to set %s: %v", key, err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	os.Clearenv()
	setEnv(t, "FOLIO_SESSION_SECRET", "test-Secret-key-32-bytes-long!!!")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.DBPath != "./data/folio.db" {
		t.Errorf("DBPath = %q, want %q", cfg.DBPath, "./data/folio.db")
	}
	if cfg.ServerHost != "localhost" {
		t.Errorf("ServerHost = %q, want %q", cfg.ServerHost, "localhost")
	}
	if cfg.ServerPort != 8080 {
		t.Errorf("ServerPort = %d, want %d", cfg.ServerPort, 8080)
	}
	if cfg.Env != "development" {
		t.Errorf("Env = %q, want %q", cfg.Env, "development")
	}
	if cfg.GeoCallBudget != 45 {
		t.Errorf("GeoCallBudget = %d, want 45", cfg.GeoCallBudget)
	}
	if cfg.AIEnabled {
		t.Error("AIEnabled should default to false")
	}
}

func TestLoad_CustomValues(t *testing.T) {
	os.Clearenv()
	customSecret := "custom-Secret-key-32-bytes-long!"
	setEnv(t, "FOLIO_SESSION_SECRET", customSecret)
	setEnv(t, "FOLIO_DB_PATH", "/custom/path.db")
	setEnv(t, "FOLIO_SERVER_HOST", "0.0.0.0")
	setEnv(t, "FOLIO_SERVER_PORT", "3000")
	setEnv(t, "FOLIO_ENV", "production")
	setEnv(t, "FOLIO_GEO_CALL_BUDGET", "10")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.SessionSecret != customSecret {
		t.Errorf("SessionSecret = %q, want %q", cfg.SessionSecret, customSecret)
	}
	if cfg.DBPath != "/custom/path.db" {
		t.Errorf("DBPath = %q, want %q", cfg.DBPath, "/custom/path.db")
	}
	if cfg.ServerAddr() != "0.0.0.0:3000" {
		t.Errorf("ServerAddr() = %q, want %q", cfg.ServerAddr(), "0.0.0.0:3000")
	}
	if cfg.IsDevelopment() {
		t.Error("IsDevelopment() should be false for production")
	}
	if cfg.GeoCallBudget != 10 {
		t.Errorf("GeoCallBudget = %d, want 10", cfg.GeoCallBudget)
	}
}

func TestLoad_RequiredSessionSecret(t *testing.T) {
	os.Clearenv()

	_, err := Load()
	if err == nil {
		t.Fatal("Load() should fail when FOLIO_SESSION_SECRET is not set")
	}
}

func TestLoad_SessionSecretTooShort(t *testing.T) {
	tests := []struct {
		name   string
		secret string
	}{
		{"empty", ""},
		{"short", "short"},
		{"31_bytes", "1234567890123456789012345678901"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()
			setEnv(t, "FOLIO_SESSION_SECRET", tt.secret)

			_, err := Load()
			if err == nil {
				t.Errorf("Load() should fail for secret %q", tt.secret)
			}
		})
	}
}

func TestLoad_RejectsKnownWeakSecrets(t *testing.T) {
	os.Clearenv()
	setEnv(t, "FOLIO_SESSION_SECRET", "default_secret_replace_in_production")

	_, err := Load()
	if err == nil {
		t.Fatal("Load() should reject a known default secret")
	}
}

func TestHasMinimumEntropy(t *testing.T) {
	tests := []struct {
		secret string
		want   bool
	}{
		{"abcdefghijklmnopqrstuvwxyz", false},
		{"abcDEF123", true},
		{"abc-DEF-ghi", true},
		{"1234567890", false},
	}

	for _, tt := range tests {
		if got := hasMinimumEntropy(tt.secret); got != tt.want {
			t.Errorf("hasMinimumEntropy(%q) = %v, want %v", tt.secret, got, tt.want)
		}
	}
}
