// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cliparse

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

var configEnv = []string{
	"PORT", "DATABASE_URL", "DATABASE_TYPE", "BACKEND_URL", "CRYPTO_URL",
	"LEDGER_URL", "BOT_CHECK_URL", "CACHE_TTL", "REQUEST_TIMEOUT", "EFFECT_WAIT", "SESSION_IDLE", "SESSION_SALT",
}

// clearEnv blanks every variable ParseFlags reads for the test's duration.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configEnv {
		t.Setenv(k, "")
	}
}

func TestParseFlags_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := ParseFlags([]string{"--backend-url", "http://backend"})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != DefaultPort {
		t.Errorf("expected port %d, got %d", DefaultPort, cfg.Port)
	}
	if cfg.DatabaseURL != DefaultDatabaseURL || cfg.DatabaseType != "sqlite" {
		t.Errorf("unexpected database defaults: %s %s", cfg.DatabaseURL, cfg.DatabaseType)
	}
	if cfg.CryptoURL != "http://backend" || cfg.LedgerURL != "http://backend" {
		t.Errorf("expected crypto and ledger URLs to default to backend, got %s %s", cfg.CryptoURL, cfg.LedgerURL)
	}
	if cfg.BotCheckURL != "" {
		t.Errorf("expected bot checks disabled by default, got %s", cfg.BotCheckURL)
	}
	if cfg.CacheTTL != 5*time.Minute || cfg.RequestTimeout != 15*time.Second || cfg.EffectWait != 2*time.Second {
		t.Errorf("unexpected duration defaults: %v %v %v", cfg.CacheTTL, cfg.RequestTimeout, cfg.EffectWait)
	}
	if cfg.SessionIdle != 30*time.Minute {
		t.Errorf("expected session idle 30m, got %v", cfg.SessionIdle)
	}
}

func TestParseFlags_EnvVars(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("BACKEND_URL", "http://env-backend")
	t.Setenv("LEDGER_URL", "http://ledger")
	t.Setenv("CACHE_TTL", "30s")
	t.Setenv("DATABASE_TYPE", "postgres")

	cfg, err := ParseFlags([]string{})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Port)
	}
	if cfg.LedgerURL != "http://ledger" || cfg.CryptoURL != "http://env-backend" {
		t.Errorf("unexpected backend URLs: crypto=%s ledger=%s", cfg.CryptoURL, cfg.LedgerURL)
	}
	if cfg.CacheTTL != 30*time.Second {
		t.Errorf("expected cache TTL 30s, got %v", cfg.CacheTTL)
	}
	if cfg.DatabaseType != "postgres" {
		t.Errorf("expected postgres, got %s", cfg.DatabaseType)
	}
}

func TestParseFlags_CLIOverridesEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("BACKEND_URL", "http://env-backend")

	t.Setenv("SESSION_IDLE", "1h")

	cfg, err := ParseFlags([]string{"-p", "8080", "-d", "file:test.db", "--backend-url", "http://cli", "--effect-wait", "500ms", "--session-idle", "10m"})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != 8080 {
		t.Errorf("CLI should override env: expected 8080, got %d", cfg.Port)
	}
	if cfg.BackendURL != "http://cli" {
		t.Errorf("CLI should override env: expected http://cli, got %s", cfg.BackendURL)
	}
	if cfg.EffectWait != 500*time.Millisecond {
		t.Errorf("expected effect wait 500ms, got %v", cfg.EffectWait)
	}
	if cfg.SessionIdle != 10*time.Minute {
		t.Errorf("CLI should override env: expected session idle 10m, got %v", cfg.SessionIdle)
	}
}

func TestParseFlags_Invalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
		env  map[string]string
	}{
		{"missing backend", nil, nil},
		{"bad database type", []string{"--backend-url", "x", "-t", "mysql"}, nil},
		{"bad port env", []string{"--backend-url", "x"}, map[string]string{"PORT": "abc"}},
		{"bad duration env", []string{"--backend-url", "x"}, map[string]string{"CACHE_TTL": "soon"}},
		{"negative duration", []string{"--backend-url", "x", "--request-timeout", "-1s"}, nil},
		{"zero session idle", []string{"--backend-url", "x"}, map[string]string{"SESSION_IDLE": "0s"}},
		{"unknown flag", []string{"--nope"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := ParseFlags(tt.args); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadEnvFile(t *testing.T) {
	clearEnv(t)

	if err := LoadEnvFile(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Errorf("missing file should be ignored, got %v", err)
	}

	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("BACKEND_URL=http://from-file\nPORT=7000\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PORT", "7100")
	os.Unsetenv("BACKEND_URL")

	if err := LoadEnvFile(path); err != nil {
		t.Fatal(err)
	}
	cfg, err := ParseFlags(nil)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.BackendURL != "http://from-file" {
		t.Errorf("expected backend from .env, got %s", cfg.BackendURL)
	}
	if cfg.Port != 7100 {
		t.Errorf("existing env should win over .env, got %d", cfg.Port)
	}
}
