// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cliparse

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

const (
	DefaultPort           = 3318
	DefaultDatabaseURL    = "file:verivote.db"
	DefaultDatabaseType   = "sqlite"
	DefaultCacheTTL       = 5 * time.Minute
	DefaultRequestTimeout = 15 * time.Second
	DefaultEffectWait     = 2 * time.Second
	DefaultSessionIdle    = 30 * time.Minute
)

type Config struct {
	Port         int
	DatabaseURL  string
	DatabaseType string

	BackendURL  string
	CryptoURL   string
	LedgerURL   string
	BotCheckURL string // empty disables bot checks

	CacheTTL       time.Duration
	RequestTimeout time.Duration
	EffectWait     time.Duration
	SessionIdle    time.Duration

	SessionSalt string
}

// LoadEnvFile loads KEY=value pairs from path into the environment without
// overriding variables that are already set. A missing file is not an error.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// ParseFlags parses args, falling back to environment variables and then
// defaults for anything not given on the command line.
func ParseFlags(args []string) (Config, error) {
	var cfg Config

	fs := pflag.NewFlagSet("verivote", pflag.ContinueOnError)

	// Network and storage
	fs.IntVarP(&cfg.Port, "port", "p", 0, "Server port")
	fs.StringVarP(&cfg.DatabaseURL, "database-url", "d", "", "Journal database URL")
	fs.StringVarP(&cfg.DatabaseType, "database-type", "t", "", "Database type (sqlite or postgres)")

	// Backends
	fs.StringVar(&cfg.BackendURL, "backend-url", "", "Election backend base URL")
	fs.StringVar(&cfg.CryptoURL, "crypto-url", "", "Cryptographic backend base URL (default: backend URL)")
	fs.StringVar(&cfg.LedgerURL, "ledger-url", "", "Ledger base URL (default: backend URL)")
	fs.StringVar(&cfg.BotCheckURL, "bot-url", "", "Bot detection base URL (empty disables bot checks)")

	// Timing
	fs.DurationVar(&cfg.CacheTTL, "cache-ttl", 0, "Election list cache lifetime")
	fs.DurationVar(&cfg.RequestTimeout, "request-timeout", 0, "Backend request timeout")
	fs.DurationVar(&cfg.EffectWait, "effect-wait", 0, "How long a page load waits for on-load effects")
	fs.DurationVar(&cfg.SessionIdle, "session-idle", 0, "Idle time after which a session is dropped")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.SessionSalt, "session-salt", "", "Session tag salt (prefer env)")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	// Fall back to environment variables
	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else {
			cfg.Port = DefaultPort
		}
	}

	envString(&cfg.DatabaseURL, "DATABASE_URL", DefaultDatabaseURL)
	envString(&cfg.DatabaseType, "DATABASE_TYPE", DefaultDatabaseType)
	envString(&cfg.BackendURL, "BACKEND_URL", "")
	envString(&cfg.CryptoURL, "CRYPTO_URL", cfg.BackendURL)
	envString(&cfg.LedgerURL, "LEDGER_URL", cfg.BackendURL)
	envString(&cfg.BotCheckURL, "BOT_CHECK_URL", "")
	envString(&cfg.SessionSalt, "SESSION_SALT", "")

	for _, d := range []struct {
		dst *time.Duration
		env string
		def time.Duration
	}{
		{&cfg.CacheTTL, "CACHE_TTL", DefaultCacheTTL},
		{&cfg.RequestTimeout, "REQUEST_TIMEOUT", DefaultRequestTimeout},
		{&cfg.EffectWait, "EFFECT_WAIT", DefaultEffectWait},
		{&cfg.SessionIdle, "SESSION_IDLE", DefaultSessionIdle},
	} {
		if err := envDuration(d.dst, d.env, d.def); err != nil {
			return Config{}, err
		}
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (cfg Config) validate() error {
	if cfg.BackendURL == "" {
		return errors.New("backend URL required (use --backend-url or BACKEND_URL env)")
	}
	if cfg.DatabaseType != "sqlite" && cfg.DatabaseType != "postgres" {
		return fmt.Errorf("unsupported database type %q (use sqlite or postgres)", cfg.DatabaseType)
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return fmt.Errorf("invalid port %d", cfg.Port)
	}
	if cfg.CacheTTL <= 0 || cfg.RequestTimeout <= 0 || cfg.EffectWait <= 0 || cfg.SessionIdle <= 0 {
		return errors.New("durations must be positive")
	}
	return nil
}

func envString(dst *string, key, def string) {
	if *dst != "" {
		return
	}
	if v := os.Getenv(key); v != "" {
		*dst = v
		return
	}
	*dst = def
}

func envDuration(dst *time.Duration, key string, def time.Duration) error {
	if *dst != 0 {
		return nil
	}
	v := os.Getenv(key)
	if v == "" {
		*dst = def
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s env variable: %w", key, err)
	}
	*dst = d
	return nil
}
