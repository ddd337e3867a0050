// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

LoadEnvFile reads a .env file into the environment, then ParseFlags returns
a Config with all settings:

	_ = cliparse.LoadEnvFile(".env")
	cfg, err := cliparse.ParseFlags(os.Args[1:])

# CLI Flags

	-p, --port             Server port (default 3318)
	-d, --database-url     Journal database URL (default file:verivote.db)
	-t, --database-type    sqlite or postgres (default sqlite)
	--backend-url          Election backend base URL (required)
	--crypto-url           Cryptographic backend (default: backend URL)
	--ledger-url           Ledger (default: backend URL)
	--bot-url              Bot detection provider (empty: checks disabled)
	--cache-ttl            Election list cache lifetime (default 5m)
	--request-timeout      Backend request timeout (default 15s)
	--effect-wait          Page-load wait for on-load effects (default 2s)
	--session-salt         Session tag salt (default: random per process)

# Environment Variables

Each flag falls back to an environment variable:

	PORT, DATABASE_URL, DATABASE_TYPE, BACKEND_URL, CRYPTO_URL, LEDGER_URL,
	BOT_CHECK_URL, CACHE_TTL, REQUEST_TIMEOUT, EFFECT_WAIT, SESSION_SALT

CLI flags take precedence over environment variables, and variables already
set take precedence over the .env file.

# Validation

ParseFlags returns an error when BACKEND_URL is missing, the database type
is not sqlite or postgres, or a duration is not positive.
*/
package cliparse
