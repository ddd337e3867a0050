// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the verivote API server.

verivote sits between a voting UI and the election backends. It keeps
per-session ballot state, decides phase, eligibility and guardian quorum,
verifies receipts against the tally, and serves JSON view models. Ballot
encryption, the ledger and bot detection stay with their own services.

# Starting the Server

	BACKEND_URL=https://elections.example go run .

Or with flags:

	go run . -p 3318 --backend-url https://elections.example --bot-url https://bots.example

A .env file in the working directory is loaded first when present.

# Configuration

Required settings:

  - BACKEND_URL (--backend-url): election backend base URL

Optional settings:

  - PORT (-p): server port (default: 3318)
  - DATABASE_TYPE (-t): sqlite or postgres (default: sqlite)
  - DATABASE_URL (-d): journal database (default: file:verivote.db)
  - CRYPTO_URL, LEDGER_URL: per-service overrides of BACKEND_URL
  - BOT_CHECK_URL (--bot-url): bot detection; empty treats every request as human
  - CACHE_TTL, REQUEST_TIMEOUT, EFFECT_WAIT: durations such as 5m or 2s
  - SESSION_IDLE (--session-idle): drop sessions unused this long (default: 30m)
  - SESSION_SALT: keeps journal session tags stable across restarts

# Architecture

  - orchestrator: sessions, election views, on-load effects
  - election: phase, eligibility and quorum rules
  - ballot: ballot lifecycle state machine
  - results: ranking and receipt verification
  - cache: TTL cache for the election list
  - backend: collaborator interfaces and HTTP clients
  - receipt: receipt and ballot-info exports
  - db: local journal (events, pending casts)
  - handlers, router, middleware: HTTP surface
  - cliparse: configuration parsing

See package documentation for each component.
*/
package main
