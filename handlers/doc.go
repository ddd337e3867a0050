// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the verivote API.

# Handler Types

Each handler is a struct holding the orchestrator and config:

  - SessionHandler: session start and end
  - ElectionHandler: list, search, dashboard and the election view
  - BallotHandler: create, cast, challenge, error dismissal, status and
    receipt export
  - GuardianHandler: key submission and decryption combination
  - VerifyHandler: receipt verification, ballot info, results and logs

Handlers are created with constructor functions:

	ballotHandler := handlers.NewBallotHandler(o, cfg)

# Sessions

POST /sessions exchanges a backend user token (bearer Authorization header
or {"user_token": ...}) for a session token. Every other route needs the
session token in the X-Session-Token header; a missing or unknown token is
401.

# Errors

Orchestrator errors are written with middleware.AppError, so the status
follows the error class:

	UserBlocking  403, or 404/409 by reason (not_found, already_voted, ...)
	Invalid       400
	Retryable     502
	Ambiguous     504 (a cast may have been recorded; the view reconciles it)
	Fatal         500

Verification never fails at the HTTP level: POST /elections/{id}/verify is
always 200 and the outcome is one of verified, corrupted, not_found or error.

# Election View

GET /elections/{id} shows the election in the session's view and waits up
to the configured effect wait for on-load effects (auto-tally,
auto-combine) before rendering. Effects still in flight are reported as
"running".
*/
package handlers
