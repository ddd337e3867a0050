// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the verivote API.

	mux := router.NewRouter(o, cfg)

# Endpoints

	GET    /health
	POST   /sessions                         - Start a session (bearer user token)
	DELETE /sessions                         - End the session

Every route below requires the X-Session-Token header.

	GET  /elections                          - Cached election list
	GET  /elections/search?q=                - Title/description search
	GET  /dashboard                          - Counts by phase and role
	GET  /elections/{id}                     - View model; runs on-load effects

	POST /elections/{id}/ballot              - Encrypt a ballot for a choice
	POST /elections/{id}/ballot/cast         - Cast the encrypted ballot
	POST /elections/{id}/ballot/challenge    - Audit (spoil) the ballot
	POST /elections/{id}/ballot/dismiss      - Acknowledge a creation error
	GET  /elections/{id}/ballot              - Ballot state
	GET  /elections/{id}/receipt             - Receipt export (format=json|text)

	POST /elections/{id}/combine             - Combine partial decryptions
	POST /elections/{id}/guardian-key        - Submit a guardian key

	GET  /elections/{id}/results             - Ranked results
	POST /elections/{id}/verify              - Verify a receipt
	GET  /elections/{id}/ballots/{code}/info - Ballot info export
	GET  /elections/{id}/logs                - Ledger and journal events
*/
package router
