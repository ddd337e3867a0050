// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package backend defines the external collaborators of the orchestrator and
their HTTP JSON clients.

# Collaborators

  - Crypto: ballot encryption, cast, Benaloh challenge, combination of
    partial decryptions, guardian key submission
  - Elections: election detail and listing, tally creation, results,
    guardians
  - BotDetector: a single fresh bot verdict per security-sensitive action
  - Ledger: blockchain log reads and remote ballot verification

Each has an HTTP implementation built on one shared client:

	crypto := backend.NewHTTPCrypto(cfg.CryptoURL, httpClient)

# Errors

Transport and status failures come back as *RequestError with a Kind:

	KindNetwork      connection never established, safe to retry
	KindAmbiguous    request may have reached the server, outcome unknown
	KindServer       5xx, safe to retry
	KindRejected     4xx
	KindNotFound     404, or 401/403 for election reads
	KindQuorumNotMet combination attempted before quorum

GetElectionByID returns (nil, nil) when the election is missing or not
visible to the user; that is not a network error.

# User identity

The caller's backend credential travels in the context:

	ctx = backend.WithUserToken(ctx, token)

and is sent as a bearer token on every request.
*/
package backend
