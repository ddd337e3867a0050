// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines domain, request and response types for the API.

# Domain Types

  - Election: voting window, eligibility mode, guardian quorum, user roles, choices
  - Choice: a candidate with title and party
  - Guardian: key holder with sequence order and submission flag
  - EncryptedBallot: ciphertexts, hash and tracking code; the chosen choice
    never leaves the process
  - VoteReceipt: proof of a cast ballot with its Keccak-256 fingerprint
  - BallotTallyRecord: one entry of the published ballot list
  - RawTally: per-choice totals as the decryption step returns them
  - BotVerdict: outcome of a bot-detection call

# Request Types

  - CreateSessionRequest: user_token
  - CreateBallotRequest: choice_id
  - ChallengeBallotRequest: expected_choice
  - GuardianKeyRequest: credentials
  - VerifyVoteRequest: tracking_code, hash

# Response Types

  - CreateSessionResponse: session_token
  - ElectionSummary, DashboardResponse: list views
  - GuardianKeyResponse, VerifyVoteResponse
  - ErrorResponse: error, message, reason

# Constants

	EligibilityListed   = "listed"
	EligibilityUnlisted = "unlisted"

	RoleVoter    = "voter"
	RoleAdmin    = "admin"
	RoleGuardian = "guardian"

	BallotCast    = "cast"
	BallotSpoiled = "spoiled"
*/
package models
