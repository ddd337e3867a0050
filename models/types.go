// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import (
	"errors"
	"fmt"
	"time"
)

// Eligibility modes
const (
	EligibilityListed   = "listed"
	EligibilityUnlisted = "unlisted"
)

// Visibility values
const (
	VisibilityPublic  = "public"
	VisibilityPrivate = "private"
)

// User roles within an election
const (
	RoleVoter    = "voter"
	RoleAdmin    = "admin"
	RoleGuardian = "guardian"
)

// Ballot tally statuses
const (
	BallotCast    = "cast"
	BallotSpoiled = "spoiled"
)

// Per-ballot verification states reported by the combination step
const (
	VerificationSuccess       = "success"
	VerificationFailed        = "failed"
	VerificationNoInitialHash = "no_initial_hash"
	VerificationUnknown       = "unknown"
)

var ErrInvalidQuorum = errors.New("invalid quorum")

// Domain types

type Choice struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	PartyName string  `json:"party_name"`
	ImageURL  *string `json:"image_url,omitempty"`
}

type Election struct {
	ID                 string    `json:"id"`
	Title              string    `json:"title"`
	Description        string    `json:"description"`
	StartingTime       time.Time `json:"starting_time"`
	EndingTime         time.Time `json:"ending_time"`
	EligibilityMode    string    `json:"eligibility_mode"`
	Visibility         string    `json:"visibility"`
	Quorum             int       `json:"quorum"`
	TotalGuardians     int       `json:"total_guardians"`
	GuardiansSubmitted int       `json:"guardians_submitted"`
	UserRoles          []string  `json:"user_roles"`
	HasVoted           bool      `json:"has_voted"`
	HasTally           bool      `json:"has_tally"`
	Choices            []Choice  `json:"choices"`
}

// Validate checks 1 <= quorum <= total guardians.
func (e Election) Validate() error {
	if e.Quorum < 1 || e.Quorum > e.TotalGuardians {
		return fmt.Errorf("%w: quorum %d with %d guardians", ErrInvalidQuorum, e.Quorum, e.TotalGuardians)
	}
	return nil
}

// HasRole reports whether the requesting user holds role in this election.
func (e Election) HasRole(role string) bool {
	for _, r := range e.UserRoles {
		if r == role {
			return true
		}
	}
	return false
}

// ChoiceByID returns the choice with the given id.
func (e Election) ChoiceByID(id string) (Choice, bool) {
	for _, c := range e.Choices {
		if c.ID == id {
			return c, true
		}
	}
	return Choice{}, false
}

// ChoiceTitles returns choice titles in ballot order.
func (e Election) ChoiceTitles() []string {
	titles := make([]string, len(e.Choices))
	for i, c := range e.Choices {
		titles[i] = c.Title
	}
	return titles
}

type Guardian struct {
	UserID           string `json:"user_id"`
	SequenceOrder    int    `json:"sequence_order"`
	SubmittedKey     bool   `json:"submitted_key"`
	IsRequestingUser bool   `json:"is_requesting_user"`
}

type EncryptedBallot struct {
	Ciphertext          string `json:"ciphertext"`
	CiphertextWithNonce string `json:"ciphertext_with_nonce"`
	BallotHash          string `json:"ballot_hash"`
	TrackingCode        string `json:"tracking_code"`
	ChosenChoiceID      string `json:"-"` // Held client-side only
}

type VoteReceipt struct {
	ID           string    `json:"id"`
	TrackingCode string    `json:"tracking_code"`
	Hash         string    `json:"hash"`
	ElectionID   string    `json:"election_id"`
	Timestamp    time.Time `json:"timestamp"`
	Fingerprint  string    `json:"fingerprint"`
}

type BallotTallyRecord struct {
	BallotID      string  `json:"ballot_id"`
	InitialHash   string  `json:"initial_hash"`
	DecryptedHash *string `json:"decrypted_hash,omitempty"`
	Status        string  `json:"status"`
	Verification  string  `json:"verification"`
}

type LogEntry struct {
	ID           string    `json:"id"`
	ElectionID   string    `json:"election_id"`
	Kind         string    `json:"kind"`
	TrackingCode string    `json:"tracking_code,omitempty"`
	BallotHash   string    `json:"ballot_hash,omitempty"`
	TxHash       string    `json:"tx_hash,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// Request types

type CreateSessionRequest struct {
	UserToken string `json:"user_token"`
}

type CreateBallotRequest struct {
	ChoiceID string `json:"choice_id"`
}

type ChallengeBallotRequest struct {
	ExpectedChoice string `json:"expected_choice"`
}

type GuardianKeyRequest struct {
	Credentials string `json:"credentials"`
}

type VerifyVoteRequest struct {
	TrackingCode string `json:"tracking_code"`
	Hash         string `json:"hash"`
}

// Response types

type CreateSessionResponse struct {
	SessionToken string `json:"session_token"`
}

type GuardianKeyResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type VerifyVoteResponse struct {
	TrackingCode string `json:"tracking_code"`
	Outcome      string `json:"outcome"`
	Source       string `json:"source"`
	Message      string `json:"message"`
}

type ElectionSummary struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Phase    string   `json:"phase"`
	Roles    []string `json:"roles"`
	HasVoted bool     `json:"has_voted"`
	Timing   string   `json:"timing"`
}

type DashboardResponse struct {
	Total      int               `json:"total"`
	Upcoming   int               `json:"upcoming"`
	Active     int               `json:"active"`
	Ended      int               `json:"ended"`
	AsVoter    int               `json:"as_voter"`
	AsGuardian int               `json:"as_guardian"`
	AsAdmin    int               `json:"as_admin"`
	Pending    []ElectionSummary `json:"pending_votes"`
	FetchedAt  time.Time         `json:"fetched_at"` // age of the cached election list
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

// BotVerdict is the outcome of a single bot-detection call. CheckFailed
// means the provider errored and the verdict failed open.
type BotVerdict struct {
	IsBot       bool   `json:"is_bot"`
	Pending     bool   `json:"pending"`
	CheckFailed bool   `json:"check_failed"`
	RequestID   string `json:"request_id,omitempty"`
}

// Raw tally shapes returned by the combination step. Results is the
// combined per-choice map; Choices is the fallback list shape.

type ChoiceTally struct {
	Votes      int     `json:"votes"`
	Percentage float64 `json:"percentage"`
}

type ChoiceTotal struct {
	Name       string `json:"name"`
	TotalVotes int    `json:"total_votes"`
}

type RawTally struct {
	Results             map[string]ChoiceTally `json:"results,omitempty"`
	Choices             []ChoiceTotal          `json:"choices,omitempty"`
	TotalValidBallots   int                    `json:"total_valid_ballots"`
	TotalEligibleVoters int                    `json:"total_eligible_voters"`
}
