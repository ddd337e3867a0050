// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package backend

import (
	"context"
	"encoding/json"
	"time"

	"github.com/danielhkuo/verivote/models"
)

type CastResult struct {
	TrackingCode string    `json:"tracking_code"`
	Hash         string    `json:"hash"`
	Timestamp    time.Time `json:"timestamp"`
}

type ChallengeResult struct {
	Match          bool   `json:"match"`
	RevealedChoice string `json:"revealed_choice"`
}

// CombineResult is the output of combining partial decryptions. Ballots is
// kept raw so the verifier can classify a malformed shape itself.
type CombineResult struct {
	Tally   models.RawTally `json:"tally"`
	Ballots json.RawMessage `json:"ballots"`
}

type GuardianKeyResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// LedgerVerification is the remote verifyBallot response.
type LedgerVerification struct {
	Success bool                      `json:"success"`
	Data    *models.BallotTallyRecord `json:"data,omitempty"`
	Error   string                    `json:"error,omitempty"`
}

type Crypto interface {
	CreateEncryptedBallot(ctx context.Context, electionID, choiceID string) (models.EncryptedBallot, error)
	CastEncryptedBallot(ctx context.Context, electionID string, ballot models.EncryptedBallot) (CastResult, error)
	Challenge(ctx context.Context, electionID, ciphertextWithNonce, expectedChoice string) (ChallengeResult, error)
	CombinePartialDecryptions(ctx context.Context, electionID string) (CombineResult, error)
	SubmitGuardianKey(ctx context.Context, electionID, credentials string) (GuardianKeyResult, error)
}

type Elections interface {
	// GetElectionByID returns nil, nil when the election does not exist or
	// the user may not see it.
	GetElectionByID(ctx context.Context, id string) (*models.Election, error)
	GetAllElections(ctx context.Context) ([]models.Election, error)
	CreateTally(ctx context.Context, electionID string) error
	GetResults(ctx context.Context, electionID string) (CombineResult, error)
	GetGuardians(ctx context.Context, electionID string) ([]models.Guardian, error)
}

type BotDetector interface {
	Detect(ctx context.Context) (models.BotVerdict, error)
}

type Ledger interface {
	GetLogs(ctx context.Context, electionID string) ([]models.LogEntry, error)
	VerifyBallot(ctx context.Context, electionID, trackingCode string) (LedgerVerification, error)
}

// NoBotDetector always reports a human. Used when no provider is configured.
type NoBotDetector struct{}

func (NoBotDetector) Detect(context.Context) (models.BotVerdict, error) {
	return models.BotVerdict{}, nil
}

type userTokenKey struct{}

// WithUserToken attaches the user's backend credential to ctx.
func WithUserToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, userTokenKey{}, token)
}

func userToken(ctx context.Context) string {
	tok, _ := ctx.Value(userTokenKey{}).(string)
	return tok
}
