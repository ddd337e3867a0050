// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/danielhkuo/verivote/models"
)

// HTTPCrypto talks to the cryptographic election service.
type HTTPCrypto struct {
	c *client
}

func NewHTTPCrypto(baseURL string, hc *http.Client) *HTTPCrypto {
	return &HTTPCrypto{c: newClient(baseURL, hc)}
}

func electionPath(id string) string {
	return "/api/elections/" + url.PathEscape(id)
}

func (h *HTTPCrypto) CreateEncryptedBallot(ctx context.Context, electionID, choiceID string) (models.EncryptedBallot, error) {
	req := struct {
		ChoiceID string `json:"choice_id"`
	}{choiceID}

	var b models.EncryptedBallot
	if err := h.c.do(ctx, "create ballot", http.MethodPost, electionPath(electionID)+"/ballots/encrypt", req, &b); err != nil {
		return models.EncryptedBallot{}, err
	}
	b.ChosenChoiceID = choiceID
	return b, nil
}

func (h *HTTPCrypto) CastEncryptedBallot(ctx context.Context, electionID string, ballot models.EncryptedBallot) (CastResult, error) {
	req := struct {
		Ciphertext   string `json:"ciphertext"`
		BallotHash   string `json:"ballot_hash"`
		TrackingCode string `json:"tracking_code"`
	}{ballot.Ciphertext, ballot.BallotHash, ballot.TrackingCode}

	var res CastResult
	err := h.c.do(ctx, "cast ballot", http.MethodPost, electionPath(electionID)+"/ballots/cast", req, &res)
	return res, err
}

func (h *HTTPCrypto) Challenge(ctx context.Context, electionID, ciphertextWithNonce, expectedChoice string) (ChallengeResult, error) {
	req := struct {
		CiphertextWithNonce string `json:"ciphertext_with_nonce"`
		ExpectedChoice      string `json:"expected_choice"`
	}{ciphertextWithNonce, expectedChoice}

	var res ChallengeResult
	err := h.c.do(ctx, "challenge ballot", http.MethodPost, electionPath(electionID)+"/ballots/challenge", req, &res)
	return res, err
}

func (h *HTTPCrypto) CombinePartialDecryptions(ctx context.Context, electionID string) (CombineResult, error) {
	var res CombineResult
	err := h.c.do(ctx, "combine decryptions", http.MethodPost, electionPath(electionID)+"/combine", nil, &res)
	return res, err
}

func (h *HTTPCrypto) SubmitGuardianKey(ctx context.Context, electionID, credentials string) (GuardianKeyResult, error) {
	req := struct {
		Credentials string `json:"credentials"`
	}{credentials}

	var res GuardianKeyResult
	err := h.c.do(ctx, "submit guardian key", http.MethodPost, electionPath(electionID)+"/guardian-keys", req, &res)
	return res, err
}
