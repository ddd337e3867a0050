// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/danielhkuo/verivote/models"
)

// HTTPLedger reads the blockchain log service.
type HTTPLedger struct {
	c *client
}

func NewHTTPLedger(baseURL string, hc *http.Client) *HTTPLedger {
	return &HTTPLedger{c: newClient(baseURL, hc)}
}

func ledgerPath(electionID string) string {
	return "/api/ledger/" + url.PathEscape(electionID)
}

func (h *HTTPLedger) GetLogs(ctx context.Context, electionID string) ([]models.LogEntry, error) {
	logs := []models.LogEntry{}
	if err := h.c.do(ctx, "get logs", http.MethodGet, ledgerPath(electionID)+"/logs", nil, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

// VerifyBallot returns the ledger's verdict. A 404 is reported as an
// unsuccessful verification rather than an error.
func (h *HTTPLedger) VerifyBallot(ctx context.Context, electionID, trackingCode string) (LedgerVerification, error) {
	var res LedgerVerification
	path := ledgerPath(electionID) + "/ballots/" + url.PathEscape(trackingCode)
	err := h.c.do(ctx, "verify ballot", http.MethodGet, path, nil, &res)
	if k, ok := KindOf(err); ok && k == KindNotFound {
		return LedgerVerification{Success: false, Error: "not found"}, nil
	}
	return res, err
}
