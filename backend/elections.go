// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package backend

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielhkuo/verivote/models"
)

// HTTPElections talks to the election listing/detail API.
type HTTPElections struct {
	c *client
}

func NewHTTPElections(baseURL string, hc *http.Client) *HTTPElections {
	return &HTTPElections{c: newClient(baseURL, hc)}
}

func (h *HTTPElections) GetElectionByID(ctx context.Context, id string) (*models.Election, error) {
	var e models.Election
	err := h.c.do(ctx, "get election", http.MethodGet, electionPath(id), nil, &e)
	if err != nil {
		var re *RequestError
		if errors.As(err, &re) && (re.Kind == KindNotFound ||
			re.Status == http.StatusUnauthorized || re.Status == http.StatusForbidden) {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

func (h *HTTPElections) GetAllElections(ctx context.Context) ([]models.Election, error) {
	elections := []models.Election{}
	if err := h.c.do(ctx, "list elections", http.MethodGet, "/api/elections", nil, &elections); err != nil {
		return nil, err
	}
	return elections, nil
}

// CreateTally asks the backend to create the election tally. A conflict
// means it already exists and is treated as success.
func (h *HTTPElections) CreateTally(ctx context.Context, electionID string) error {
	err := h.c.do(ctx, "create tally", http.MethodPost, electionPath(electionID)+"/tally", nil, nil)
	var re *RequestError
	if errors.As(err, &re) && re.Status == http.StatusConflict {
		return nil
	}
	return err
}

func (h *HTTPElections) GetResults(ctx context.Context, electionID string) (CombineResult, error) {
	var res CombineResult
	err := h.c.do(ctx, "get results", http.MethodGet, electionPath(electionID)+"/results", nil, &res)
	return res, err
}

func (h *HTTPElections) GetGuardians(ctx context.Context, electionID string) ([]models.Guardian, error) {
	guardians := []models.Guardian{}
	if err := h.c.do(ctx, "get guardians", http.MethodGet, electionPath(electionID)+"/guardians", nil, &guardians); err != nil {
		return nil, err
	}
	return guardians, nil
}
