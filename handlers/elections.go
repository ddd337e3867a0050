// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/danielhkuo/verivote/cliparse"
	"github.com/danielhkuo/verivote/middleware"
	"github.com/danielhkuo/verivote/orchestrator"
)

type ElectionHandler struct {
	o   *orchestrator.Orchestrator
	cfg cliparse.Config
}

func NewElectionHandler(o *orchestrator.Orchestrator, cfg cliparse.Config) *ElectionHandler {
	return &ElectionHandler{o: o, cfg: cfg}
}

// ListElections handles GET /elections
func (h *ElectionHandler) ListElections(w http.ResponseWriter, r *http.Request) {
	s, ok := session(w, r, h.o)
	if !ok {
		return
	}

	list, err := s.ListElections(r.Context())
	if err != nil {
		middleware.AppError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, list)
}

// SearchElections handles GET /elections/search?q=
func (h *ElectionHandler) SearchElections(w http.ResponseWriter, r *http.Request) {
	s, ok := session(w, r, h.o)
	if !ok {
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	list, err := s.SearchElections(r.Context(), query)
	if err != nil {
		middleware.AppError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, list)
}

// Dashboard handles GET /dashboard
func (h *ElectionHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	s, ok := session(w, r, h.o)
	if !ok {
		return
	}

	resp, err := s.Dashboard(r.Context())
	if err != nil {
		middleware.AppError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, resp)
}

// ShowElection handles GET /elections/{id}
// On-load effects get up to the configured effect wait to finish before the
// view is rendered; slower effects stay "running" in the response.
func (h *ElectionHandler) ShowElection(w http.ResponseWriter, r *http.Request) {
	electionID := r.PathValue("id")
	if electionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "election id is required")
		return
	}
	s, ok := session(w, r, h.o)
	if !ok {
		return
	}

	view := s.View()
	shown, err := view.Show(r.Context(), electionID)
	if err != nil {
		middleware.AppError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.o.EffectWait())
	defer cancel()
	if err := view.Settle(ctx); err != nil {
		slog.Debug("effects still running", "election_id", electionID, "error", err)
	}

	// A newer Show from the same session may have replaced the view.
	if latest, ok := view.Snapshot(); ok && latest.Election.ID == electionID {
		shown = latest
	}
	middleware.JSONResponse(w, http.StatusOK, shown)
}
