// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/danielhkuo/verivote/cliparse"
	"github.com/danielhkuo/verivote/middleware"
	"github.com/danielhkuo/verivote/models"
	"github.com/danielhkuo/verivote/orchestrator"
)

type VerifyHandler struct {
	o   *orchestrator.Orchestrator
	cfg cliparse.Config
}

func NewVerifyHandler(o *orchestrator.Orchestrator, cfg cliparse.Config) *VerifyHandler {
	return &VerifyHandler{o: o, cfg: cfg}
}

// Verify handles POST /elections/{id}/verify
// Always 200; the outcome field says whether the vote was found.
func (h *VerifyHandler) Verify(w http.ResponseWriter, r *http.Request) {
	electionID := r.PathValue("id")
	s, ok := session(w, r, h.o)
	if !ok {
		return
	}

	var req models.VerifyVoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.TrackingCode == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "tracking_code is required")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, s.Verify(r.Context(), electionID, req.TrackingCode, req.Hash))
}

// BallotInfo handles GET /elections/{id}/ballots/{code}/info?format=json|text
func (h *VerifyHandler) BallotInfo(w http.ResponseWriter, r *http.Request) {
	s, ok := session(w, r, h.o)
	if !ok {
		return
	}

	info, err := s.BallotInfo(r.Context(), r.PathValue("id"), r.PathValue("code"))
	if err != nil {
		middleware.AppError(w, r, err)
		return
	}

	switch format(r) {
	case "text":
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		err = info.WriteText(w)
	case "json":
		w.Header().Set("Content-Type", "application/json")
		err = info.WriteJSON(w)
	default:
		middleware.ErrorResponse(w, http.StatusBadRequest, "format must be json or text")
		return
	}
	if err != nil {
		slog.Error("failed to write ballot info", "error", err)
	}
}

// GetResults handles GET /elections/{id}/results
func (h *VerifyHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	s, ok := session(w, r, h.o)
	if !ok {
		return
	}

	ranked, err := s.Results(r.Context(), r.PathValue("id"))
	if err != nil {
		middleware.AppError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, ranked)
}

// GetLogs handles GET /elections/{id}/logs
func (h *VerifyHandler) GetLogs(w http.ResponseWriter, r *http.Request) {
	s, ok := session(w, r, h.o)
	if !ok {
		return
	}

	logs, err := s.Logs(r.Context(), r.PathValue("id"))
	if err != nil {
		middleware.AppError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, logs)
}
