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

type GuardianHandler struct {
	o   *orchestrator.Orchestrator
	cfg cliparse.Config
}

func NewGuardianHandler(o *orchestrator.Orchestrator, cfg cliparse.Config) *GuardianHandler {
	return &GuardianHandler{o: o, cfg: cfg}
}

// Combine handles POST /elections/{id}/combine
// Refused with 409 until the guardian quorum is met.
func (h *GuardianHandler) Combine(w http.ResponseWriter, r *http.Request) {
	electionID := r.PathValue("id")
	s, ok := session(w, r, h.o)
	if !ok {
		return
	}

	ranked, err := s.Combine(r.Context(), electionID)
	if err != nil {
		middleware.AppError(w, r, err)
		return
	}

	slog.Info("partial decryptions combined", "election_id", electionID, "total_votes", ranked.TotalVotes)
	middleware.JSONResponse(w, http.StatusOK, ranked)
}

// SubmitGuardianKey handles POST /elections/{id}/guardian-key
func (h *GuardianHandler) SubmitGuardianKey(w http.ResponseWriter, r *http.Request) {
	electionID := r.PathValue("id")
	s, ok := session(w, r, h.o)
	if !ok {
		return
	}

	var req models.GuardianKeyRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	resp, err := s.SubmitGuardianKey(r.Context(), electionID, req.Credentials)
	if err != nil {
		middleware.AppError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, resp)
}
