// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/danielhkuo/verivote/cliparse"
	"github.com/danielhkuo/verivote/middleware"
	"github.com/danielhkuo/verivote/models"
	"github.com/danielhkuo/verivote/orchestrator"
	"github.com/danielhkuo/verivote/receipt"
)

type BallotHandler struct {
	o   *orchestrator.Orchestrator
	cfg cliparse.Config
}

func NewBallotHandler(o *orchestrator.Orchestrator, cfg cliparse.Config) *BallotHandler {
	return &BallotHandler{o: o, cfg: cfg}
}

// CreateBallot handles POST /elections/{id}/ballot
func (h *BallotHandler) CreateBallot(w http.ResponseWriter, r *http.Request) {
	electionID := r.PathValue("id")
	s, ok := session(w, r, h.o)
	if !ok {
		return
	}

	var req models.CreateBallotRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if strings.TrimSpace(req.ChoiceID) == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "choice_id is required")
		return
	}

	status, err := s.CreateBallot(r.Context(), electionID, req.ChoiceID)
	if err != nil {
		middleware.AppError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusCreated, status)
}

// CastBallot handles POST /elections/{id}/ballot/cast
func (h *BallotHandler) CastBallot(w http.ResponseWriter, r *http.Request) {
	electionID := r.PathValue("id")
	s, ok := session(w, r, h.o)
	if !ok {
		return
	}

	rec, err := s.CastBallot(r.Context(), electionID)
	if err != nil {
		middleware.AppError(w, r, err)
		return
	}

	slog.Info("ballot cast", "session", s.Tag(), "election_id", electionID)
	middleware.JSONResponse(w, http.StatusOK, rec)
}

// ChallengeBallot handles POST /elections/{id}/ballot/challenge
// An empty body challenges against the choice the ballot was created with;
// a ballot recovered from an unconfirmed cast needs expected_choice.
func (h *BallotHandler) ChallengeBallot(w http.ResponseWriter, r *http.Request) {
	electionID := r.PathValue("id")
	s, ok := session(w, r, h.o)
	if !ok {
		return
	}

	var req models.ChallengeBallotRequest
	if r.ContentLength != 0 {
		if err := middleware.ParseJSONBody(r, &req); err != nil {
			middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
	}

	outcome, err := s.ChallengeBallot(r.Context(), electionID, req.ExpectedChoice)
	if err != nil {
		middleware.AppError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, outcome)
}

// DismissBallotError handles POST /elections/{id}/ballot/dismiss
func (h *BallotHandler) DismissBallotError(w http.ResponseWriter, r *http.Request) {
	s, ok := session(w, r, h.o)
	if !ok {
		return
	}

	status, err := s.DismissBallotError(r.PathValue("id"))
	if err != nil {
		middleware.AppError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, status)
}

// GetBallot handles GET /elections/{id}/ballot
func (h *BallotHandler) GetBallot(w http.ResponseWriter, r *http.Request) {
	s, ok := session(w, r, h.o)
	if !ok {
		return
	}
	middleware.JSONResponse(w, http.StatusOK, s.BallotStatus(r.PathValue("id")))
}

// GetReceipt handles GET /elections/{id}/receipt?format=json|text
func (h *BallotHandler) GetReceipt(w http.ResponseWriter, r *http.Request) {
	s, ok := session(w, r, h.o)
	if !ok {
		return
	}

	rec, err := s.Receipt(r.PathValue("id"))
	if err != nil {
		middleware.AppError(w, r, err)
		return
	}

	switch format(r) {
	case "text":
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="vote-receipt-`+rec.TrackingCode+`.txt"`)
		err = receipt.WriteText(w, rec)
	case "json":
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", `attachment; filename="vote-receipt-`+rec.TrackingCode+`.json"`)
		err = receipt.WriteJSON(w, rec)
	default:
		middleware.ErrorResponse(w, http.StatusBadRequest, "format must be json or text")
		return
	}
	if err != nil {
		slog.Error("failed to write receipt", "error", err)
	}
}

func format(r *http.Request) string {
	f := strings.ToLower(r.URL.Query().Get("format"))
	if f == "" {
		return "json"
	}
	return f
}
