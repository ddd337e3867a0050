// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/danielhkuo/verivote/auth"
	"github.com/danielhkuo/verivote/cliparse"
	"github.com/danielhkuo/verivote/middleware"
	"github.com/danielhkuo/verivote/models"
	"github.com/danielhkuo/verivote/orchestrator"
)

// SessionHeader carries the session token on every election request.
const SessionHeader = "X-Session-Token"

type SessionHandler struct {
	o   *orchestrator.Orchestrator
	cfg cliparse.Config
}

func NewSessionHandler(o *orchestrator.Orchestrator, cfg cliparse.Config) *SessionHandler {
	return &SessionHandler{o: o, cfg: cfg}
}

// CreateSession handles POST /sessions
// The backend user token comes from a bearer Authorization header or the body.
func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	userToken := bearerToken(r)
	if userToken == "" && r.ContentLength != 0 {
		var req models.CreateSessionRequest
		if err := middleware.ParseJSONBody(r, &req); err != nil {
			middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
		userToken = req.UserToken
	}

	token, err := h.o.CreateSession(userToken)
	if err != nil {
		middleware.AppError(w, r, err)
		return
	}

	slog.Debug("session issued", "client", auth.HashIP(middleware.GetClientIP(r), h.cfg.SessionSalt))
	middleware.JSONResponse(w, http.StatusCreated, models.CreateSessionResponse{SessionToken: token})
}

// EndSession handles DELETE /sessions
func (h *SessionHandler) EndSession(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get(SessionHeader)
	if token == "" {
		middleware.ErrorResponse(w, http.StatusUnauthorized, SessionHeader+" header required")
		return
	}
	h.o.EndSession(token)
	w.WriteHeader(http.StatusNoContent)
}

func bearerToken(r *http.Request) string {
	v := r.Header.Get("Authorization")
	if len(v) > 7 && strings.EqualFold(v[:7], "bearer ") {
		return strings.TrimSpace(v[7:])
	}
	return ""
}

// session resolves the caller's session, writing the error response when
// there is none.
func session(w http.ResponseWriter, r *http.Request, o *orchestrator.Orchestrator) (*orchestrator.Session, bool) {
	token := r.Header.Get(SessionHeader)
	if token == "" {
		middleware.ErrorResponse(w, http.StatusUnauthorized, SessionHeader+" header required")
		return nil, false
	}
	s, err := o.Session(token)
	if err != nil {
		middleware.AppError(w, r, err)
		return nil, false
	}
	return s, true
}
