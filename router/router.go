// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"

	"github.com/danielhkuo/verivote/cliparse"
	"github.com/danielhkuo/verivote/handlers"
	"github.com/danielhkuo/verivote/middleware"
	"github.com/danielhkuo/verivote/orchestrator"
)

func NewRouter(o *orchestrator.Orchestrator, cfg cliparse.Config) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	sessionHandler := handlers.NewSessionHandler(o, cfg)
	electionHandler := handlers.NewElectionHandler(o, cfg)
	ballotHandler := handlers.NewBallotHandler(o, cfg)
	guardianHandler := handlers.NewGuardianHandler(o, cfg)
	verifyHandler := handlers.NewVerifyHandler(o, cfg)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Sessions
	mux.HandleFunc("POST /sessions", middleware.WithLogging(sessionHandler.CreateSession))
	mux.HandleFunc("DELETE /sessions", middleware.WithLogging(sessionHandler.EndSession))

	// Election listing (served from the per-session list cache)
	mux.HandleFunc("GET /elections", middleware.WithLogging(electionHandler.ListElections))
	mux.HandleFunc("GET /elections/search", middleware.WithLogging(electionHandler.SearchElections))
	mux.HandleFunc("GET /dashboard", middleware.WithLogging(electionHandler.Dashboard))
	mux.HandleFunc("GET /elections/{id}", middleware.WithLogging(electionHandler.ShowElection))

	// Ballot lifecycle
	mux.HandleFunc("POST /elections/{id}/ballot", middleware.WithLogging(ballotHandler.CreateBallot))
	mux.HandleFunc("POST /elections/{id}/ballot/cast", middleware.WithLogging(ballotHandler.CastBallot))
	mux.HandleFunc("POST /elections/{id}/ballot/challenge", middleware.WithLogging(ballotHandler.ChallengeBallot))
	mux.HandleFunc("POST /elections/{id}/ballot/dismiss", middleware.WithLogging(ballotHandler.DismissBallotError))
	mux.HandleFunc("GET /elections/{id}/ballot", middleware.WithLogging(ballotHandler.GetBallot))
	mux.HandleFunc("GET /elections/{id}/receipt", middleware.WithLogging(ballotHandler.GetReceipt))

	// Guardians
	mux.HandleFunc("POST /elections/{id}/combine", middleware.WithLogging(guardianHandler.Combine))
	mux.HandleFunc("POST /elections/{id}/guardian-key", middleware.WithLogging(guardianHandler.SubmitGuardianKey))

	// Results and verification
	mux.HandleFunc("GET /elections/{id}/results", middleware.WithLogging(verifyHandler.GetResults))
	mux.HandleFunc("POST /elections/{id}/verify", middleware.WithLogging(verifyHandler.Verify))
	mux.HandleFunc("GET /elections/{id}/ballots/{code}/info", middleware.WithLogging(verifyHandler.BallotInfo))
	mux.HandleFunc("GET /elections/{id}/logs", middleware.WithLogging(verifyHandler.GetLogs))

	// Root endpoint
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("verivote API v1"))
	})

	return mux
}
