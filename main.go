// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/danielhkuo/verivote/auth"
	"github.com/danielhkuo/verivote/backend"
	"github.com/danielhkuo/verivote/cliparse"
	"github.com/danielhkuo/verivote/clock"
	"github.com/danielhkuo/verivote/db"
	"github.com/danielhkuo/verivote/middleware"
	"github.com/danielhkuo/verivote/orchestrator"
	"github.com/danielhkuo/verivote/router"
)

func main() {
	var err error

	if err := cliparse.LoadEnvFile(".env"); err != nil {
		slog.Error("Error loading .env", "error", err)
		os.Exit(1)
	}

	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	// Open the local journal
	dbConn, err := db.Open(cfg.DatabaseType, cfg.DatabaseURL)
	if err != nil {
		slog.Error("database open failed", "type", cfg.DatabaseType, "error", err)
		os.Exit(1)
	}
	defer dbConn.Close()

	if err := db.CreateSchema(dbConn); err != nil {
		slog.Error("schema creation failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database schema ready", "type", cfg.DatabaseType)

	// Without a configured salt, pending casts only survive within this process
	if cfg.SessionSalt == "" {
		cfg.SessionSalt, err = auth.GenerateID(32)
		if err != nil {
			slog.Error("salt generation failed", "error", err)
			os.Exit(1)
		}
		slog.Warn("no session salt configured; pending casts will not be restored after restart")
	}

	// Backend clients
	hc := &http.Client{Timeout: cfg.RequestTimeout}
	var bots backend.BotDetector = backend.NoBotDetector{}
	if cfg.BotCheckURL != "" {
		bots = backend.NewHTTPBotDetector(cfg.BotCheckURL, hc)
	} else {
		slog.Warn("bot detection disabled; every request is treated as human")
	}

	clk := clock.Real()
	o := orchestrator.New(orchestrator.Deps{
		Crypto:    backend.NewHTTPCrypto(cfg.CryptoURL, hc),
		Elections: backend.NewHTTPElections(cfg.BackendURL, hc),
		Bots:      bots,
		Ledger:    backend.NewHTTPLedger(cfg.LedgerURL, hc),
		Journal:   db.NewJournal(dbConn, clk),
		Clock:     clk,
	}, orchestrator.Config{
		CacheTTL:    cfg.CacheTTL,
		EffectWait:  cfg.EffectWait,
		SessionIdle: cfg.SessionIdle,
		SessionSalt: cfg.SessionSalt,
	})
	defer o.Close()

	reapCtx, stopReaper := context.WithCancel(context.Background())
	defer stopReaper()
	go o.RunReaper(reapCtx)

	// Create router
	mux := router.NewRouter(o, cfg)

	// Create server
	server := http.Server{
		Handler: middleware.CORS(mux),
		Addr:    ":" + strconv.Itoa(cfg.Port),
	}

	// signal.Notify requires the channel to be buffered
	ctrlc := make(chan os.Signal, 1)
	signal.Notify(ctrlc, os.Interrupt, syscall.SIGTERM)
	go func() {
		// Wait for Ctrl-C signal
		<-ctrlc
		server.Close()
	}()

	// Start server
	slog.Info("Listening", "port", cfg.Port, "backend", cfg.BackendURL)
	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		slog.Error("Server closed", "error", err)
	} else {
		slog.Info("Server closed", "error", err)
	}
}
