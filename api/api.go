// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package api exposes the governance engine over HTTP. Read endpoints serve
// committed state; command endpoints map sentinel errors from the engine onto
// HTTP status codes.
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/blinklabs-io/agora/agentgate"
	"github.com/blinklabs-io/agora/gov"
	"github.com/blinklabs-io/agora/treasury"
)

type ApiConfig struct {
	Logger        *slog.Logger
	ListenAddress string
}

// Api is the REST API server over the governance state, treasury ledger, and
// agent gate
type Api struct {
	config     ApiConfig
	logger     *slog.Logger
	state      *gov.State
	ledger     *treasury.Ledger
	gate       *agentgate.Gate
	httpServer *http.Server
	mu         sync.Mutex
}

// New creates a new API server instance
func New(
	cfg ApiConfig,
	state *gov.State,
	ledger *treasury.Ledger,
	gate *agentgate.Gate,
) *Api {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if cfg.ListenAddress == "" {
		cfg.ListenAddress = ":8090"
	}
	return &Api{
		config: cfg,
		logger: cfg.Logger.With("component", "api"),
		state:  state,
		ledger: ledger,
		gate:   gate,
	}
}

// Start starts the HTTP server in a background goroutine
func (a *Api) Start(ctx context.Context) error {
	a.mu.Lock()
	if a.httpServer != nil {
		a.mu.Unlock()
		return errors.New("server already started")
	}

	server := &http.Server{
		Addr:              a.config.ListenAddress,
		Handler:           a.Handler(),
		ReadHeaderTimeout: 60 * time.Second,
	}
	a.httpServer = server
	a.mu.Unlock()

	// Bind the listening socket first so port conflicts are detected
	// immediately, then serve in a background goroutine
	ln, err := net.Listen("tcp", server.Addr)
	if err != nil {
		a.mu.Lock()
		a.httpServer = nil
		a.mu.Unlock()
		return fmt.Errorf("failed to listen for API server: %w", err)
	}
	go func() {
		if err := server.Serve(ln); err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("API server error", "error", err)
		}
	}()

	a.logger.Info("API listener started on " + a.config.ListenAddress)

	// Monitor context for cancellation
	go func() {
		<-ctx.Done()
		a.mu.Lock()
		srv := a.httpServer
		a.httpServer = nil
		a.mu.Unlock()

		if srv != nil {
			a.logger.Debug("context cancelled, shutting down API server")
			//nolint:contextcheck
			shutdownCtx, cancel := context.WithTimeout(
				context.Background(),
				30*time.Second,
			)
			defer cancel()
			//nolint:contextcheck
			if err := srv.Shutdown(shutdownCtx); err != nil {
				a.logger.Error(
					"failed to shutdown API server on context cancellation",
					"error", err,
				)
			}
		}
	}()

	return nil
}

// Stop gracefully shuts down the HTTP server
func (a *Api) Stop(ctx context.Context) error {
	a.mu.Lock()
	srv := a.httpServer
	a.httpServer = nil
	a.mu.Unlock()

	if srv != nil {
		a.logger.Debug("shutting down API server")
		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown API server: %w", err)
		}
	}
	return nil
}

// Handler returns the route mux, exposed separately for tests
func (a *Api) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /", a.handleRoot)
	mux.HandleFunc("GET /health", a.handleHealth)
	mux.HandleFunc("GET /v1/proposals", a.handleListProposals)
	mux.HandleFunc("GET /v1/proposals/{id}", a.handleGetProposal)
	mux.HandleFunc("GET /v1/proposals/{id}/tally", a.handleGetTally)
	mux.HandleFunc("GET /v1/treasury/{asset}", a.handleGetTreasury)
	mux.HandleFunc("GET /v1/agents/{id}", a.handleGetAgent)
	mux.HandleFunc("POST /v1/proposals", a.handleSubmitProposal)
	mux.HandleFunc("POST /v1/proposals/{id}/activate", a.handleActivate)
	mux.HandleFunc("POST /v1/proposals/{id}/votes", a.handleCastVote)
	mux.HandleFunc("POST /v1/proposals/{id}/close", a.handleCloseVoting)
	mux.HandleFunc("POST /v1/proposals/{id}/execute", a.handleExecute)
	mux.HandleFunc("POST /v1/proposals/{id}/cancel", a.handleCancel)
	mux.HandleFunc("POST /v1/agents/{id}/execute", a.handleAgentExecute)
	return mux
}
