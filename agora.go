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

// Package agora wires the governance engine together: database, treasury
// ledger, execution dispatcher, governance state, agent gate, relay, and the
// REST API.
package agora

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/blinklabs-io/agora/agentgate"
	"github.com/blinklabs-io/agora/api"
	"github.com/blinklabs-io/agora/database"
	"github.com/blinklabs-io/agora/dispatch"
	"github.com/blinklabs-io/agora/event"
	"github.com/blinklabs-io/agora/gov"
	"github.com/blinklabs-io/agora/relay"
	"github.com/blinklabs-io/agora/treasury"
)

type Engine struct {
	config       Config
	eventBus     *event.EventBus
	db           *database.Database
	ledger       *treasury.Ledger
	dispatcher   *dispatch.Dispatcher
	state        *gov.State
	gate         *agentgate.Gate
	relay        *relay.Relay
	api          *api.Api
	apiCancel    context.CancelFunc
	done         chan struct{}
	shutdownOnce sync.Once
}

func New(cfg Config) (*Engine, error) {
	e := &Engine{
		config:   cfg,
		eventBus: event.NewEventBus(cfg.promRegistry, cfg.logger),
		done:     make(chan struct{}),
	}
	if err := e.configValidate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return e, nil
}

func (e *Engine) Run() error {
	// Load database
	db, err := database.New(e.config.logger, e.config.dataDir)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	e.db = db
	// Load treasury ledger
	e.ledger = treasury.NewLedger(e.db, e.config.logger)
	// Load governance state
	state, err := gov.NewState(
		e.db,
		gov.StateConfig{
			Logger:       e.config.logger,
			EventBus:     e.eventBus,
			PromRegistry: e.config.promRegistry,
			Snapshots:    e.config.snapshots,
			Params:       e.config.params,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to load governance state: %w", err)
	}
	e.state = state
	// Initialize dispatcher
	e.dispatcher = dispatch.NewDispatcher(
		e.db,
		dispatch.DispatcherConfig{
			Logger:           e.config.logger,
			Ledger:           e.ledger,
			TreasuryAccount:  e.config.treasuryAccount,
			NestedSubmitFunc: e.state.SubmitNested,
			ValidateParamFunc: func(name, value string) error {
				params := e.state.CurrentParams()
				return params.ApplyOverride(name, value)
			},
		},
	)
	e.state.SetApplier(e.dispatcher)
	// Initialize agent gate
	e.gate = agentgate.NewGate(
		e.db,
		agentgate.GateConfig{
			Logger:           e.config.logger,
			EventBus:         e.eventBus,
			Applier:          e.dispatcher,
			Serializer:       e.state,
			ReloadParamsFunc: e.state.ReloadParams,
			DefaultCapPeriodFunc: func() time.Duration {
				return e.state.CurrentParams().AgentCapResetPeriod
			},
		},
	)
	// Initialize relay
	e.relay = relay.NewRelay(
		e.state,
		relay.RelayConfig{
			Logger: e.config.logger,
		},
	)
	// Start API listener
	if e.config.apiListenAddress != "" {
		e.api = api.New(
			api.ApiConfig{
				Logger:        e.config.logger,
				ListenAddress: e.config.apiListenAddress,
			},
			e.state,
			e.ledger,
			e.gate,
		)
		apiCtx, apiCancel := context.WithCancel(context.Background())
		e.apiCancel = apiCancel
		if err := e.api.Start(apiCtx); err != nil {
			apiCancel()
			return err
		}
	}

	// Wait for shutdown signal
	<-e.done
	return nil
}

func (e *Engine) Stop() error {
	var err error
	e.shutdownOnce.Do(func() {
		err = e.shutdown()
	})
	return err
}

func (e *Engine) shutdown() error {
	shutdownTimeout := 30 * time.Second
	if e.config.shutdownTimeout > 0 {
		shutdownTimeout = e.config.shutdownTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var err error

	e.config.logger.Debug("starting graceful shutdown")

	// Stop accepting new work
	if e.api != nil {
		if stopErr := e.api.Stop(ctx); stopErr != nil {
			err = errors.Join(err, fmt.Errorf("api shutdown: %w", stopErr))
		}
	}
	if e.apiCancel != nil {
		e.apiCancel()
	}

	// Stop event delivery
	if e.eventBus != nil {
		e.eventBus.Stop()
	}

	// Close database last so in-flight transactions finish
	if e.db != nil {
		if closeErr := e.db.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("database shutdown: %w", closeErr))
		}
	}

	close(e.done)
	return err
}

// State returns the governance state for embedding callers
func (e *Engine) State() *gov.State {
	return e.state
}

// Ledger returns the treasury ledger
func (e *Engine) Ledger() *treasury.Ledger {
	return e.ledger
}

// Gate returns the agent authorization gate
func (e *Engine) Gate() *agentgate.Gate {
	return e.gate
}

// Relay returns the cross-chain relay adapter
func (e *Engine) Relay() *relay.Relay {
	return e.relay
}

// EventBus returns the engine's event bus
func (e *Engine) EventBus() *event.EventBus {
	return e.eventBus
}

// Database returns the underlying database
func (e *Engine) Database() *database.Database {
	return e.db
}
