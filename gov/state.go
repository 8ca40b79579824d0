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

package gov

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/blinklabs-io/agora/database"
	"github.com/blinklabs-io/agora/event"
	"github.com/prometheus/client_golang/prometheus"
)

const defaultSnapshotTimeout = 5 * time.Second

// ActionApplier applies a single decoded proposal action within the given
// transaction. The execution dispatcher is the only implementation; there is
// exactly one code path that reaches the treasury ledger's mutators.
type ActionApplier interface {
	Apply(
		txn *database.Txn,
		proposalId uint,
		actionIndex uint32,
		target string,
		amount uint64,
		payload []byte,
	) error
}

type StateConfig struct {
	Logger       *slog.Logger
	EventBus     *event.EventBus
	PromRegistry prometheus.Registerer
	Snapshots    SnapshotProvider
	Params       Params
	// NowFunc overrides the time source, used by tests
	NowFunc         func() time.Time
	SnapshotTimeout time.Duration
}

// State is the governance state machine. All state-mutating operations are
// serialized through a single mutex, applied one at a time in arrival order.
// Read operations run against the latest committed state and never take the
// write lock. There is no background threading: voting-window and timelock
// expiry are evaluated lazily when CloseVoting/Execute are invoked.
type State struct {
	mutex   sync.Mutex
	config  StateConfig
	db      *database.Database
	applier ActionApplier
	params  Params
	metrics stateMetrics
}

// NewState creates the governance state machine on top of the given database,
// loading any persisted parameter overrides
func NewState(
	db *database.Database,
	cfg StateConfig,
) (*State, error) {
	if db == nil {
		return nil, errors.New("database is required")
	}
	if cfg.Snapshots == nil {
		return nil, errors.New("snapshot provider is required")
	}
	if cfg.Logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	cfg.Logger = cfg.Logger.With("component", "governance")
	if cfg.NowFunc == nil {
		cfg.NowFunc = time.Now
	}
	if cfg.SnapshotTimeout <= 0 {
		cfg.SnapshotTimeout = defaultSnapshotTimeout
	}
	if err := cfg.Params.Validate(); err != nil {
		return nil, err
	}
	s := &State{
		config: cfg,
		db:     db,
		params: cfg.Params,
	}
	s.metrics.init(cfg.PromRegistry)
	if err := s.reloadParams(); err != nil {
		return nil, err
	}
	return s, nil
}

// SetApplier wires in the execution dispatcher. Must be called before any
// Execute; kept separate from NewState because the dispatcher needs the state
// for nested proposal triggers.
func (s *State) SetApplier(applier ActionApplier) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.applier = applier
}

// Serialize runs fn while holding the engine's single write lock. Collaborators
// that mutate shared state outside the governance operations (the agent
// authorization gate) use this to preserve the one-mutation-at-a-time model.
func (s *State) Serialize(fn func() error) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return fn()
}

// CurrentParams returns a copy of the effective governance parameters
func (s *State) CurrentParams() Params {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.params
}

// ReloadParams re-reads persisted parameter overrides. Called after a
// committed mutation that may have included a ParameterChange action.
func (s *State) ReloadParams() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.reloadParams()
}

func (s *State) reloadParams() error {
	overrides, err := s.db.GetParams(nil)
	if err != nil {
		return err
	}
	params := s.config.Params
	for name, value := range overrides {
		if err := params.ApplyOverride(name, value); err != nil {
			return err
		}
	}
	s.params = params
	return nil
}

func (s *State) now() time.Time {
	return s.config.NowFunc()
}

func (s *State) publish(eventType event.EventType, data any) {
	if s.config.EventBus == nil {
		return
	}
	s.config.EventBus.Publish(
		eventType,
		event.NewEvent(eventType, data),
	)
}

// snapshotWeight queries the balance snapshot provider with a bounded timeout.
// A failed or timed-out call aborts the enclosing mutation before any write.
func (s *State) snapshotWeight(
	ctx context.Context,
	account string,
	height uint64,
) (uint64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.SnapshotTimeout)
	defer cancel()
	weight, err := s.config.Snapshots.WeightAt(ctx, account, height)
	if err != nil {
		return 0, errors.Join(ErrSnapshotUnavailable, err)
	}
	return weight, nil
}

func (s *State) snapshotHeight(ctx context.Context) (uint64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.SnapshotTimeout)
	defer cancel()
	height, err := s.config.Snapshots.CurrentHeight(ctx)
	if err != nil {
		return 0, errors.Join(ErrSnapshotUnavailable, err)
	}
	return height, nil
}
