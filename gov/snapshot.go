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
	"sync"
)

// SnapshotProvider supplies voting weights at historical heights. It is an
// external collaborator: the token balance ledger is not part of this engine.
// Calls must complete (or fail) before the enclosing mutation commits; a
// failure surfaces as ErrSnapshotUnavailable and aborts the mutation with no
// partial effect.
type SnapshotProvider interface {
	// CurrentHeight returns the latest block/sequence height known to the
	// balance ledger
	CurrentHeight(ctx context.Context) (uint64, error)
	// WeightAt returns the voting weight of an account at the given height
	WeightAt(ctx context.Context, account string, height uint64) (uint64, error)
}

// StaticSnapshotProvider is a fixed-weight SnapshotProvider used for
// development mode and tests. Weights are the same at every height.
type StaticSnapshotProvider struct {
	mu      sync.RWMutex
	weights map[string]uint64
	height  uint64
}

// NewStaticSnapshotProvider creates a provider with the given fixed weights
func NewStaticSnapshotProvider(
	weights map[string]uint64,
	height uint64,
) *StaticSnapshotProvider {
	w := make(map[string]uint64, len(weights))
	for account, weight := range weights {
		w[account] = weight
	}
	return &StaticSnapshotProvider{
		weights: w,
		height:  height,
	}
}

func (p *StaticSnapshotProvider) CurrentHeight(
	ctx context.Context,
) (uint64, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.height, nil
}

func (p *StaticSnapshotProvider) WeightAt(
	ctx context.Context,
	account string,
	height uint64,
) (uint64, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.weights[account], nil
}

// SetWeight updates an account's weight. Existing vote records are unaffected;
// weight is captured at cast time.
func (p *StaticSnapshotProvider) SetWeight(account string, weight uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.weights[account] = weight
}

// AdvanceHeight advances the provider's notion of the current height
func (p *StaticSnapshotProvider) AdvanceHeight(delta uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.height += delta
}
