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

// Package agentgate authorizes direct treasury actions by autonomous agent
// identities. Agents act under grants issued by executed proposals; the gate
// enforces the grant's action classes and per-period spend cap and records an
// audit entry for every execution.
package agentgate

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/blinklabs-io/agora/database"
	"github.com/blinklabs-io/agora/database/models"
	"github.com/blinklabs-io/agora/event"
)

var (
	ErrUnauthorizedAgent       = errors.New("unauthorized agent")
	ErrActionClassNotPermitted = errors.New("action class not permitted")
	ErrCapExceeded             = errors.New("cap exceeded")
)

// Applier executes a single action within a transaction. Satisfied by the
// execution dispatcher.
type Applier interface {
	Apply(
		txn *database.Txn,
		proposalId uint,
		actionIndex uint32,
		target string,
		amount uint64,
		payload []byte,
	) error
}

// Serializer runs a function under the engine's single write lock. Satisfied
// by the governance state.
type Serializer interface {
	Serialize(fn func() error) error
}

type GateConfig struct {
	Logger     *slog.Logger
	EventBus   *event.EventBus
	Applier    Applier
	Serializer Serializer
	// ReloadParamsFunc runs after a committed agent action, outside the
	// serialized section, so parameter changes take effect
	ReloadParamsFunc func() error
	// DefaultCapPeriodFunc supplies the spend cap reset period for grants
	// that do not carry one
	DefaultCapPeriodFunc func() time.Duration
	NowFunc              func() time.Time
}

// Gate checks agent authorization and applies permitted actions through the
// same dispatcher path that proposal execution uses
type Gate struct {
	config GateConfig
	db     *database.Database
	logger *slog.Logger
}

func NewGate(db *database.Database, cfg GateConfig) *Gate {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if cfg.NowFunc == nil {
		cfg.NowFunc = time.Now
	}
	return &Gate{
		config: cfg,
		db:     db,
		logger: cfg.Logger.With("component", "agentgate"),
	}
}

// AgentExecute applies a single action on behalf of an agent. The action's
// amount counts against the agent's spend cap for the current period; a
// request that would push the period spend past the cap fails without
// partial effect.
func (g *Gate) AgentExecute(
	agentId string,
	actionClass string,
	target string,
	amount uint64,
	payload []byte,
) error {
	err := g.config.Serializer.Serialize(func() error {
		return g.execute(agentId, actionClass, target, amount, payload)
	})
	if err != nil {
		return err
	}
	// The action has committed; a reload failure is logged, not surfaced
	if g.config.ReloadParamsFunc != nil {
		if reloadErr := g.config.ReloadParamsFunc(); reloadErr != nil {
			g.logger.Error(
				"failed to reload parameters after agent action",
				"agent_id", agentId,
				"error", reloadErr,
			)
		}
	}
	return nil
}

func (g *Gate) execute(
	agentId string,
	actionClass string,
	target string,
	amount uint64,
	payload []byte,
) error {
	now := g.config.NowFunc()
	grant, err := g.db.GetAgentGrant(agentId, nil)
	if err != nil {
		return err
	}
	if grant == nil {
		return fmt.Errorf("%w: %s", ErrUnauthorizedAgent, agentId)
	}
	if !grant.PermitsClass(actionClass) {
		return fmt.Errorf(
			"%w: agent %s, class %s",
			ErrActionClassNotPermitted,
			agentId,
			actionClass,
		)
	}
	// Lazy period reset: spend carries forward until a request arrives in a
	// later period
	periodStart := grant.PeriodStart
	periodSpend := grant.PeriodSpend
	period := time.Duration(grant.CapPeriod) * time.Second
	if period == 0 && g.config.DefaultCapPeriodFunc != nil {
		period = g.config.DefaultCapPeriodFunc()
	}
	if period > 0 {
		if now.Sub(periodStart) >= period {
			elapsed := now.Sub(periodStart) / period
			periodStart = periodStart.Add(elapsed * period)
			periodSpend = 0
		}
	}
	if periodSpend+amount < periodSpend || periodSpend+amount > grant.CapAmount {
		return fmt.Errorf(
			"%w: agent %s spent %d of %d this period, requested %d",
			ErrCapExceeded,
			agentId,
			periodSpend,
			grant.CapAmount,
			amount,
		)
	}
	txn := g.db.Transaction(true)
	err = txn.Do(func(txn *database.Txn) error {
		if err := g.config.Applier.Apply(
			txn,
			0,
			0,
			target,
			amount,
			payload,
		); err != nil {
			return err
		}
		grant.PeriodStart = periodStart
		grant.PeriodSpend = periodSpend + amount
		if err := g.db.SetAgentGrant(grant, txn); err != nil {
			return err
		}
		return g.db.AppendAuditRecord(
			&database.AuditRecord{
				Kind:        database.AuditKindAgentExecute,
				AgentId:     agentId,
				ActionClass: actionClass,
				Amount:      amount,
				Timestamp:   now,
			},
			txn,
		)
	})
	if err != nil {
		return err
	}
	g.logger.Info(
		"agent action executed",
		"agent_id", agentId,
		"action_class", actionClass,
		"amount", amount,
		"period_spend", grant.PeriodSpend,
	)
	if g.config.EventBus != nil {
		g.config.EventBus.Publish(
			event.AgentActionEventType,
			event.NewEvent(
				event.AgentActionEventType,
				event.AgentActionEvent{
					AgentId:     agentId,
					ActionClass: actionClass,
					Amount:      amount,
					PeriodSpend: grant.PeriodSpend,
				},
			),
		)
	}
	return nil
}

// GetGrant returns the active grant for an agent, or nil when the agent has
// no active grant
func (g *Gate) GetGrant(agentId string) (*models.AgentGrant, error) {
	return g.db.GetAgentGrant(agentId, nil)
}
