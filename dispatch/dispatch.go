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

// Package dispatch maps approved proposal actions onto their effects. The
// action set is closed: every action names one of the kinds below, and an
// unknown kind fails the whole execution rather than being skipped.
package dispatch

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/blinklabs-io/agora/database"
	"github.com/blinklabs-io/agora/database/models"
	"github.com/blinklabs-io/agora/gov"
	"github.com/blinklabs-io/agora/treasury"
)

var (
	ErrUnsupportedActionKind = errors.New("unsupported action kind")
	ErrInvalidActionPayload  = errors.New("invalid action payload")
)

// Action kinds understood by the dispatcher
const (
	ActionKindAssetTransfer    = "AssetTransfer"
	ActionKindMint             = "Mint"
	ActionKindBurn             = "Burn"
	ActionKindParameterChange  = "ParameterChange"
	ActionKindAgentGrantUpdate = "AgentGrantUpdate"
	ActionKindProposalTrigger  = "ProposalTrigger"
)

// NestedSubmitFunc submits a follow-up proposal from within an executing
// transaction. Wired to the governance state's nested submit path.
type NestedSubmitFunc func(
	txn *database.Txn,
	sourceChainId uint64,
	proposer string,
	description string,
	actions []gov.ActionInput,
	votingDuration time.Duration,
) (*models.Proposal, error)

// ValidateParamFunc checks a parameter override before it is persisted
type ValidateParamFunc func(name string, value string) error

type DispatcherConfig struct {
	Logger            *slog.Logger
	Ledger            *treasury.Ledger
	TreasuryAccount   string
	NestedSubmitFunc  NestedSubmitFunc
	ValidateParamFunc ValidateParamFunc
	NowFunc           func() time.Time
}

// Dispatcher applies proposal actions inside the executing transaction. It
// implements the action applier interface consumed by the governance state.
type Dispatcher struct {
	config DispatcherConfig
	db     *database.Database
	logger *slog.Logger
}

func NewDispatcher(db *database.Database, cfg DispatcherConfig) *Dispatcher {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if cfg.TreasuryAccount == "" {
		cfg.TreasuryAccount = treasury.TreasuryAccountName
	}
	if cfg.NowFunc == nil {
		cfg.NowFunc = time.Now
	}
	return &Dispatcher{
		config: cfg,
		db:     db,
		logger: cfg.Logger.With("component", "dispatch"),
	}
}

// actionEnvelope carries only the kind tag; the full payload is decoded per
// kind once the tag is known
type actionEnvelope struct {
	Kind string `json:"kind"`
}

type assetTransferAction struct {
	From  string `json:"from,omitempty"`
	Asset string `json:"asset"`
}

type mintAction struct {
	Asset string `json:"asset"`
}

type burnAction struct {
	From  string `json:"from,omitempty"`
	Asset string `json:"asset"`
}

type parameterChangeAction struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type agentGrantUpdateAction struct {
	AgentId          string   `json:"agentId"`
	ActionClasses    []string `json:"actionClasses"`
	CapAmount        uint64   `json:"capAmount"`
	CapPeriodSeconds int64    `json:"capPeriodSeconds"`
	Revoked          bool     `json:"revoked"`
}

type triggerActionInput struct {
	Target  string `json:"target"`
	Amount  uint64 `json:"amount"`
	Payload []byte `json:"payload"`
}

type proposalTriggerAction struct {
	Proposer              string               `json:"proposer"`
	Description           string               `json:"description"`
	VotingDurationSeconds int64                `json:"votingDurationSeconds"`
	Actions               []triggerActionInput `json:"actions"`
}

// Apply executes a single proposal action within txn. Any error fails the
// caller's transaction, rolling back effects of earlier actions in the same
// proposal.
func (d *Dispatcher) Apply(
	txn *database.Txn,
	proposalId uint,
	actionIndex uint32,
	target string,
	amount uint64,
	payload []byte,
) error {
	var envelope actionEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidActionPayload, err)
	}
	d.logger.Debug(
		"applying action",
		"proposal_id", proposalId,
		"action_index", actionIndex,
		"kind", envelope.Kind,
	)
	switch envelope.Kind {
	case ActionKindAssetTransfer:
		return d.applyAssetTransfer(txn, target, amount, payload)
	case ActionKindMint:
		return d.applyMint(txn, target, amount, payload)
	case ActionKindBurn:
		return d.applyBurn(txn, amount, payload)
	case ActionKindParameterChange:
		return d.applyParameterChange(txn, payload)
	case ActionKindAgentGrantUpdate:
		return d.applyAgentGrantUpdate(txn, payload)
	case ActionKindProposalTrigger:
		return d.applyProposalTrigger(txn, payload)
	default:
		return fmt.Errorf(
			"%w: %q",
			ErrUnsupportedActionKind,
			envelope.Kind,
		)
	}
}

func (d *Dispatcher) applyAssetTransfer(
	txn *database.Txn,
	target string,
	amount uint64,
	payload []byte,
) error {
	var action assetTransferAction
	if err := json.Unmarshal(payload, &action); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidActionPayload, err)
	}
	if action.Asset == "" || target == "" {
		return fmt.Errorf(
			"%w: transfer requires asset and target",
			ErrInvalidActionPayload,
		)
	}
	from := action.From
	if from == "" {
		from = d.config.TreasuryAccount
	}
	return d.config.Ledger.Transfer(from, target, action.Asset, amount, txn)
}

func (d *Dispatcher) applyMint(
	txn *database.Txn,
	target string,
	amount uint64,
	payload []byte,
) error {
	var action mintAction
	if err := json.Unmarshal(payload, &action); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidActionPayload, err)
	}
	if action.Asset == "" || target == "" {
		return fmt.Errorf(
			"%w: mint requires asset and target",
			ErrInvalidActionPayload,
		)
	}
	return d.config.Ledger.Mint(target, action.Asset, amount, txn)
}

func (d *Dispatcher) applyBurn(
	txn *database.Txn,
	amount uint64,
	payload []byte,
) error {
	var action burnAction
	if err := json.Unmarshal(payload, &action); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidActionPayload, err)
	}
	if action.Asset == "" {
		return fmt.Errorf(
			"%w: burn requires asset",
			ErrInvalidActionPayload,
		)
	}
	from := action.From
	if from == "" {
		from = d.config.TreasuryAccount
	}
	return d.config.Ledger.Burn(from, action.Asset, amount, txn)
}

func (d *Dispatcher) applyParameterChange(
	txn *database.Txn,
	payload []byte,
) error {
	var action parameterChangeAction
	if err := json.Unmarshal(payload, &action); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidActionPayload, err)
	}
	if d.config.ValidateParamFunc != nil {
		if err := d.config.ValidateParamFunc(action.Name, action.Value); err != nil {
			return err
		}
	}
	return d.db.SetParam(action.Name, action.Value, txn)
}

func (d *Dispatcher) applyAgentGrantUpdate(
	txn *database.Txn,
	payload []byte,
) error {
	var action agentGrantUpdateAction
	if err := json.Unmarshal(payload, &action); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidActionPayload, err)
	}
	if action.AgentId == "" {
		return fmt.Errorf(
			"%w: grant update requires agentId",
			ErrInvalidActionPayload,
		)
	}
	grant := &models.AgentGrant{
		AgentId:       action.AgentId,
		ActionClasses: models.JoinActionClasses(action.ActionClasses),
		CapAmount:     action.CapAmount,
		CapPeriod:     action.CapPeriodSeconds,
		PeriodStart:   d.config.NowFunc(),
		PeriodSpend:   0,
		Revoked:       action.Revoked,
	}
	return d.db.SetAgentGrant(grant, txn)
}

func (d *Dispatcher) applyProposalTrigger(
	txn *database.Txn,
	payload []byte,
) error {
	if d.config.NestedSubmitFunc == nil {
		return fmt.Errorf(
			"%w: no nested submit configured",
			ErrUnsupportedActionKind,
		)
	}
	var action proposalTriggerAction
	if err := json.Unmarshal(payload, &action); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidActionPayload, err)
	}
	actions := make([]gov.ActionInput, 0, len(action.Actions))
	for _, tmpAction := range action.Actions {
		actions = append(
			actions,
			gov.ActionInput{
				Target:  tmpAction.Target,
				Amount:  tmpAction.Amount,
				Payload: tmpAction.Payload,
			},
		)
	}
	_, err := d.config.NestedSubmitFunc(
		txn,
		0,
		action.Proposer,
		action.Description,
		actions,
		time.Duration(action.VotingDurationSeconds)*time.Second,
	)
	return err
}
