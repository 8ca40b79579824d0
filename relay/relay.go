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

// Package relay accepts governance messages originating on other chains.
// Envelope verification (signatures, light-client proofs) happens upstream;
// this package only decodes already-verified payloads and feeds them into the
// governance state, tagging proposals with their source chain.
package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/blinklabs-io/agora/database/models"
	"github.com/blinklabs-io/agora/gov"
)

var ErrInvalidRelayPayload = errors.New("invalid relay payload")

type RelayConfig struct {
	Logger *slog.Logger
}

// Relay adapts verified cross-chain envelopes into governance operations
type Relay struct {
	config RelayConfig
	state  *gov.State
	logger *slog.Logger
}

func NewRelay(state *gov.State, cfg RelayConfig) *Relay {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Relay{
		config: cfg,
		state:  state,
		logger: cfg.Logger.With("component", "relay"),
	}
}

type relayAction struct {
	Target  string `json:"target"`
	Amount  uint64 `json:"amount"`
	Payload []byte `json:"payload"`
}

type relayProposal struct {
	Proposer              string        `json:"proposer"`
	Description           string        `json:"description"`
	VotingDurationSeconds int64         `json:"votingDurationSeconds"`
	Actions               []relayAction `json:"actions"`
}

type relayVote struct {
	ProposalId uint   `json:"proposalId"`
	Voter      string `json:"voter"`
	Choice     string `json:"choice"`
}

// HandleProposal submits a proposal relayed from another chain. The payload
// must already be verified; sourceChainId is recorded on the proposal row.
func (r *Relay) HandleProposal(
	ctx context.Context,
	sourceChainId uint64,
	payload []byte,
) (*models.Proposal, error) {
	var body relayProposal
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRelayPayload, err)
	}
	actions := make([]gov.ActionInput, 0, len(body.Actions))
	for _, tmpAction := range body.Actions {
		actions = append(
			actions,
			gov.ActionInput{
				Target:  tmpAction.Target,
				Amount:  tmpAction.Amount,
				Payload: tmpAction.Payload,
			},
		)
	}
	proposal, err := r.state.SubmitExternal(
		ctx,
		sourceChainId,
		body.Proposer,
		body.Description,
		actions,
		time.Duration(body.VotingDurationSeconds)*time.Second,
	)
	if err != nil {
		return nil, err
	}
	r.logger.Info(
		"relayed proposal submitted",
		"proposal_id", proposal.ID,
		"source_chain_id", sourceChainId,
		"proposer", body.Proposer,
	)
	return proposal, nil
}

// HandleVote casts a vote relayed from another chain. Relayed votes follow
// the same rules as local ones, including the one-vote-per-voter constraint
// and snapshot weighting.
func (r *Relay) HandleVote(
	ctx context.Context,
	sourceChainId uint64,
	payload []byte,
) error {
	var body relayVote
	if err := json.Unmarshal(payload, &body); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRelayPayload, err)
	}
	choice, err := models.ParseVoteChoice(body.Choice)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRelayPayload, err)
	}
	if err := r.state.CastVote(ctx, body.ProposalId, body.Voter, choice); err != nil {
		return err
	}
	r.logger.Info(
		"relayed vote cast",
		"proposal_id", body.ProposalId,
		"source_chain_id", sourceChainId,
		"voter", body.Voter,
		"choice", body.Choice,
	)
	return nil
}
