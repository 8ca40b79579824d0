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
	"time"

	"github.com/blinklabs-io/agora/database"
	"github.com/blinklabs-io/agora/database/models"
	"github.com/blinklabs-io/agora/event"
)

// ActionInput is one entry in a proposal's ordered action sequence as provided
// by a submitter. Payload is the opaque encoded effect; it is not decoded
// until execution time.
type ActionInput struct {
	Target  string
	Amount  uint64
	Payload []byte
}

// Submit creates a new proposal in the Pending state. The proposer must hold
// at least the configured minimum voting weight at the current snapshot
// height.
func (s *State) Submit(
	ctx context.Context,
	proposer string,
	description string,
	actions []ActionInput,
	votingDuration time.Duration,
) (*models.Proposal, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.submit(ctx, 0, proposer, description, actions, votingDuration, true)
}

// SubmitExternal creates a proposal delivered by the cross-chain relay. The
// relay collaborator has already verified the payload's proof; it is treated
// identically to a local submission apart from recording its source chain.
func (s *State) SubmitExternal(
	ctx context.Context,
	sourceChainId uint64,
	proposer string,
	description string,
	actions []ActionInput,
	votingDuration time.Duration,
) (*models.Proposal, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.submit(
		ctx,
		sourceChainId,
		proposer,
		description,
		actions,
		votingDuration,
		true,
	)
}

// SubmitNested creates a proposal from an executed ProposalTrigger action.
// The caller already holds the write lock and an open transaction; the
// proposer weight check is skipped because authority comes from the proposal
// that encoded the trigger.
func (s *State) SubmitNested(
	txn *database.Txn,
	sourceChainId uint64,
	proposer string,
	description string,
	actions []ActionInput,
	votingDuration time.Duration,
) (*models.Proposal, error) {
	if len(actions) == 0 {
		return nil, ErrEmptyActionSet
	}
	if votingDuration < s.params.VotingDurationMin ||
		votingDuration > s.params.VotingDurationMax {
		return nil, ErrDurationOutOfRange
	}
	return s.createProposal(
		txn,
		sourceChainId,
		proposer,
		description,
		actions,
		votingDuration,
	)
}

func (s *State) submit(
	ctx context.Context,
	sourceChainId uint64,
	proposer string,
	description string,
	actions []ActionInput,
	votingDuration time.Duration,
	checkWeight bool,
) (*models.Proposal, error) {
	if len(actions) == 0 {
		return nil, ErrEmptyActionSet
	}
	if votingDuration < s.params.VotingDurationMin ||
		votingDuration > s.params.VotingDurationMax {
		return nil, ErrDurationOutOfRange
	}
	if checkWeight {
		height, err := s.snapshotHeight(ctx)
		if err != nil {
			return nil, err
		}
		weight, err := s.snapshotWeight(ctx, proposer, height)
		if err != nil {
			return nil, err
		}
		if weight < s.params.MinProposerWeight {
			return nil, ErrInsufficientProposerWeight
		}
	}
	var proposal *models.Proposal
	txn := s.db.Transaction(true)
	err := txn.Do(func(txn *database.Txn) error {
		var err error
		proposal, err = s.createProposal(
			txn,
			sourceChainId,
			proposer,
			description,
			actions,
			votingDuration,
		)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.metrics.proposalsSubmitted.Inc()
	s.config.Logger.Info(
		"proposal submitted",
		"proposal_id", proposal.ID,
		"proposer", proposer,
		"actions", len(actions),
	)
	s.publish(
		event.ProposalSubmittedEventType,
		event.ProposalSubmittedEvent{
			ProposalId:    proposal.ID,
			Proposer:      proposer,
			SourceChainId: sourceChainId,
			VotingStart:   proposal.VotingStart,
			VotingEnd:     proposal.VotingEnd,
		},
	)
	return proposal, nil
}

// createProposal persists the proposal and its action sequence within txn.
// The voting window recorded here is provisional; Activate restarts it from
// the activation time.
func (s *State) createProposal(
	txn *database.Txn,
	sourceChainId uint64,
	proposer string,
	description string,
	actions []ActionInput,
	votingDuration time.Duration,
) (*models.Proposal, error) {
	now := s.now()
	proposal := &models.Proposal{
		Proposer:      proposer,
		Description:   description,
		Status:        models.ProposalStatusPending,
		SourceChainId: sourceChainId,
		CreatedAt:     now,
		VotingStart:   now,
		VotingEnd:     now.Add(votingDuration),
	}
	actionRows := make([]*models.ProposalAction, 0, len(actions))
	payloads := make([][]byte, 0, len(actions))
	for _, action := range actions {
		actionRows = append(actionRows, &models.ProposalAction{
			Target: action.Target,
			Amount: action.Amount,
		})
		payloads = append(payloads, action.Payload)
	}
	if err := s.db.CreateProposal(proposal, actionRows, payloads, txn); err != nil {
		return nil, err
	}
	return proposal, nil
}

// Activate transitions a Pending proposal to Active, restarting its voting
// window from now and capturing the voting-weight snapshot height used by all
// votes on this proposal
func (s *State) Activate(
	ctx context.Context,
	proposalId uint,
) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	proposal, err := s.db.GetProposal(proposalId, nil)
	if err != nil {
		return err
	}
	switch proposal.Status {
	case models.ProposalStatusPending:
		// expected
	case models.ProposalStatusActive:
		return ErrAlreadyActive
	default:
		return ErrInvalidTransition
	}
	height, err := s.snapshotHeight(ctx)
	if err != nil {
		return err
	}
	now := s.now()
	votingDuration := proposal.VotingEnd.Sub(proposal.VotingStart)
	txn := s.db.Transaction(true)
	err = txn.Do(func(txn *database.Txn) error {
		if result := txn.Metadata().
			Model(&models.Proposal{}).
			Where("id = ?", proposalId).
			Updates(map[string]any{
				"status":          models.ProposalStatusActive,
				"snapshot_height": height,
				"voting_start":    now,
				"voting_end":      now.Add(votingDuration),
			}); result.Error != nil {
			return result.Error
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.metrics.activeProposals.Inc()
	s.config.Logger.Info(
		"proposal activated",
		"proposal_id", proposalId,
		"snapshot_height", height,
	)
	s.publish(
		event.ProposalActivatedEventType,
		event.ProposalActivatedEvent{
			ProposalId:     proposalId,
			SnapshotHeight: height,
		},
	)
	return nil
}
