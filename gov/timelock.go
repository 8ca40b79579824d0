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
	"errors"
	"fmt"

	"github.com/blinklabs-io/agora/database"
	"github.com/blinklabs-io/agora/database/models"
	"github.com/blinklabs-io/agora/event"
)

// Cancel removes a queued proposal before its timelock elapses. This is the
// one privileged override path: only the configured emergency guardian may
// cancel, it only works before the earliest execution time, and the reason is
// written to the audit trail.
func (s *State) Cancel(
	proposalId uint,
	canceller string,
	reason string,
) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.params.Guardian == "" || canceller != s.params.Guardian {
		return ErrNotGuardian
	}
	proposal, err := s.db.GetProposal(proposalId, nil)
	if err != nil {
		return err
	}
	if proposal.Status != models.ProposalStatusQueued {
		return ErrNotQueued
	}
	entry, err := s.db.GetTimelockEntry(proposalId, nil)
	if err != nil {
		return err
	}
	if entry == nil {
		return ErrNotQueued
	}
	now := s.now()
	if !now.Before(entry.EarliestExecution) {
		return ErrTooLate
	}
	txn := s.db.Transaction(true)
	err = txn.Do(func(txn *database.Txn) error {
		if err := s.db.DeleteTimelockEntry(proposalId, txn); err != nil {
			return err
		}
		if err := s.db.SetProposalStatus(
			proposalId,
			models.ProposalStatusCanceled,
			txn,
		); err != nil {
			return err
		}
		return s.db.AppendAuditRecord(&database.AuditRecord{
			Kind:       database.AuditKindGuardianCancel,
			ProposalId: proposalId,
			Actor:      canceller,
			Reason:     reason,
			Timestamp:  now,
		}, txn)
	})
	if err != nil {
		return err
	}
	s.metrics.proposalsCanceled.Inc()
	s.config.Logger.Warn(
		"proposal canceled by guardian",
		"proposal_id", proposalId,
		"canceller", canceller,
		"reason", reason,
	)
	s.publish(
		event.ProposalCanceledEventType,
		event.ProposalCanceledEvent{
			ProposalId: proposalId,
			Canceller:  canceller,
			Reason:     reason,
		},
	)
	return nil
}

// Execute applies a queued proposal's action sequence once its timelock has
// elapsed. All actions are applied in order within a single transaction; if
// any action fails the whole batch rolls back, the proposal remains Queued,
// and an ExecutionFailed event carries the failing index. A failed execution
// may be retried later.
func (s *State) Execute(proposalId uint) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.applier == nil {
		return errors.New("no action applier configured")
	}
	proposal, err := s.db.GetProposal(proposalId, nil)
	if err != nil {
		return err
	}
	switch proposal.Status {
	case models.ProposalStatusQueued:
		// expected
	case models.ProposalStatusExecuted:
		return ErrAlreadyExecuted
	default:
		return ErrNotQueued
	}
	entry, err := s.db.GetTimelockEntry(proposalId, nil)
	if err != nil {
		return err
	}
	if entry == nil {
		return ErrNotQueued
	}
	now := s.now()
	if now.Before(entry.EarliestExecution) {
		return ErrTooEarly
	}
	actions, err := s.db.GetProposalActions(proposalId, nil)
	if err != nil {
		return err
	}
	failedIndex := -1
	txn := s.db.Transaction(true)
	err = txn.Do(func(txn *database.Txn) error {
		for i, action := range actions {
			payload, err := s.db.GetActionPayload(
				proposalId,
				action.ActionIndex,
				txn,
			)
			if err != nil {
				failedIndex = i
				return err
			}
			if err := s.applier.Apply(
				txn,
				proposalId,
				action.ActionIndex,
				action.Target,
				action.Amount,
				payload,
			); err != nil {
				failedIndex = i
				return fmt.Errorf("action %d: %w", i, err)
			}
		}
		if err := s.db.DeleteTimelockEntry(proposalId, txn); err != nil {
			return err
		}
		return s.db.SetProposalStatus(
			proposalId,
			models.ProposalStatusExecuted,
			txn,
		)
	})
	if err != nil {
		s.metrics.executionFailures.Inc()
		s.config.Logger.Error(
			"proposal execution failed",
			"proposal_id", proposalId,
			"action_index", failedIndex,
			"error", err,
		)
		// The failed batch rolled back; record the failure on its own
		if auditErr := s.db.AppendAuditRecord(&database.AuditRecord{
			Kind:        database.AuditKindExecutionFailed,
			ProposalId:  proposalId,
			ActionIndex: failedIndex,
			Reason:      err.Error(),
			Timestamp:   now,
		}, nil); auditErr != nil {
			s.config.Logger.Error(
				"failed to record execution failure",
				"proposal_id", proposalId,
				"error", auditErr,
			)
		}
		s.publish(
			event.ExecutionFailedEventType,
			event.ExecutionFailedEvent{
				ProposalId:  proposalId,
				ActionIndex: failedIndex,
				Err:         err,
			},
		)
		return err
	}
	// A ParameterChange action may have updated persisted overrides. The
	// execution has already committed, so a reload failure must not make it
	// look failed; stale in-memory params correct themselves on the next
	// reload.
	if err := s.reloadParams(); err != nil {
		s.config.Logger.Error(
			"failed to reload parameters after execution",
			"proposal_id", proposalId,
			"error", err,
		)
	}
	s.metrics.proposalsExecuted.Inc()
	s.config.Logger.Info(
		"proposal executed",
		"proposal_id", proposalId,
		"actions", len(actions),
	)
	s.publish(
		event.ProposalExecutedEventType,
		event.ProposalExecutedEvent{
			ProposalId:  proposalId,
			ActionCount: len(actions),
		},
	)
	return nil
}
