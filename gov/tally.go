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
	"math/bits"

	"github.com/blinklabs-io/agora/database"
	"github.com/blinklabs-io/agora/database/models"
	"github.com/blinklabs-io/agora/event"
)

// Tally holds the weighted vote totals for a proposal. It is derived from
// vote records, never stored, so it cannot drift from them. It is only
// authoritative once the voting window has closed.
type Tally struct {
	ForWeight      uint64
	AgainstWeight  uint64
	AbstainWeight  uint64
	QuorumRequired uint64
	ThresholdNum   uint64
	ThresholdDenom uint64
}

// ParticipatingWeight returns the total weight counting toward quorum.
// Abstain votes count toward quorum but not toward the for/against ratio.
func (t *Tally) ParticipatingWeight() uint64 {
	return t.ForWeight + t.AgainstWeight + t.AbstainWeight
}

// QuorumMet returns true if participating weight reaches the required quorum
func (t *Tally) QuorumMet() bool {
	return t.ParticipatingWeight() >= t.QuorumRequired
}

// ThresholdMet returns true if forWeight / (forWeight + againstWeight)
// strictly exceeds the required threshold fraction. The comparison is done in
// integer math via 128-bit intermediate products, so a tie at exactly the
// threshold fails. With the default 1/2 threshold this means for == against
// is Defeated.
func (t *Tally) ThresholdMet() bool {
	decisive := t.ForWeight + t.AgainstWeight
	if decisive == 0 {
		return false
	}
	// forWeight * denom > (forWeight + againstWeight) * num
	lhsHi, lhsLo := bits.Mul64(t.ForWeight, t.ThresholdDenom)
	rhsHi, rhsLo := bits.Mul64(decisive, t.ThresholdNum)
	if lhsHi != rhsHi {
		return lhsHi > rhsHi
	}
	return lhsLo > rhsLo
}

// tallyVotes sums the vote records for a proposal within txn
func (s *State) tallyVotes(
	proposalId uint,
	params Params,
	txn *database.Txn,
) (*Tally, error) {
	votes, err := s.db.GetVoteRecords(proposalId, txn)
	if err != nil {
		return nil, err
	}
	tally := &Tally{
		QuorumRequired: params.QuorumWeight,
		ThresholdNum:   params.ThresholdNum,
		ThresholdDenom: params.ThresholdDenom,
	}
	for _, vote := range votes {
		switch vote.Choice {
		case models.VoteChoiceFor:
			tally.ForWeight += vote.Weight
		case models.VoteChoiceAgainst:
			tally.AgainstWeight += vote.Weight
		case models.VoteChoiceAbstain:
			tally.AbstainWeight += vote.Weight
		}
	}
	return tally, nil
}

// GetTally returns the current vote totals for a proposal. Before the voting
// window closes the result is informational only.
func (s *State) GetTally(proposalId uint) (*Tally, error) {
	if _, err := s.db.GetProposal(proposalId, nil); err != nil {
		return nil, err
	}
	return s.tallyVotes(proposalId, s.CurrentParams(), nil)
}

// CloseVoting tallies an Active proposal once its voting window has ended.
// Callable by anyone; the outcome is a pure function of the vote records.
// Quorum failure moves the proposal to Expired; otherwise the threshold
// decides Succeeded or Defeated. A Succeeded proposal is immediately queued
// behind the timelock in the same transaction. Returns the resulting status.
func (s *State) CloseVoting(proposalId uint) (uint8, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	proposal, err := s.db.GetProposal(proposalId, nil)
	if err != nil {
		return 0, err
	}
	switch proposal.Status {
	case models.ProposalStatusActive:
		// expected
	case models.ProposalStatusPending:
		return 0, ErrProposalNotActive
	default:
		return 0, ErrAlreadyClosed
	}
	now := s.now()
	if now.Before(proposal.VotingEnd) {
		return 0, ErrVotingStillOpen
	}
	var tally *Tally
	var newStatus uint8
	txn := s.db.Transaction(true)
	err = txn.Do(func(txn *database.Txn) error {
		var err error
		tally, err = s.tallyVotes(proposalId, s.params, txn)
		if err != nil {
			return err
		}
		switch {
		case !tally.QuorumMet():
			newStatus = models.ProposalStatusExpired
		case tally.ThresholdMet():
			newStatus = models.ProposalStatusQueued
		default:
			newStatus = models.ProposalStatusDefeated
		}
		if newStatus == models.ProposalStatusQueued {
			if err := s.db.CreateTimelockEntry(&models.TimelockEntry{
				ProposalID:        proposalId,
				QueuedAt:          now,
				EarliestExecution: now.Add(s.params.TimelockDelay),
			}, txn); err != nil {
				return err
			}
		}
		return s.db.SetProposalStatus(proposalId, newStatus, txn)
	})
	if err != nil {
		return 0, err
	}
	s.metrics.activeProposals.Dec()
	outcome := models.ProposalStatusString(newStatus)
	if newStatus == models.ProposalStatusQueued {
		// The intermediate Succeeded state is what the tally produced; Queued
		// is the automatic follow-on
		outcome = models.ProposalStatusString(models.ProposalStatusSucceeded)
	}
	s.config.Logger.Info(
		"voting closed",
		"proposal_id", proposalId,
		"outcome", outcome,
		"for", tally.ForWeight,
		"against", tally.AgainstWeight,
		"abstain", tally.AbstainWeight,
	)
	s.publish(
		event.VotingClosedEventType,
		event.VotingClosedEvent{
			ProposalId:    proposalId,
			Outcome:       outcome,
			ForWeight:     tally.ForWeight,
			AgainstWeight: tally.AgainstWeight,
			AbstainWeight: tally.AbstainWeight,
		},
	)
	if newStatus == models.ProposalStatusQueued {
		s.publish(
			event.ProposalQueuedEventType,
			event.ProposalQueuedEvent{
				ProposalId:        proposalId,
				EarliestExecution: now.Add(s.params.TimelockDelay),
			},
		)
	}
	return newStatus, nil
}
