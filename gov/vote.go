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

	"github.com/blinklabs-io/agora/database"
	"github.com/blinklabs-io/agora/database/models"
	"github.com/blinklabs-io/agora/event"
)

// CastVote records a vote on an Active proposal. The voter's weight is read
// from the balance snapshot provider at the proposal's snapshot height and
// fixed in the record, so transferring tokens afterwards cannot change it.
func (s *State) CastVote(
	ctx context.Context,
	proposalId uint,
	voter string,
	choice uint8,
) error {
	if choice > models.VoteChoiceAbstain {
		return ErrInvalidVoteChoice
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()
	proposal, err := s.db.GetProposal(proposalId, nil)
	if err != nil {
		return err
	}
	if proposal.Status != models.ProposalStatusActive {
		return ErrProposalNotActive
	}
	now := s.now()
	if now.Before(proposal.VotingStart) || !now.Before(proposal.VotingEnd) {
		return ErrProposalNotActive
	}
	existing, err := s.db.GetVoteRecord(proposalId, voter, nil)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrAlreadyVoted
	}
	weight, err := s.snapshotWeight(ctx, voter, proposal.SnapshotHeight)
	if err != nil {
		return err
	}
	if weight == 0 {
		return ErrZeroWeight
	}
	vote := &models.VoteRecord{
		ProposalID: proposalId,
		Voter:      voter,
		Choice:     choice,
		Weight:     weight,
		CastAt:     now,
	}
	txn := s.db.Transaction(true)
	if err := txn.Do(func(txn *database.Txn) error {
		return s.db.AddVoteRecord(vote, txn)
	}); err != nil {
		return err
	}
	s.metrics.votesCast.Inc()
	s.config.Logger.Info(
		"vote cast",
		"proposal_id", proposalId,
		"voter", voter,
		"choice", models.VoteChoiceString(choice),
		"weight", weight,
	)
	s.publish(
		event.VoteCastEventType,
		event.VoteCastEvent{
			ProposalId: proposalId,
			Voter:      voter,
			Choice:     models.VoteChoiceString(choice),
			Weight:     weight,
		},
	)
	return nil
}
