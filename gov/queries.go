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
	"github.com/blinklabs-io/agora/database/models"
)

// Read-only queries run against the latest committed state and do not take
// the write lock.

// GetProposal returns a proposal by identifier
func (s *State) GetProposal(proposalId uint) (*models.Proposal, error) {
	return s.db.GetProposal(proposalId, nil)
}

// GetProposalActions returns a proposal's action sequence in order
func (s *State) GetProposalActions(
	proposalId uint,
) ([]*models.ProposalAction, error) {
	return s.db.GetProposalActions(proposalId, nil)
}

// ListActive returns all proposals currently accepting votes
func (s *State) ListActive() ([]*models.Proposal, error) {
	return s.db.GetProposalsByStatus(models.ProposalStatusActive, nil)
}

// ListProposals returns all proposals in submission order
func (s *State) ListProposals() ([]*models.Proposal, error) {
	return s.db.GetProposals(nil)
}

// GetVotes returns all votes recorded for a proposal
func (s *State) GetVotes(proposalId uint) ([]*models.VoteRecord, error) {
	return s.db.GetVoteRecords(proposalId, nil)
}

// GetTimelock returns the timelock entry for a queued proposal, or nil
func (s *State) GetTimelock(
	proposalId uint,
) (*models.TimelockEntry, error) {
	return s.db.GetTimelockEntry(proposalId, nil)
}
