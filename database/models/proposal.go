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

package models

import (
	"errors"
	"time"
)

var ErrProposalNotFound = errors.New("proposal not found")

// ProposalStatus constants represent the lifecycle state of a proposal.
// Executed, Defeated, Expired, and Canceled are terminal.
const (
	ProposalStatusPending   = 0
	ProposalStatusActive    = 1
	ProposalStatusSucceeded = 2
	ProposalStatusDefeated  = 3
	ProposalStatusQueued    = 4
	ProposalStatusExecuted  = 5
	ProposalStatusExpired   = 6
	ProposalStatusCanceled  = 7
)

// ProposalStatusString returns the human-readable name for a proposal status
func ProposalStatusString(status uint8) string {
	switch status {
	case ProposalStatusPending:
		return "Pending"
	case ProposalStatusActive:
		return "Active"
	case ProposalStatusSucceeded:
		return "Succeeded"
	case ProposalStatusDefeated:
		return "Defeated"
	case ProposalStatusQueued:
		return "Queued"
	case ProposalStatusExecuted:
		return "Executed"
	case ProposalStatusExpired:
		return "Expired"
	case ProposalStatusCanceled:
		return "Canceled"
	default:
		return "Unknown"
	}
}

// Proposal represents a governance proposal submitted to the engine.
// Proposals are retained permanently as an audit record; only Status changes
// after creation. The action sequence is immutable once the proposal is Active.
type Proposal struct {
	ID             uint   `gorm:"primarykey"`
	Proposer       string `gorm:"index;size:128;not null"`
	Description    string `gorm:"size:4096"`
	Status         uint8  `gorm:"index;not null"`
	SourceChainId  uint64 `gorm:"index"` // 0 for locally submitted proposals
	SnapshotHeight uint64
	CreatedAt      time.Time `gorm:"not null"`
	VotingStart    time.Time `gorm:"not null"`
	VotingEnd      time.Time `gorm:"index;not null"`
}

// TableName returns the table name
func (Proposal) TableName() string {
	return "proposal"
}

// ProposalAction is one entry in a proposal's ordered action sequence. The
// opaque effect payload lives in the blob store keyed by (proposal, index);
// only the fields needed for authorization checks are indexed here.
type ProposalAction struct {
	ID          uint   `gorm:"primarykey"`
	ProposalID  uint   `gorm:"uniqueIndex:idx_action_proposal_index,priority:1;not null"`
	ActionIndex uint32 `gorm:"uniqueIndex:idx_action_proposal_index,priority:2;not null"`
	Target      string `gorm:"size:128;not null"`
	Amount      uint64 `gorm:"not null"`
}

// TableName returns the table name
func (ProposalAction) TableName() string {
	return "proposal_action"
}
