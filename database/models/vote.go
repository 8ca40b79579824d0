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

var ErrUnknownVoteChoice = errors.New("unknown vote choice")

// Vote choice constants for a vote on a proposal.
const (
	VoteChoiceAgainst = 0
	VoteChoiceFor     = 1
	VoteChoiceAbstain = 2
)

// VoteChoiceString returns the human-readable name for a vote choice
func VoteChoiceString(choice uint8) string {
	switch choice {
	case VoteChoiceAgainst:
		return "Against"
	case VoteChoiceFor:
		return "For"
	case VoteChoiceAbstain:
		return "Abstain"
	default:
		return "Unknown"
	}
}

// ParseVoteChoice maps a human-readable choice name back to its constant
func ParseVoteChoice(name string) (uint8, error) {
	switch name {
	case "Against":
		return VoteChoiceAgainst, nil
	case "For":
		return VoteChoiceFor, nil
	case "Abstain":
		return VoteChoiceAbstain, nil
	default:
		return 0, ErrUnknownVoteChoice
	}
}

// VoteRecord represents a single vote cast on a proposal. At most one record
// exists per (proposal, voter) pair. Weight is captured once at the proposal's
// snapshot height and never re-read, so transferring tokens after casting a
// vote cannot change it. Records are never mutated or deleted.
type VoteRecord struct {
	ID         uint      `gorm:"primarykey"`
	ProposalID uint      `gorm:"index:idx_vote_proposal;uniqueIndex:idx_vote_unique,priority:1;not null"`
	Voter      string    `gorm:"uniqueIndex:idx_vote_unique,priority:2;size:128;not null"`
	Choice     uint8     `gorm:"not null"`
	Weight     uint64    `gorm:"not null"`
	CastAt     time.Time `gorm:"not null"`
}

// TableName returns the table name
func (VoteRecord) TableName() string {
	return "vote_record"
}
