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

package database

import (
	"errors"
	"fmt"

	"github.com/blinklabs-io/agora/database/models"
	"gorm.io/gorm"
)

// AddVoteRecord inserts an immutable vote record. The unique index on
// (proposal_id, voter) is the last line of defense against double voting;
// callers are expected to check for an existing record first.
func (d *Database) AddVoteRecord(
	vote *models.VoteRecord,
	txn *Txn,
) error {
	if vote == nil {
		return errors.New("vote cannot be nil")
	}
	owned := false
	if txn == nil {
		txn = d.Transaction(true)
		owned = true
		defer txn.Release()
	}
	if result := txn.Metadata().Create(vote); result.Error != nil {
		return fmt.Errorf("failed to add vote record: %w", result.Error)
	}
	if owned {
		if err := txn.Commit(); err != nil {
			return fmt.Errorf("failed to commit vote record: %w", err)
		}
	}
	return nil
}

// GetVoteRecord returns the vote record for a (proposal, voter) pair, or nil
// if the voter has not voted on the proposal
func (d *Database) GetVoteRecord(
	proposalId uint,
	voter string,
	txn *Txn,
) (*models.VoteRecord, error) {
	if txn == nil {
		txn = d.Transaction(false)
		defer txn.Release()
	}
	var vote models.VoteRecord
	if result := txn.Metadata().
		Where("proposal_id = ? AND voter = ?", proposalId, voter).
		First(&vote); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get vote record: %w", result.Error)
	}
	return &vote, nil
}

// GetVoteRecords returns all votes for a proposal
func (d *Database) GetVoteRecords(
	proposalId uint,
	txn *Txn,
) ([]*models.VoteRecord, error) {
	if txn == nil {
		txn = d.Transaction(false)
		defer txn.Release()
	}
	var votes []*models.VoteRecord
	if result := txn.Metadata().
		Where("proposal_id = ?", proposalId).
		Order("id").
		Find(&votes); result.Error != nil {
		return nil, fmt.Errorf("failed to get vote records: %w", result.Error)
	}
	return votes, nil
}
