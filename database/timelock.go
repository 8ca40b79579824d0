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

// CreateTimelockEntry adds a timelock entry for a succeeded proposal
func (d *Database) CreateTimelockEntry(
	entry *models.TimelockEntry,
	txn *Txn,
) error {
	if entry == nil {
		return errors.New("timelock entry cannot be nil")
	}
	owned := false
	if txn == nil {
		txn = d.Transaction(true)
		owned = true
		defer txn.Release()
	}
	if result := txn.Metadata().Create(entry); result.Error != nil {
		return fmt.Errorf("failed to create timelock entry: %w", result.Error)
	}
	if owned {
		if err := txn.Commit(); err != nil {
			return fmt.Errorf("failed to commit timelock entry: %w", err)
		}
	}
	return nil
}

// GetTimelockEntry returns the timelock entry for a proposal, or nil if the
// proposal is not queued
func (d *Database) GetTimelockEntry(
	proposalId uint,
	txn *Txn,
) (*models.TimelockEntry, error) {
	if txn == nil {
		txn = d.Transaction(false)
		defer txn.Release()
	}
	var entry models.TimelockEntry
	if result := txn.Metadata().
		Where("proposal_id = ?", proposalId).
		First(&entry); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get timelock entry: %w", result.Error)
	}
	return &entry, nil
}

// DeleteTimelockEntry removes a proposal's timelock entry on execution or
// cancellation
func (d *Database) DeleteTimelockEntry(
	proposalId uint,
	txn *Txn,
) error {
	owned := false
	if txn == nil {
		txn = d.Transaction(true)
		owned = true
		defer txn.Release()
	}
	if result := txn.Metadata().
		Where("proposal_id = ?", proposalId).
		Delete(&models.TimelockEntry{}); result.Error != nil {
		return fmt.Errorf("failed to delete timelock entry: %w", result.Error)
	}
	if owned {
		if err := txn.Commit(); err != nil {
			return fmt.Errorf(
				"failed to commit timelock entry delete: %w",
				err,
			)
		}
	}
	return nil
}
