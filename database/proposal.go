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

// CreateProposal persists a new proposal, its ordered action sequence, and the
// opaque action payloads. The proposal's identifier is assigned by the
// metadata store and set on the passed model.
func (d *Database) CreateProposal(
	proposal *models.Proposal,
	actions []*models.ProposalAction,
	payloads [][]byte,
	txn *Txn,
) error {
	if proposal == nil {
		return errors.New("proposal cannot be nil")
	}
	if len(actions) != len(payloads) {
		return errors.New("action and payload counts differ")
	}
	owned := false
	if txn == nil {
		txn = d.Transaction(true)
		owned = true
		defer txn.Release()
	}
	if result := txn.Metadata().Create(proposal); result.Error != nil {
		return fmt.Errorf("failed to create proposal: %w", result.Error)
	}
	for i, action := range actions {
		action.ProposalID = proposal.ID
		action.ActionIndex = uint32(i) //nolint:gosec
		if result := txn.Metadata().Create(action); result.Error != nil {
			return fmt.Errorf(
				"failed to create action %d for proposal %d: %w",
				i,
				proposal.ID,
				result.Error,
			)
		}
		if err := d.SetActionPayload(
			proposal.ID,
			action.ActionIndex,
			payloads[i],
			txn,
		); err != nil {
			return err
		}
	}
	if owned {
		if err := txn.Commit(); err != nil {
			return fmt.Errorf("failed to commit proposal: %w", err)
		}
	}
	return nil
}

// GetProposal returns a proposal by identifier
func (d *Database) GetProposal(
	proposalId uint,
	txn *Txn,
) (*models.Proposal, error) {
	if txn == nil {
		txn = d.Transaction(false)
		defer txn.Release()
	}
	var proposal models.Proposal
	if result := txn.Metadata().First(&proposal, proposalId); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, models.ErrProposalNotFound
		}
		return nil, fmt.Errorf("failed to get proposal: %w", result.Error)
	}
	return &proposal, nil
}

// GetProposalActions returns a proposal's action sequence in order
func (d *Database) GetProposalActions(
	proposalId uint,
	txn *Txn,
) ([]*models.ProposalAction, error) {
	if txn == nil {
		txn = d.Transaction(false)
		defer txn.Release()
	}
	var actions []*models.ProposalAction
	if result := txn.Metadata().
		Where("proposal_id = ?", proposalId).
		Order("action_index").
		Find(&actions); result.Error != nil {
		return nil, fmt.Errorf(
			"failed to get proposal actions: %w",
			result.Error,
		)
	}
	return actions, nil
}

// SetProposalStatus updates a proposal's lifecycle status
func (d *Database) SetProposalStatus(
	proposalId uint,
	status uint8,
	txn *Txn,
) error {
	owned := false
	if txn == nil {
		txn = d.Transaction(true)
		owned = true
		defer txn.Release()
	}
	if result := txn.Metadata().
		Model(&models.Proposal{}).
		Where("id = ?", proposalId).
		Update("status", status); result.Error != nil {
		return fmt.Errorf("failed to set proposal status: %w", result.Error)
	}
	if owned {
		if err := txn.Commit(); err != nil {
			return fmt.Errorf("failed to commit proposal status: %w", err)
		}
	}
	return nil
}

// SetProposalSnapshotHeight records the voting-weight snapshot height captured
// at activation
func (d *Database) SetProposalSnapshotHeight(
	proposalId uint,
	snapshotHeight uint64,
	txn *Txn,
) error {
	owned := false
	if txn == nil {
		txn = d.Transaction(true)
		owned = true
		defer txn.Release()
	}
	if result := txn.Metadata().
		Model(&models.Proposal{}).
		Where("id = ?", proposalId).
		Update("snapshot_height", snapshotHeight); result.Error != nil {
		return fmt.Errorf(
			"failed to set proposal snapshot height: %w",
			result.Error,
		)
	}
	if owned {
		if err := txn.Commit(); err != nil {
			return fmt.Errorf(
				"failed to commit proposal snapshot height: %w",
				err,
			)
		}
	}
	return nil
}

// GetProposalsByStatus returns all proposals with the given status
func (d *Database) GetProposalsByStatus(
	status uint8,
	txn *Txn,
) ([]*models.Proposal, error) {
	if txn == nil {
		txn = d.Transaction(false)
		defer txn.Release()
	}
	var proposals []*models.Proposal
	if result := txn.Metadata().
		Where("status = ?", status).
		Order("id").
		Find(&proposals); result.Error != nil {
		return nil, fmt.Errorf(
			"failed to get proposals by status: %w",
			result.Error,
		)
	}
	return proposals, nil
}

// GetProposals returns all proposals in submission order
func (d *Database) GetProposals(
	txn *Txn,
) ([]*models.Proposal, error) {
	if txn == nil {
		txn = d.Transaction(false)
		defer txn.Release()
	}
	var proposals []*models.Proposal
	if result := txn.Metadata().
		Order("id").
		Find(&proposals); result.Error != nil {
		return nil, fmt.Errorf("failed to get proposals: %w", result.Error)
	}
	return proposals, nil
}
