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
	"gorm.io/gorm/clause"
)

// GetAgentGrant returns the grant for an agent identity, or nil if none exists
// or the grant has been revoked
func (d *Database) GetAgentGrant(
	agentId string,
	txn *Txn,
) (*models.AgentGrant, error) {
	if txn == nil {
		txn = d.Transaction(false)
		defer txn.Release()
	}
	var grant models.AgentGrant
	if result := txn.Metadata().
		Where("agent_id = ? AND revoked = ?", agentId, false).
		First(&grant); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get agent grant: %w", result.Error)
	}
	return &grant, nil
}

// SetAgentGrant creates or updates an agent grant
func (d *Database) SetAgentGrant(
	grant *models.AgentGrant,
	txn *Txn,
) error {
	if grant == nil {
		return errors.New("agent grant cannot be nil")
	}
	owned := false
	if txn == nil {
		txn = d.Transaction(true)
		owned = true
		defer txn.Release()
	}
	onConflict := clause.OnConflict{
		Columns: []clause.Column{{Name: "agent_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"action_classes",
			"cap_amount",
			"cap_period",
			"period_start",
			"period_spend",
			"revoked",
		}),
	}
	if result := txn.Metadata().Clauses(onConflict).Create(grant); result.Error != nil {
		return fmt.Errorf("failed to set agent grant: %w", result.Error)
	}
	if owned {
		if err := txn.Commit(); err != nil {
			return fmt.Errorf("failed to commit agent grant: %w", err)
		}
	}
	return nil
}

// GetAgentGrants returns all active grants
func (d *Database) GetAgentGrants(
	txn *Txn,
) ([]*models.AgentGrant, error) {
	if txn == nil {
		txn = d.Transaction(false)
		defer txn.Release()
	}
	var grants []*models.AgentGrant
	if result := txn.Metadata().
		Where("revoked = ?", false).
		Order("agent_id").
		Find(&grants); result.Error != nil {
		return nil, fmt.Errorf("failed to get agent grants: %w", result.Error)
	}
	return grants, nil
}
