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

// GetTreasuryAccount returns the balance row for an (account, asset) pair, or
// nil if no balance has ever been recorded for it
func (d *Database) GetTreasuryAccount(
	account string,
	asset string,
	txn *Txn,
) (*models.TreasuryAccount, error) {
	if txn == nil {
		txn = d.Transaction(false)
		defer txn.Release()
	}
	var row models.TreasuryAccount
	if result := txn.Metadata().
		Where("account = ? AND asset = ?", account, asset).
		First(&row); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf(
			"failed to get treasury account: %w",
			result.Error,
		)
	}
	return &row, nil
}

// SetTreasuryAccount creates or updates a balance row
func (d *Database) SetTreasuryAccount(
	row *models.TreasuryAccount,
	txn *Txn,
) error {
	if row == nil {
		return errors.New("treasury account cannot be nil")
	}
	owned := false
	if txn == nil {
		txn = d.Transaction(true)
		owned = true
		defer txn.Release()
	}
	onConflict := clause.OnConflict{
		Columns: []clause.Column{
			{Name: "account"},
			{Name: "asset"},
		},
		DoUpdates: clause.AssignmentColumns([]string{"balance"}),
	}
	if result := txn.Metadata().Clauses(onConflict).Create(row); result.Error != nil {
		return fmt.Errorf("failed to set treasury account: %w", result.Error)
	}
	if owned {
		if err := txn.Commit(); err != nil {
			return fmt.Errorf("failed to commit treasury account: %w", err)
		}
	}
	return nil
}

// GetTreasuryAccountsByAsset returns all balance rows for an asset
func (d *Database) GetTreasuryAccountsByAsset(
	asset string,
	txn *Txn,
) ([]*models.TreasuryAccount, error) {
	if txn == nil {
		txn = d.Transaction(false)
		defer txn.Release()
	}
	var rows []*models.TreasuryAccount
	if result := txn.Metadata().
		Where("asset = ?", asset).
		Order("account").
		Find(&rows); result.Error != nil {
		return nil, fmt.Errorf(
			"failed to get treasury accounts: %w",
			result.Error,
		)
	}
	return rows, nil
}

// GetAssetIssuance returns the total outstanding supply row for an asset, or
// nil if the asset has never been minted
func (d *Database) GetAssetIssuance(
	asset string,
	txn *Txn,
) (*models.AssetIssuance, error) {
	if txn == nil {
		txn = d.Transaction(false)
		defer txn.Release()
	}
	var row models.AssetIssuance
	if result := txn.Metadata().
		Where("asset = ?", asset).
		First(&row); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get asset issuance: %w", result.Error)
	}
	return &row, nil
}

// SetAssetIssuance creates or updates the total outstanding supply for an asset
func (d *Database) SetAssetIssuance(
	row *models.AssetIssuance,
	txn *Txn,
) error {
	if row == nil {
		return errors.New("asset issuance cannot be nil")
	}
	owned := false
	if txn == nil {
		txn = d.Transaction(true)
		owned = true
		defer txn.Release()
	}
	onConflict := clause.OnConflict{
		Columns:   []clause.Column{{Name: "asset"}},
		DoUpdates: clause.AssignmentColumns([]string{"issued"}),
	}
	if result := txn.Metadata().Clauses(onConflict).Create(row); result.Error != nil {
		return fmt.Errorf("failed to set asset issuance: %w", result.Error)
	}
	if owned {
		if err := txn.Commit(); err != nil {
			return fmt.Errorf("failed to commit asset issuance: %w", err)
		}
	}
	return nil
}
