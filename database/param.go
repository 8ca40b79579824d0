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
	"fmt"

	"github.com/blinklabs-io/agora/database/models"
	"gorm.io/gorm/clause"
)

// GetParams returns all persisted governance parameter overrides
func (d *Database) GetParams(
	txn *Txn,
) (map[string]string, error) {
	if txn == nil {
		txn = d.Transaction(false)
		defer txn.Release()
	}
	var rows []*models.Param
	if result := txn.Metadata().Find(&rows); result.Error != nil {
		return nil, fmt.Errorf("failed to get params: %w", result.Error)
	}
	params := make(map[string]string, len(rows))
	for _, row := range rows {
		params[row.Name] = row.Value
	}
	return params, nil
}

// SetParam creates or updates a governance parameter override
func (d *Database) SetParam(
	name string,
	value string,
	txn *Txn,
) error {
	owned := false
	if txn == nil {
		txn = d.Transaction(true)
		owned = true
		defer txn.Release()
	}
	onConflict := clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}
	if result := txn.Metadata().Clauses(onConflict).Create(&models.Param{
		Name:  name,
		Value: value,
	}); result.Error != nil {
		return fmt.Errorf("failed to set param: %w", result.Error)
	}
	if owned {
		if err := txn.Commit(); err != nil {
			return fmt.Errorf("failed to commit param: %w", err)
		}
	}
	return nil
}
