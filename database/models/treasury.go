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

import "errors"

var ErrTreasuryAccountNotFound = errors.New("treasury account not found")

// TreasuryAccount holds the balance of a single (account, asset) pair.
// Balance is never negative and never exceeds MaxInt64; the sqlite driver
// cannot store uint64 values with the high bit set, so the treasury ledger
// rejects anything larger as overflow before it reaches this row. The same
// bound applies to every uint64 column in this package (issuance, vote
// weights, action amounts). Rows are only mutated through the treasury
// ledger's credit/debit primitives.
type TreasuryAccount struct {
	ID      uint   `gorm:"primarykey"`
	Account string `gorm:"uniqueIndex:idx_treasury_account_asset,priority:1;size:128;not null"`
	Asset   string `gorm:"uniqueIndex:idx_treasury_account_asset,priority:2;size:64;not null"`
	Balance uint64 `gorm:"not null"`
}

// TableName returns the table name
func (TreasuryAccount) TableName() string {
	return "treasury_account"
}

// AssetIssuance tracks total outstanding supply per asset. It changes only on
// mint and burn, so at any time the sum of all account balances for an asset
// must equal Issued. This makes conservation independently reconcilable.
type AssetIssuance struct {
	ID     uint   `gorm:"primarykey"`
	Asset  string `gorm:"uniqueIndex;size:64;not null"`
	Issued uint64 `gorm:"not null"`
}

// TableName returns the table name
func (AssetIssuance) TableName() string {
	return "asset_issuance"
}
