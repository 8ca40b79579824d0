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

// Package treasury implements the multi-asset treasury ledger. Credit and
// Debit are the only primitive mutators of balances; every other component
// reaches them through Transfer, Mint, or Burn so the non-negative-balance
// and conservation invariants are enforced centrally rather than at each
// call site.
package treasury

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/blinklabs-io/agora/database"
	"github.com/blinklabs-io/agora/database/models"
)

// Resource errors: recoverable only by a different or smaller action, never
// retried automatically
var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrBalanceOverflow     = errors.New("balance overflow")
	ErrZeroAmount          = errors.New("amount must be positive")
)

// TreasuryAccountName is the well-known account holding governance-controlled
// funds
const TreasuryAccountName = "treasury"

// MaxBalance bounds balances and issuance. Amounts are uint64 in the API, but
// sqlite stores integers as signed 64-bit and the driver rejects values with
// the high bit set, so anything above MaxInt64 must fail as overflow before
// it reaches the store.
const MaxBalance = uint64(math.MaxInt64)

// Ledger is the multi-asset balance store. All mutations happen within a
// caller-provided transaction so that a proposal execution touching several
// balances commits or rolls back as one unit.
type Ledger struct {
	db     *database.Database
	logger *slog.Logger
}

// NewLedger creates a treasury ledger on top of the given database
func NewLedger(db *database.Database, logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Ledger{
		db:     db,
		logger: logger.With("component", "treasury"),
	}
}

// Credit increases an (account, asset) balance. Primitive mutator; callers
// outside this package should use Transfer, Mint, or Burn so the mutation has
// an offsetting side.
func (l *Ledger) Credit(
	account string,
	asset string,
	amount uint64,
	txn *database.Txn,
) error {
	if amount == 0 {
		return ErrZeroAmount
	}
	row, err := l.db.GetTreasuryAccount(account, asset, txn)
	if err != nil {
		return err
	}
	if row == nil {
		row = &models.TreasuryAccount{
			Account: account,
			Asset:   asset,
		}
	}
	if amount > MaxBalance-row.Balance {
		return ErrBalanceOverflow
	}
	row.Balance += amount
	return l.db.SetTreasuryAccount(row, txn)
}

// Debit decreases an (account, asset) balance. Fails with
// ErrInsufficientBalance rather than driving a balance negative.
func (l *Ledger) Debit(
	account string,
	asset string,
	amount uint64,
	txn *database.Txn,
) error {
	if amount == 0 {
		return ErrZeroAmount
	}
	row, err := l.db.GetTreasuryAccount(account, asset, txn)
	if err != nil {
		return err
	}
	if row == nil || row.Balance < amount {
		return fmt.Errorf(
			"%w: account %s holds %d %s, debit of %d requested",
			ErrInsufficientBalance,
			account,
			accountBalance(row),
			asset,
			amount,
		)
	}
	row.Balance -= amount
	return l.db.SetTreasuryAccount(row, txn)
}

func accountBalance(row *models.TreasuryAccount) uint64 {
	if row == nil {
		return 0
	}
	return row.Balance
}

// Transfer moves amount between accounts as one atomic unit: both the debit
// and the credit succeed or neither does
func (l *Ledger) Transfer(
	from string,
	to string,
	asset string,
	amount uint64,
	txn *database.Txn,
) error {
	owned := false
	if txn == nil {
		txn = l.db.Transaction(true)
		owned = true
		defer txn.Release()
	}
	if err := l.Debit(from, asset, amount, txn); err != nil {
		return err
	}
	if err := l.Credit(to, asset, amount, txn); err != nil {
		return err
	}
	if owned {
		if err := txn.Commit(); err != nil {
			return fmt.Errorf("failed to commit transfer: %w", err)
		}
	}
	l.logger.Debug(
		"transfer",
		"from", from,
		"to", to,
		"asset", asset,
		"amount", amount,
	)
	return nil
}

// Mint credits newly issued units to an account and increases the asset's
// outstanding supply by the same amount
func (l *Ledger) Mint(
	account string,
	asset string,
	amount uint64,
	txn *database.Txn,
) error {
	owned := false
	if txn == nil {
		txn = l.db.Transaction(true)
		owned = true
		defer txn.Release()
	}
	issuance, err := l.db.GetAssetIssuance(asset, txn)
	if err != nil {
		return err
	}
	if issuance == nil {
		issuance = &models.AssetIssuance{Asset: asset}
	}
	if amount > MaxBalance-issuance.Issued {
		return ErrBalanceOverflow
	}
	if err := l.Credit(account, asset, amount, txn); err != nil {
		return err
	}
	issuance.Issued += amount
	if err := l.db.SetAssetIssuance(issuance, txn); err != nil {
		return err
	}
	if owned {
		if err := txn.Commit(); err != nil {
			return fmt.Errorf("failed to commit mint: %w", err)
		}
	}
	return nil
}

// Burn debits units from an account and decreases the asset's outstanding
// supply by the same amount
func (l *Ledger) Burn(
	account string,
	asset string,
	amount uint64,
	txn *database.Txn,
) error {
	owned := false
	if txn == nil {
		txn = l.db.Transaction(true)
		owned = true
		defer txn.Release()
	}
	issuance, err := l.db.GetAssetIssuance(asset, txn)
	if err != nil {
		return err
	}
	if issuance == nil || issuance.Issued < amount {
		return fmt.Errorf(
			"%w: cannot burn %d of %s",
			ErrInsufficientBalance,
			amount,
			asset,
		)
	}
	if err := l.Debit(account, asset, amount, txn); err != nil {
		return err
	}
	issuance.Issued -= amount
	if err := l.db.SetAssetIssuance(issuance, txn); err != nil {
		return err
	}
	if owned {
		if err := txn.Commit(); err != nil {
			return fmt.Errorf("failed to commit burn: %w", err)
		}
	}
	return nil
}

// GetBalance returns the balance of an (account, asset) pair
func (l *Ledger) GetBalance(account string, asset string) (uint64, error) {
	row, err := l.db.GetTreasuryAccount(account, asset, nil)
	if err != nil {
		return 0, err
	}
	return accountBalance(row), nil
}

// TotalIssued returns the outstanding supply of an asset. The sum of all
// account balances for the asset must equal this at all times.
func (l *Ledger) TotalIssued(asset string) (uint64, error) {
	issuance, err := l.db.GetAssetIssuance(asset, nil)
	if err != nil {
		return 0, err
	}
	if issuance == nil {
		return 0, nil
	}
	return issuance.Issued, nil
}

// Accounts returns all account rows holding the given asset
func (l *Ledger) Accounts(asset string) ([]*models.TreasuryAccount, error) {
	return l.db.GetTreasuryAccountsByAsset(asset, nil)
}

// SumBalances returns the sum of all account balances for an asset, used to
// reconcile conservation against TotalIssued
func (l *Ledger) SumBalances(asset string) (uint64, error) {
	rows, err := l.db.GetTreasuryAccountsByAsset(asset, nil)
	if err != nil {
		return 0, err
	}
	var sum uint64
	for _, row := range rows {
		sum += row.Balance
	}
	return sum, nil
}
