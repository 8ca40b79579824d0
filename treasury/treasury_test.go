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

package treasury

import (
	"math"
	"testing"

	"github.com/blinklabs-io/agora/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestLedger(t *testing.T) *Ledger {
	t.Helper()
	db, err := database.New(nil, t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() {
		db.Close() //nolint:errcheck
	})
	return NewLedger(db, nil)
}

func TestMintAndBalances(t *testing.T) {
	ledger := setupTestLedger(t)

	require.NoError(t, ledger.Mint("treasury", "gov", 10000, nil))

	balance, err := ledger.GetBalance("treasury", "gov")
	require.NoError(t, err)
	assert.Equal(t, uint64(10000), balance)

	issued, err := ledger.TotalIssued("gov")
	require.NoError(t, err)
	assert.Equal(t, uint64(10000), issued)
}

func TestTransfer(t *testing.T) {
	ledger := setupTestLedger(t)
	require.NoError(t, ledger.Mint("treasury", "gov", 1000, nil))

	require.NoError(t, ledger.Transfer("treasury", "alice", "gov", 400, nil))

	balance, err := ledger.GetBalance("treasury", "gov")
	require.NoError(t, err)
	assert.Equal(t, uint64(600), balance)
	balance, err = ledger.GetBalance("alice", "gov")
	require.NoError(t, err)
	assert.Equal(t, uint64(400), balance)

	// Transfers conserve total supply
	sum, err := ledger.SumBalances("gov")
	require.NoError(t, err)
	issued, err := ledger.TotalIssued("gov")
	require.NoError(t, err)
	assert.Equal(t, issued, sum)
}

func TestDebitInsufficientBalance(t *testing.T) {
	ledger := setupTestLedger(t)
	require.NoError(t, ledger.Mint("treasury", "gov", 100, nil))

	err := ledger.Transfer("treasury", "alice", "gov", 500, nil)
	require.ErrorIs(t, err, ErrInsufficientBalance)

	// Nothing moved
	balance, err := ledger.GetBalance("treasury", "gov")
	require.NoError(t, err)
	assert.Equal(t, uint64(100), balance)
	balance, err = ledger.GetBalance("alice", "gov")
	require.NoError(t, err)
	assert.Equal(t, uint64(0), balance)

	// Unknown account debits fail the same way
	err = ledger.Transfer("nobody", "alice", "gov", 1, nil)
	require.ErrorIs(t, err, ErrInsufficientBalance)
}

func TestBurn(t *testing.T) {
	ledger := setupTestLedger(t)
	require.NoError(t, ledger.Mint("treasury", "gov", 1000, nil))

	require.NoError(t, ledger.Burn("treasury", "gov", 300, nil))

	balance, err := ledger.GetBalance("treasury", "gov")
	require.NoError(t, err)
	assert.Equal(t, uint64(700), balance)
	issued, err := ledger.TotalIssued("gov")
	require.NoError(t, err)
	assert.Equal(t, uint64(700), issued)

	// Cannot burn more than exists
	err = ledger.Burn("treasury", "gov", 10000, nil)
	require.ErrorIs(t, err, ErrInsufficientBalance)
}

func TestZeroAmount(t *testing.T) {
	ledger := setupTestLedger(t)
	require.NoError(t, ledger.Mint("treasury", "gov", 100, nil))

	err := ledger.Transfer("treasury", "alice", "gov", 0, nil)
	require.ErrorIs(t, err, ErrZeroAmount)
}

func TestCreditOverflow(t *testing.T) {
	ledger := setupTestLedger(t)
	// Amounts above MaxBalance are rejected outright
	err := ledger.Mint("treasury", "gov", math.MaxUint64, nil)
	require.ErrorIs(t, err, ErrBalanceOverflow)

	// The full representable range persists and reads back
	require.NoError(t, ledger.Mint("treasury", "gov", MaxBalance, nil))
	balance, err := ledger.GetBalance("treasury", "gov")
	require.NoError(t, err)
	assert.Equal(t, MaxBalance, balance)

	// One more unit in either balance or issuance overflows
	err = ledger.Mint("treasury", "gov", 1, nil)
	require.ErrorIs(t, err, ErrBalanceOverflow)
	err = ledger.Credit("alice", "gov", MaxBalance, nil)
	require.NoError(t, err)
	err = ledger.Credit("alice", "gov", 1, nil)
	require.ErrorIs(t, err, ErrBalanceOverflow)
}

func TestMultiAssetIsolation(t *testing.T) {
	ledger := setupTestLedger(t)
	require.NoError(t, ledger.Mint("treasury", "gov", 1000, nil))
	require.NoError(t, ledger.Mint("treasury", "stable", 5000, nil))

	require.NoError(t, ledger.Transfer("treasury", "alice", "stable", 2000, nil))

	balance, err := ledger.GetBalance("treasury", "gov")
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), balance)
	balance, err = ledger.GetBalance("alice", "gov")
	require.NoError(t, err)
	assert.Equal(t, uint64(0), balance)
	balance, err = ledger.GetBalance("alice", "stable")
	require.NoError(t, err)
	assert.Equal(t, uint64(2000), balance)
}
