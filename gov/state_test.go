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

package gov

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/blinklabs-io/agora/database"
	"github.com/blinklabs-io/agora/database/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// recordingApplier applies actions by recording them, optionally failing at a
// configured action index
type recordingApplier struct {
	mu      sync.Mutex
	applied []uint32
	failAt  int
}

func newRecordingApplier() *recordingApplier {
	return &recordingApplier{failAt: -1}
}

func (a *recordingApplier) Apply(
	txn *database.Txn,
	proposalId uint,
	actionIndex uint32,
	target string,
	amount uint64,
	payload []byte,
) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.failAt >= 0 && int(actionIndex) == a.failAt {
		return fmt.Errorf("simulated failure at action %d", actionIndex)
	}
	a.applied = append(a.applied, actionIndex)
	return nil
}

func (a *recordingApplier) appliedCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.applied)
}

type testEnv struct {
	state     *State
	db        *database.Database
	snapshots *StaticSnapshotProvider
	clock     *testClock
	applier   *recordingApplier
}

func testParams() Params {
	return Params{
		MinProposerWeight:   1000,
		VotingDurationMin:   time.Hour,
		VotingDurationMax:   14 * 24 * time.Hour,
		QuorumWeight:        10000,
		ThresholdNum:        1,
		ThresholdDenom:      2,
		TimelockDelay:       48 * time.Hour,
		Guardian:            "guardian",
		AgentCapResetPeriod: 24 * time.Hour,
	}
}

func setupTestState(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.New(nil, t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() {
		db.Close() //nolint:errcheck
	})
	clock := &testClock{
		now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	snapshots := NewStaticSnapshotProvider(map[string]uint64{
		"alice": 6000,
		"bob":   3000,
		"carol": 1000,
		"dave":  5000,
		"erin":  4000,
	}, 100)
	state, err := NewState(db, StateConfig{
		Snapshots: snapshots,
		Params:    testParams(),
		NowFunc:   clock.Now,
	})
	require.NoError(t, err)
	applier := newRecordingApplier()
	state.SetApplier(applier)
	return &testEnv{
		state:     state,
		db:        db,
		snapshots: snapshots,
		clock:     clock,
		applier:   applier,
	}
}

func submitTestProposal(t *testing.T, env *testEnv) *models.Proposal {
	t.Helper()
	proposal, err := env.state.Submit(
		context.Background(),
		"alice",
		"fund the grants program",
		[]ActionInput{
			{Target: "grants", Amount: 500, Payload: []byte(`{"kind":"AssetTransfer","asset":"gov"}`)},
		},
		24*time.Hour,
	)
	require.NoError(t, err)
	return proposal
}

func activateTestProposal(t *testing.T, env *testEnv) *models.Proposal {
	t.Helper()
	proposal := submitTestProposal(t, env)
	require.NoError(t, env.state.Activate(context.Background(), proposal.ID))
	return proposal
}

func TestSubmitValidation(t *testing.T) {
	env := setupTestState(t)
	ctx := context.Background()

	_, err := env.state.Submit(ctx, "alice", "empty", nil, 24*time.Hour)
	require.ErrorIs(t, err, ErrEmptyActionSet)

	actions := []ActionInput{{Target: "x", Amount: 1, Payload: []byte(`{}`)}}
	_, err = env.state.Submit(ctx, "alice", "too short", actions, time.Minute)
	require.ErrorIs(t, err, ErrDurationOutOfRange)
	_, err = env.state.Submit(ctx, "alice", "too long", actions, 60*24*time.Hour)
	require.ErrorIs(t, err, ErrDurationOutOfRange)

	// carol's weight (1000) meets the minimum exactly; an unknown proposer
	// has zero weight
	_, err = env.state.Submit(ctx, "carol", "ok", actions, 24*time.Hour)
	require.NoError(t, err)
	_, err = env.state.Submit(ctx, "mallory", "no weight", actions, 24*time.Hour)
	require.ErrorIs(t, err, ErrInsufficientProposerWeight)
}

func TestActivateTransitions(t *testing.T) {
	env := setupTestState(t)
	ctx := context.Background()
	proposal := submitTestProposal(t, env)

	require.NoError(t, env.state.Activate(ctx, proposal.ID))
	require.ErrorIs(t, env.state.Activate(ctx, proposal.ID), ErrAlreadyActive)

	fetched, err := env.state.GetProposal(proposal.ID)
	require.NoError(t, err)
	assert.Equal(t, uint8(models.ProposalStatusActive), fetched.Status)
	assert.Equal(t, uint64(100), fetched.SnapshotHeight)

	_, err = env.state.GetProposal(999)
	require.ErrorIs(t, err, models.ErrProposalNotFound)
}

func TestCastVoteRules(t *testing.T) {
	env := setupTestState(t)
	ctx := context.Background()
	proposal := submitTestProposal(t, env)

	// Voting on a Pending proposal is rejected
	err := env.state.CastVote(ctx, proposal.ID, "alice", models.VoteChoiceFor)
	require.ErrorIs(t, err, ErrProposalNotActive)

	require.NoError(t, env.state.Activate(ctx, proposal.ID))

	err = env.state.CastVote(ctx, proposal.ID, "alice", 99)
	require.ErrorIs(t, err, ErrInvalidVoteChoice)

	err = env.state.CastVote(ctx, proposal.ID, "mallory", models.VoteChoiceFor)
	require.ErrorIs(t, err, ErrZeroWeight)

	require.NoError(
		t,
		env.state.CastVote(ctx, proposal.ID, "alice", models.VoteChoiceFor),
	)
	// One vote per voter, even with a different choice
	err = env.state.CastVote(ctx, proposal.ID, "alice", models.VoteChoiceAgainst)
	require.ErrorIs(t, err, ErrAlreadyVoted)

	// Window end is exclusive
	env.clock.Advance(24 * time.Hour)
	err = env.state.CastVote(ctx, proposal.ID, "bob", models.VoteChoiceFor)
	require.ErrorIs(t, err, ErrProposalNotActive)
}

func TestVoteWeightImmuneToLaterTransfers(t *testing.T) {
	env := setupTestState(t)
	ctx := context.Background()
	proposal := activateTestProposal(t, env)

	require.NoError(
		t,
		env.state.CastVote(ctx, proposal.ID, "alice", models.VoteChoiceFor),
	)
	// alice transfers her tokens away after voting
	env.snapshots.SetWeight("alice", 0)
	env.snapshots.AdvanceHeight(10)

	tally, err := env.state.GetTally(proposal.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(6000), tally.ForWeight)
}

func TestCloseVotingSucceeded(t *testing.T) {
	env := setupTestState(t)
	ctx := context.Background()
	proposal := activateTestProposal(t, env)

	require.NoError(t, env.state.CastVote(ctx, proposal.ID, "alice", models.VoteChoiceFor))
	require.NoError(t, env.state.CastVote(ctx, proposal.ID, "bob", models.VoteChoiceAgainst))
	require.NoError(t, env.state.CastVote(ctx, proposal.ID, "carol", models.VoteChoiceAbstain))

	_, err := env.state.CloseVoting(proposal.ID)
	require.ErrorIs(t, err, ErrVotingStillOpen)

	env.clock.Advance(24 * time.Hour)
	status, err := env.state.CloseVoting(proposal.ID)
	require.NoError(t, err)
	assert.Equal(t, uint8(models.ProposalStatusQueued), status)

	entry, err := env.state.GetTimelock(proposal.ID)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.WithinDuration(
		t,
		env.clock.Now().Add(48*time.Hour),
		entry.EarliestExecution,
		time.Second,
	)

	// Closing again is rejected
	_, err = env.state.CloseVoting(proposal.ID)
	require.ErrorIs(t, err, ErrAlreadyClosed)
}

func TestCloseVotingDefeated(t *testing.T) {
	env := setupTestState(t)
	ctx := context.Background()
	proposal := activateTestProposal(t, env)

	// 4000 for, 5000 against, 1000 abstain: quorum met, threshold not
	require.NoError(t, env.state.CastVote(ctx, proposal.ID, "erin", models.VoteChoiceFor))
	require.NoError(t, env.state.CastVote(ctx, proposal.ID, "dave", models.VoteChoiceAgainst))
	require.NoError(t, env.state.CastVote(ctx, proposal.ID, "carol", models.VoteChoiceAbstain))

	env.clock.Advance(24 * time.Hour)
	status, err := env.state.CloseVoting(proposal.ID)
	require.NoError(t, err)
	assert.Equal(t, uint8(models.ProposalStatusDefeated), status)

	entry, err := env.state.GetTimelock(proposal.ID)
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestCloseVotingTieIsDefeated(t *testing.T) {
	env := setupTestState(t)
	ctx := context.Background()
	proposal := activateTestProposal(t, env)

	// 6000 for, 6000 against with the 1/2 threshold: exactly at the
	// threshold is not enough
	env.snapshots.SetWeight("dave", 6000)
	require.NoError(t, env.state.CastVote(ctx, proposal.ID, "alice", models.VoteChoiceFor))
	require.NoError(t, env.state.CastVote(ctx, proposal.ID, "dave", models.VoteChoiceAgainst))

	env.clock.Advance(24 * time.Hour)
	status, err := env.state.CloseVoting(proposal.ID)
	require.NoError(t, err)
	assert.Equal(t, uint8(models.ProposalStatusDefeated), status)
}

func TestCloseVotingQuorumFailure(t *testing.T) {
	env := setupTestState(t)
	ctx := context.Background()
	proposal := activateTestProposal(t, env)

	// Only 3000 weight participates against a 10000 quorum
	require.NoError(t, env.state.CastVote(ctx, proposal.ID, "bob", models.VoteChoiceFor))

	env.clock.Advance(24 * time.Hour)
	status, err := env.state.CloseVoting(proposal.ID)
	require.NoError(t, err)
	assert.Equal(t, uint8(models.ProposalStatusExpired), status)
}

func TestAbstainCountsTowardQuorumOnly(t *testing.T) {
	env := setupTestState(t)
	ctx := context.Background()
	proposal := activateTestProposal(t, env)

	// 6000 abstain + 4000 for + 1000 against reaches quorum; the for/against
	// ratio alone decides the outcome
	require.NoError(t, env.state.CastVote(ctx, proposal.ID, "alice", models.VoteChoiceAbstain))
	require.NoError(t, env.state.CastVote(ctx, proposal.ID, "erin", models.VoteChoiceFor))
	require.NoError(t, env.state.CastVote(ctx, proposal.ID, "carol", models.VoteChoiceAgainst))

	env.clock.Advance(24 * time.Hour)
	status, err := env.state.CloseVoting(proposal.ID)
	require.NoError(t, err)
	assert.Equal(t, uint8(models.ProposalStatusQueued), status)
}

func TestExecuteLifecycle(t *testing.T) {
	env := setupTestState(t)
	ctx := context.Background()
	proposal := activateTestProposal(t, env)

	require.NoError(t, env.state.CastVote(ctx, proposal.ID, "alice", models.VoteChoiceFor))
	require.NoError(t, env.state.CastVote(ctx, proposal.ID, "dave", models.VoteChoiceFor))

	// Not queued yet
	require.ErrorIs(t, env.state.Execute(proposal.ID), ErrNotQueued)

	env.clock.Advance(24 * time.Hour)
	_, err := env.state.CloseVoting(proposal.ID)
	require.NoError(t, err)

	// Timelock has not elapsed
	require.ErrorIs(t, env.state.Execute(proposal.ID), ErrTooEarly)
	env.clock.Advance(47 * time.Hour)
	require.ErrorIs(t, env.state.Execute(proposal.ID), ErrTooEarly)

	env.clock.Advance(time.Hour)
	require.NoError(t, env.state.Execute(proposal.ID))
	assert.Equal(t, 1, env.applier.appliedCount())

	fetched, err := env.state.GetProposal(proposal.ID)
	require.NoError(t, err)
	assert.Equal(t, uint8(models.ProposalStatusExecuted), fetched.Status)

	entry, err := env.state.GetTimelock(proposal.ID)
	require.NoError(t, err)
	assert.Nil(t, entry)

	require.ErrorIs(t, env.state.Execute(proposal.ID), ErrAlreadyExecuted)
}

func TestExecuteSucceedsWhenParamReloadFails(t *testing.T) {
	env := setupTestState(t)
	ctx := context.Background()
	proposal := activateTestProposal(t, env)

	require.NoError(t, env.state.CastVote(ctx, proposal.ID, "alice", models.VoteChoiceFor))
	require.NoError(t, env.state.CastVote(ctx, proposal.ID, "dave", models.VoteChoiceFor))
	env.clock.Advance(24 * time.Hour)
	_, err := env.state.CloseVoting(proposal.ID)
	require.NoError(t, err)
	env.clock.Advance(48 * time.Hour)

	// A bad persisted override makes the post-commit reload fail, but the
	// execution itself has committed and must report success
	require.NoError(t, env.db.SetParam(ParamQuorumWeight, "notanumber", nil))
	require.Error(t, env.state.ReloadParams())
	require.NoError(t, env.state.Execute(proposal.ID))

	fetched, err := env.state.GetProposal(proposal.ID)
	require.NoError(t, err)
	assert.Equal(t, uint8(models.ProposalStatusExecuted), fetched.Status)
}

func TestExecuteFailureRollsBack(t *testing.T) {
	env := setupTestState(t)
	ctx := context.Background()

	proposal, err := env.state.Submit(
		context.Background(),
		"alice",
		"multi-action",
		[]ActionInput{
			{Target: "grants", Amount: 100, Payload: []byte(`{}`)},
			{Target: "ops", Amount: 200, Payload: []byte(`{}`)},
		},
		24*time.Hour,
	)
	require.NoError(t, err)
	require.NoError(t, env.state.Activate(ctx, proposal.ID))
	require.NoError(t, env.state.CastVote(ctx, proposal.ID, "alice", models.VoteChoiceFor))
	require.NoError(t, env.state.CastVote(ctx, proposal.ID, "dave", models.VoteChoiceFor))
	env.clock.Advance(24 * time.Hour)
	_, err = env.state.CloseVoting(proposal.ID)
	require.NoError(t, err)
	env.clock.Advance(48 * time.Hour)

	// Second action fails; the whole batch rolls back and the proposal
	// remains Queued for retry
	env.applier.failAt = 1
	require.Error(t, env.state.Execute(proposal.ID))

	fetched, err := env.state.GetProposal(proposal.ID)
	require.NoError(t, err)
	assert.Equal(t, uint8(models.ProposalStatusQueued), fetched.Status)

	// Retry succeeds once the failure cause is removed
	env.applier.failAt = -1
	require.NoError(t, env.state.Execute(proposal.ID))
	fetched, err = env.state.GetProposal(proposal.ID)
	require.NoError(t, err)
	assert.Equal(t, uint8(models.ProposalStatusExecuted), fetched.Status)
}

func TestGuardianCancel(t *testing.T) {
	env := setupTestState(t)
	ctx := context.Background()
	proposal := activateTestProposal(t, env)

	require.NoError(t, env.state.CastVote(ctx, proposal.ID, "alice", models.VoteChoiceFor))
	require.NoError(t, env.state.CastVote(ctx, proposal.ID, "dave", models.VoteChoiceFor))
	env.clock.Advance(24 * time.Hour)
	_, err := env.state.CloseVoting(proposal.ID)
	require.NoError(t, err)

	err = env.state.Cancel(proposal.ID, "mallory", "nope")
	require.ErrorIs(t, err, ErrNotGuardian)

	require.NoError(
		t,
		env.state.Cancel(proposal.ID, "guardian", "compromised target"),
	)

	fetched, err := env.state.GetProposal(proposal.ID)
	require.NoError(t, err)
	assert.Equal(t, uint8(models.ProposalStatusCanceled), fetched.Status)

	// Terminal state: cannot execute or re-cancel
	require.ErrorIs(t, env.state.Execute(proposal.ID), ErrNotQueued)
	require.ErrorIs(
		t,
		env.state.Cancel(proposal.ID, "guardian", "again"),
		ErrNotQueued,
	)

	// The cancellation reason lands in the audit trail
	records, err := env.db.GetAuditRecords(nil)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, database.AuditKindGuardianCancel, records[0].Kind)
	assert.Equal(t, "compromised target", records[0].Reason)
}

func TestGuardianCancelTooLate(t *testing.T) {
	env := setupTestState(t)
	ctx := context.Background()
	proposal := activateTestProposal(t, env)

	require.NoError(t, env.state.CastVote(ctx, proposal.ID, "alice", models.VoteChoiceFor))
	require.NoError(t, env.state.CastVote(ctx, proposal.ID, "dave", models.VoteChoiceFor))
	env.clock.Advance(24 * time.Hour)
	_, err := env.state.CloseVoting(proposal.ID)
	require.NoError(t, err)

	env.clock.Advance(48 * time.Hour)
	err = env.state.Cancel(proposal.ID, "guardian", "too slow")
	require.ErrorIs(t, err, ErrTooLate)
}

func TestNewStateRejectsPartialParams(t *testing.T) {
	db, err := database.New(nil, t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() {
		db.Close() //nolint:errcheck
	})
	// A Params with some fields set but no threshold fraction is an error,
	// not a fallback to defaults
	_, err = NewState(db, StateConfig{
		Snapshots: NewStaticSnapshotProvider(nil, 1),
		Params: Params{
			QuorumWeight: 25000,
		},
	})
	require.Error(t, err)
}

func TestParameterOverridesSurviveRestart(t *testing.T) {
	db, err := database.New(nil, t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() {
		db.Close() //nolint:errcheck
	})
	snapshots := NewStaticSnapshotProvider(nil, 1)

	require.NoError(t, db.SetParam(ParamQuorumWeight, "25000", nil))

	state, err := NewState(db, StateConfig{
		Snapshots: snapshots,
		Params:    testParams(),
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(25000), state.CurrentParams().QuorumWeight)
}

func TestListQueries(t *testing.T) {
	env := setupTestState(t)
	ctx := context.Background()

	first := submitTestProposal(t, env)
	second := submitTestProposal(t, env)
	require.NoError(t, env.state.Activate(ctx, second.ID))

	all, err := env.state.ListProposals()
	require.NoError(t, err)
	assert.Len(t, all, 2)

	active, err := env.state.ListActive()
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, second.ID, active[0].ID)
	assert.NotEqual(t, first.ID, active[0].ID)

	require.NoError(t, env.state.CastVote(ctx, second.ID, "alice", models.VoteChoiceFor))
	votes, err := env.state.GetVotes(second.ID)
	require.NoError(t, err)
	require.Len(t, votes, 1)
	assert.Equal(t, "alice", votes[0].Voter)
}
