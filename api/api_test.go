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

package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/blinklabs-io/agora/agentgate"
	"github.com/blinklabs-io/agora/database"
	"github.com/blinklabs-io/agora/database/models"
	"github.com/blinklabs-io/agora/dispatch"
	"github.com/blinklabs-io/agora/gov"
	"github.com/blinklabs-io/agora/treasury"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type apiEnv struct {
	api    *Api
	db     *database.Database
	ledger *treasury.Ledger
	state  *gov.State
	mu     sync.Mutex
	now    time.Time
}

func (env *apiEnv) advance(d time.Duration) {
	env.mu.Lock()
	defer env.mu.Unlock()
	env.now = env.now.Add(d)
}

func setupTestApi(t *testing.T) *apiEnv {
	t.Helper()
	db, err := database.New(nil, t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() {
		db.Close() //nolint:errcheck
	})
	env := &apiEnv{
		db:  db,
		now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	nowFunc := func() time.Time {
		env.mu.Lock()
		defer env.mu.Unlock()
		return env.now
	}
	env.ledger = treasury.NewLedger(db, nil)
	snapshots := gov.NewStaticSnapshotProvider(map[string]uint64{
		"alice": 6000,
		"dave":  5000,
	}, 100)
	params := gov.DefaultParams()
	params.MinProposerWeight = 1000
	params.QuorumWeight = 10000
	params.Guardian = "guardian"
	env.state, err = gov.NewState(db, gov.StateConfig{
		Snapshots: snapshots,
		Params:    params,
		NowFunc:   nowFunc,
	})
	require.NoError(t, err)
	dispatcher := dispatch.NewDispatcher(db, dispatch.DispatcherConfig{
		Ledger:  env.ledger,
		NowFunc: nowFunc,
	})
	env.state.SetApplier(dispatcher)
	gate := agentgate.NewGate(db, agentgate.GateConfig{
		Applier:    dispatcher,
		Serializer: env.state,
		NowFunc:    nowFunc,
	})
	env.api = New(ApiConfig{}, env.state, env.ledger, gate)
	return env
}

func (env *apiEnv) request(
	t *testing.T,
	method string,
	path string,
	body string,
) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	env.api.Handler().ServeHTTP(w, req)
	return w
}

func TestRootAndHealth(t *testing.T) {
	env := setupTestApi(t)

	w := env.request(t, "GET", "/", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.request(t, "GET", "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	var health HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.True(t, health.IsHealthy)
}

func TestProposalLifecycleOverHttp(t *testing.T) {
	env := setupTestApi(t)
	require.NoError(t, env.ledger.Mint("treasury", "gov", 1000, nil))

	// Submit
	w := env.request(t, "POST", "/v1/proposals", `{
		"proposer": "alice",
		"description": "fund grants",
		"votingDurationSeconds": 86400,
		"actions": [
			{"target": "grants", "amount": 400,
			 "payload": "eyJraW5kIjoiQXNzZXRUcmFuc2ZlciIsImFzc2V0IjoiZ292In0="}
		]
	}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var proposal ProposalResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &proposal))
	assert.Equal(t, "Pending", proposal.Status)

	// Activate
	w = env.request(t, "POST", "/v1/proposals/1/activate", "")
	require.Equal(t, http.StatusNoContent, w.Code)

	// Votes
	w = env.request(t, "POST", "/v1/proposals/1/votes", `{"voter":"alice","choice":"For"}`)
	require.Equal(t, http.StatusNoContent, w.Code)
	w = env.request(t, "POST", "/v1/proposals/1/votes", `{"voter":"dave","choice":"For"}`)
	require.Equal(t, http.StatusNoContent, w.Code)

	// Double vote maps to conflict
	w = env.request(t, "POST", "/v1/proposals/1/votes", `{"voter":"alice","choice":"Against"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	// Tally
	w = env.request(t, "GET", "/v1/proposals/1/tally", "")
	require.Equal(t, http.StatusOK, w.Code)
	var tally TallyResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tally))
	assert.Equal(t, uint64(11000), tally.ForWeight)
	assert.True(t, tally.QuorumMet)

	// Close before the window ends maps to conflict
	w = env.request(t, "POST", "/v1/proposals/1/close", "")
	assert.Equal(t, http.StatusConflict, w.Code)

	env.advance(24 * time.Hour)
	w = env.request(t, "POST", "/v1/proposals/1/close", "")
	require.Equal(t, http.StatusOK, w.Code)
	var closed CloseVotingResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &closed))
	assert.Equal(t, "Queued", closed.Status)

	// Execute before the timelock elapses maps to conflict
	w = env.request(t, "POST", "/v1/proposals/1/execute", "")
	assert.Equal(t, http.StatusConflict, w.Code)

	env.advance(48 * time.Hour)
	w = env.request(t, "POST", "/v1/proposals/1/execute", "")
	require.Equal(t, http.StatusNoContent, w.Code)

	// The transfer landed
	w = env.request(t, "GET", "/v1/treasury/gov", "")
	require.Equal(t, http.StatusOK, w.Code)
	var treasuryResp TreasuryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &treasuryResp))
	assert.Equal(t, uint64(1000), treasuryResp.TotalIssued)
	balances := map[string]uint64{}
	for _, account := range treasuryResp.Accounts {
		balances[account.Account] = account.Balance
	}
	assert.Equal(t, uint64(600), balances["treasury"])
	assert.Equal(t, uint64(400), balances["grants"])

	w = env.request(t, "GET", "/v1/proposals/1", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &proposal))
	assert.Equal(t, "Executed", proposal.Status)
	require.Len(t, proposal.Actions, 1)
	assert.Equal(t, "grants", proposal.Actions[0].Target)
}

func TestProposalNotFound(t *testing.T) {
	env := setupTestApi(t)

	w := env.request(t, "GET", "/v1/proposals/99", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.request(t, "GET", "/v1/proposals/bogus", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmitValidationOverHttp(t *testing.T) {
	env := setupTestApi(t)

	w := env.request(t, "POST", "/v1/proposals", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Empty action set is rejected by the engine
	w = env.request(t, "POST", "/v1/proposals", `{
		"proposer": "alice",
		"votingDurationSeconds": 86400,
		"actions": []
	}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Unknown proposer has zero weight
	w = env.request(t, "POST", "/v1/proposals", `{
		"proposer": "mallory",
		"votingDurationSeconds": 86400,
		"actions": [{"target": "x", "amount": 1}]
	}`)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCancelAuthorization(t *testing.T) {
	env := setupTestApi(t)

	w := env.request(t, "POST", "/v1/proposals", `{
		"proposer": "alice",
		"votingDurationSeconds": 86400,
		"actions": [{"target": "x", "amount": 1}]
	}`)
	require.Equal(t, http.StatusCreated, w.Code)
	require.Equal(
		t,
		http.StatusNoContent,
		env.request(t, "POST", "/v1/proposals/1/activate", "").Code,
	)
	require.Equal(
		t,
		http.StatusNoContent,
		env.request(t, "POST", "/v1/proposals/1/votes", `{"voter":"alice","choice":"For"}`).Code,
	)
	require.Equal(
		t,
		http.StatusNoContent,
		env.request(t, "POST", "/v1/proposals/1/votes", `{"voter":"dave","choice":"For"}`).Code,
	)
	env.advance(24 * time.Hour)
	require.Equal(
		t,
		http.StatusOK,
		env.request(t, "POST", "/v1/proposals/1/close", "").Code,
	)

	w = env.request(t, "POST", "/v1/proposals/1/cancel", `{"canceller":"mallory","reason":"nope"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.request(t, "POST", "/v1/proposals/1/cancel", `{"canceller":"guardian","reason":"bad target"}`)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestGetAgent(t *testing.T) {
	env := setupTestApi(t)

	w := env.request(t, "GET", "/v1/agents/ghost", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	require.NoError(t, env.db.SetAgentGrant(&models.AgentGrant{
		AgentId:       "agent-1",
		ActionClasses: "AssetTransfer,Burn",
		CapAmount:     500,
		CapPeriod:     86400,
		PeriodStart:   env.now,
	}, nil))

	w = env.request(t, "GET", "/v1/agents/agent-1", "")
	require.Equal(t, http.StatusOK, w.Code)
	var grant AgentGrantResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &grant))
	assert.Equal(t, []string{"AssetTransfer", "Burn"}, grant.ActionClasses)
	assert.Equal(t, uint64(500), grant.CapAmount)
}

func TestAgentExecuteOverHttp(t *testing.T) {
	env := setupTestApi(t)
	require.NoError(t, env.ledger.Mint("treasury", "gov", 1000, nil))
	require.NoError(t, env.db.SetAgentGrant(&models.AgentGrant{
		AgentId:       "agent-1",
		ActionClasses: "AssetTransfer",
		CapAmount:     500,
		CapPeriod:     86400,
		PeriodStart:   env.now,
	}, nil))

	w := env.request(t, "POST", "/v1/agents/ghost/execute", `{
		"actionClass": "AssetTransfer",
		"target": "alice",
		"amount": 100,
		"payload": "eyJraW5kIjoiQXNzZXRUcmFuc2ZlciIsImFzc2V0IjoiZ292In0="
	}`)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.request(t, "POST", "/v1/agents/agent-1/execute", `{
		"actionClass": "Mint",
		"target": "alice",
		"amount": 100,
		"payload": "eyJraW5kIjoiQXNzZXRUcmFuc2ZlciIsImFzc2V0IjoiZ292In0="
	}`)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.request(t, "POST", "/v1/agents/agent-1/execute", `{
		"actionClass": "AssetTransfer",
		"target": "alice",
		"amount": 300,
		"payload": "eyJraW5kIjoiQXNzZXRUcmFuc2ZlciIsImFzc2V0IjoiZ292In0="
	}`)
	require.Equal(t, http.StatusNoContent, w.Code)

	balance, err := env.ledger.GetBalance("alice", "gov")
	require.NoError(t, err)
	assert.Equal(t, uint64(300), balance)

	// A second call past the cap is rejected without moving funds
	w = env.request(t, "POST", "/v1/agents/agent-1/execute", `{
		"actionClass": "AssetTransfer",
		"target": "alice",
		"amount": 300,
		"payload": "eyJraW5kIjoiQXNzZXRUcmFuc2ZlciIsImFzc2V0IjoiZ292In0="
	}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	balance, err = env.ledger.GetBalance("alice", "gov")
	require.NoError(t, err)
	assert.Equal(t, uint64(300), balance)
}

func TestListProposalsFilter(t *testing.T) {
	env := setupTestApi(t)

	for range 2 {
		w := env.request(t, "POST", "/v1/proposals", `{
			"proposer": "alice",
			"votingDurationSeconds": 86400,
			"actions": [{"target": "x", "amount": 1}]
		}`)
		require.Equal(t, http.StatusCreated, w.Code)
	}
	require.Equal(
		t,
		http.StatusNoContent,
		env.request(t, "POST", "/v1/proposals/2/activate", "").Code,
	)

	w := env.request(t, "GET", "/v1/proposals", "")
	require.Equal(t, http.StatusOK, w.Code)
	var all []ProposalResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &all))
	assert.Len(t, all, 2)

	w = env.request(t, "GET", "/v1/proposals?status=active", "")
	require.Equal(t, http.StatusOK, w.Code)
	var active []ProposalResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &active))
	require.Len(t, active, 1)
	assert.Equal(t, uint(2), active[0].Id)
}
