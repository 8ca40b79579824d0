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

import "time"

// ErrorResponse is the error body returned by all endpoints
type ErrorResponse struct {
	StatusCode int    `json:"status_code"`
	Error      string `json:"error"`
	Message    string `json:"message"`
}

type RootResponse struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type HealthResponse struct {
	IsHealthy bool `json:"is_healthy"`
}

type ActionRequest struct {
	Target  string `json:"target"`
	Amount  uint64 `json:"amount"`
	Payload []byte `json:"payload"`
}

type SubmitProposalRequest struct {
	Proposer              string          `json:"proposer"`
	Description           string          `json:"description"`
	VotingDurationSeconds int64           `json:"votingDurationSeconds"`
	Actions               []ActionRequest `json:"actions"`
}

type CastVoteRequest struct {
	Voter  string `json:"voter"`
	Choice string `json:"choice"`
}

type AgentExecuteRequest struct {
	ActionClass string `json:"actionClass"`
	Target      string `json:"target"`
	Amount      uint64 `json:"amount"`
	Payload     []byte `json:"payload"`
}

type CancelRequest struct {
	Canceller string `json:"canceller"`
	Reason    string `json:"reason"`
}

type ActionResponse struct {
	ActionIndex uint32 `json:"action_index"`
	Target      string `json:"target"`
	Amount      uint64 `json:"amount"`
}

type ProposalResponse struct {
	Id             uint             `json:"id"`
	Proposer       string           `json:"proposer"`
	Description    string           `json:"description"`
	Status         string           `json:"status"`
	SourceChainId  uint64           `json:"source_chain_id,omitempty"`
	SnapshotHeight uint64           `json:"snapshot_height"`
	CreatedAt      time.Time        `json:"created_at"`
	VotingStart    time.Time        `json:"voting_start"`
	VotingEnd      time.Time        `json:"voting_end"`
	Actions        []ActionResponse `json:"actions,omitempty"`
}

type TallyResponse struct {
	ForWeight      uint64 `json:"for_weight"`
	AgainstWeight  uint64 `json:"against_weight"`
	AbstainWeight  uint64 `json:"abstain_weight"`
	QuorumRequired uint64 `json:"quorum_required"`
	QuorumMet      bool   `json:"quorum_met"`
	ThresholdMet   bool   `json:"threshold_met"`
}

type CloseVotingResponse struct {
	Status string `json:"status"`
}

type TreasuryResponse struct {
	Asset       string                    `json:"asset"`
	TotalIssued uint64                    `json:"total_issued"`
	Accounts    []TreasuryAccountResponse `json:"accounts"`
}

type TreasuryAccountResponse struct {
	Account string `json:"account"`
	Balance uint64 `json:"balance"`
}

type AgentGrantResponse struct {
	AgentId       string    `json:"agent_id"`
	ActionClasses []string  `json:"action_classes"`
	CapAmount     uint64    `json:"cap_amount"`
	CapPeriodSecs int64     `json:"cap_period_seconds"`
	PeriodStart   time.Time `json:"period_start"`
	PeriodSpend   uint64    `json:"period_spend"`
}
