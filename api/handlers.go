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
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/blinklabs-io/agora/agentgate"
	"github.com/blinklabs-io/agora/database/models"
	"github.com/blinklabs-io/agora/dispatch"
	"github.com/blinklabs-io/agora/gov"
	"github.com/blinklabs-io/agora/internal/version"
	"github.com/blinklabs-io/agora/treasury"
)

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck,errchkjson
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{
		StatusCode: status,
		Error:      http.StatusText(status),
		Message:    message,
	})
}

// writeEngineError maps engine sentinel errors onto HTTP status codes
func writeEngineError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, models.ErrProposalNotFound),
		errors.Is(err, models.ErrAgentGrantNotFound):
		status = http.StatusNotFound
	case errors.Is(err, gov.ErrEmptyActionSet),
		errors.Is(err, gov.ErrDurationOutOfRange),
		errors.Is(err, gov.ErrInvalidVoteChoice),
		errors.Is(err, models.ErrUnknownVoteChoice),
		errors.Is(err, dispatch.ErrUnsupportedActionKind),
		errors.Is(err, dispatch.ErrInvalidActionPayload):
		status = http.StatusBadRequest
	case errors.Is(err, gov.ErrInsufficientProposerWeight),
		errors.Is(err, gov.ErrNotGuardian),
		errors.Is(err, gov.ErrZeroWeight),
		errors.Is(err, agentgate.ErrUnauthorizedAgent),
		errors.Is(err, agentgate.ErrActionClassNotPermitted):
		status = http.StatusForbidden
	case errors.Is(err, gov.ErrAlreadyActive),
		errors.Is(err, gov.ErrInvalidTransition),
		errors.Is(err, gov.ErrProposalNotActive),
		errors.Is(err, gov.ErrAlreadyVoted),
		errors.Is(err, gov.ErrVotingStillOpen),
		errors.Is(err, gov.ErrAlreadyClosed),
		errors.Is(err, gov.ErrTooEarly),
		errors.Is(err, gov.ErrTooLate),
		errors.Is(err, gov.ErrAlreadyExecuted),
		errors.Is(err, gov.ErrNotQueued),
		errors.Is(err, treasury.ErrInsufficientBalance),
		errors.Is(err, agentgate.ErrCapExceeded):
		status = http.StatusConflict
	}
	writeError(w, status, err.Error())
}

func proposalId(r *http.Request) (uint, error) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

func (a *Api) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, RootResponse{
		Name:    "agora",
		Version: version.Version,
	})
}

func (a *Api) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		IsHealthy: true,
	})
}

func proposalResponse(
	proposal *models.Proposal,
	actions []*models.ProposalAction,
) ProposalResponse {
	resp := ProposalResponse{
		Id:             proposal.ID,
		Proposer:       proposal.Proposer,
		Description:    proposal.Description,
		Status:         models.ProposalStatusString(proposal.Status),
		SourceChainId:  proposal.SourceChainId,
		SnapshotHeight: proposal.SnapshotHeight,
		CreatedAt:      proposal.CreatedAt,
		VotingStart:    proposal.VotingStart,
		VotingEnd:      proposal.VotingEnd,
	}
	for _, action := range actions {
		resp.Actions = append(resp.Actions, ActionResponse{
			ActionIndex: action.ActionIndex,
			Target:      action.Target,
			Amount:      action.Amount,
		})
	}
	return resp
}

func (a *Api) handleListProposals(w http.ResponseWriter, r *http.Request) {
	var proposals []*models.Proposal
	var err error
	if r.URL.Query().Get("status") == "active" {
		proposals, err = a.state.ListActive()
	} else {
		proposals, err = a.state.ListProposals()
	}
	if err != nil {
		a.logger.Error("failed to list proposals", "error", err)
		writeEngineError(w, err)
		return
	}
	resp := []ProposalResponse{}
	for _, proposal := range proposals {
		resp = append(resp, proposalResponse(proposal, nil))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *Api) handleGetProposal(w http.ResponseWriter, r *http.Request) {
	id, err := proposalId(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid proposal ID")
		return
	}
	proposal, err := a.state.GetProposal(id)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	actions, err := a.state.GetProposalActions(id)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, proposalResponse(proposal, actions))
}

func (a *Api) handleGetTally(w http.ResponseWriter, r *http.Request) {
	id, err := proposalId(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid proposal ID")
		return
	}
	tally, err := a.state.GetTally(id)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, TallyResponse{
		ForWeight:      tally.ForWeight,
		AgainstWeight:  tally.AgainstWeight,
		AbstainWeight:  tally.AbstainWeight,
		QuorumRequired: tally.QuorumRequired,
		QuorumMet:      tally.QuorumMet(),
		ThresholdMet:   tally.ThresholdMet(),
	})
}

func (a *Api) handleGetTreasury(w http.ResponseWriter, r *http.Request) {
	asset := r.PathValue("asset")
	issued, err := a.ledger.TotalIssued(asset)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	accounts, err := a.ledger.Accounts(asset)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	resp := TreasuryResponse{
		Asset:       asset,
		TotalIssued: issued,
		Accounts:    []TreasuryAccountResponse{},
	}
	for _, account := range accounts {
		resp.Accounts = append(resp.Accounts, TreasuryAccountResponse{
			Account: account.Account,
			Balance: account.Balance,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *Api) handleGetAgent(w http.ResponseWriter, r *http.Request) {
	grant, err := a.gate.GetGrant(r.PathValue("id"))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	if grant == nil {
		writeError(w, http.StatusNotFound, "agent grant not found")
		return
	}
	writeJSON(w, http.StatusOK, AgentGrantResponse{
		AgentId:       grant.AgentId,
		ActionClasses: models.SplitActionClasses(grant.ActionClasses),
		CapAmount:     grant.CapAmount,
		CapPeriodSecs: grant.CapPeriod,
		PeriodStart:   grant.PeriodStart,
		PeriodSpend:   grant.PeriodSpend,
	})
}

func (a *Api) handleAgentExecute(w http.ResponseWriter, r *http.Request) {
	var req AgentExecuteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := a.gate.AgentExecute(
		r.PathValue("id"),
		req.ActionClass,
		req.Target,
		req.Amount,
		req.Payload,
	); err != nil {
		writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *Api) handleSubmitProposal(w http.ResponseWriter, r *http.Request) {
	var req SubmitProposalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	actions := make([]gov.ActionInput, 0, len(req.Actions))
	for _, action := range req.Actions {
		actions = append(actions, gov.ActionInput{
			Target:  action.Target,
			Amount:  action.Amount,
			Payload: action.Payload,
		})
	}
	proposal, err := a.state.Submit(
		r.Context(),
		req.Proposer,
		req.Description,
		actions,
		time.Duration(req.VotingDurationSeconds)*time.Second,
	)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, proposalResponse(proposal, nil))
}

func (a *Api) handleActivate(w http.ResponseWriter, r *http.Request) {
	id, err := proposalId(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid proposal ID")
		return
	}
	if err := a.state.Activate(r.Context(), id); err != nil {
		writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *Api) handleCastVote(w http.ResponseWriter, r *http.Request) {
	id, err := proposalId(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid proposal ID")
		return
	}
	var req CastVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	choice, err := models.ParseVoteChoice(req.Choice)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	if err := a.state.CastVote(r.Context(), id, req.Voter, choice); err != nil {
		writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *Api) handleCloseVoting(w http.ResponseWriter, r *http.Request) {
	id, err := proposalId(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid proposal ID")
		return
	}
	status, err := a.state.CloseVoting(id)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, CloseVotingResponse{
		Status: models.ProposalStatusString(status),
	})
}

func (a *Api) handleExecute(w http.ResponseWriter, r *http.Request) {
	id, err := proposalId(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid proposal ID")
		return
	}
	if err := a.state.Execute(id); err != nil {
		writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *Api) handleCancel(w http.ResponseWriter, r *http.Request) {
	id, err := proposalId(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid proposal ID")
		return
	}
	var req CancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := a.state.Cancel(id, req.Canceller, req.Reason); err != nil {
		writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
