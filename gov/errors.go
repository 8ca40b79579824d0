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

import "errors"

// Validation errors: bad input shape or range, rejected synchronously with no
// state change
var (
	ErrEmptyActionSet     = errors.New("proposal has no actions")
	ErrDurationOutOfRange = errors.New("voting duration out of configured range")
	ErrInvalidVoteChoice  = errors.New("invalid vote choice")
)

// Authorization errors
var (
	ErrInsufficientProposerWeight = errors.New(
		"proposer weight below configured minimum",
	)
	ErrNotGuardian = errors.New("canceller is not the configured guardian")
)

// State-conflict errors: the caller raced or retried against stale state.
// Safe to retry after re-reading current state.
var (
	ErrAlreadyActive     = errors.New("proposal already active")
	ErrInvalidTransition = errors.New("invalid proposal state transition")
	ErrProposalNotActive = errors.New("proposal is not active")
	ErrAlreadyVoted      = errors.New("voter has already voted on proposal")
	ErrVotingStillOpen   = errors.New("voting window has not ended")
	ErrAlreadyClosed     = errors.New("voting already closed")
	ErrTooEarly          = errors.New("timelock delay has not elapsed")
	ErrTooLate           = errors.New(
		"cancellation window closed, earliest execution time reached",
	)
	ErrAlreadyExecuted = errors.New("proposal already executed")
	ErrNotQueued       = errors.New("proposal is not queued for execution")
)

// External-dependency errors: the only class eligible for caller-driven retry
// with backoff
var (
	ErrSnapshotUnavailable = errors.New(
		"balance snapshot provider unavailable",
	)
	ErrZeroWeight = errors.New("voter has zero weight at snapshot height")
)
