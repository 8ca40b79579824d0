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

package event

import "time"

// ProposalSubmittedEventType is emitted when a new proposal enters Pending
const ProposalSubmittedEventType = EventType("governance.proposal.submitted")

type ProposalSubmittedEvent struct {
	ProposalId uint
	Proposer   string
	// SourceChainId is non-zero for proposals delivered by the cross-chain relay
	SourceChainId uint64
	VotingStart   time.Time
	VotingEnd     time.Time
}

// ProposalActivatedEventType is emitted when a proposal enters Active and its
// voting weight snapshot height is captured
const ProposalActivatedEventType = EventType("governance.proposal.activated")

type ProposalActivatedEvent struct {
	ProposalId     uint
	SnapshotHeight uint64
}

// VoteCastEventType is emitted after a vote record has been committed
const VoteCastEventType = EventType("governance.vote.cast")

type VoteCastEvent struct {
	ProposalId uint
	Voter      string
	Choice     string
	Weight     uint64
}

// VotingClosedEventType is emitted when tallying moves a proposal out of Active
const VotingClosedEventType = EventType("governance.voting.closed")

type VotingClosedEvent struct {
	ProposalId    uint
	Outcome       string // Succeeded, Defeated, or Expired
	ForWeight     uint64
	AgainstWeight uint64
	AbstainWeight uint64
}

// ProposalQueuedEventType is emitted when a succeeded proposal enters the timelock
const ProposalQueuedEventType = EventType("governance.proposal.queued")

type ProposalQueuedEvent struct {
	ProposalId        uint
	EarliestExecution time.Time
}

// ProposalCanceledEventType is emitted on a guardian cancellation
const ProposalCanceledEventType = EventType("governance.proposal.canceled")

type ProposalCanceledEvent struct {
	ProposalId uint
	Canceller  string
	Reason     string
}

// ProposalExecutedEventType is emitted after all actions of a queued proposal
// have been applied and committed
const ProposalExecutedEventType = EventType("governance.proposal.executed")

type ProposalExecutedEvent struct {
	ProposalId  uint
	ActionCount int
}

// ExecutionFailedEventType is emitted when applying a queued proposal's actions
// fails. The whole batch is rolled back and the proposal remains Queued.
const ExecutionFailedEventType = EventType("governance.execution.failed")

type ExecutionFailedEvent struct {
	ProposalId  uint
	ActionIndex int
	Err         error
}

// AgentActionEventType is emitted after an agent-initiated action has been
// applied and committed through the authorization gate
const AgentActionEventType = EventType("governance.agent.action")

type AgentActionEvent struct {
	AgentId     string
	ActionClass string
	Amount      uint64
	PeriodSpend uint64
}
