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
	"fmt"
	"strconv"
	"time"
)

// Governance parameter names recognized by ParameterChange actions. Parameters
// outside this set are rejected at execution time.
const (
	ParamMinProposerWeight   = "minProposerWeight"
	ParamVotingDurationMin   = "votingDurationMin"
	ParamVotingDurationMax   = "votingDurationMax"
	ParamQuorumWeight        = "quorumWeight"
	ParamThresholdNum        = "thresholdNum"
	ParamThresholdDenom      = "thresholdDenom"
	ParamTimelockDelay       = "timelockDelay"
	ParamAgentCapResetPeriod = "agentCapResetPeriod"
)

// Params holds the governance configuration. The threshold fraction is kept
// as an integer numerator/denominator pair so that tally comparisons stay in
// integer math.
type Params struct {
	MinProposerWeight   uint64
	VotingDurationMin   time.Duration
	VotingDurationMax   time.Duration
	QuorumWeight        uint64
	ThresholdNum        uint64
	ThresholdDenom      uint64
	TimelockDelay       time.Duration
	Guardian            string
	AgentCapResetPeriod time.Duration
}

// DefaultParams returns the default governance parameters
func DefaultParams() Params {
	return Params{
		MinProposerWeight:   1000,
		VotingDurationMin:   24 * time.Hour,
		VotingDurationMax:   14 * 24 * time.Hour,
		QuorumWeight:        10000,
		ThresholdNum:        1,
		ThresholdDenom:      2,
		TimelockDelay:       2 * 24 * time.Hour,
		AgentCapResetPeriod: 24 * time.Hour,
	}
}

// Validate checks internal consistency of the parameter set
func (p *Params) Validate() error {
	if p.ThresholdDenom == 0 {
		return fmt.Errorf("threshold denominator cannot be zero")
	}
	if p.ThresholdNum >= p.ThresholdDenom {
		return fmt.Errorf(
			"threshold fraction %d/%d is not below one",
			p.ThresholdNum,
			p.ThresholdDenom,
		)
	}
	if p.VotingDurationMin > p.VotingDurationMax {
		return fmt.Errorf(
			"voting duration minimum %s exceeds maximum %s",
			p.VotingDurationMin,
			p.VotingDurationMax,
		)
	}
	if p.TimelockDelay < 0 {
		return fmt.Errorf("timelock delay cannot be negative")
	}
	return nil
}

// ApplyOverride applies a single persisted parameter override. Unknown names
// and unparseable values are rejected; this is also the validation used by the
// ParameterChange action at execution time.
func (p *Params) ApplyOverride(name, value string) error {
	switch name {
	case ParamMinProposerWeight, ParamQuorumWeight,
		ParamThresholdNum, ParamThresholdDenom:
		parsed, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid value for %s: %w", name, err)
		}
		switch name {
		case ParamMinProposerWeight:
			p.MinProposerWeight = parsed
		case ParamQuorumWeight:
			p.QuorumWeight = parsed
		case ParamThresholdNum:
			p.ThresholdNum = parsed
		case ParamThresholdDenom:
			p.ThresholdDenom = parsed
		}
	case ParamVotingDurationMin, ParamVotingDurationMax,
		ParamTimelockDelay, ParamAgentCapResetPeriod:
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid value for %s: %w", name, err)
		}
		switch name {
		case ParamVotingDurationMin:
			p.VotingDurationMin = parsed
		case ParamVotingDurationMax:
			p.VotingDurationMax = parsed
		case ParamTimelockDelay:
			p.TimelockDelay = parsed
		case ParamAgentCapResetPeriod:
			p.AgentCapResetPeriod = parsed
		}
	default:
		return fmt.Errorf("unknown governance parameter: %s", name)
	}
	return p.Validate()
}
