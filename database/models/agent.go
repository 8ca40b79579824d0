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

import (
	"errors"
	"strings"
	"time"
)

var ErrAgentGrantNotFound = errors.New("agent grant not found")

// AgentGrant is a scoped, capped authorization for an autonomous agent
// identity. Grants are created and revoked only through the proposal
// execution path; an agent cannot widen its own authority.
type AgentGrant struct {
	ID      uint   `gorm:"primarykey"`
	AgentId string `gorm:"uniqueIndex;size:128;not null"`
	// ActionClasses is a comma-separated list of permitted action classes
	ActionClasses string `gorm:"size:512;not null"`
	CapAmount     uint64 `gorm:"not null"`
	// CapPeriod is the cap reset period in seconds
	CapPeriod   int64     `gorm:"not null"`
	PeriodStart time.Time `gorm:"not null"`
	PeriodSpend uint64    `gorm:"not null"`
	Revoked     bool      `gorm:"index;not null"`
}

// TableName returns the table name
func (AgentGrant) TableName() string {
	return "agent_grant"
}

// PermitsClass returns true if the grant's allowed set contains the given
// action class
func (g *AgentGrant) PermitsClass(class string) bool {
	for _, c := range strings.Split(g.ActionClasses, ",") {
		if strings.TrimSpace(c) == class {
			return true
		}
	}
	return false
}

// JoinActionClasses encodes a class list into the stored representation
func JoinActionClasses(classes []string) string {
	return strings.Join(classes, ",")
}

// SplitActionClasses decodes the stored representation into a class list
func SplitActionClasses(encoded string) []string {
	if encoded == "" {
		return nil
	}
	parts := strings.Split(encoded, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
