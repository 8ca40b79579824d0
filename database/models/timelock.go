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
	"time"
)

var ErrTimelockEntryNotFound = errors.New("timelock entry not found")

// TimelockEntry delays execution of a succeeded proposal. Created when the
// tally moves a proposal to Succeeded, destroyed on execution or cancellation.
// EarliestExecution is always at least the succeed time plus the configured
// timelock delay.
type TimelockEntry struct {
	ID                uint      `gorm:"primarykey"`
	ProposalID        uint      `gorm:"uniqueIndex;not null"`
	QueuedAt          time.Time `gorm:"not null"`
	EarliestExecution time.Time `gorm:"index;not null"`
}

// TableName returns the table name
func (TimelockEntry) TableName() string {
	return "timelock_entry"
}
