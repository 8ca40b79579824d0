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

package database

import (
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	badger "github.com/dgraph-io/badger/v4"
)

// Audit record kinds
const (
	AuditKindGuardianCancel  = "guardian_cancel"
	AuditKindAgentExecute    = "agent_execute"
	AuditKindExecutionFailed = "execution_failed"
)

// auditSeq disambiguates audit keys written within the same nanosecond
var auditSeq atomic.Uint64

// AuditRecord is an append-only entry in the blob store describing a
// privileged or otherwise noteworthy engine action. Records are never
// modified or deleted.
type AuditRecord struct {
	Kind        string    `json:"kind"`
	ProposalId  uint      `json:"proposal_id,omitempty"`
	AgentId     string    `json:"agent_id,omitempty"`
	Actor       string    `json:"actor,omitempty"`
	ActionClass string    `json:"action_class,omitempty"`
	Amount      uint64    `json:"amount,omitempty"`
	ActionIndex int       `json:"action_index,omitempty"`
	Reason      string    `json:"reason,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// AppendAuditRecord writes an audit record to the blob store
func (d *Database) AppendAuditRecord(
	record *AuditRecord,
	txn *Txn,
) error {
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now()
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode audit record: %w", err)
	}
	key := fmt.Appendf(
		nil,
		"%s/%020d/%d",
		blobKeyPrefixAudit,
		record.Timestamp.UnixNano(),
		auditSeq.Add(1),
	)
	owned := false
	if txn == nil {
		txn = d.Transaction(true)
		owned = true
		defer txn.Release()
	}
	if err := txn.Blob().Set(key, payload); err != nil {
		return fmt.Errorf("failed to append audit record: %w", err)
	}
	if owned {
		if err := txn.Commit(); err != nil {
			return fmt.Errorf("failed to commit audit record: %w", err)
		}
	}
	return nil
}

// GetAuditRecords returns all audit records in append order
func (d *Database) GetAuditRecords(
	txn *Txn,
) ([]*AuditRecord, error) {
	if txn == nil {
		txn = d.Transaction(false)
		defer txn.Release()
	}
	var records []*AuditRecord
	prefix := []byte(blobKeyPrefixAudit + "/")
	iterOpts := badger.DefaultIteratorOptions
	iterOpts.Prefix = prefix
	iter := txn.Blob().NewIterator(iterOpts)
	defer iter.Close()
	for iter.Rewind(); iter.ValidForPrefix(prefix); iter.Next() {
		val, err := iter.Item().ValueCopy(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to read audit record: %w", err)
		}
		var record AuditRecord
		if err := json.Unmarshal(val, &record); err != nil {
			return nil, fmt.Errorf("failed to decode audit record: %w", err)
		}
		records = append(records, &record)
	}
	return records, nil
}
