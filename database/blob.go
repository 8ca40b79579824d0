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
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	badger "github.com/dgraph-io/badger/v4"
)

// Blob key prefixes. Action payloads are written once at proposal submission
// and never modified; audit records are append-only.
const (
	blobKeyPrefixActionPayload = "payload"
	blobKeyPrefixAudit         = "audit"
)

// badgerSlogger adapts slog to badger's Logger interface
type badgerSlogger struct {
	logger *slog.Logger
}

func (b badgerSlogger) Errorf(format string, args ...any) {
	b.logger.Error(fmt.Sprintf(format, args...), "component", "blobstore")
}

func (b badgerSlogger) Warningf(format string, args ...any) {
	b.logger.Warn(fmt.Sprintf(format, args...), "component", "blobstore")
}

func (b badgerSlogger) Infof(format string, args ...any) {
	b.logger.Debug(fmt.Sprintf(format, args...), "component", "blobstore")
}

func (b badgerSlogger) Debugf(format string, args ...any) {
	b.logger.Debug(fmt.Sprintf(format, args...), "component", "blobstore")
}

// openBlob opens the badger blob store. Uses in-memory storage if dataDir is
// empty.
func openBlob(
	dataDir string,
	logger *slog.Logger,
) (*badger.DB, error) {
	var opts badger.Options
	if dataDir == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		blobDir := filepath.Join(dataDir, "blob")
		opts = badger.DefaultOptions(blobDir)
	}
	opts = opts.WithLogger(badgerSlogger{logger: logger})
	return badger.Open(opts)
}

// ActionPayloadKey returns the blob store key for an action payload
func ActionPayloadKey(proposalId uint, actionIndex uint32) []byte {
	return fmt.Appendf(
		nil,
		"%s/%d/%d",
		blobKeyPrefixActionPayload,
		proposalId,
		actionIndex,
	)
}

// SetActionPayload stores the opaque effect payload for a proposal action
func (d *Database) SetActionPayload(
	proposalId uint,
	actionIndex uint32,
	payload []byte,
	txn *Txn,
) error {
	owned := false
	if txn == nil {
		txn = d.Transaction(true)
		owned = true
		defer txn.Release()
	}
	if err := txn.Blob().Set(
		ActionPayloadKey(proposalId, actionIndex),
		payload,
	); err != nil {
		return fmt.Errorf("failed to set action payload: %w", err)
	}
	if owned {
		if err := txn.Commit(); err != nil {
			return fmt.Errorf("failed to commit action payload: %w", err)
		}
	}
	return nil
}

// GetActionPayload retrieves the opaque effect payload for a proposal action
func (d *Database) GetActionPayload(
	proposalId uint,
	actionIndex uint32,
	txn *Txn,
) ([]byte, error) {
	if txn == nil {
		txn = d.Transaction(false)
		defer txn.Release()
	}
	item, err := txn.Blob().Get(ActionPayloadKey(proposalId, actionIndex))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, fmt.Errorf(
				"no payload for proposal %d action %d",
				proposalId,
				actionIndex,
			)
		}
		return nil, fmt.Errorf("failed to get action payload: %w", err)
	}
	return item.ValueCopy(nil)
}
