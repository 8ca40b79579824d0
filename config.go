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

package agora

import (
	"io"
	"log/slog"
	"time"

	"github.com/blinklabs-io/agora/gov"
	"github.com/prometheus/client_golang/prometheus"
)

type Config struct {
	promRegistry     prometheus.Registerer
	logger           *slog.Logger
	snapshots        gov.SnapshotProvider
	params           gov.Params
	dataDir          string
	apiListenAddress string
	treasuryAccount  string
	shutdownTimeout  time.Duration
}

func (e *Engine) configValidate() error {
	return e.config.params.Validate()
}

// ConfigOptionFunc is a type that represents functions that modify the engine config
type ConfigOptionFunc func(*Config)

// NewConfig creates a new engine config with the specified options
func NewConfig(opts ...ConfigOptionFunc) Config {
	c := Config{
		// Default logger will throw away logs
		// We do this so we don't have to add guards around every log operation
		logger: slog.New(slog.NewJSONHandler(io.Discard, nil)),
		params: gov.DefaultParams(),
	}
	// Apply options
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// WithLogger specifies the logger to use. This defaults to discarding log output
func WithLogger(logger *slog.Logger) ConfigOptionFunc {
	return func(c *Config) {
		c.logger = logger
	}
}

// WithDatabasePath specifies the persistent data directory to use. The default is to store everything in memory
func WithDatabasePath(dataDir string) ConfigOptionFunc {
	return func(c *Config) {
		c.dataDir = dataDir
	}
}

// WithPrometheusRegistry specifies a prometheus registerer for engine metrics
func WithPrometheusRegistry(registry prometheus.Registerer) ConfigOptionFunc {
	return func(c *Config) {
		c.promRegistry = registry
	}
}

// WithSnapshotProvider specifies the voting weight snapshot source
func WithSnapshotProvider(snapshots gov.SnapshotProvider) ConfigOptionFunc {
	return func(c *Config) {
		c.snapshots = snapshots
	}
}

// WithParams specifies the initial governance parameters. Persisted parameter
// changes from executed proposals override these at startup.
func WithParams(params gov.Params) ConfigOptionFunc {
	return func(c *Config) {
		c.params = params
	}
}

// WithGuardian specifies the guardian identity allowed to cancel queued proposals
func WithGuardian(guardian string) ConfigOptionFunc {
	return func(c *Config) {
		c.params.Guardian = guardian
	}
}

// WithApiListenAddress specifies the REST API listen address (empty = disabled)
func WithApiListenAddress(address string) ConfigOptionFunc {
	return func(c *Config) {
		c.apiListenAddress = address
	}
}

// WithTreasuryAccount specifies the account debited by default for treasury actions
func WithTreasuryAccount(account string) ConfigOptionFunc {
	return func(c *Config) {
		c.treasuryAccount = account
	}
}

// WithShutdownTimeout specifies the graceful shutdown timeout
func WithShutdownTimeout(timeout time.Duration) ConfigOptionFunc {
	return func(c *Config) {
		c.shutdownTimeout = timeout
	}
}
