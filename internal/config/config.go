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

package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type ctxKey string

const configContextKey ctxKey = "agora.config"

const DefaultShutdownTimeout = "30s"

func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configContextKey, cfg)
}

func FromContext(ctx context.Context) *Config {
	cfg, ok := ctx.Value(configContextKey).(*Config)
	if !ok {
		return nil
	}
	return cfg
}

type Config struct {
	DatabasePath     string `yaml:"databasePath"                            split_words:"true"`
	BindAddr         string `yaml:"bindAddr"                                split_words:"true"`
	ApiListenAddress string `yaml:"apiListenAddress"                        split_words:"true"`
	Guardian         string `yaml:"guardian"`
	TreasuryAccount  string `yaml:"treasuryAccount"                         split_words:"true"`
	ShutdownTimeout  string `yaml:"shutdownTimeout"                         split_words:"true"`
	MetricsPort      uint   `yaml:"metricsPort"                             split_words:"true"`
	// Governance parameters; empty values use engine defaults
	MinProposerWeight uint64 `yaml:"minProposerWeight" envconfig:"AGORA_MIN_PROPOSER_WEIGHT"`
	QuorumWeight      uint64 `yaml:"quorumWeight"      envconfig:"AGORA_QUORUM_WEIGHT"`
	ThresholdNum      uint64 `yaml:"thresholdNum"      envconfig:"AGORA_THRESHOLD_NUM"`
	ThresholdDenom    uint64 `yaml:"thresholdDenom"    envconfig:"AGORA_THRESHOLD_DENOM"`
	VotingDurationMin string `yaml:"votingDurationMin" envconfig:"AGORA_VOTING_DURATION_MIN"`
	VotingDurationMax string `yaml:"votingDurationMax" envconfig:"AGORA_VOTING_DURATION_MAX"`
	TimelockDelay     string `yaml:"timelockDelay"     envconfig:"AGORA_TIMELOCK_DELAY"`
	// Static voting weight snapshot, keyed by account. A production
	// deployment replaces this with an external snapshot source.
	SnapshotWeights map[string]uint64 `yaml:"snapshotWeights"`
	SnapshotHeight  uint64            `yaml:"snapshotHeight" split_words:"true"`
}

var globalConfig = &Config{
	DatabasePath:     ".agora",
	BindAddr:         "0.0.0.0",
	ApiListenAddress: ":8090",
	MetricsPort:      12799,
	ShutdownTimeout:  DefaultShutdownTimeout,
}

func LoadConfig(configFile string) (*Config, error) {
	// Load config file as YAML if provided
	if configFile == "" {
		// Check for config file in this path: ~/.agora/agora.yaml
		if homeDir, err := os.UserHomeDir(); err == nil {
			userPath := filepath.Join(homeDir, ".agora", "agora.yaml")
			if _, err := os.Stat(userPath); err == nil {
				configFile = userPath
			}
		}
		// Try to check for /etc/agora/agora.yaml if still not found
		if configFile == "" {
			systemPath := "/etc/agora/agora.yaml"
			if _, err := os.Stat(systemPath); err == nil {
				configFile = systemPath
			}
		}
	}
	if configFile != "" {
		buf, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		if err := yaml.Unmarshal(buf, globalConfig); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}
	// Load config values from environment variables
	// We use "dummy" as the app name to (mostly) prevent picking up env
	// vars that we hadn't explicitly specified in annotations above
	err := envconfig.Process("dummy", globalConfig)
	if err != nil {
		return nil, fmt.Errorf("error processing environment: %w", err)
	}
	return globalConfig, nil
}

// GetConfig returns the global config instance
func GetConfig() *Config {
	return globalConfig
}
