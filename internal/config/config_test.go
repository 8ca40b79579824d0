package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func resetGlobalConfig() {
	globalConfig = &Config{
		DatabasePath:     ".agora",
		BindAddr:         "0.0.0.0",
		ApiListenAddress: ":8090",
		MetricsPort:      12799,
		ShutdownTimeout:  DefaultShutdownTimeout,
	}
}

func TestLoad_CompareFullStruct(t *testing.T) {
	resetGlobalConfig()
	yamlContent := `
databasePath: "/var/lib/agora"
bindAddr: "127.0.0.1"
apiListenAddress: ":9090"
guardian: "guardian"
treasuryAccount: "community-fund"
shutdownTimeout: "10s"
metricsPort: 8088
minProposerWeight: 1000
quorumWeight: 50000
thresholdNum: 2
thresholdDenom: 3
votingDurationMin: "1h"
votingDurationMax: "336h"
timelockDelay: "48h"
snapshotHeight: 42
snapshotWeights:
  alice: 6000
  bob: 3000
`

	tmpDir := t.TempDir()
	tmpFile := filepath.Join(tmpDir, "test-agora.yaml")

	err := os.WriteFile(tmpFile, []byte(yamlContent), 0644)
	if err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	defer os.Remove(tmpFile)

	expected := &Config{
		DatabasePath:      "/var/lib/agora",
		BindAddr:          "127.0.0.1",
		ApiListenAddress:  ":9090",
		Guardian:          "guardian",
		TreasuryAccount:   "community-fund",
		ShutdownTimeout:   "10s",
		MetricsPort:       8088,
		MinProposerWeight: 1000,
		QuorumWeight:      50000,
		ThresholdNum:      2,
		ThresholdDenom:    3,
		VotingDurationMin: "1h",
		VotingDurationMax: "336h",
		TimelockDelay:     "48h",
		SnapshotWeights:   map[string]uint64{"alice": 6000, "bob": 3000},
		SnapshotHeight:    42,
	}

	actual, err := LoadConfig(tmpFile)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if !reflect.DeepEqual(actual, expected) {
		t.Errorf(
			"Loaded config does not match expected.\nActual: %+v\nExpected: %+v",
			actual,
			expected,
		)
	}
}

func TestLoad_PartialConfigKeepsDefaults(t *testing.T) {
	resetGlobalConfig()
	yamlContent := `
guardian: "guardian"
quorumWeight: 50000
`

	tmpDir := t.TempDir()
	tmpFile := filepath.Join(tmpDir, "test-agora.yaml")

	err := os.WriteFile(tmpFile, []byte(yamlContent), 0644)
	if err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	defer os.Remove(tmpFile)

	actual, err := LoadConfig(tmpFile)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if actual.Guardian != "guardian" {
		t.Errorf("expected guardian from file, got %q", actual.Guardian)
	}
	if actual.QuorumWeight != 50000 {
		t.Errorf("expected quorum weight from file, got %d", actual.QuorumWeight)
	}
	if actual.DatabasePath != ".agora" {
		t.Errorf("expected default database path, got %q", actual.DatabasePath)
	}
	if actual.ApiListenAddress != ":8090" {
		t.Errorf(
			"expected default API listen address, got %q",
			actual.ApiListenAddress,
		)
	}
	if actual.MetricsPort != 12799 {
		t.Errorf("expected default metrics port, got %d", actual.MetricsPort)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	resetGlobalConfig()
	yamlContent := `
quorumWeight: 50000
`

	tmpDir := t.TempDir()
	tmpFile := filepath.Join(tmpDir, "test-agora.yaml")

	err := os.WriteFile(tmpFile, []byte(yamlContent), 0644)
	if err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	defer os.Remove(tmpFile)

	t.Setenv("AGORA_QUORUM_WEIGHT", "99999")
	t.Setenv("DUMMY_METRICS_PORT", "8123")

	actual, err := LoadConfig(tmpFile)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if actual.QuorumWeight != 99999 {
		t.Errorf(
			"expected env var to override file, got %d",
			actual.QuorumWeight,
		)
	}
	if actual.MetricsPort != 8123 {
		t.Errorf("expected env var to set metrics port, got %d", actual.MetricsPort)
	}
}

func TestConfigContext(t *testing.T) {
	resetGlobalConfig()
	cfg := GetConfig()
	ctx := WithContext(t.Context(), cfg)
	if FromContext(ctx) != cfg {
		t.Errorf("expected config from context to match")
	}
	if FromContext(t.Context()) != nil {
		t.Errorf("expected nil config from empty context")
	}
}
