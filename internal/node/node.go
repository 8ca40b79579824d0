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

package node

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/blinklabs-io/agora"
	"github.com/blinklabs-io/agora/gov"
	"github.com/blinklabs-io/agora/internal/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func Run(cfg *config.Config, logger *slog.Logger) error {
	logger.Debug(fmt.Sprintf("config: %+v", cfg), "component", "node")

	params, err := buildParams(cfg)
	if err != nil {
		return err
	}

	// Parse shutdown timeout
	shutdownTimeout := 30 * time.Second
	if cfg.ShutdownTimeout != "" {
		shutdownTimeout, err = time.ParseDuration(cfg.ShutdownTimeout)
		if err != nil {
			return fmt.Errorf("invalid shutdown timeout: %w", err)
		}
	}

	snapshots := gov.NewStaticSnapshotProvider(
		cfg.SnapshotWeights,
		cfg.SnapshotHeight,
	)

	e, err := agora.New(
		agora.NewConfig(
			agora.WithLogger(logger),
			agora.WithDatabasePath(cfg.DatabasePath),
			agora.WithParams(params),
			agora.WithGuardian(cfg.Guardian),
			agora.WithSnapshotProvider(snapshots),
			agora.WithApiListenAddress(cfg.ApiListenAddress),
			agora.WithTreasuryAccount(cfg.TreasuryAccount),
			agora.WithShutdownTimeout(shutdownTimeout),
			// Enable metrics with default prometheus registry
			agora.WithPrometheusRegistry(prometheus.DefaultRegisterer),
		),
	)
	if err != nil {
		return err
	}

	// Metrics listener
	http.Handle("/metrics", promhttp.Handler())
	logger.Info(
		"serving prometheus metrics on "+fmt.Sprintf(
			"%s:%d",
			cfg.BindAddr,
			cfg.MetricsPort,
		),
		"component", "node",
	)
	metricsServer := &http.Server{
		Addr: fmt.Sprintf(
			"%s:%d",
			cfg.BindAddr,
			cfg.MetricsPort,
		),
		ReadHeaderTimeout: 60 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil &&
			err != http.ErrServerClosed {
			logger.Error(
				fmt.Sprintf("failed to start metrics listener: %s", err),
				"component", "node",
			)
			os.Exit(1)
		}
	}()

	// Wait for interrupt/termination signal
	signalCtx, signalCtxStop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer signalCtxStop()

	// Run engine in goroutine
	errChan := make(chan error, 1)
	go func() {
		err := e.Run()
		select {
		case errChan <- err:
		case <-signalCtx.Done():
		}
	}()

	// Wait for signal or error
	select {
	case <-signalCtx.Done():
		logger.Info("signal received, initiating graceful shutdown")

		// Shutdown metrics server
		shutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			shutdownTimeout,
		)
		defer cancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics server shutdown error", "error", err)
		}

		// Shutdown engine
		if err := e.Stop(); err != nil {
			logger.Error("engine shutdown error", "error", err)
		}
		return nil
	case err := <-errChan:
		return err
	}
}

func buildParams(cfg *config.Config) (gov.Params, error) {
	params := gov.DefaultParams()
	if cfg.MinProposerWeight > 0 {
		params.MinProposerWeight = cfg.MinProposerWeight
	}
	if cfg.QuorumWeight > 0 {
		params.QuorumWeight = cfg.QuorumWeight
	}
	if cfg.ThresholdNum > 0 && cfg.ThresholdDenom > 0 {
		params.ThresholdNum = cfg.ThresholdNum
		params.ThresholdDenom = cfg.ThresholdDenom
	}
	if cfg.VotingDurationMin != "" {
		d, err := time.ParseDuration(cfg.VotingDurationMin)
		if err != nil {
			return params, fmt.Errorf("invalid voting duration minimum: %w", err)
		}
		params.VotingDurationMin = d
	}
	if cfg.VotingDurationMax != "" {
		d, err := time.ParseDuration(cfg.VotingDurationMax)
		if err != nil {
			return params, fmt.Errorf("invalid voting duration maximum: %w", err)
		}
		params.VotingDurationMax = d
	}
	if cfg.TimelockDelay != "" {
		d, err := time.ParseDuration(cfg.TimelockDelay)
		if err != nil {
			return params, fmt.Errorf("invalid timelock delay: %w", err)
		}
		params.TimelockDelay = d
	}
	return params, nil
}
