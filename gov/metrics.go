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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type stateMetrics struct {
	proposalsSubmitted prometheus.Counter
	votesCast          prometheus.Counter
	proposalsExecuted  prometheus.Counter
	executionFailures  prometheus.Counter
	proposalsCanceled  prometheus.Counter
	activeProposals    prometheus.Gauge
}

func (m *stateMetrics) init(promRegistry prometheus.Registerer) {
	promautoFactory := promauto.With(promRegistry)
	m.proposalsSubmitted = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "agora_governance_proposals_submitted_total",
		Help: "total number of proposals submitted",
	})
	m.votesCast = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "agora_governance_votes_cast_total",
		Help: "total number of votes cast",
	})
	m.proposalsExecuted = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "agora_governance_proposals_executed_total",
		Help: "total number of proposals executed",
	})
	m.executionFailures = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "agora_governance_execution_failures_total",
		Help: "total number of failed proposal execution attempts",
	})
	m.proposalsCanceled = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "agora_governance_proposals_canceled_total",
		Help: "total number of proposals canceled by the guardian",
	})
	m.activeProposals = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: "agora_governance_active_proposals",
		Help: "current number of proposals in the Active state",
	})
}
