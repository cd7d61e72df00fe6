// Copyright 2024 The Forgejo Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "starchart"

// Verification results used as label values
const (
	ResultVerified = "verified"
	ResultMismatch = "mismatch"
	ResultError    = "error"
)

// Metrics holds the counters updated by the verification and federation services
type Metrics struct {
	Registry prometheus.Gatherer

	ChallengesIssued   prometheus.Counter
	ChallengesReplayed prometheus.Counter
	ChallengesDeleted  prometheus.Counter
	Verifications      *prometheus.CounterVec
	ForgesCreated      prometheus.Counter
	ForgesDeleted      prometheus.Counter
	BundlesWritten     prometheus.Counter
}

// New registers the counters on a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	return NewWith(reg, reg)
}

// NewWith registers the counters on reg, gatherer is what WriteTextfile reads
func NewWith(reg prometheus.Registerer, gatherer prometheus.Gatherer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Registry: gatherer,
		ChallengesIssued: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "challenges_issued_total",
			Help:      "Number of DNS challenges minted",
		}),
		ChallengesReplayed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "challenges_replayed_total",
			Help:      "Number of challenge requests answered with an already stored challenge",
		}),
		ChallengesDeleted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "challenges_deleted_total",
			Help:      "Number of challenges removed after verification or abandon",
		}),
		Verifications: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verifications_total",
			Help:      "Number of TXT record checks by result",
		}, []string{"result"}),
		ForgesCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "forges_created_total",
			Help:      "Number of forge instances registered",
		}),
		ForgesDeleted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "forges_deleted_total",
			Help:      "Number of forge instances removed",
		}),
		BundlesWritten: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bundles_written_total",
			Help:      "Number of federation bundles produced",
		}),
	}
}

// WriteTextfile dumps the current values in the text exposition format,
// readable by the node exporter textfile collector
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.Registry)
}
