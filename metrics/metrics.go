// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Rejection reasons used as the "reason" label
const (
	ReasonAlreadyVoted       = "already_voted"
	ReasonPositionMismatch   = "position_mismatch"
	ReasonElectionNotFound   = "election_not_found"
	ReasonStorageUnavailable = "storage_unavailable"
)

// TallyMetrics are the counters for the vote pipeline. Each instance owns
// its registry so tests can build as many as they like.
type TallyMetrics struct {
	Registry *prometheus.Registry

	VotesRecorded  *prometheus.CounterVec
	VotesRejected  *prometheus.CounterVec
	RecordDuration *prometheus.HistogramVec
	Subscribers    prometheus.Gauge
}

func NewTallyMetrics(namespace string) *TallyMetrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &TallyMetrics{
		Registry: reg,
		VotesRecorded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "votes_recorded_total",
				Help:      "Total number of ballots counted",
			},
			[]string{"election_id"},
		),
		VotesRejected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "votes_rejected_total",
				Help:      "Total number of ballots not counted, by reason",
			},
			[]string{"election_id", "reason"},
		),
		RecordDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "record_duration_seconds",
				Help:      "Histogram of ballot recording times including persistence",
				Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12), // 0.5ms to ~1s
			},
			[]string{"election_id"},
		),
		Subscribers: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "subscribers",
				Help:      "Number of live change event subscriptions",
			},
		),
	}
}

// Handler serves this instance's registry in the Prometheus text format
func (m *TallyMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
