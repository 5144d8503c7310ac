// Copyright 2025 Certen Protocol
//
// Prometheus metrics for block processing, state-transition validation, and
// the query API

package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every Prometheus collector this node exports. Construct one
// per process with NewMetrics and register its handler at /metrics.
type Metrics struct {
	BlocksProcessed       prometheus.Counter
	StateTransitionsTotal *prometheus.CounterVec
	StateTransitionErrors *prometheus.CounterVec
	BlockProcessingTime   prometheus.Histogram
	CurrentBlockHeight    prometheus.Gauge
	VoteTalliesRecorded   prometheus.Counter
	ProtocolVersionActive prometheus.Gauge
	QueryRequestDuration  *prometheus.HistogramVec
	QueryRequestErrors    *prometheus.CounterVec
}

// NewMetrics registers every collector against registry and returns the
// bundle. Pass prometheus.NewRegistry() for isolated tests, or
// prometheus.DefaultRegisterer for the process-wide singleton.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)

	return &Metrics{
		BlocksProcessed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "platform",
			Name:      "blocks_processed_total",
			Help:      "Total number of blocks processed by the block driver.",
		}),
		StateTransitionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "platform",
			Name:      "state_transitions_total",
			Help:      "Total number of state transitions executed, by type.",
		}, []string{"type"}),
		StateTransitionErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "platform",
			Name:      "state_transition_errors_total",
			Help:      "Total number of state transitions rejected, by type and reason code.",
		}, []string{"type", "reason"}),
		BlockProcessingTime: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "platform",
			Name:      "block_processing_seconds",
			Help:      "Time spent executing a block's state transitions.",
			Buckets:   prometheus.DefBuckets,
		}),
		CurrentBlockHeight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "platform",
			Name:      "current_block_height",
			Help:      "Height of the last committed block.",
		}),
		VoteTalliesRecorded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "platform",
			Name:      "vote_tallies_recorded_total",
			Help:      "Total number of vote-poll choice weight updates recorded.",
		}),
		ProtocolVersionActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "platform",
			Name:      "protocol_version_active",
			Help:      "The currently active protocol version.",
		}),
		QueryRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "platform",
			Name:      "query_request_duration_seconds",
			Help:      "Duration of query API requests, by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		QueryRequestErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "platform",
			Name:      "query_request_errors_total",
			Help:      "Total number of query API requests that returned an error, by route and status.",
		}, []string{"route", "status"}),
	}
}

// Handler returns the /metrics HTTP handler for this registry.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
