// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RankComputations counts rank lookups per view (overall, batch, ...).
	RankComputations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "leaderboard_rank_computations_total",
		Help: "Rank computations by view.",
	}, []string{"view"})

	// GatewayDuration observes student gateway calls.
	GatewayDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "leaderboard_gateway_duration_seconds",
		Help:    "Latency of student gateway calls.",
		Buckets: prometheus.DefBuckets,
	}, []string{"op", "backend", "outcome"})

	// CacheEvents counts cohort cache hits, misses and errors.
	CacheEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "leaderboard_cache_events_total",
		Help: "Cohort cache lookups by result.",
	}, []string{"result"})

	// PageErrors counts errors surfaced to users by kind.
	PageErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "leaderboard_page_errors_total",
		Help: "User-visible page errors by kind.",
	}, []string{"kind"})
)
