// Package metrics exposes prometheus collectors for the search pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	QueriesCompiled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websearch_queries_compiled_total",
			Help: "Total number of search patterns compiled into provider requests",
		},
		[]string{"provider"},
	)

	SearchRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websearch_requests_total",
			Help: "Total number of search requests by provider and outcome",
		},
		[]string{"provider", "status"},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websearch_cache_lookups_total",
			Help: "Result cache lookups by tier and outcome",
		},
		[]string{"tier", "result"},
	)

	SearchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "websearch_request_duration_seconds",
			Help:    "Duration of upstream search requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)

	SearchesInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websearch_requests_in_flight",
			Help: "Number of upstream search requests currently running",
		},
	)
)

// Outcome labels
const (
	StatusSuccess = "success"
	StatusError   = "error"

	TierMemory = "memory"
	TierRedis  = "redis"

	ResultHit  = "hit"
	ResultMiss = "miss"
)

// ObserveSearch records one finished upstream request
func ObserveSearch(provider string, started time.Time, err error) {
	status := StatusSuccess
	if err != nil {
		status = StatusError
	}
	SearchRequests.WithLabelValues(provider, status).Inc()
	SearchDuration.WithLabelValues(provider).Observe(time.Since(started).Seconds())
}

// ObserveCache records a cache lookup on the given tier
func ObserveCache(tier string, hit bool) {
	result := ResultMiss
	if hit {
		result = ResultHit
	}
	CacheLookups.WithLabelValues(tier, result).Inc()
}
