package analyzer

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// requestsTotal counts provider call outcomes.
	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "antigravity_ai_requests_total",
			Help: "Total provider calls by outcome",
		},
		[]string{"provider", "outcome"},
	)

	// rateLimitedTotal counts pre-emptive local budget rejections.
	rateLimitedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "antigravity_ai_rate_limited_total",
			Help: "Requests rejected by the local per-provider budget",
		},
		[]string{"provider"},
	)

	// unavailableTotal counts Analyze calls where every provider was exhausted.
	unavailableTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "antigravity_ai_unavailable_total",
			Help: "Analyze calls that fell through to rule-based analysis",
		},
	)

	// callSeconds tracks successful call latency per provider.
	callSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "antigravity_ai_call_seconds",
			Help:    "Latency of successful provider calls",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)

	// failoverDepth tracks how many candidates were tried before success.
	failoverDepth = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "antigravity_ai_failover_depth",
			Help:    "Number of providers tried before a successful call",
			Buckets: []float64{1, 2, 3, 4, 5},
		},
	)
)

func init() {
	// Register metrics with the default registry
	prometheus.MustRegister(requestsTotal)
	prometheus.MustRegister(rateLimitedTotal)
	prometheus.MustRegister(unavailableTotal)
	prometheus.MustRegister(callSeconds)
	prometheus.MustRegister(failoverDepth)
}
