package push

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// pushTotal counts pipeline runs by category and outcome.
	pushTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "antigravity_push_total",
			Help: "Daily push pipeline runs by outcome",
		},
		[]string{"category", "outcome"},
	)
)

func init() {
	// Register metrics with the default registry
	prometheus.MustRegister(pushTotal)
}
