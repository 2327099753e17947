package pipeline

import "github.com/prometheus/client_golang/prometheus"

var (
	// interceptedTotal counts emitted envelopes by code and status. Codes
	// come from configuration, so cardinality stays bounded.
	interceptedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "graceful_errors_total",
			Help: "Errors translated into response envelopes.",
		},
		[]string{"code", "status"},
	)

	// rejectedTotal counts errors turned away by the predicate chain.
	rejectedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "graceful_rejected_total",
			Help: "Errors rejected by the predicate chain.",
		},
	)
)

func init() {
	prometheus.MustRegister(interceptedTotal, rejectedTotal)
}
