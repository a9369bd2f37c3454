package simulation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// replicatesTotal counts finished replicates by method and result
	replicatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trialsim_replicates_total",
		Help: "Total simulated replicates by method and result",
	}, []string{"method", "result"})

	// replicateDuration tracks the time to simulate and score one trial
	replicateDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "trialsim_replicate_duration_seconds",
		Help:    "Replicate duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
	}, []string{"method"})

	// runsInFlight is the number of driver runs in progress
	runsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "trialsim_runs_in_flight",
		Help: "Number of simulation runs in progress",
	})
)
