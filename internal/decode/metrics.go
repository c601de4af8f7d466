package decode

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	decodeAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qrfeed_decode_attempts_total",
			Help: "Total number of decode attempts",
		},
		[]string{"outcome"}, // outcome: found, empty, error, panic, stale
	)

	decodeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "qrfeed_decode_duration_seconds",
			Help:    "Time spent in the decoder per frame",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
	)

	decodeIdleIterations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "qrfeed_decode_idle_iterations_total",
			Help: "Loop iterations that found no frame or were paused",
		},
	)
)
