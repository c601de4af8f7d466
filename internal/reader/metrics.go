package reader

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	readerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "qrfeed_reader_state",
			Help: "Current reader state (0=disabled, 1=starting, 2=enabled)",
		},
	)

	readerTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qrfeed_reader_transitions_total",
			Help: "Total number of reader state transitions",
		},
		[]string{"from", "to"},
	)

	detectionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "qrfeed_detections_total",
			Help: "Total number of distinct codes reported to subscribers",
		},
	)

	framesDepositedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "qrfeed_frames_deposited_total",
			Help: "Total number of frames handed to the decode worker",
		},
	)

	subscriberDropsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "qrfeed_subscriber_drops_total",
			Help: "Total number of detections dropped because a subscriber was full",
		},
	)

	subscribersActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "qrfeed_subscribers_active",
			Help: "Number of active detection subscribers",
		},
	)
)
