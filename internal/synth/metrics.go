package synth

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDurationSeconds tracks upstream request latency by path and status.
	RequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "alphalog_synth_request_duration_seconds",
			Help:    "Duration of Synth API requests",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"path", "status"},
	)

	// RetriesTotal tracks retried Synth API requests.
	RetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alphalog_synth_retries_total",
			Help: "Total number of retried Synth API requests",
		},
		[]string{"path"},
	)

	// CachedSourceRequestsTotal tracks cached forecast lookups by result.
	CachedSourceRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alphalog_forecast_cache_requests_total",
			Help: "Total number of cached forecast lookups",
		},
		[]string{"result"},
	)
)
