package collector

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CollectionDurationSeconds tracks how long a snapshot takes to collect.
	CollectionDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "alphalog_collection_duration_seconds",
		Help:    "Duration of snapshot collection",
		Buckets: prometheus.DefBuckets,
	})

	// CollectionErrorsTotal tracks endpoint and cycle errors during collection.
	CollectionErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "alphalog_collection_errors_total",
		Help: "Total number of errors recorded while collecting snapshots",
	})

	// CyclesTotal tracks pipeline cycles by outcome.
	CyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alphalog_cycles_total",
			Help: "Total number of collection cycles",
		},
		[]string{"result"},
	)

	// CycleDurationSeconds tracks full pipeline cycle latency.
	CycleDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "alphalog_cycle_duration_seconds",
		Help:    "Duration of a full collect, analyze and track cycle",
		Buckets: prometheus.DefBuckets,
	})

	// LastSnapshotTimestamp is the unix time of the last saved snapshot.
	LastSnapshotTimestamp = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "alphalog_last_snapshot_timestamp_seconds",
		Help: "Unix timestamp of the last saved snapshot",
	})
)
