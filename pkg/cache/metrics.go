package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	CacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "alphalog_cache_hits_total",
		Help: "Total number of forecast cache hits",
	})

	CacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "alphalog_cache_misses_total",
		Help: "Total number of forecast cache misses",
	})

	CacheSetsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "alphalog_cache_sets_total",
		Help: "Total number of forecast cache sets",
	})

	CacheRejectedSetsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "alphalog_cache_rejected_sets_total",
		Help: "Total number of cache sets dropped by admission policy",
	})

	CacheDeletesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "alphalog_cache_deletes_total",
		Help: "Total number of forecast cache deletes",
	})

	CacheOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "alphalog_cache_operation_duration_seconds",
			Help:    "Duration of cache operations",
			Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005},
		},
		[]string{"operation"},
	)
)
