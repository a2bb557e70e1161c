package tracker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EdgesRecordedTotal tracks edges added to the open collection.
	EdgesRecordedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "alphalog_edges_recorded_total",
		Help: "Total number of edges recorded for tracking",
	})

	// EdgesResolvedTotal tracks resolved edges by outcome.
	EdgesResolvedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alphalog_edges_resolved_total",
			Help: "Total number of tracked edges resolved",
		},
		[]string{"resolution"},
	)

	// OpenEdges tracks the size of the open collection.
	OpenEdges = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "alphalog_edges_open",
		Help: "Number of tracked edges awaiting resolution",
	})

	// MirrorFailuresTotal tracks best-effort mirror writes that failed.
	MirrorFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alphalog_edge_mirror_failures_total",
			Help: "Total number of failed edge mirror writes",
		},
		[]string{"operation"},
	)
)
