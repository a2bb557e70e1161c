package edge

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EdgesDetectedTotal tracks detected edges by type and confidence.
	EdgesDetectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alphalog_edges_detected_total",
			Help: "Total number of edges detected",
		},
		[]string{"edge_type", "confidence"},
	)
)
