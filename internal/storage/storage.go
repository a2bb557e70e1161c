// Package storage mirrors tracked edges to external sinks. Mirrors are best
// effort: the tracker's file collections remain the source of truth.
package storage

import (
	"context"

	"github.com/synthlab/alphalog/internal/tracker"
)

// Mirror receives new edge records and their resolutions.
type Mirror interface {
	// InsertEdges stores newly recorded edges.
	InsertEdges(ctx context.Context, records []tracker.Record) error

	// UpdateResolution stores the outcome of a resolved edge.
	UpdateResolution(ctx context.Context, record tracker.Record) error

	// Close releases the mirror's resources.
	Close() error
}
