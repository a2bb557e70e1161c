// Package tracker records detected edges, resolves them once their market
// deadline passes and aggregates hit-rate and P&L statistics.
package tracker

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/synthlab/alphalog/internal/edge"
	"github.com/synthlab/alphalog/internal/stats"
	"github.com/synthlab/alphalog/pkg/types"
	"go.uber.org/zap"
)

// DefaultResolvedLimit is the page size for ResolvedEdges.
const DefaultResolvedLimit = 50

// dailyCloseHourUTC is 17:00 ET.
const dailyCloseHourUTC = 22

// Mirror receives a best-effort copy of record lifecycle events.
type Mirror interface {
	InsertEdges(ctx context.Context, records []Record) error
	UpdateResolution(ctx context.Context, record Record) error
}

// Config holds tracker configuration.
type Config struct {
	Repository Repository
	Mirror     Mirror
	Logger     *zap.Logger
	Now        func() time.Time
}

// Tracker owns the open and resolved collections. It assumes a single writer.
type Tracker struct {
	repo   Repository
	mirror Mirror
	logger *zap.Logger
	now    func() time.Time
}

// New creates a new tracker.
func New(cfg Config) *Tracker {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := cfg.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Tracker{
		repo:   cfg.Repository,
		mirror: cfg.Mirror,
		logger: logger,
		now:    now,
	}
}

// Record appends one open record per edge. Edges whose deadline cannot be
// determined are skipped.
func (t *Tracker) Record(ctx context.Context, edges []edge.Edge, snap *types.Snapshot) (int, error) {
	if len(edges) == 0 {
		return 0, nil
	}

	open, err := t.repo.Load(CollectionOpen)
	if err != nil {
		return 0, fmt.Errorf("load open edges: %w", err)
	}

	detectedAt := t.now()
	if snap != nil && !snap.Timestamp.IsZero() {
		detectedAt = snap.Timestamp.UTC()
	}

	recorded := make([]Record, 0, len(edges))
	for i := range edges {
		e := &edges[i]
		asset := snap.Asset(e.Asset)
		odds := asset.Odds(e.Timeframe)

		deadline, ok := t.deadline(e.Timeframe, odds, detectedAt)
		if !ok {
			t.logger.Warn("edge-deadline-unknown",
				zap.String("asset", e.Asset),
				zap.String("timeframe", e.Timeframe))
			continue
		}

		marketUp := e.MarketProbability
		rec := Record{
			ID:                    uuid.New().String(),
			DetectedAt:            detectedAt,
			Asset:                 e.Asset,
			EdgeType:              e.Type,
			Timeframe:             e.Timeframe,
			Direction:             e.Direction,
			Confidence:            e.Confidence,
			SynthProbability:      e.SynthProbability,
			PolymarketProbability: &marketUp,
			OurSideProbability:    ourSideProbability(e.Direction, marketUp),
			ForecastWidth:         e.ForecastWidth,
			ResolutionDeadline:    deadline,
		}
		if e.SynthProbability != nil {
			size := stats.Round(math.Abs(*e.SynthProbability-marketUp), 4)
			rec.EdgeSize = &size
		}
		if asset != nil && asset.CurrentPrice > 0 {
			price := asset.CurrentPrice
			rec.CurrentPrice = &price
		}
		if odds != nil {
			rec.StartPrice = odds.StartPrice
		}
		recorded = append(recorded, rec)
	}

	if len(recorded) == 0 {
		return 0, nil
	}

	open = append(open, recorded...)
	if err := t.repo.Save(CollectionOpen, open); err != nil {
		return 0, fmt.Errorf("save open edges: %w", err)
	}

	EdgesRecordedTotal.Add(float64(len(recorded)))
	OpenEdges.Set(float64(len(open)))
	t.logger.Info("edges-recorded",
		zap.Int("count", len(recorded)),
		zap.Int("open", len(open)))

	if t.mirror != nil {
		if err := t.mirror.InsertEdges(ctx, recorded); err != nil {
			t.mirrorFailed("insert", err)
		}
	}

	return len(recorded), nil
}

// deadline prefers the market's event end time and falls back to a
// timeframe estimate.
func (t *Tracker) deadline(timeframe string, odds *types.MarketOdds, detectedAt time.Time) (time.Time, bool) {
	if odds != nil && odds.EventEndTime != "" {
		end, err := time.Parse(time.RFC3339Nano, odds.EventEndTime)
		if err == nil {
			return end.UTC(), true
		}
		t.logger.Warn("event-end-time-invalid",
			zap.String("event-end-time", odds.EventEndTime),
			zap.Error(err))
	}
	return EstimateDeadline(timeframe, detectedAt)
}

// EstimateDeadline derives a resolution deadline from the contract timeframe:
// daily contracts close at 22:00 UTC (the next day once past it), hourly
// after one hour and 15-minute contracts after fifteen minutes.
func EstimateDeadline(timeframe string, from time.Time) (time.Time, bool) {
	from = from.UTC()
	switch timeframe {
	case types.TimeframeDaily:
		eod := time.Date(from.Year(), from.Month(), from.Day(), dailyCloseHourUTC, 0, 0, 0, time.UTC)
		if from.Hour() >= dailyCloseHourUTC {
			eod = eod.AddDate(0, 0, 1)
		}
		return eod, true
	case types.TimeframeHourly:
		return from.Add(time.Hour), true
	case types.Timeframe15Min:
		return from.Add(15 * time.Minute), true
	}
	return time.Time{}, false
}

// ourSideProbability is the market price of the side the edge bets on.
func ourSideProbability(d edge.Direction, marketUp float64) *float64 {
	p := marketUp
	if d.Bearish() {
		p = 1 - marketUp
	}
	return &p
}

func (t *Tracker) mirrorFailed(op string, err error) {
	MirrorFailuresTotal.WithLabelValues(op).Inc()
	t.logger.Warn("mirror-write-failed",
		zap.String("operation", op),
		zap.Error(err))
}

// OpenEdges returns every unresolved record.
func (t *Tracker) OpenEdges() ([]Record, error) {
	open, err := t.repo.Load(CollectionOpen)
	if err != nil {
		return nil, fmt.Errorf("load open edges: %w", err)
	}
	return open, nil
}

// ResolvedEdges returns the most recent resolved records, oldest first.
// A non-positive limit uses DefaultResolvedLimit.
func (t *Tracker) ResolvedEdges(limit int) ([]Record, error) {
	if limit <= 0 {
		limit = DefaultResolvedLimit
	}
	resolved, err := t.repo.Load(CollectionResolved)
	if err != nil {
		return nil, fmt.Errorf("load resolved edges: %w", err)
	}
	if len(resolved) > limit {
		resolved = resolved[len(resolved)-limit:]
	}
	return resolved, nil
}

// ResolvedHistory returns every resolved record, oldest first.
func (t *Tracker) ResolvedHistory() ([]Record, error) {
	resolved, err := t.repo.Load(CollectionResolved)
	if err != nil {
		return nil, fmt.Errorf("load resolved edges: %w", err)
	}
	return resolved, nil
}
