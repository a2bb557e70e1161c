package tracker

import (
	"context"
	"fmt"

	"github.com/synthlab/alphalog/internal/edge"
	"github.com/synthlab/alphalog/internal/stats"
	"github.com/synthlab/alphalog/pkg/types"
	"go.uber.org/zap"
)

// Resolve settles every open record whose deadline has passed against the
// snapshot's spot prices. It returns the number resolved and how many were
// correct.
func (t *Tracker) Resolve(ctx context.Context, snap *types.Snapshot) (int, int, error) {
	open, err := t.repo.Load(CollectionOpen)
	if err != nil {
		return 0, 0, fmt.Errorf("load open edges: %w", err)
	}
	if len(open) == 0 {
		return 0, 0, nil
	}

	now := t.now().UTC()
	stillOpen := make([]Record, 0, len(open))
	newlyResolved := make([]Record, 0)

	for _, rec := range open {
		if now.Before(rec.ResolutionDeadline) {
			stillOpen = append(stillOpen, rec)
			continue
		}

		var current *float64
		if asset := snap.Asset(rec.Asset); asset != nil && asset.CurrentPrice > 0 {
			price := asset.CurrentPrice
			current = &price
		}
		settle(&rec, current, rec.referencePrice())
		resolvedAt := now
		rec.Resolved = true
		rec.ResolvedAt = &resolvedAt
		newlyResolved = append(newlyResolved, rec)
	}

	if len(newlyResolved) == 0 {
		return 0, 0, nil
	}

	resolved, err := t.repo.Load(CollectionResolved)
	if err != nil {
		return 0, 0, fmt.Errorf("load resolved edges: %w", err)
	}
	newlyResolved = t.dropAlreadyResolved(resolved, newlyResolved)
	// Resolved history is written first so a failure in between leaves a
	// record open rather than lost. The next pass finds it in both
	// collections and only removes it from open.
	if len(newlyResolved) > 0 {
		resolved = append(resolved, newlyResolved...)
		if err := t.repo.Save(CollectionResolved, resolved); err != nil {
			return 0, 0, fmt.Errorf("save resolved edges: %w", err)
		}
	}
	if err := t.repo.Save(CollectionOpen, stillOpen); err != nil {
		return 0, 0, fmt.Errorf("save open edges: %w", err)
	}

	correct := 0
	for i := range newlyResolved {
		res := newlyResolved[i].Resolution
		if res == ResolutionCorrect {
			correct++
		}
		EdgesResolvedTotal.WithLabelValues(string(res)).Inc()

		if t.mirror != nil {
			if err := t.mirror.UpdateResolution(ctx, newlyResolved[i]); err != nil {
				t.mirrorFailed("update", err)
			}
		}
	}
	OpenEdges.Set(float64(len(stillOpen)))

	t.logger.Info("edges-resolved",
		zap.Int("resolved", len(newlyResolved)),
		zap.Int("correct", correct),
		zap.Int("still-open", len(stillOpen)))

	return len(newlyResolved), correct, nil
}

// settle fills the resolution fields of rec. Missing prices resolve to
// UNKNOWN with no P&L.
func settle(rec *Record, current, start *float64) {
	if current == nil || start == nil || *start <= 0 {
		rec.Resolution = ResolutionUnknown
		rec.ActualOutcome = OutcomeNoData
		rec.PnL = nil
		return
	}

	wentUp := *current > *start
	rec.ActualOutcome = OutcomeDown
	if wentUp {
		rec.ActualOutcome = OutcomeUp
	}
	price := *current
	rec.ActualPrice = &price

	var correct bool
	switch rec.EdgeType {
	case edge.TypeUncertaintyUnderpriced:
		correct = resolveUncertainty(rec.Direction, wentUp)
	case edge.TypeTailRiskUnderpriced:
		width := 0.0
		if rec.ForecastWidth != nil {
			width = *rec.ForecastWidth
		}
		correct = resolveTailRisk(rec.Direction, *current, *start, width)
	default:
		correct = resolveDirectional(rec.Direction, wentUp)
	}

	rec.Resolution = ResolutionIncorrect
	if correct {
		rec.Resolution = ResolutionCorrect
	}
	pnl := stats.Round(payout(rec.OurSideProbability, correct), 4)
	rec.PnL = &pnl
}

func resolveDirectional(d edge.Direction, wentUp bool) bool {
	switch {
	case d.Bullish():
		return wentUp
	case d.Bearish():
		return !wentUp
	}
	return false
}

// resolveUncertainty is correct when the side the market was confident in lost.
func resolveUncertainty(d edge.Direction, wentUp bool) bool {
	switch d {
	case edge.DirectionAgainstUp:
		return !wentUp
	case edge.DirectionAgainstDown:
		return wentUp
	}
	return false
}

// resolveTailRisk is correct when price moved more than half the forecast
// width in the flagged direction.
func resolveTailRisk(d edge.Direction, current, start, width float64) bool {
	move := (current - start) / start
	switch d {
	case edge.DirectionDownRisk:
		return move < -width/2
	case edge.DirectionUpRisk:
		return move > width/2
	}
	return false
}

// payout is the P&L of a $1 stake on our side at the market price.
func payout(ourSide *float64, correct bool) float64 {
	if !correct {
		return -1
	}
	if ourSide != nil && *ourSide > 0 {
		return 1 / *ourSide - 1
	}
	return 1
}

// dropAlreadyResolved filters out records whose ID is already in the
// resolved history.
func (t *Tracker) dropAlreadyResolved(history, candidates []Record) []Record {
	seen := make(map[string]struct{}, len(history))
	for i := range history {
		seen[history[i].ID] = struct{}{}
	}
	out := candidates[:0]
	for i := range candidates {
		if _, dup := seen[candidates[i].ID]; dup {
			t.logger.Warn("edge-already-resolved", zap.String("id", candidates[i].ID))
			continue
		}
		seen[candidates[i].ID] = struct{}{}
		out = append(out, candidates[i])
	}
	return out
}
