// Package trends replays stored snapshots and resolved edges into time series
// and rolling performance statistics.
package trends

import (
	"sort"
	"time"

	"github.com/synthlab/alphalog/internal/distribution"
	"github.com/synthlab/alphalog/internal/stats"
	"github.com/synthlab/alphalog/internal/synthindex"
	"github.com/synthlab/alphalog/pkg/types"
)

// Period describes the span of snapshots replayed.
type Period struct {
	Start        *time.Time `json:"start"`
	End          *time.Time `json:"end"`
	Snapshots    int        `json:"snapshots"`
	HoursCovered float64    `json:"hours_covered"`
}

// DistributionPoint is one snapshot's shape metrics for a key.
type DistributionPoint struct {
	Timestamp   time.Time           `json:"timestamp"`
	Bias        float64             `json:"bias"`
	Width       float64             `json:"width"`
	Skew        float64             `json:"skew"`
	TailFatness float64             `json:"tail_fatness"`
	UpperTail   float64             `json:"upper_tail"`
	LowerTail   float64             `json:"lower_tail"`
	Density     float64             `json:"density"`
	Regime      distribution.Regime `json:"regime"`
}

// IndexPoint is one snapshot's Synth-Index for a key.
type IndexPoint struct {
	Timestamp time.Time        `json:"timestamp"`
	Value     float64          `json:"value"`
	Level     synthindex.Level `json:"level"`
}

// History holds per-key time series in chronological order.
type History struct {
	Period       Period                         `json:"period"`
	SynthIndex   map[string][]IndexPoint        `json:"synth_index_history"`
	Distribution map[string][]DistributionPoint `json:"distribution_history"`
}

// Analyzer builds trend reports.
type Analyzer struct {
	dist *distribution.Analyzer
}

// New creates an Analyzer that replays snapshots through dist.
func New(dist *distribution.Analyzer) *Analyzer {
	return &Analyzer{dist: dist}
}

// ComputeHistory replays snapshots in timestamp order. Snapshots without a
// timestamp are ignored.
func (a *Analyzer) ComputeHistory(snapshots []*types.Snapshot) *History {
	ordered := make([]*types.Snapshot, 0, len(snapshots))
	for _, s := range snapshots {
		if s != nil && !s.Timestamp.IsZero() {
			ordered = append(ordered, s)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Timestamp.Before(ordered[j].Timestamp)
	})

	h := &History{
		Period:       Period{Snapshots: len(ordered)},
		SynthIndex:   make(map[string][]IndexPoint),
		Distribution: make(map[string][]DistributionPoint),
	}
	if len(ordered) == 0 {
		return h
	}

	for _, snap := range ordered {
		metrics := a.dist.AnalyzeSnapshot(snap)
		for key, m := range metrics {
			h.Distribution[key] = append(h.Distribution[key], DistributionPoint{
				Timestamp:   snap.Timestamp,
				Bias:        m.DirectionalBias,
				Width:       m.ForecastWidth,
				Skew:        m.TailAsymmetry,
				TailFatness: m.TailFatness,
				UpperTail:   m.UpperTailRisk,
				LowerTail:   m.LowerTailRisk,
				Density:     m.DensityConcentration,
				Regime:      m.Regime,
			})
		}
		for key, s := range synthindex.Compute(metrics) {
			h.SynthIndex[key] = append(h.SynthIndex[key], IndexPoint{
				Timestamp: snap.Timestamp,
				Value:     s.SynthIndex,
				Level:     s.Level,
			})
		}
	}

	start := ordered[0].Timestamp
	end := ordered[len(ordered)-1].Timestamp
	h.Period.Start = &start
	h.Period.End = &end
	h.Period.HoursCovered = stats.Round(end.Sub(start).Hours(), 1)
	return h
}
