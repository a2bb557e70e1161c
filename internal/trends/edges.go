package trends

import (
	"sort"
	"time"

	"github.com/goccy/go-json"
	"github.com/synthlab/alphalog/internal/stats"
	"github.com/synthlab/alphalog/internal/tracker"
)

// Edge performance settings.
const (
	MinResolvedEdges = 5
	RollingWindow    = 10
)

// RollingPoint is the hit rate of the window ending at Timestamp.
type RollingPoint struct {
	Timestamp *time.Time `json:"timestamp"`
	HitRate   float64    `json:"hit_rate_last_10"`
}

// CumulativePoint is the running P&L after the edge resolved at Timestamp.
type CumulativePoint struct {
	Timestamp  *time.Time `json:"timestamp"`
	Cumulative float64    `json:"cumulative"`
}

// Window is a run of RollingWindow consecutive resolved edges.
type Window struct {
	Start   *time.Time `json:"start"`
	End     *time.Time `json:"end"`
	HitRate float64    `json:"hit_rate"`
}

// GroupPerformance aggregates one slice of the resolved history.
type GroupPerformance struct {
	Correct int     `json:"correct"`
	Total   int     `json:"total"`
	N       int     `json:"n"`
	PnL     float64 `json:"pnl"`
	HitRate float64 `json:"hit_rate"`
}

// EdgePerformance summarizes resolved edges over time. With fewer than
// MinResolvedEdges only InsufficientData and TotalResolved are set.
type EdgePerformance struct {
	InsufficientData bool                         `json:"insufficient_data"`
	TotalResolved    int                          `json:"total_resolved"`
	HitRate          float64                      `json:"overall_hit_rate"`
	PnL              float64                      `json:"overall_pnl"`
	Sharpe           float64                      `json:"overall_sharpe"`
	Rolling          []RollingPoint               `json:"rolling_hit_rate,omitempty"`
	Cumulative       []CumulativePoint            `json:"cumulative_pnl,omitempty"`
	Best             *Window                      `json:"best_period,omitempty"`
	Worst            *Window                      `json:"worst_period,omitempty"`
	ByAsset          map[string]*GroupPerformance `json:"by_asset,omitempty"`
	ByEdgeType       map[string]*GroupPerformance `json:"by_edge_type,omitempty"`
	ByConfidence     map[string]*GroupPerformance `json:"by_confidence,omitempty"`
}

// MarshalJSON writes only the insufficient-data marker and count until
// MinResolvedEdges are resolved. After that every overall figure is written,
// including zeros.
func (p EdgePerformance) MarshalJSON() ([]byte, error) {
	if p.InsufficientData {
		return json.Marshal(struct {
			InsufficientData bool `json:"insufficient_data"`
			TotalResolved    int  `json:"total_resolved"`
		}{p.InsufficientData, p.TotalResolved})
	}
	type plain EdgePerformance
	return json.Marshal(plain(p))
}

// ComputeEdgePerformance orders records by resolution time and derives
// rolling, cumulative and grouped statistics. Records without P&L count
// toward hit rates but add nothing to P&L.
func ComputeEdgePerformance(resolved []tracker.Record) *EdgePerformance {
	total := len(resolved)
	if total < MinResolvedEdges {
		return &EdgePerformance{InsufficientData: true, TotalResolved: total}
	}

	records := make([]tracker.Record, total)
	copy(records, resolved)
	sort.SliceStable(records, func(i, j int) bool {
		return resolvedAt(&records[i]).Before(resolvedAt(&records[j]))
	})

	correct := 0
	pnls := make([]float64, 0, total)
	cumulative := make([]CumulativePoint, 0, total)
	var running float64
	for i := range records {
		r := &records[i]
		if r.Resolution == tracker.ResolutionCorrect {
			correct++
		}
		if r.PnL != nil {
			pnls = append(pnls, *r.PnL)
			running += *r.PnL
		}
		cumulative = append(cumulative, CumulativePoint{
			Timestamp:  r.ResolvedAt,
			Cumulative: stats.Round(running, 4),
		})
	}

	perf := &EdgePerformance{
		TotalResolved: total,
		HitRate:       stats.Round(float64(correct)/float64(total), 4),
		PnL:           stats.Round(running, 4),
		Sharpe:        stats.Round(stats.Sharpe(pnls), 4),
		Rolling:       make([]RollingPoint, 0),
		Cumulative:    cumulative,
		ByAsset:       groupPerformance(records, func(r *tracker.Record) string { return r.Asset }),
		ByEdgeType:    groupPerformance(records, func(r *tracker.Record) string { return string(r.EdgeType) }),
		ByConfidence:  groupPerformance(records, func(r *tracker.Record) string { return string(r.Confidence) }),
	}

	// Ties move best and worst to the most recent window.
	best, worst := 0.0, 1.0
	for end := RollingWindow - 1; end < total; end++ {
		chunk := records[end-RollingWindow+1 : end+1]
		hits := 0
		for i := range chunk {
			if chunk[i].Resolution == tracker.ResolutionCorrect {
				hits++
			}
		}
		hr := float64(hits) / RollingWindow
		perf.Rolling = append(perf.Rolling, RollingPoint{
			Timestamp: chunk[len(chunk)-1].ResolvedAt,
			HitRate:   stats.Round(hr, 4),
		})

		w := &Window{
			Start:   chunk[0].ResolvedAt,
			End:     chunk[len(chunk)-1].ResolvedAt,
			HitRate: stats.Round(hr, 4),
		}
		if hr >= best {
			best, perf.Best = hr, w
		}
		if hr <= worst {
			worst, perf.Worst = hr, w
		}
	}

	return perf
}

func resolvedAt(r *tracker.Record) time.Time {
	if r.ResolvedAt == nil {
		return time.Time{}
	}
	return *r.ResolvedAt
}

func groupPerformance(records []tracker.Record, key func(*tracker.Record) string) map[string]*GroupPerformance {
	out := make(map[string]*GroupPerformance)
	for i := range records {
		r := &records[i]
		k := key(r)
		if k == "" {
			k = "unknown"
		}
		g, ok := out[k]
		if !ok {
			g = &GroupPerformance{}
			out[k] = g
		}
		g.Total++
		if r.Resolution == tracker.ResolutionCorrect {
			g.Correct++
		}
		if r.PnL != nil {
			g.PnL += *r.PnL
		}
	}
	for _, g := range out {
		g.N = g.Total
		g.PnL = stats.Round(g.PnL, 4)
		g.HitRate = stats.Round(float64(g.Correct)/float64(g.Total), 4)
	}
	return out
}
