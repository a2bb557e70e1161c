package tracker

import (
	"fmt"

	"github.com/synthlab/alphalog/internal/stats"
)

// GroupStats aggregates one slice of the resolved history.
type GroupStats struct {
	Total     int     `json:"total"`
	Correct   int     `json:"correct"`
	Incorrect int     `json:"incorrect"`
	Unknown   int     `json:"unknown"`
	HitRate   float64 `json:"hit_rate"`
	TotalPnL  float64 `json:"total_pnl"`
	AvgPnL    float64 `json:"avg_pnl"`
}

// Stats is recomputed from the full resolved history on every call.
// Correct, Incorrect and Unknown partition TotalResolved: UNKNOWN records are
// not counted as incorrect, so Incorrect can be less than TotalResolved minus
// Correct. HitRate still divides by every resolved record.
type Stats struct {
	TotalDetected int     `json:"total_edges_detected"`
	TotalResolved int     `json:"total_resolved"`
	TotalOpen     int     `json:"total_open"`
	Correct       int     `json:"correct"`
	Incorrect     int     `json:"incorrect"`
	Unknown       int     `json:"unknown"`
	HitRate       float64 `json:"hit_rate"`
	TotalPnL      float64 `json:"total_pnl"`
	AvgPnL        float64 `json:"avg_pnl_per_edge"`
	SharpeRatio   float64 `json:"sharpe_ratio"`

	ByAsset      map[string]*GroupStats `json:"by_asset"`
	ByEdgeType   map[string]*GroupStats `json:"by_edge_type"`
	ByConfidence map[string]*GroupStats `json:"by_confidence"`
}

// Stats computes cumulative performance across every resolved record.
func (t *Tracker) Stats() (*Stats, error) {
	resolved, err := t.repo.Load(CollectionResolved)
	if err != nil {
		return nil, fmt.Errorf("load resolved edges: %w", err)
	}
	open, err := t.repo.Load(CollectionOpen)
	if err != nil {
		return nil, fmt.Errorf("load open edges: %w", err)
	}
	return ComputeStats(resolved, len(open)), nil
}

// ComputeStats aggregates resolved records. Hit rate is correct over all
// resolved records; P&L figures cover only records that carry a P&L.
func ComputeStats(resolved []Record, openCount int) *Stats {
	overall := aggregate(resolved)
	s := &Stats{
		TotalDetected: len(resolved) + openCount,
		TotalResolved: len(resolved),
		TotalOpen:     openCount,
		Correct:       overall.Correct,
		Incorrect:     overall.Incorrect,
		Unknown:       overall.Unknown,
		HitRate:       overall.HitRate,
		TotalPnL:      overall.TotalPnL,
		AvgPnL:        overall.AvgPnL,
		SharpeRatio:   stats.Round(stats.Sharpe(pnls(resolved)), 4),
		ByAsset:       groupBy(resolved, func(r *Record) string { return r.Asset }),
		ByEdgeType:    groupBy(resolved, func(r *Record) string { return string(r.EdgeType) }),
		ByConfidence:  groupBy(resolved, func(r *Record) string { return string(r.Confidence) }),
	}
	return s
}

func pnls(records []Record) []float64 {
	out := make([]float64, 0, len(records))
	for i := range records {
		if records[i].PnL != nil {
			out = append(out, *records[i].PnL)
		}
	}
	return out
}

func aggregate(records []Record) *GroupStats {
	g := &GroupStats{Total: len(records)}
	for i := range records {
		switch records[i].Resolution {
		case ResolutionCorrect:
			g.Correct++
		case ResolutionIncorrect:
			g.Incorrect++
		default:
			g.Unknown++
		}
	}
	p := pnls(records)
	var total float64
	for _, v := range p {
		total += v
	}
	if g.Total > 0 {
		g.HitRate = stats.Round(float64(g.Correct)/float64(g.Total), 4)
	}
	g.TotalPnL = stats.Round(total, 4)
	if len(p) > 0 {
		g.AvgPnL = stats.Round(total/float64(len(p)), 4)
	}
	return g
}

func groupBy(records []Record, key func(*Record) string) map[string]*GroupStats {
	buckets := make(map[string][]Record)
	for i := range records {
		k := key(&records[i])
		if k == "" {
			k = "unknown"
		}
		buckets[k] = append(buckets[k], records[i])
	}
	out := make(map[string]*GroupStats, len(buckets))
	for k, recs := range buckets {
		out[k] = aggregate(recs)
	}
	return out
}
