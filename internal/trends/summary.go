package trends

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/synthlab/alphalog/internal/stats"
)

// Trend labels a recent regression slope.
type Trend string

// Trend labels.
const (
	TrendBullishShift Trend = "BULLISH_SHIFT"
	TrendBearishShift Trend = "BEARISH_SHIFT"
	TrendExpanding    Trend = "EXPANDING"
	TrendCompressing  Trend = "COMPRESSING"
	TrendStable       Trend = "STABLE"
)

// Slope classification settings.
const (
	TrendWindow    = 12
	BiasThreshold  = 0.0001
	WidthThreshold = 0.0005
)

// SeriesStats summarizes the Synth-Index series of one key.
type SeriesStats struct {
	Mean           float64 `json:"mean"`
	Min            float64 `json:"min"`
	Max            float64 `json:"max"`
	Std            float64 `json:"std"`
	Current        float64 `json:"current"`
	PercentileRank int     `json:"percentile_rank"`
}

// TrendStats summarizes a metric and its recent direction.
type TrendStats struct {
	Mean  float64 `json:"mean"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Trend Trend   `json:"trend"`
}

// SkewStats summarizes tail asymmetry.
type SkewStats struct {
	Mean  float64 `json:"mean"`
	Flips int     `json:"flips"`
}

// AssetSummary is the full-period summary of one asset and horizon.
type AssetSummary struct {
	Asset           string            `json:"asset"`
	Horizon         string            `json:"horizon"`
	SynthIndex      *SeriesStats      `json:"synth_index,omitempty"`
	Bias            *TrendStats       `json:"bias,omitempty"`
	Width           *TrendStats       `json:"width,omitempty"`
	Skew            *SkewStats        `json:"skew,omitempty"`
	RegimeBreakdown map[string]string `json:"regime_breakdown,omitempty"`
}

// SummaryStats summarizes every key present in either series, sorted by key.
func SummaryStats(h *History) []AssetSummary {
	keys := make(map[string]struct{})
	for k := range h.SynthIndex {
		keys[k] = struct{}{}
	}
	for k := range h.Distribution {
		keys[k] = struct{}{}
	}
	sorted := make([]string, 0, len(keys))
	for k := range keys {
		sorted = append(sorted, k)
	}
	sort.Strings(sorted)

	summaries := make([]AssetSummary, 0, len(sorted))
	for _, key := range sorted {
		asset, horizon, _ := strings.Cut(key, "_")
		s := AssetSummary{Asset: asset, Horizon: horizon}

		if points := h.SynthIndex[key]; len(points) > 0 {
			values := make([]float64, len(points))
			for i, p := range points {
				values[i] = p.Value
			}
			s.SynthIndex = seriesStats(values)
		}
		if points := h.Distribution[key]; len(points) > 0 {
			summarizeDistribution(&s, points)
		}
		summaries = append(summaries, s)
	}
	return summaries
}

func seriesStats(values []float64) *SeriesStats {
	current := values[len(values)-1]
	lo, hi := stats.MinMax(values)
	return &SeriesStats{
		Mean:           stats.Round(stats.Mean(values), 1),
		Min:            stats.Round(lo, 1),
		Max:            stats.Round(hi, 1),
		Std:            stats.Round(stats.SampleStd(values), 1),
		Current:        stats.Round(current, 1),
		PercentileRank: int(math.RoundToEven(stats.PercentileRank(values, current))),
	}
}

func summarizeDistribution(s *AssetSummary, points []DistributionPoint) {
	n := len(points)
	bias := make([]float64, n)
	width := make([]float64, n)
	skew := make([]float64, n)
	regimes := make(map[string]int)
	for i, p := range points {
		bias[i] = p.Bias
		width[i] = p.Width
		skew[i] = p.Skew
		regimes[string(p.Regime)]++
	}

	biasTrend := ClassifyTrend(stats.LinearSlope(tail(bias, TrendWindow)), BiasThreshold, TrendBullishShift, TrendBearishShift)
	widthTrend := ClassifyTrend(stats.LinearSlope(tail(width, TrendWindow)), WidthThreshold, TrendExpanding, TrendCompressing)

	s.Bias = trendStats(bias, biasTrend)
	s.Width = trendStats(width, widthTrend)
	s.Skew = &SkewStats{
		Mean:  stats.Round(stats.Mean(skew), 4),
		Flips: CountSkewFlips(skew),
	}

	s.RegimeBreakdown = make(map[string]string, len(regimes))
	for r, count := range regimes {
		s.RegimeBreakdown[r] = fmt.Sprintf("%.0f%%", float64(count)/float64(n)*100)
	}
}

func trendStats(values []float64, trend Trend) *TrendStats {
	lo, hi := stats.MinMax(values)
	return &TrendStats{
		Mean:  stats.Round(stats.Mean(values), 6),
		Min:   stats.Round(lo, 6),
		Max:   stats.Round(hi, 6),
		Trend: trend,
	}
}

// ClassifyTrend labels a slope against a symmetric threshold.
func ClassifyTrend(slope, threshold float64, up, down Trend) Trend {
	switch {
	case slope > threshold:
		return up
	case slope < -threshold:
		return down
	}
	return TrendStable
}

// CountSkewFlips counts crossings of tail asymmetry through 1.0.
func CountSkewFlips(skew []float64) int {
	flips := 0
	for i := 1; i < len(skew); i++ {
		if (skew[i-1] < 1) != (skew[i] < 1) {
			flips++
		}
	}
	return flips
}

func tail(values []float64, n int) []float64 {
	if len(values) <= n {
		return values
	}
	return values[len(values)-n:]
}
