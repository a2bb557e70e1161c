// Package synthindex scores forecast uncertainty on a 0-100 scale.
package synthindex

import (
	"math"

	"github.com/synthlab/alphalog/internal/distribution"
	"github.com/synthlab/alphalog/internal/stats"
)

// Level labels a score band.
type Level string

// Levels, highest first.
const (
	LevelExtreme      Level = "EXTREME"
	LevelElevated     Level = "ELEVATED"
	LevelAboveAverage Level = "ABOVE_AVERAGE"
	LevelBelowAverage Level = "BELOW_AVERAGE"
	LevelCalm         Level = "CALM"
)

// Component weights.
const (
	WeightWidth         = 0.40
	WeightTail          = 0.25
	WeightSkew          = 0.20
	WeightConcentration = 0.15
)

type levelThreshold struct {
	min   float64
	level Level
}

//nolint:gochecknoglobals // static threshold table
var levels = []levelThreshold{
	{85, LevelExtreme},
	{70, LevelElevated},
	{50, LevelAboveAverage},
	{30, LevelBelowAverage},
	{0, LevelCalm},
}

//nolint:gochecknoglobals // static bounds table
var widthMax = map[distribution.AssetClass]float64{
	distribution.ClassCrypto: 0.10,
	distribution.ClassEquity: 0.05,
	distribution.ClassGold:   0.06,
}

// Components is each metric's contribution to the score, in points.
type Components struct {
	Width         float64 `json:"width_contribution"`
	Tail          float64 `json:"tail_contribution"`
	Skew          float64 `json:"skew_contribution"`
	Concentration float64 `json:"concentration_contribution"`
}

// Score is the Synth-Index for one asset and horizon.
type Score struct {
	Asset      string     `json:"asset"`
	Horizon    string     `json:"horizon"`
	SynthIndex float64    `json:"synth_index"`
	Level      Level      `json:"level"`
	Components Components `json:"components"`
}

// LevelFor maps a score to its band.
func LevelFor(score float64) Level {
	for _, l := range levels {
		if score >= l.min {
			return l.level
		}
	}
	return LevelCalm
}

// Compute scores every entry of a metrics map. Entries with unusable inputs are omitted.
func Compute(metrics distribution.MetricsMap) map[string]*Score {
	results := make(map[string]*Score, len(metrics))
	for key, m := range metrics {
		if s, ok := ComputeSingle(m); ok {
			results[key] = s
		}
	}
	return results
}

// ComputeSingle scores one metrics entry.
func ComputeSingle(m *distribution.Metrics) (*Score, bool) {
	if m == nil || !stats.Finite(m.ForecastWidth, m.TailFatness, m.TailAsymmetry, m.DensityConcentration) {
		return nil, false
	}

	width := normalize(m.ForecastWidth, 0, widthMax[distribution.ClassOf(m.Asset)])
	tail := normalize(m.TailFatness, 1.0, 5.0)
	skew := normalize(math.Abs(m.TailAsymmetry-1.0), 0, 2.0)
	invDensity := normalize(1.0-m.DensityConcentration, 0, 1.0)

	raw := (width*WeightWidth + tail*WeightTail + skew*WeightSkew + invDensity*WeightConcentration) * 100
	score := stats.Round(stats.Clamp(raw, 0, 100), 1)

	return &Score{
		Asset:      m.Asset,
		Horizon:    m.Horizon,
		SynthIndex: score,
		Level:      LevelFor(score),
		Components: Components{
			Width:         stats.Round(width*WeightWidth*100, 1),
			Tail:          stats.Round(tail*WeightTail*100, 1),
			Skew:          stats.Round(skew*WeightSkew*100, 1),
			Concentration: stats.Round(invDensity*WeightConcentration*100, 1),
		},
	}, true
}

func normalize(value, lo, hi float64) float64 {
	if hi <= lo {
		return 0
	}
	return stats.Clamp((value-lo)/(hi-lo), 0, 1)
}
