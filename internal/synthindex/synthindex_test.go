package synthindex

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synthlab/alphalog/internal/distribution"
)

func TestLevelFor(t *testing.T) {
	tests := []struct {
		score float64
		want  Level
	}{
		{score: 100, want: LevelExtreme},
		{score: 85, want: LevelExtreme},
		{score: 84.9, want: LevelElevated},
		{score: 70, want: LevelElevated},
		{score: 50, want: LevelAboveAverage},
		{score: 30, want: LevelBelowAverage},
		{score: 29.9, want: LevelCalm},
		{score: 0, want: LevelCalm},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, LevelFor(tt.score), "score %.1f", tt.score)
	}
}

func TestComputeSingle(t *testing.T) {
	tests := []struct {
		name      string
		metrics   *distribution.Metrics
		wantScore float64
		wantLevel Level
		wantWidth float64
		wantTail  float64
		wantSkew  float64
		wantConc  float64
	}{
		{
			name: "crypto-midrange",
			metrics: &distribution.Metrics{
				Asset: "BTC", Horizon: "24h",
				ForecastWidth: 0.05, TailFatness: 3.0, TailAsymmetry: 1.5, DensityConcentration: 0.4,
			},
			// width .5*40=20, tail .5*25=12.5, skew .25*20=5, conc .6*15=9
			wantScore: 46.5, wantLevel: LevelBelowAverage,
			wantWidth: 20, wantTail: 12.5, wantSkew: 5, wantConc: 9,
		},
		{
			name: "equity-saturated",
			metrics: &distribution.Metrics{
				Asset: "SPY", Horizon: "24h",
				ForecastWidth: 0.08, TailFatness: 6.0, TailAsymmetry: 3.5, DensityConcentration: 0,
			},
			wantScore: 100, wantLevel: LevelExtreme,
			wantWidth: 40, wantTail: 25, wantSkew: 20, wantConc: 15,
		},
		{
			name: "gold-calm",
			metrics: &distribution.Metrics{
				Asset: "XAU", Horizon: "24h",
				ForecastWidth: 0, TailFatness: 1.0, TailAsymmetry: 1.0, DensityConcentration: 1.0,
			},
			wantScore: 0, wantLevel: LevelCalm,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, ok := ComputeSingle(tt.metrics)
			require.True(t, ok)
			assert.InDelta(t, tt.wantScore, s.SynthIndex, 1e-9)
			assert.Equal(t, tt.wantLevel, s.Level)
			assert.InDelta(t, tt.wantWidth, s.Components.Width, 1e-9)
			assert.InDelta(t, tt.wantTail, s.Components.Tail, 1e-9)
			assert.InDelta(t, tt.wantSkew, s.Components.Skew, 1e-9)
			assert.InDelta(t, tt.wantConc, s.Components.Concentration, 1e-9)
		})
	}
}

func TestCompute_SkipsUnusableMetrics(t *testing.T) {
	metrics := distribution.MetricsMap{
		"BTC_24h": {Asset: "BTC", Horizon: "24h", ForecastWidth: 0.05, TailFatness: 2, TailAsymmetry: 1, DensityConcentration: 0.3},
		"ETH_24h": {Asset: "ETH", Horizon: "24h", ForecastWidth: math.NaN(), TailFatness: 2, TailAsymmetry: 1, DensityConcentration: 0.3},
		"SOL_24h": nil,
	}

	scores := Compute(metrics)

	assert.Len(t, scores, 1)
	assert.Contains(t, scores, "BTC_24h")
}
