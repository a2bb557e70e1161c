package edge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/synthlab/alphalog/internal/distribution"
	"github.com/synthlab/alphalog/internal/testutil"
	"github.com/synthlab/alphalog/pkg/types"
	"go.uber.org/zap"
)

func neutralMetrics(asset string) *distribution.Metrics {
	return &distribution.Metrics{
		Asset:                asset,
		Horizon:              types.Horizon24h,
		ForecastWidth:        0.03,
		TailAsymmetry:        1.0,
		TailFatness:          1.8,
		UpperTailRisk:        0.3,
		LowerTailRisk:        0.3,
		DensityConcentration: 0.3,
		Regime:               distribution.RegimeNormal,
	}
}

func TestCheckProbability(t *testing.T) {
	tests := []struct {
		name       string
		synthUp    float64
		marketUp   float64
		wantOK     bool
		direction  Direction
		confidence Confidence
	}{
		{name: "wide-gap-up-is-high", synthUp: 0.70, marketUp: 0.55, wantOK: true, direction: DirectionUp, confidence: ConfidenceHigh},
		{name: "wide-gap-down-is-high", synthUp: 0.40, marketUp: 0.55, wantOK: true, direction: DirectionDown, confidence: ConfidenceHigh},
		{name: "moderate-gap-is-medium", synthUp: 0.63, marketUp: 0.55, wantOK: true, direction: DirectionUp, confidence: ConfidenceMedium},
		{name: "small-gap-ignored", synthUp: 0.58, marketUp: 0.55, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, ok := checkProbability("BTC", types.TimeframeDaily, tt.synthUp, tt.marketUp)
			require.Equal(t, tt.wantOK, ok)
			if !ok {
				return
			}
			assert.Equal(t, TypeProbabilityDivergence, e.Type)
			assert.Equal(t, tt.direction, e.Direction)
			assert.Equal(t, tt.confidence, e.Confidence)
			require.NotNil(t, e.SynthProbability)
			assert.InDelta(t, tt.synthUp, *e.SynthProbability, 1e-12)
			assert.InDelta(t, tt.marketUp, e.MarketProbability, 1e-12)
		})
	}
}

func TestCheckProbability_Description(t *testing.T) {
	e, ok := checkProbability("BTC", types.TimeframeDaily, 0.70, 0.55)
	require.True(t, ok)
	assert.Equal(t, "Synth prices BTC Up at 70.0% vs Polymarket 55.0% (daily, gap 15.0%)", e.Description)
	assert.InDelta(t, 0.15, e.Signal["gap"], 1e-9)
}

func TestCheckTailRisk(t *testing.T) {
	tests := []struct {
		name       string
		upper      float64
		lower      float64
		marketUp   float64
		wantOK     bool
		direction  Direction
		confidence Confidence
	}{
		{name: "fat-lower-tail-vs-confident-up", lower: 1.2, upper: 0.3, marketUp: 0.70, wantOK: true, direction: DirectionDownRisk, confidence: ConfidenceHigh},
		{name: "moderate-lower-tail-is-medium", lower: 0.6, upper: 0.3, marketUp: 0.70, wantOK: true, direction: DirectionDownRisk, confidence: ConfidenceMedium},
		{name: "fat-upper-tail-vs-confident-down", lower: 0.3, upper: 0.8, marketUp: 0.30, wantOK: true, direction: DirectionUpRisk, confidence: ConfidenceMedium},
		{name: "market-not-confident", lower: 1.2, upper: 0.3, marketUp: 0.50, wantOK: false},
		{name: "thin-tails", lower: 0.4, upper: 0.4, marketUp: 0.80, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := neutralMetrics("ETH")
			m.UpperTailRisk = tt.upper
			m.LowerTailRisk = tt.lower

			e, ok := checkTailRisk("ETH", types.TimeframeHourly, m, tt.marketUp)
			require.Equal(t, tt.wantOK, ok)
			if !ok {
				return
			}
			assert.Equal(t, tt.direction, e.Direction)
			assert.Equal(t, tt.confidence, e.Confidence)
			require.NotNil(t, e.ForecastWidth)
			assert.InDelta(t, 0.03, *e.ForecastWidth, 1e-12)
			assert.Nil(t, e.SynthProbability)
		})
	}
}

func TestCheckTailRisk_Description(t *testing.T) {
	m := neutralMetrics("ETH")
	m.LowerTailRisk = 1.2

	e, ok := checkTailRisk("ETH", types.TimeframeDaily, m, 0.70)
	require.True(t, ok)
	assert.Equal(t, "Synth sees significant down risk (tail=1.20) but Polymarket prices Up at 70.0%", e.Description)
}

func TestCheckUncertainty(t *testing.T) {
	tests := []struct {
		name       string
		density    float64
		marketUp   float64
		wantOK     bool
		direction  Direction
		confidence Confidence
	}{
		{name: "dispersed-vs-confident-up", density: 0.12, marketUp: 0.75, wantOK: true, direction: DirectionAgainstUp, confidence: ConfidenceHigh},
		{name: "dispersed-vs-confident-down", density: 0.18, marketUp: 0.25, wantOK: true, direction: DirectionAgainstDown, confidence: ConfidenceMedium},
		{name: "low-density-but-market-unsure", density: 0.12, marketUp: 0.55, wantOK: false},
		{name: "concentrated-distribution", density: 0.25, marketUp: 0.80, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := neutralMetrics("SOL")
			m.DensityConcentration = tt.density

			e, ok := checkUncertainty("SOL", types.TimeframeDaily, m, tt.marketUp)
			require.Equal(t, tt.wantOK, ok)
			if !ok {
				return
			}
			assert.Equal(t, tt.direction, e.Direction)
			assert.Equal(t, tt.confidence, e.Confidence)
		})
	}
}

func TestCheckSkew(t *testing.T) {
	tests := []struct {
		name       string
		asym       float64
		marketUp   float64
		wantOK     bool
		direction  Direction
		confidence Confidence
	}{
		{name: "bullish-skew-vs-down-market", asym: 2.2, marketUp: 0.40, wantOK: true, direction: DirectionSkewBullish, confidence: ConfidenceHigh},
		{name: "bearish-skew-vs-up-market-medium", asym: 0.3, marketUp: 0.60, wantOK: true, direction: DirectionSkewBearish, confidence: ConfidenceMedium},
		{name: "bearish-skew-vs-up-market-low", asym: 0.5, marketUp: 0.60, wantOK: true, direction: DirectionSkewBearish, confidence: ConfidenceLow},
		{name: "bullish-skew-agrees-with-market", asym: 2.2, marketUp: 0.60, wantOK: false},
		{name: "bearish-skew-at-even-market", asym: 0.5, marketUp: 0.50, wantOK: false},
		{name: "symmetric", asym: 1.1, marketUp: 0.30, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := neutralMetrics("SPY")
			m.TailAsymmetry = tt.asym

			e, ok := checkSkew("SPY", types.TimeframeDaily, m, tt.marketUp)
			require.Equal(t, tt.wantOK, ok)
			if !ok {
				return
			}
			assert.Equal(t, tt.direction, e.Direction)
			assert.Equal(t, tt.confidence, e.Confidence)
		})
	}
}

func TestDetect_SortsByConfidence(t *testing.T) {
	snap := &types.Snapshot{
		Assets: map[string]*types.AssetSnapshot{
			"BTC": {CurrentPrice: 100000, PolymarketDaily: testutil.CreateTestOdds(0.63, 0.55)},
			"ETH": {CurrentPrice: 3500, PolymarketDaily: testutil.CreateTestOdds(0.70, 0.55)},
		},
	}
	metrics := distribution.MetricsMap{
		"BTC_24h": neutralMetrics("BTC"),
		"ETH_24h": neutralMetrics("ETH"),
	}

	d := New(Config{Assets: []string{"BTC", "ETH"}, Logger: zap.NewNop()})
	edges := d.Detect(snap, metrics)

	require.Len(t, edges, 2)
	assert.Equal(t, "ETH", edges[0].Asset)
	assert.Equal(t, ConfidenceHigh, edges[0].Confidence)
	assert.Equal(t, "BTC", edges[1].Asset)
	assert.Equal(t, ConfidenceMedium, edges[1].Confidence)
}

func TestDetect_AllChecksCanFire(t *testing.T) {
	m := neutralMetrics("BTC")
	m.LowerTailRisk = 1.2
	m.DensityConcentration = 0.12
	m.TailAsymmetry = 0.3

	snap := &types.Snapshot{
		Assets: map[string]*types.AssetSnapshot{
			"BTC": {CurrentPrice: 100000, PolymarketDaily: testutil.CreateTestOdds(0.50, 0.75)},
		},
	}

	d := New(Config{Assets: []string{"BTC"}})
	edges := d.Detect(snap, distribution.MetricsMap{"BTC_24h": m})

	seen := make(map[Type]bool)
	for _, e := range edges {
		seen[e.Type] = true
	}
	assert.Len(t, edges, 4)
	assert.True(t, seen[TypeProbabilityDivergence])
	assert.True(t, seen[TypeTailRiskUnderpriced])
	assert.True(t, seen[TypeUncertaintyUnderpriced])
	assert.True(t, seen[TypeSkewMismatch])
}

func TestDetect_SkipsMissingData(t *testing.T) {
	snap := &types.Snapshot{
		Assets: map[string]*types.AssetSnapshot{
			"BTC": {CurrentPrice: 100000, PolymarketDaily: &types.MarketOdds{PolymarketProbabilityUp: testutil.Float64Ptr(0.9)}},
			"ETH": {CurrentPrice: 3500, PolymarketHourly: testutil.CreateTestOdds(0.80, 0.55)},
		},
	}

	d := New(Config{Assets: []string{"BTC", "ETH", "SOL"}})
	edges := d.Detect(snap, distribution.MetricsMap{})

	require.Len(t, edges, 1)
	assert.Equal(t, "ETH", edges[0].Asset)
	assert.Equal(t, types.TimeframeHourly, edges[0].Timeframe)
}

func TestDirectionSides(t *testing.T) {
	for _, d := range []Direction{DirectionUp, DirectionUpRisk, DirectionSkewBullish, DirectionAgainstDown} {
		assert.True(t, d.Bullish(), d)
		assert.False(t, d.Bearish(), d)
	}
	for _, d := range []Direction{DirectionDown, DirectionDownRisk, DirectionSkewBearish, DirectionAgainstUp} {
		assert.True(t, d.Bearish(), d)
		assert.False(t, d.Bullish(), d)
	}
}
