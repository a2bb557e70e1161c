package testutil

import (
	"time"

	"github.com/synthlab/alphalog/pkg/types"
)

// CreateTestTimepoint builds a timepoint from nine prices in level order.
func CreateTestTimepoint(prices [types.NumLevels]float64) types.Timepoint {
	tp := make(types.Timepoint, types.NumLevels)
	for i, key := range types.PercentileKeys {
		tp[key] = prices[i]
	}
	return tp
}

// CreateTestForecast builds a forecast whose every timepoint is the same nine prices.
func CreateTestForecast(spot float64, steps int, prices [types.NumLevels]float64) *types.PercentileForecast {
	if steps < 1 {
		steps = 1
	}
	tps := make([]types.Timepoint, steps)
	for i := range tps {
		tps[i] = CreateTestTimepoint(prices)
	}
	return &types.PercentileForecast{
		CurrentPrice:   spot,
		ForecastFuture: types.ForecastFuture{Percentiles: tps},
	}
}

// CreateFanForecast builds a forecast that widens linearly from spot to the
// final prices over the given number of steps.
func CreateFanForecast(spot float64, steps int, final [types.NumLevels]float64) *types.PercentileForecast {
	if steps < 2 {
		return CreateTestForecast(spot, 1, final)
	}
	tps := make([]types.Timepoint, steps)
	for i := range tps {
		frac := float64(i) / float64(steps-1)
		var p [types.NumLevels]float64
		for j := range p {
			p[j] = spot + (final[j]-spot)*frac
		}
		tps[i] = CreateTestTimepoint(p)
	}
	return &types.PercentileForecast{
		CurrentPrice:   spot,
		ForecastFuture: types.ForecastFuture{Percentiles: tps},
	}
}

// BTCPrices is a well-formed, slightly bullish 24h BTC distribution around 100000.
//
//nolint:gochecknoglobals // shared fixture
var BTCPrices = [types.NumLevels]float64{94000, 97000, 98800, 99700, 100300, 100900, 101800, 103600, 107000}

// ScalePrices rescales a price set from its own median to a new spot.
func ScalePrices(prices [types.NumLevels]float64, spot float64) [types.NumLevels]float64 {
	var out [types.NumLevels]float64
	ratio := spot / prices[types.P50]
	for i, p := range prices {
		out[i] = p * ratio
	}
	return out
}

// Float64Ptr returns a pointer to v.
func Float64Ptr(v float64) *float64 {
	return &v
}

// CreateTestOdds builds market odds for one timeframe.
func CreateTestOdds(synthUp, marketUp float64) *types.MarketOdds {
	return &types.MarketOdds{
		SynthProbabilityUp:      Float64Ptr(synthUp),
		PolymarketProbabilityUp: Float64Ptr(marketUp),
	}
}

// CreateTestSnapshot builds a snapshot with one 24h forecast per asset.
func CreateTestSnapshot(ts time.Time, prices map[string][types.NumLevels]float64, spots map[string]float64) *types.Snapshot {
	snap := &types.Snapshot{
		Timestamp: ts,
		Assets:    make(map[string]*types.AssetSnapshot, len(prices)),
	}
	for asset, p := range prices {
		spot := spots[asset]
		snap.Assets[asset] = &types.AssetSnapshot{
			CurrentPrice:   spot,
			Percentiles24h: CreateTestForecast(spot, 3, p),
		}
	}
	return snap
}
