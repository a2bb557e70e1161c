// Package distribution extracts shape metrics from percentile forecasts.
package distribution

import (
	"github.com/synthlab/alphalog/internal/stats"
	"github.com/synthlab/alphalog/pkg/types"
)

// Metrics describes the shape of one asset's terminal forecast distribution.
type Metrics struct {
	Asset                string  `json:"asset"`
	Horizon              string  `json:"horizon"`
	CurrentPrice         float64 `json:"current_price"`
	MedianForecast       float64 `json:"median_forecast"`
	DirectionalBias      float64 `json:"directional_bias"`
	ForecastWidth        float64 `json:"forecast_width"`
	TailAsymmetry        float64 `json:"tail_asymmetry"`
	TailFatness          float64 `json:"tail_fatness"`
	UpperTailRisk        float64 `json:"upper_tail_risk"`
	LowerTailRisk        float64 `json:"lower_tail_risk"`
	DensityConcentration float64 `json:"density_concentration"`
	Regime               Regime  `json:"regime"`
}

// MetricsMap is keyed by Key(asset, horizon).
type MetricsMap map[string]*Metrics

// Key builds the "ASSET_horizon" key used across analyzers.
func Key(asset, horizon string) string {
	return asset + "_" + horizon
}

// Config controls which assets and horizons a snapshot walk covers.
type Config struct {
	Assets              []string
	Percentiles1hAssets []string
}

// Analyzer computes shape metrics for snapshots.
type Analyzer struct {
	assets     []string
	hourlyPcts map[string]bool
}

// New creates an Analyzer.
func New(cfg Config) *Analyzer {
	hourly := make(map[string]bool, len(cfg.Percentiles1hAssets))
	for _, a := range cfg.Percentiles1hAssets {
		hourly[a] = true
	}
	return &Analyzer{assets: cfg.Assets, hourlyPcts: hourly}
}

// AnalyzeSnapshot computes metrics for every configured asset and horizon that
// has usable data. Degenerate entries are omitted.
func (a *Analyzer) AnalyzeSnapshot(snap *types.Snapshot) MetricsMap {
	results := make(MetricsMap)
	for _, asset := range a.assets {
		data := snap.Asset(asset)
		if data == nil || data.CurrentPrice == 0 {
			continue
		}
		for _, horizon := range []string{types.Horizon1h, types.Horizon24h} {
			if horizon == types.Horizon1h && !a.hourlyPcts[asset] {
				continue
			}
			m, ok := AnalyzeAsset(data.Percentiles(horizon), asset, horizon, data.CurrentPrice)
			if ok {
				results[Key(asset, horizon)] = m
			}
		}
	}
	return results
}

// AnalyzeAsset computes metrics from the final timepoint of a forecast.
// It returns false when the data is missing or degenerate.
func AnalyzeAsset(forecast *types.PercentileForecast, asset, horizon string, spot float64) (*Metrics, bool) {
	if spot <= 0 {
		return nil, false
	}
	final, ok := forecast.Final()
	if !ok {
		return nil, false
	}
	p, ok := final.Prices()
	if !ok {
		return nil, false
	}

	spread := p[types.P95] - p[types.P05]
	lowerHalf := p[types.P50] - p[types.P05]
	upperHalf := p[types.P95] - p[types.P50]
	if spread <= 0 || lowerHalf <= 0 || upperHalf <= 0 {
		return nil, false
	}

	width := spread / spot
	fatness := (p[types.P995] - p[types.P005]) / spread
	density := (p[types.P65] - p[types.P35]) / spread

	return &Metrics{
		Asset:                asset,
		Horizon:              horizon,
		CurrentPrice:         spot,
		MedianForecast:       p[types.P50],
		DirectionalBias:      stats.Round((p[types.P50]-spot)/spot, 6),
		ForecastWidth:        stats.Round(width, 6),
		TailAsymmetry:        stats.Round(upperHalf/lowerHalf, 4),
		TailFatness:          stats.Round(fatness, 4),
		UpperTailRisk:        stats.Round((p[types.P995]-p[types.P95])/upperHalf, 4),
		LowerTailRisk:        stats.Round((p[types.P05]-p[types.P005])/lowerHalf, 4),
		DensityConcentration: stats.Round(density, 4),
		Regime:               ClassifyRegime(asset, width, fatness, density),
	}, true
}
