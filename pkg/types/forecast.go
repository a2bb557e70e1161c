package types

import "sort"

// Horizons published by the forecast provider.
const (
	Horizon1h  = "1h"
	Horizon24h = "24h"
)

// NumLevels is the number of cumulative-probability levels in every timepoint.
const NumLevels = 9

// PercentileLevels are the cumulative probabilities the provider publishes, ascending.
//
//nolint:gochecknoglobals // fixed wire contract
var PercentileLevels = [NumLevels]float64{0.005, 0.05, 0.2, 0.35, 0.5, 0.65, 0.8, 0.95, 0.995}

// PercentileKeys are the string keys used for PercentileLevels in API responses.
//
//nolint:gochecknoglobals // fixed wire contract
var PercentileKeys = [NumLevels]string{"0.005", "0.05", "0.2", "0.35", "0.5", "0.65", "0.8", "0.95", "0.995"}

// Indexes into Prices for the levels the analyzers reference by name.
const (
	P005 = iota
	P05
	P20
	P35
	P50
	P65
	P80
	P95
	P995
)

// HorizonSeconds maps a horizon label to its duration in seconds.
func HorizonSeconds(horizon string) (int, bool) {
	switch horizon {
	case Horizon1h:
		return 3600, true
	case Horizon24h:
		return 86400, true
	}
	return 0, false
}

// Timepoint is one raw forecast step: percentile key -> predicted price.
type Timepoint map[string]float64

// Prices is a timepoint normalized to PercentileLevels order.
type Prices [NumLevels]float64

// Prices extracts the nine level prices. Returns false if any level is missing.
func (t Timepoint) Prices() (Prices, bool) {
	var p Prices
	for i, key := range PercentileKeys {
		v, ok := t[key]
		if !ok {
			return p, false
		}
		p[i] = v
	}
	return p, true
}

// PricePoint pairs a predicted price with its cumulative probability.
type PricePoint struct {
	Price float64
	Level float64
}

// SortedByPrice returns (price, level) pairs ordered by price. Providers do not
// guarantee monotone percentiles, so every CDF consumer goes through this.
func (p Prices) SortedByPrice() [NumLevels]PricePoint {
	var pts [NumLevels]PricePoint
	for i := range p {
		pts[i] = PricePoint{Price: p[i], Level: PercentileLevels[i]}
	}
	sort.SliceStable(pts[:], func(a, b int) bool {
		return pts[a].Price < pts[b].Price
	})
	return pts
}

// ForecastFuture holds the forward-looking timepoints of a forecast.
type ForecastFuture struct {
	Percentiles []Timepoint `json:"percentiles"`
}

// PercentileForecast is the provider's per-asset, per-horizon percentile forecast.
type PercentileForecast struct {
	CurrentPrice   float64        `json:"current_price"`
	ForecastFuture ForecastFuture `json:"forecast_future"`
}

// Timepoints returns the raw timepoints, oldest first.
func (f *PercentileForecast) Timepoints() []Timepoint {
	if f == nil {
		return nil
	}
	return f.ForecastFuture.Percentiles
}

// Final returns the last timepoint (the horizon's terminal forecast).
func (f *PercentileForecast) Final() (Timepoint, bool) {
	tps := f.Timepoints()
	if len(tps) == 0 {
		return nil, false
	}
	return tps[len(tps)-1], true
}
