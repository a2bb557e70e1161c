package types

import "time"

// Market timeframes for the reference up/down contracts.
const (
	TimeframeDaily  = "daily"
	TimeframeHourly = "hourly"
	Timeframe15Min  = "15min"
)

// MarketOdds compares the forecast-implied and market-implied up probabilities
// for one asset and contract timeframe.
type MarketOdds struct {
	SynthProbabilityUp      *float64 `json:"synth_probability_up,omitempty"`
	PolymarketProbabilityUp *float64 `json:"polymarket_probability_up,omitempty"`
	EventEndTime            string   `json:"event_end_time,omitempty"`
	StartPrice              *float64 `json:"start_price,omitempty"`
	CurrentPrice            *float64 `json:"current_price,omitempty"`
}

// AssetSnapshot is everything collected for one asset in a cycle.
type AssetSnapshot struct {
	CurrentPrice     float64             `json:"current_price,omitempty"`
	Percentiles24h   *PercentileForecast `json:"percentiles_24h,omitempty"`
	Percentiles1h    *PercentileForecast `json:"percentiles_1h,omitempty"`
	PolymarketDaily  *MarketOdds         `json:"polymarket_daily,omitempty"`
	PolymarketHourly *MarketOdds         `json:"polymarket_hourly,omitempty"`
	Errors           []string            `json:"errors"`
}

// Percentiles returns the forecast for a horizon, or nil.
func (a *AssetSnapshot) Percentiles(horizon string) *PercentileForecast {
	if a == nil {
		return nil
	}
	switch horizon {
	case Horizon1h:
		return a.Percentiles1h
	case Horizon24h:
		return a.Percentiles24h
	}
	return nil
}

// Odds returns the market odds for a timeframe, or nil.
func (a *AssetSnapshot) Odds(timeframe string) *MarketOdds {
	if a == nil {
		return nil
	}
	switch timeframe {
	case TimeframeDaily:
		return a.PolymarketDaily
	case TimeframeHourly:
		return a.PolymarketHourly
	}
	return nil
}

// Snapshot is one collection cycle across all assets.
type Snapshot struct {
	Timestamp            time.Time                 `json:"timestamp"`
	CollectionDurationMS int64                     `json:"collection_duration_ms"`
	Assets               map[string]*AssetSnapshot `json:"assets"`
	CollectionErrors     []string                  `json:"collection_errors"`
	Partial              bool                      `json:"partial"`
}

// Asset returns the data collected for an asset, or nil.
func (s *Snapshot) Asset(asset string) *AssetSnapshot {
	if s == nil || s.Assets == nil {
		return nil
	}
	return s.Assets[asset]
}
