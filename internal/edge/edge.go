package edge

// Type identifies which check produced an edge.
type Type string

// Edge types.
const (
	TypeProbabilityDivergence  Type = "probability_divergence"
	TypeTailRiskUnderpriced    Type = "tail_risk_underpriced"
	TypeUncertaintyUnderpriced Type = "uncertainty_underpriced"
	TypeSkewMismatch           Type = "skew_mismatch"
)

// Direction is the side an edge argues for.
type Direction string

// Directions produced by the detector.
const (
	DirectionUp          Direction = "UP"
	DirectionDown        Direction = "DOWN"
	DirectionUpRisk      Direction = "UP_RISK"
	DirectionDownRisk    Direction = "DOWN_RISK"
	DirectionAgainstUp   Direction = "AGAINST_UP"
	DirectionAgainstDown Direction = "AGAINST_DOWN"
	DirectionSkewBullish Direction = "SKEW_BULLISH"
	DirectionSkewBearish Direction = "SKEW_BEARISH"
)

// Bullish reports whether the direction is a bet on the price rising.
// AGAINST_DOWN fades a confident Down market, so it is a bet on Up.
func (d Direction) Bullish() bool {
	switch d {
	case DirectionUp, DirectionUpRisk, DirectionSkewBullish, DirectionAgainstDown:
		return true
	}
	return false
}

// Bearish reports whether the direction is a bet on the price falling.
func (d Direction) Bearish() bool {
	switch d {
	case DirectionDown, DirectionDownRisk, DirectionSkewBearish, DirectionAgainstUp:
		return true
	}
	return false
}

// Confidence ranks an edge.
type Confidence string

// Confidence labels.
const (
	ConfidenceHigh   Confidence = "HIGH"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceLow    Confidence = "LOW"
)

// Order sorts HIGH before MEDIUM before LOW; unknown labels sort last.
func (c Confidence) Order() int {
	switch c {
	case ConfidenceHigh:
		return 0
	case ConfidenceMedium:
		return 1
	case ConfidenceLow:
		return 2
	}
	return 3
}

// Edge is a detected mispricing between the forecast and the reference market.
type Edge struct {
	Asset      string     `json:"asset"`
	Type       Type       `json:"edge_type"`
	Timeframe  string     `json:"timeframe"`
	Direction  Direction  `json:"direction"`
	Confidence Confidence `json:"confidence"`

	// SynthProbability is set only for probability divergence edges.
	SynthProbability  *float64 `json:"synth_probability_up,omitempty"`
	MarketProbability float64  `json:"polymarket_probability_up"`

	// ForecastWidth is the 24h P95-P05 width behind distribution-based edges.
	ForecastWidth *float64 `json:"forecast_width,omitempty"`

	Signal      map[string]float64 `json:"synth_signal"`
	Description string             `json:"description"`
}
