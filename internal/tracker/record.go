package tracker

import (
	"time"

	"github.com/synthlab/alphalog/internal/edge"
)

// Resolution is the outcome of a resolved record.
type Resolution string

// Resolutions.
const (
	ResolutionCorrect   Resolution = "CORRECT"
	ResolutionIncorrect Resolution = "INCORRECT"
	ResolutionUnknown   Resolution = "UNKNOWN"
)

// Actual outcomes.
const (
	OutcomeUp     = "UP"
	OutcomeDown   = "DOWN"
	OutcomeNoData = "NO_DATA"
)

// Record is a tracked edge. It is created open and resolved exactly once.
type Record struct {
	ID         string          `json:"id"`
	DetectedAt time.Time       `json:"detected_at"`
	Asset      string          `json:"asset"`
	EdgeType   edge.Type       `json:"edge_type"`
	Timeframe  string          `json:"timeframe"`
	Direction  edge.Direction  `json:"direction"`
	Confidence edge.Confidence `json:"confidence"`

	SynthProbability      *float64 `json:"synth_probability"`
	PolymarketProbability *float64 `json:"polymarket_probability"`
	OurSideProbability    *float64 `json:"our_side_pm_probability"`
	EdgeSize              *float64 `json:"edge_size"`
	CurrentPrice          *float64 `json:"current_price"`
	StartPrice            *float64 `json:"start_price"`
	ForecastWidth         *float64 `json:"forecast_width"`

	ResolutionDeadline time.Time `json:"resolution_deadline"`

	Resolved      bool       `json:"resolved"`
	Resolution    Resolution `json:"resolution,omitempty"`
	ActualOutcome string     `json:"actual_outcome,omitempty"`
	ActualPrice   *float64   `json:"actual_price,omitempty"`
	PnL           *float64   `json:"pnl"`
	ResolvedAt    *time.Time `json:"resolved_at,omitempty"`
}

// referencePrice is the price a record is resolved against: the market's
// start price when known, else the spot at detection.
func (r *Record) referencePrice() *float64 {
	if r.StartPrice != nil && *r.StartPrice > 0 {
		return r.StartPrice
	}
	return r.CurrentPrice
}
