package probability

import "github.com/synthlab/alphalog/pkg/types"

// Confidence describes how far inside the published percentile range a price sits.
type Confidence string

// Confidence labels.
const (
	ConfidenceHigh   Confidence = "HIGH"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceLow    Confidence = "LOW"
)

func (c Confidence) rank() int {
	switch c {
	case ConfidenceHigh:
		return 2
	case ConfidenceMedium:
		return 1
	default:
		return 0
	}
}

type confidenceBand struct {
	lo, hi     int
	confidence Confidence
}

// Evaluated first-match, innermost band first.
//
//nolint:gochecknoglobals // static band table
var confidenceBands = []confidenceBand{
	{lo: types.P05, hi: types.P95, confidence: ConfidenceHigh},
	{lo: types.P005, hi: types.P995, confidence: ConfidenceMedium},
}

// ConfidenceFor labels a price: HIGH inside [P5, P95], MEDIUM inside
// [P0.5, P99.5], LOW in extrapolation territory.
func ConfidenceFor(price float64, prices types.Prices) Confidence {
	for _, band := range confidenceBands {
		if prices[band.lo] <= price && price <= prices[band.hi] {
			return band.confidence
		}
	}
	return ConfidenceLow
}

// Worst returns the lower of two confidence labels.
func Worst(a, b Confidence) Confidence {
	if a.rank() <= b.rank() {
		return a
	}
	return b
}
