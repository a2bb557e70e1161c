package probability

import (
	"context"
	"math"

	"github.com/synthlab/alphalog/internal/stats"
	"github.com/synthlab/alphalog/pkg/types"
)

// DefaultConePoints is the default cone resolution.
const DefaultConePoints = 50

// ConePoint is every percentile level at one sampled timepoint.
type ConePoint struct {
	SecondsAhead int     `json:"seconds_ahead"`
	HoursAhead   float64 `json:"hours_ahead"`
	P005         float64 `json:"p005"`
	P05          float64 `json:"p05"`
	P20          float64 `json:"p20"`
	P35          float64 `json:"p35"`
	P50          float64 `json:"p50"`
	P65          float64 `json:"p65"`
	P80          float64 `json:"p80"`
	P95          float64 `json:"p95"`
	P995         float64 `json:"p995"`
}

// Cone is the fan of percentile bands across a horizon.
type Cone struct {
	Asset        string      `json:"asset"`
	CurrentPrice float64     `json:"current_price"`
	Horizon      string      `json:"horizon"`
	Points       []ConePoint `json:"points"`
}

// Cone samples numPoints evenly spaced timepoints of an asset's forecast.
func (e *Engine) Cone(ctx context.Context, asset, horizon string, numPoints int) (*Cone, error) {
	d, err := e.PercentileData(ctx, asset, horizon)
	if err != nil {
		return nil, err
	}
	return &Cone{
		Asset:        asset,
		CurrentPrice: d.CurrentPrice,
		Horizon:      horizon,
		Points:       BuildCone(d, numPoints),
	}, nil
}

// ConeIndices picks numPoints evenly spaced indices into n timepoints,
// always including the first and last.
func ConeIndices(n, numPoints int) []int {
	if numPoints >= n {
		indices := make([]int, n)
		for i := range indices {
			indices[i] = i
		}
		return indices
	}
	if numPoints < 2 {
		numPoints = 2
	}
	indices := make([]int, numPoints)
	for i := range indices {
		indices[i] = int(math.RoundToEven(float64(i*(n-1)) / float64(numPoints-1)))
	}
	return indices
}

// BuildCone samples already-fetched data.
func BuildCone(d *Data, numPoints int) []ConePoint {
	indices := ConeIndices(len(d.Timepoints), numPoints)
	points := make([]ConePoint, 0, len(indices))
	for _, idx := range indices {
		tp := d.Timepoints[idx]
		p := tp.Prices
		points = append(points, ConePoint{
			SecondsAhead: tp.SecondsAhead,
			HoursAhead:   stats.Round(float64(tp.SecondsAhead)/3600, 3),
			P005:         p[types.P005],
			P05:          p[types.P05],
			P20:          p[types.P20],
			P35:          p[types.P35],
			P50:          p[types.P50],
			P65:          p[types.P65],
			P80:          p[types.P80],
			P95:          p[types.P95],
			P995:         p[types.P995],
		})
	}
	return points
}
