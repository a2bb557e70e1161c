// Package probability interpolates percentile forecasts into a CDF and answers
// price-range probability queries against it.
package probability

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/synthlab/alphalog/internal/stats"
	"github.com/synthlab/alphalog/pkg/types"
)

// LastTimepoint selects the terminal timepoint of a horizon.
const LastTimepoint = -1

// Default extrapolation clamp bounds.
const (
	DefaultProbMin = 0.001
	DefaultProbMax = 0.999
)

// Sentinel errors.
var (
	ErrUnknownHorizon      = errors.New("unknown horizon")
	ErrNoTimepoints        = errors.New("forecast has no timepoints")
	ErrMalformedForecast   = errors.New("forecast timepoint missing a percentile level")
	ErrTimepointOutOfRange = errors.New("timepoint index out of range")
)

// Source supplies raw percentile forecasts.
type Source interface {
	GetPercentiles(ctx context.Context, asset, horizon string) (*types.PercentileForecast, error)
}

// Timepoint is one forecast step with its offset from now.
type Timepoint struct {
	SecondsAhead int
	Prices       types.Prices
}

// Data is a forecast normalized to evenly spaced timepoints.
type Data struct {
	Asset        string
	Horizon      string
	CurrentPrice float64
	Timepoints   []Timepoint
}

// Normalize converts a raw forecast into Data, spacing timepoints linearly
// across the horizon.
func Normalize(asset, horizon string, raw *types.PercentileForecast) (*Data, error) {
	total, ok := types.HorizonSeconds(horizon)
	if !ok {
		return nil, fmt.Errorf("normalize %s forecast: %w: %q", asset, ErrUnknownHorizon, horizon)
	}
	rawTPs := raw.Timepoints()
	if len(rawTPs) == 0 {
		return nil, fmt.Errorf("normalize %s %s forecast: %w", asset, horizon, ErrNoTimepoints)
	}

	step := float64(total) / float64(max(len(rawTPs)-1, 1))
	tps := make([]Timepoint, len(rawTPs))
	for i, tp := range rawTPs {
		prices, ok := tp.Prices()
		if !ok {
			return nil, fmt.Errorf("normalize %s %s timepoint %d: %w", asset, horizon, i, ErrMalformedForecast)
		}
		tps[i] = Timepoint{
			SecondsAhead: int(math.RoundToEven(step * float64(i))),
			Prices:       prices,
		}
	}

	return &Data{
		Asset:        asset,
		Horizon:      horizon,
		CurrentPrice: raw.CurrentPrice,
		Timepoints:   tps,
	}, nil
}

// At returns the timepoint at index. Negative indices count from the end.
func (d *Data) At(index int) (Timepoint, error) {
	n := len(d.Timepoints)
	i := index
	if i < 0 {
		i += n
	}
	if i < 0 || i >= n {
		return Timepoint{}, fmt.Errorf("%w: %d of %d", ErrTimepointOutOfRange, index, n)
	}
	return d.Timepoints[i], nil
}

// Final returns the terminal timepoint.
func (d *Data) Final() Timepoint {
	return d.Timepoints[len(d.Timepoints)-1]
}

// Config configures an Engine.
type Config struct {
	Source  Source
	ProbMin float64
	ProbMax float64
}

// Engine answers probability queries over a forecast source.
type Engine struct {
	source  Source
	probMin float64
	probMax float64
}

// New creates an Engine. Zero clamp bounds fall back to the defaults.
func New(cfg Config) *Engine {
	e := &Engine{source: cfg.Source, probMin: cfg.ProbMin, probMax: cfg.ProbMax}
	if e.probMin <= 0 {
		e.probMin = DefaultProbMin
	}
	if e.probMax <= 0 || e.probMax >= 1 {
		e.probMax = DefaultProbMax
	}
	return e
}

// PercentileData fetches and normalizes one asset's forecast.
func (e *Engine) PercentileData(ctx context.Context, asset, horizon string) (*Data, error) {
	if _, ok := types.HorizonSeconds(horizon); !ok {
		return nil, fmt.Errorf("get percentile data: %w: %q", ErrUnknownHorizon, horizon)
	}
	raw, err := e.source.GetPercentiles(ctx, asset, horizon)
	if err != nil {
		return nil, fmt.Errorf("get percentile data: %w", err)
	}
	return Normalize(asset, horizon, raw)
}

// CDF estimates P(price < target) from one timepoint's nine levels.
// Targets inside the known range are linearly interpolated. Targets outside
// are extrapolated along the nearest segment and clamped so the result never
// asserts certainty.
func (e *Engine) CDF(target float64, prices types.Prices) float64 {
	pts := prices.SortedByPrice()
	first, second := pts[0], pts[1]
	last, prev := pts[types.NumLevels-1], pts[types.NumLevels-2]

	if target <= first.Price {
		extrap := first.Level + slope(first, second)*(target-first.Price)
		return math.Max(e.probMin, math.Min(extrap, first.Level))
	}

	if target >= last.Price {
		extrap := last.Level + slope(prev, last)*(target-last.Price)
		return math.Max(last.Level, math.Min(extrap, e.probMax))
	}

	for i := 0; i < types.NumLevels-1; i++ {
		lo, hi := pts[i], pts[i+1]
		if lo.Price <= target && target <= hi.Price {
			span := hi.Price - lo.Price
			if span == 0 {
				return (lo.Level + hi.Level) / 2
			}
			t := (target - lo.Price) / span
			return lo.Level + t*(hi.Level-lo.Level)
		}
	}

	return 0.5
}

func slope(a, b types.PricePoint) float64 {
	if a.Price == b.Price {
		return 0
	}
	return (b.Level - a.Level) / (b.Price - a.Price)
}

// Result answers a single-price query.
type Result struct {
	Asset            string     `json:"asset"`
	TargetPrice      float64    `json:"target_price"`
	CurrentPrice     float64    `json:"current_price"`
	Probability      float64    `json:"probability"`
	Horizon          string     `json:"horizon"`
	TimepointSeconds int        `json:"timepoint_seconds"`
	Confidence       Confidence `json:"confidence"`
}

// RangeResult answers a price-range query.
type RangeResult struct {
	Asset                 string     `json:"asset"`
	Lower                 float64    `json:"lower"`
	Upper                 float64    `json:"upper"`
	CurrentPrice          float64    `json:"current_price"`
	Probability           float64    `json:"probability"`
	ProbabilityBelowLower float64    `json:"probability_below_lower"`
	ProbabilityAboveUpper float64    `json:"probability_above_upper"`
	Horizon               string     `json:"horizon"`
	TimepointSeconds      int        `json:"timepoint_seconds"`
	Confidence            Confidence `json:"confidence"`
}

// Above is the probability the asset finishes above target at a timepoint.
func (e *Engine) Above(ctx context.Context, asset, horizon string, target float64, index int) (*Result, error) {
	d, err := e.PercentileData(ctx, asset, horizon)
	if err != nil {
		return nil, err
	}
	return e.AboveData(d, target, index)
}

// AboveData answers Above against already-fetched data.
func (e *Engine) AboveData(d *Data, target float64, index int) (*Result, error) {
	res, err := e.belowData(d, target, index)
	if err != nil {
		return nil, err
	}
	res.Probability = stats.Round(1-res.Probability, 4)
	return res, nil
}

// Below is the probability the asset finishes below target at a timepoint.
func (e *Engine) Below(ctx context.Context, asset, horizon string, target float64, index int) (*Result, error) {
	d, err := e.PercentileData(ctx, asset, horizon)
	if err != nil {
		return nil, err
	}
	return e.BelowData(d, target, index)
}

// BelowData answers Below against already-fetched data.
func (e *Engine) BelowData(d *Data, target float64, index int) (*Result, error) {
	res, err := e.belowData(d, target, index)
	if err != nil {
		return nil, err
	}
	res.Probability = stats.Round(res.Probability, 4)
	return res, nil
}

// belowData returns the unrounded CDF in Probability.
func (e *Engine) belowData(d *Data, target float64, index int) (*Result, error) {
	tp, err := d.At(index)
	if err != nil {
		return nil, err
	}
	return &Result{
		Asset:            d.Asset,
		TargetPrice:      target,
		CurrentPrice:     d.CurrentPrice,
		Probability:      e.CDF(target, tp.Prices),
		Horizon:          d.Horizon,
		TimepointSeconds: tp.SecondsAhead,
		Confidence:       ConfidenceFor(target, tp.Prices),
	}, nil
}

// Between is the probability the asset finishes between lower and upper.
func (e *Engine) Between(ctx context.Context, asset, horizon string, lower, upper float64, index int) (*RangeResult, error) {
	d, err := e.PercentileData(ctx, asset, horizon)
	if err != nil {
		return nil, err
	}
	return e.BetweenData(d, lower, upper, index)
}

// BetweenData answers Between against already-fetched data.
func (e *Engine) BetweenData(d *Data, lower, upper float64, index int) (*RangeResult, error) {
	tp, err := d.At(index)
	if err != nil {
		return nil, err
	}

	cdfUpper := e.CDF(upper, tp.Prices)
	cdfLower := e.CDF(lower, tp.Prices)

	return &RangeResult{
		Asset:                 d.Asset,
		Lower:                 lower,
		Upper:                 upper,
		CurrentPrice:          d.CurrentPrice,
		Probability:           stats.Round(cdfUpper-cdfLower, 4),
		ProbabilityBelowLower: stats.Round(cdfLower, 4),
		ProbabilityAboveUpper: stats.Round(1-cdfUpper, 4),
		Horizon:               d.Horizon,
		TimepointSeconds:      tp.SecondsAhead,
		Confidence:            Worst(ConfidenceFor(lower, tp.Prices), ConfidenceFor(upper, tp.Prices)),
	}, nil
}
