package probability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synthlab/alphalog/internal/testutil"
	"github.com/synthlab/alphalog/pkg/types"
)

//nolint:gochecknoglobals // test fixture
var testPrices = [types.NumLevels]float64{90, 95, 98, 99, 100, 101, 102, 105, 110}

type staticSource struct {
	forecast *types.PercentileForecast
	err      error
	calls    int
}

func (s *staticSource) GetPercentiles(_ context.Context, _, _ string) (*types.PercentileForecast, error) {
	s.calls++
	return s.forecast, s.err
}

func newTestEngine(steps int) (*Engine, *staticSource) {
	src := &staticSource{forecast: testutil.CreateFanForecast(100, steps, testPrices)}
	return New(Config{Source: src}), src
}

func TestCDF(t *testing.T) {
	e := New(Config{})
	prices := types.Prices(testPrices)

	tests := []struct {
		name   string
		target float64
		want   float64
	}{
		{name: "median", target: 100, want: 0.5},
		{name: "exact-level", target: 95, want: 0.05},
		{name: "interpolated", target: 96.5, want: 0.125},
		{name: "lowest-price", target: 90, want: 0.005},
		{name: "highest-price", target: 110, want: 0.995},
		{name: "extrapolated-below", target: 89.9, want: 0.0041},
		{name: "clamped-below", target: 50, want: 0.001},
		{name: "extrapolated-above", target: 110.1, want: 0.9959},
		{name: "clamped-above", target: 200, want: 0.999},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, e.CDF(tt.target, prices), 1e-9)
		})
	}
}

func TestCDF_ConfigurableClamp(t *testing.T) {
	e := New(Config{ProbMin: 0.01, ProbMax: 0.99})
	prices := types.Prices(testPrices)

	assert.InDelta(t, 0.01, e.CDF(50, prices), 1e-9)
	assert.InDelta(t, 0.5, e.CDF(100, prices), 1e-9)
	// Extrapolating up never falls below the highest published level.
	assert.InDelta(t, 0.995, e.CDF(200, prices), 1e-9)
}

func TestCDF_UnsortedInput(t *testing.T) {
	e := New(Config{})
	unsorted := types.Prices(testPrices)
	unsorted[types.P35], unsorted[types.P65] = unsorted[types.P65], unsorted[types.P35]

	// Levels travel with their prices when sorted.
	assert.InDelta(t, 0.65, e.CDF(99, unsorted), 1e-9)
	assert.InDelta(t, 0.35, e.CDF(101, unsorted), 1e-9)
	assert.InDelta(t, 0.425, e.CDF(98.5, unsorted), 1e-9)
}

func TestCDF_ZeroSpan(t *testing.T) {
	e := New(Config{})
	prices := types.Prices{90, 95, 98, 100, 100, 101, 102, 105, 110}
	assert.InDelta(t, 0.35, e.CDF(100, prices), 1e-9)
}

func TestCDF_MonotoneSweep(t *testing.T) {
	e := New(Config{})
	prices := types.Prices(testPrices)

	prev := -1.0
	for target := 60.0; target <= 140.0; target += 0.25 {
		cdf := e.CDF(target, prices)
		assert.GreaterOrEqual(t, cdf, prev, "target %.2f", target)
		assert.GreaterOrEqual(t, cdf, 0.001)
		assert.LessOrEqual(t, cdf, 0.999)
		prev = cdf
	}
}

func TestBetweenBelowAboveSumToOne(t *testing.T) {
	e, _ := newTestEngine(5)
	ctx := context.Background()

	ranges := [][2]float64{{80, 120}, {92, 97}, {99.5, 100.5}, {104, 130}, {60, 89}}
	for _, r := range ranges {
		between, err := e.Between(ctx, "BTC", types.Horizon24h, r[0], r[1], LastTimepoint)
		require.NoError(t, err)
		below, err := e.Below(ctx, "BTC", types.Horizon24h, r[0], LastTimepoint)
		require.NoError(t, err)
		above, err := e.Above(ctx, "BTC", types.Horizon24h, r[1], LastTimepoint)
		require.NoError(t, err)

		assert.InDelta(t, 1.0, between.Probability+below.Probability+above.Probability, 2e-4, "range %v", r)
		assert.InDelta(t, below.Probability, between.ProbabilityBelowLower, 1e-9)
		assert.InDelta(t, above.Probability, between.ProbabilityAboveUpper, 1e-9)
	}
}

func TestQueries(t *testing.T) {
	e, src := newTestEngine(5)
	ctx := context.Background()

	above, err := e.Above(ctx, "BTC", types.Horizon1h, 96.5, LastTimepoint)
	require.NoError(t, err)
	assert.InDelta(t, 0.875, above.Probability, 1e-9)
	assert.Equal(t, 3600, above.TimepointSeconds)
	assert.Equal(t, ConfidenceHigh, above.Confidence)
	assert.InDelta(t, 100, above.CurrentPrice, 1e-9)

	below, err := e.Below(ctx, "BTC", types.Horizon1h, 92, LastTimepoint)
	require.NoError(t, err)
	assert.Equal(t, ConfidenceMedium, below.Confidence)

	between, err := e.Between(ctx, "BTC", types.Horizon1h, 80, 100, LastTimepoint)
	require.NoError(t, err)
	assert.Equal(t, ConfidenceLow, between.Confidence)

	mid, err := e.Below(ctx, "BTC", types.Horizon1h, 100, 2)
	require.NoError(t, err)
	assert.Equal(t, 1800, mid.TimepointSeconds)

	assert.Equal(t, 4, src.calls)
}

func TestQueries_Errors(t *testing.T) {
	ctx := context.Background()

	e, _ := newTestEngine(3)
	_, err := e.Below(ctx, "BTC", types.Horizon24h, 100, 3)
	assert.ErrorIs(t, err, ErrTimepointOutOfRange)

	_, err = e.Below(ctx, "BTC", types.Horizon24h, 100, -4)
	assert.ErrorIs(t, err, ErrTimepointOutOfRange)

	_, err = e.Below(ctx, "BTC", "7d", 100, LastTimepoint)
	assert.ErrorIs(t, err, ErrUnknownHorizon)

	upstream := &types.APIError{StatusCode: 503, Message: "unavailable"}
	failing := New(Config{Source: &staticSource{err: upstream}})
	_, err = failing.Above(ctx, "BTC", types.Horizon24h, 100, LastTimepoint)
	var apiErr *types.APIError
	assert.True(t, errors.As(err, &apiErr))

	empty := New(Config{Source: &staticSource{forecast: &types.PercentileForecast{CurrentPrice: 1}}})
	_, err = empty.Above(ctx, "BTC", types.Horizon24h, 100, LastTimepoint)
	assert.ErrorIs(t, err, ErrNoTimepoints)
}

func TestNormalize(t *testing.T) {
	d, err := Normalize("BTC", types.Horizon1h, testutil.CreateTestForecast(100, 5, testPrices))
	require.NoError(t, err)

	seconds := make([]int, len(d.Timepoints))
	for i, tp := range d.Timepoints {
		seconds[i] = tp.SecondsAhead
	}
	assert.Equal(t, []int{0, 900, 1800, 2700, 3600}, seconds)

	single, err := Normalize("BTC", types.Horizon24h, testutil.CreateTestForecast(100, 1, testPrices))
	require.NoError(t, err)
	assert.Equal(t, 0, single.Timepoints[0].SecondsAhead)

	// 86400/256 = 337.5, rounded half to even.
	fine, err := Normalize("BTC", types.Horizon24h, testutil.CreateTestForecast(100, 257, testPrices))
	require.NoError(t, err)
	assert.Equal(t, 338, fine.Timepoints[1].SecondsAhead)
	assert.Equal(t, 1012, fine.Timepoints[3].SecondsAhead)
	assert.Equal(t, 86400, fine.Final().SecondsAhead)

	_, err = Normalize("BTC", types.Horizon24h, &types.PercentileForecast{
		ForecastFuture: types.ForecastFuture{Percentiles: []types.Timepoint{{"0.5": 1}}},
	})
	assert.ErrorIs(t, err, ErrMalformedForecast)
}

func TestConfidence(t *testing.T) {
	prices := types.Prices(testPrices)

	assert.Equal(t, ConfidenceHigh, ConfidenceFor(95, prices))
	assert.Equal(t, ConfidenceHigh, ConfidenceFor(105, prices))
	assert.Equal(t, ConfidenceMedium, ConfidenceFor(90, prices))
	assert.Equal(t, ConfidenceMedium, ConfidenceFor(108, prices))
	assert.Equal(t, ConfidenceLow, ConfidenceFor(111, prices))

	assert.Equal(t, ConfidenceLow, Worst(ConfidenceHigh, ConfidenceLow))
	assert.Equal(t, ConfidenceMedium, Worst(ConfidenceMedium, ConfidenceHigh))
	assert.Equal(t, ConfidenceHigh, Worst(ConfidenceHigh, ConfidenceHigh))
}
