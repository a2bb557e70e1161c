package synth

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/synthlab/alphalog/internal/testutil"
	"github.com/synthlab/alphalog/pkg/cache"
	"github.com/synthlab/alphalog/pkg/types"
	"go.uber.org/zap"
)

func newTestClient(baseURL string) *Client {
	return NewClient(Config{
		BaseURL:        baseURL,
		APIKey:         "test-key",
		Timeout:        2 * time.Second,
		MaxRetries:     3,
		BackoffInitial: time.Millisecond,
		Logger:         zap.NewNop(),
	})
}

func TestClient_GetPercentiles(t *testing.T) {
	api := testutil.NewMockSynthAPI()
	defer api.Close()
	api.SetForecast("BTC", types.Horizon24h, testutil.CreateTestForecast(100000, 5, testutil.BTCPrices))

	got, err := newTestClient(api.URL).GetPercentiles(context.Background(), "BTC", types.Horizon24h)
	require.NoError(t, err)

	assert.InDelta(t, 100000.0, got.CurrentPrice, 1e-9)
	require.Len(t, got.Timepoints(), 5)
	prices, ok := got.Timepoints()[4].Prices()
	require.True(t, ok)
	assert.InDelta(t, testutil.BTCPrices[types.P50], prices[types.P50], 1e-9)
	assert.Equal(t, []string{"Apikey test-key"}, api.AuthHeaders())
}

func TestClient_GetMarketOdds(t *testing.T) {
	api := testutil.NewMockSynthAPI()
	defer api.Close()
	odds := testutil.CreateTestOdds(0.62, 0.55)
	odds.EventEndTime = "2026-01-10T22:00:00Z"
	api.SetOdds("ETH", types.TimeframeHourly, odds)

	got, err := newTestClient(api.URL).GetMarketOdds(context.Background(), "ETH", types.TimeframeHourly)
	require.NoError(t, err)

	require.NotNil(t, got.SynthProbabilityUp)
	assert.InDelta(t, 0.62, *got.SynthProbabilityUp, 1e-12)
	assert.Equal(t, "2026-01-10T22:00:00Z", got.EventEndTime)
	assert.Equal(t, 1, api.Requests(PathPolymarketHourly))
}

func TestClient_RejectsUnsupportedArguments(t *testing.T) {
	c := newTestClient("http://127.0.0.1:0")

	_, err := c.GetPercentiles(context.Background(), "BTC", "7d")
	assert.Error(t, err)

	_, err = c.GetMarketOdds(context.Background(), "BTC", "weekly")
	assert.Error(t, err)
}

func TestClient_Retry(t *testing.T) {
	tests := []struct {
		name         string
		failures     []int
		wantErr      bool
		wantAuth     bool
		wantRequests int
	}{
		{name: "recovers-after-transient-errors", failures: []int{http.StatusBadGateway, http.StatusServiceUnavailable}, wantRequests: 3},
		{name: "gives-up-after-max-retries", failures: []int{500, 500, 500}, wantErr: true, wantRequests: 3},
		{name: "aborts-on-unauthorized", failures: []int{http.StatusUnauthorized}, wantErr: true, wantAuth: true, wantRequests: 1},
		{name: "aborts-on-forbidden", failures: []int{http.StatusForbidden}, wantErr: true, wantAuth: true, wantRequests: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := testutil.NewMockSynthAPI()
			defer api.Close()
			api.SetForecast("SOL", types.Horizon1h, testutil.CreateTestForecast(150, 3, testutil.ScalePrices(testutil.BTCPrices, 150)))
			api.FailNext(tt.failures...)

			_, err := newTestClient(api.URL).GetPercentiles(context.Background(), "SOL", types.Horizon1h)

			assert.Equal(t, tt.wantRequests, api.Requests(PathPercentiles))
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantAuth, types.IsAuthError(err))
		})
	}
}

func TestClient_RetryHonoursContext(t *testing.T) {
	api := testutil.NewMockSynthAPI()
	defer api.Close()
	api.FailAll(http.StatusInternalServerError)

	c := NewClient(Config{BaseURL: api.URL, MaxRetries: 3, BackoffInitial: time.Hour})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.GetPercentiles(ctx, "BTC", types.Horizon24h)
	require.Error(t, err)
	assert.Equal(t, 1, api.Requests(PathPercentiles))
}

type countingSource struct {
	calls int
}

func (s *countingSource) GetPercentiles(_ context.Context, _, _ string) (*types.PercentileForecast, error) {
	s.calls++
	return testutil.CreateTestForecast(100000, 2, testutil.BTCPrices), nil
}

func TestCachedSource(t *testing.T) {
	c, err := cache.NewRistrettoCache(cache.DefaultRistrettoConfig(zap.NewNop()))
	require.NoError(t, err)
	defer c.Close()

	src := &countingSource{}
	cached := NewCachedSource(src, c, time.Minute)

	first, err := cached.GetPercentiles(context.Background(), "BTC", types.Horizon24h)
	require.NoError(t, err)
	c.Wait()

	second, err := cached.GetPercentiles(context.Background(), "BTC", types.Horizon24h)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, src.calls)

	_, err = cached.GetPercentiles(context.Background(), "BTC", types.Horizon1h)
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls)
}

func TestCachedSource_NilCache(t *testing.T) {
	src := &countingSource{}
	cached := NewCachedSource(src, nil, 0)

	for i := 0; i < 3; i++ {
		_, err := cached.GetPercentiles(context.Background(), "BTC", types.Horizon24h)
		require.NoError(t, err)
	}
	assert.Equal(t, 3, src.calls)
}
