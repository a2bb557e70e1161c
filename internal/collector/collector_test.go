package collector

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/synthlab/alphalog/internal/crossasset"
	"github.com/synthlab/alphalog/internal/distribution"
	"github.com/synthlab/alphalog/internal/edge"
	"github.com/synthlab/alphalog/internal/synth"
	"github.com/synthlab/alphalog/internal/testutil"
	"github.com/synthlab/alphalog/internal/tracker"
	"github.com/synthlab/alphalog/pkg/types"
	"go.uber.org/zap"
)

//nolint:gochecknoglobals // test clock
var fixedNow = time.Date(2026, 1, 10, 14, 30, 5, 0, time.UTC)

func newMockAPI(t *testing.T) *testutil.MockSynthAPI {
	t.Helper()
	api := testutil.NewMockSynthAPI()
	t.Cleanup(api.Close)

	api.SetForecast("BTC", types.Horizon24h, testutil.CreateTestForecast(100000, 3, testutil.BTCPrices))
	api.SetForecast("BTC", types.Horizon1h, testutil.CreateTestForecast(100000, 3, testutil.ScalePrices(testutil.BTCPrices, 100000)))
	api.SetForecast("ETH", types.Horizon24h, testutil.CreateTestForecast(3000, 3, testutil.ScalePrices(testutil.BTCPrices, 3000)))
	api.SetOdds("BTC", types.TimeframeDaily, testutil.CreateTestOdds(0.70, 0.55))
	api.SetOdds("BTC", types.TimeframeHourly, testutil.CreateTestOdds(0.52, 0.50))
	return api
}

func newTestCollector(baseURL string) *Collector {
	client := synth.NewClient(synth.Config{
		BaseURL:        baseURL,
		APIKey:         "test-key",
		Timeout:        2 * time.Second,
		MaxRetries:     1,
		BackoffInitial: time.Millisecond,
	})
	return New(Config{
		Client:                 client,
		Assets:                 []string{"BTC", "ETH"},
		Percentiles1hAssets:    []string{"BTC"},
		PolymarketDailyAssets:  []string{"BTC", "ETH"},
		PolymarketHourlyAssets: []string{"BTC"},
		Concurrency:            2,
		Logger:                 zap.NewNop(),
		Now:                    func() time.Time { return fixedNow },
	})
}

func TestCollector_Collect(t *testing.T) {
	api := newMockAPI(t)

	snap, err := newTestCollector(api.URL).Collect(context.Background())
	require.NoError(t, err)

	assert.Equal(t, fixedNow, snap.Timestamp)
	require.Len(t, snap.Assets, 2)

	btc := snap.Asset("BTC")
	require.NotNil(t, btc)
	assert.InDelta(t, 100000.0, btc.CurrentPrice, 1e-9)
	assert.NotNil(t, btc.Percentiles24h)
	assert.NotNil(t, btc.Percentiles1h)
	assert.NotNil(t, btc.PolymarketDaily)
	assert.NotNil(t, btc.PolymarketHourly)
	assert.Empty(t, btc.Errors)

	// ETH has no daily odds configured on the mock server.
	eth := snap.Asset("ETH")
	require.NotNil(t, eth)
	assert.InDelta(t, 3000.0, eth.CurrentPrice, 1e-9)
	assert.Nil(t, eth.Percentiles1h)
	require.Len(t, eth.Errors, 1)
	assert.Contains(t, eth.Errors[0], "polymarket_daily")
	assert.True(t, snap.Partial)
	assert.Empty(t, snap.CollectionErrors)

	// Only configured endpoints are requested.
	assert.Equal(t, 3, api.Requests(synth.PathPercentiles))
	assert.Equal(t, 1, api.Requests(synth.PathPolymarketHourly))
}

func TestCollector_CurrentPriceFallsBackToHourly(t *testing.T) {
	api := testutil.NewMockSynthAPI()
	defer api.Close()
	api.SetForecast("BTC", types.Horizon1h, testutil.CreateTestForecast(99000, 2, testutil.ScalePrices(testutil.BTCPrices, 99000)))

	c := New(Config{
		Client: synth.NewClient(synth.Config{
			BaseURL: api.URL, MaxRetries: 1, BackoffInitial: time.Millisecond,
		}),
		Assets:              []string{"BTC"},
		Percentiles1hAssets: []string{"BTC"},
	})

	snap, err := c.Collect(context.Background())
	require.NoError(t, err)

	btc := snap.Asset("BTC")
	require.NotNil(t, btc)
	assert.Nil(t, btc.Percentiles24h)
	assert.InDelta(t, 99000.0, btc.CurrentPrice, 1e-9)
	assert.True(t, snap.Partial)
}

func TestCollector_AuthFailureAborts(t *testing.T) {
	api := newMockAPI(t)
	api.FailAll(http.StatusUnauthorized)

	snap, err := newTestCollector(api.URL).Collect(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAuthFailed)
	assert.True(t, types.IsAuthError(err))

	require.NotNil(t, snap)
	assert.True(t, snap.Partial)
	require.Len(t, snap.CollectionErrors, 1)
	assert.Contains(t, snap.CollectionErrors[0], "AUTH_FAILED")
}

func TestStore_SaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, zap.NewNop())

	older := &types.Snapshot{Timestamp: fixedNow.Add(-time.Hour), Assets: map[string]*types.AssetSnapshot{}}
	newer := &types.Snapshot{Timestamp: fixedNow, Assets: map[string]*types.AssetSnapshot{
		"BTC": {CurrentPrice: 100000, Errors: []string{}},
	}}

	path, err := store.Save(newer)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "2026-01-10", "14-30-05_snapshot.json"), path)

	_, err = store.Save(older)
	require.NoError(t, err)

	// Malformed files are skipped.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "2026-01-10", "00-00-00_snapshot.json"), []byte("{not json"), 0o644))

	all, err := store.LoadAll()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.True(t, all[0].Timestamp.Equal(older.Timestamp))
	assert.True(t, all[1].Timestamp.Equal(newer.Timestamp))
	assert.InDelta(t, 100000.0, all[1].Asset("BTC").CurrentPrice, 1e-9)

	latest, err := store.Latest(1)
	require.NoError(t, err)
	require.Len(t, latest, 1)
	assert.True(t, latest[0].Timestamp.Equal(newer.Timestamp))
}

func TestStore_EmptyDir(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "missing"), nil)

	all, err := store.LoadAll()
	require.NoError(t, err)
	assert.Empty(t, all)

	latest, err := store.Latest(3)
	require.NoError(t, err)
	assert.Empty(t, latest)
}

func newTestPipeline(t *testing.T, baseURL string) (*Pipeline, *tracker.Tracker, string) {
	t.Helper()
	dir := t.TempDir()
	assets := []string{"BTC", "ETH"}

	trk := tracker.New(tracker.Config{
		Repository: tracker.NewMemoryRepository(),
		Now:        func() time.Time { return fixedNow },
	})
	p := NewPipeline(PipelineConfig{
		Collector:    newTestCollector(baseURL),
		Store:        NewStore(dir, zap.NewNop()),
		Distribution: distribution.New(distribution.Config{Assets: assets, Percentiles1hAssets: []string{"BTC"}}),
		CrossAsset:   crossasset.New(crossasset.Config{}),
		Edges:        edge.New(edge.Config{Assets: assets}),
		Tracker:      trk,
		Interval:     time.Hour,
		Logger:       zap.NewNop(),
	})
	return p, trk, dir
}

func TestPipeline_RunOnce(t *testing.T) {
	api := newMockAPI(t)
	p, trk, _ := newTestPipeline(t, api.URL)

	assert.Nil(t, p.Latest())

	result, err := p.RunOnce(context.Background())
	require.NoError(t, err)

	assert.FileExists(t, result.SnapshotPath)
	require.NotNil(t, result.Analysis)
	assert.Contains(t, result.Analysis.Metrics, distribution.Key("BTC", types.Horizon24h))
	assert.Contains(t, result.Analysis.SynthIndex, "BTC")
	assert.Empty(t, result.Analysis.Anomalies)
	assert.NotNil(t, result.Analysis.CrossAsset)

	// 0.70 vs 0.55 on the daily contract is a probability divergence.
	var found bool
	for _, e := range result.Edges {
		if e.Asset == "BTC" && e.Type == edge.TypeProbabilityDivergence && e.Timeframe == types.TimeframeDaily {
			found = true
		}
	}
	assert.True(t, found)
	assert.Equal(t, len(result.Edges), result.Recorded)

	open, err := trk.OpenEdges()
	require.NoError(t, err)
	assert.Len(t, open, result.Recorded)

	assert.Same(t, result, p.Latest())
}

func TestPipeline_AuthFailureStillSavesSnapshot(t *testing.T) {
	api := newMockAPI(t)
	api.FailAll(http.StatusForbidden)
	p, trk, dir := newTestPipeline(t, api.URL)

	result, err := p.RunOnce(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAuthFailed)

	require.NotNil(t, result)
	assert.FileExists(t, result.SnapshotPath)
	assert.Nil(t, result.Analysis)

	saved, err := NewStore(dir, nil).LoadAll()
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.True(t, saved[0].Partial)

	open, err := trk.OpenEdges()
	require.NoError(t, err)
	assert.Empty(t, open)
}

func TestPipeline_RunStopsOnAuthFailure(t *testing.T) {
	api := newMockAPI(t)
	api.FailAll(http.StatusUnauthorized)
	p, _, _ := newTestPipeline(t, api.URL)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := p.Run(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAuthFailed))
}

func TestPipeline_RunStopsOnCancel(t *testing.T) {
	api := newMockAPI(t)
	p, _, _ := newTestPipeline(t, api.URL)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	require.Eventually(t, func() bool { return p.Latest() != nil }, 5*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("pipeline did not stop")
	}
}
