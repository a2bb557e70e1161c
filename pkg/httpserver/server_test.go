package httpserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/synthlab/alphalog/internal/distribution"
	"github.com/synthlab/alphalog/internal/edge"
	"github.com/synthlab/alphalog/internal/positionrisk"
	"github.com/synthlab/alphalog/internal/probability"
	"github.com/synthlab/alphalog/internal/synth"
	"github.com/synthlab/alphalog/internal/testutil"
	"github.com/synthlab/alphalog/internal/tracker"
	"github.com/synthlab/alphalog/internal/trends"
	"github.com/synthlab/alphalog/pkg/healthprobe"
	"github.com/synthlab/alphalog/pkg/types"
	"go.uber.org/zap"
)

type staticSnapshots struct {
	snaps []*types.Snapshot
}

func (s *staticSnapshots) LoadAll() ([]*types.Snapshot, error) {
	return s.snaps, nil
}

type testEnv struct {
	api     *testutil.MockSynthAPI
	tracker *tracker.Tracker
	handler http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	api := testutil.NewMockSynthAPI()
	t.Cleanup(api.Close)
	api.SetForecast("BTC", types.Horizon24h, testutil.CreateFanForecast(100000, 5, testutil.BTCPrices))
	api.SetForecast("ETH", types.Horizon24h, testutil.CreateFanForecast(3000, 5, testutil.ScalePrices(testutil.BTCPrices, 3000)))

	client := synth.NewClient(synth.Config{
		BaseURL:        api.URL,
		MaxRetries:     1,
		BackoffInitial: time.Millisecond,
	})
	engine := probability.New(probability.Config{Source: client})
	trk := tracker.New(tracker.Config{Repository: tracker.NewMemoryRepository()})

	hc := healthprobe.New()
	hc.SetReady(true)

	assets := []string{"BTC", "ETH"}
	srv := New(&Config{
		Port:                "0",
		Logger:              zap.NewNop(),
		HealthChecker:       hc,
		Engine:              engine,
		RiskAnalyzer:        positionrisk.New(positionrisk.Config{Engine: engine}),
		Tracker:             trk,
		Trends:              trends.New(distribution.New(distribution.Config{Assets: assets})),
		Snapshots:           &staticSnapshots{},
		Assets:              assets,
		Percentiles1hAssets: []string{"BTC"},
	})
	return &testEnv{api: api, tracker: trk, handler: srv.Handler()}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestServer_HealthAndMetrics(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/health", "/ready", "/metrics"} {
		rec := env.do(t, http.MethodGet, path, "")
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestServer_RoutesOmittedWithoutComponents(t *testing.T) {
	srv := New(&Config{Port: "0", HealthChecker: healthprobe.New()})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/edges", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_Probability(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantKeys   []string
	}{
		{name: "above", body: `{"asset":"btc","lower":100000}`, wantStatus: http.StatusOK, wantKeys: []string{"probability", "target_price", "confidence", "cone"}},
		{name: "below", body: `{"asset":"BTC","upper":98000,"horizon":"24h"}`, wantStatus: http.StatusOK, wantKeys: []string{"probability", "target_price", "cone"}},
		{name: "between", body: `{"asset":"BTC","lower":97000,"upper":103600}`, wantStatus: http.StatusOK, wantKeys: []string{"probability", "probability_below_lower", "probability_above_upper", "cone"}},
		{name: "missing-bounds", body: `{"asset":"BTC"}`, wantStatus: http.StatusBadRequest},
		{name: "inverted-bounds", body: `{"asset":"BTC","lower":105000,"upper":95000}`, wantStatus: http.StatusBadRequest},
		{name: "unknown-asset", body: `{"asset":"DOGE","lower":1}`, wantStatus: http.StatusBadRequest, wantKeys: []string{"valid_assets"}},
		{name: "unsupported-horizon", body: `{"asset":"ETH","lower":3000,"horizon":"1h"}`, wantStatus: http.StatusBadRequest, wantKeys: []string{"supported_horizons"}},
		{name: "invalid-horizon", body: `{"asset":"BTC","lower":1,"horizon":"7d"}`, wantStatus: http.StatusBadRequest, wantKeys: []string{"errors"}},
		{name: "negative-bound", body: `{"asset":"BTC","lower":-5}`, wantStatus: http.StatusBadRequest, wantKeys: []string{"errors"}},
		{name: "malformed-json", body: `{"asset":`, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/probability", tt.body)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())

			body := decodeBody(t, rec)
			for _, k := range tt.wantKeys {
				assert.Contains(t, body, k)
			}
		})
	}
}

func TestServer_ProbabilityBetweenSumsToOne(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/probability", `{"asset":"BTC","lower":97000,"upper":103600}`)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	sum := body["probability"].(float64) + body["probability_below_lower"].(float64) + body["probability_above_upper"].(float64)
	assert.InDelta(t, 1.0, sum, 1e-3)
	assert.Equal(t, "BTC", body["asset"])
}

func TestServer_ProbabilityUpstreamFailure(t *testing.T) {
	env := newTestEnv(t)
	env.api.FailAll(http.StatusInternalServerError)

	rec := env.do(t, http.MethodPost, "/api/probability", `{"asset":"BTC","lower":100000}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "synth api unavailable", decodeBody(t, rec)["error"])
}

func TestServer_PositionRisk(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{name: "long", body: `{"asset":"BTC","entry_price":100000,"leverage":10,"direction":"long","take_profit":105000,"stop_loss":97000}`, wantStatus: http.StatusOK},
		{name: "short", body: `{"asset":"BTC","entry_price":100000,"leverage":5,"direction":"SHORT"}`, wantStatus: http.StatusOK},
		{name: "max-leverage", body: `{"asset":"BTC","entry_price":100000,"leverage":200,"direction":"LONG"}`, wantStatus: http.StatusOK},
		{name: "leverage-too-high", body: `{"asset":"BTC","entry_price":100000,"leverage":201,"direction":"LONG"}`, wantStatus: http.StatusBadRequest},
		{name: "leverage-below-one", body: `{"asset":"BTC","entry_price":100000,"leverage":0.5,"direction":"LONG"}`, wantStatus: http.StatusBadRequest},
		{name: "bad-direction", body: `{"asset":"BTC","entry_price":100000,"leverage":2,"direction":"SIDEWAYS"}`, wantStatus: http.StatusBadRequest},
		{name: "missing-entry", body: `{"asset":"BTC","leverage":2,"direction":"LONG"}`, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/position-risk", tt.body)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantStatus != http.StatusOK {
				return
			}
			body := decodeBody(t, rec)
			assert.Contains(t, body, "liquidation")
			assert.Contains(t, body, "pnl_distribution")
			assert.Contains(t, body, "risk_score")
		})
	}
}

func TestServer_PositionRiskValidationErrors(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/position-risk", `{"asset":"BTC","entry_price":100000,"leverage":500,"direction":"LONG"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, "ERR_LTE", resp.Errors[0].Code)
	assert.Equal(t, "leverage", resp.Errors[0].Field)
	assert.Equal(t, "leverage must be less than or equal to 200", resp.Errors[0].Message)
}

func TestServer_Cone(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantPoints int
	}{
		{name: "default-points", path: "/api/cone/btc", wantStatus: http.StatusOK, wantPoints: 5},
		{name: "fewer-points", path: "/api/cone/BTC?points=3", wantStatus: http.StatusOK, wantPoints: 3},
		{name: "bad-points", path: "/api/cone/BTC?points=1", wantStatus: http.StatusBadRequest},
		{name: "unknown-asset", path: "/api/cone/DOGE", wantStatus: http.StatusBadRequest},
		{name: "unsupported-horizon", path: "/api/cone/ETH?horizon=1h", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodGet, tt.path, "")
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantStatus != http.StatusOK {
				return
			}
			var cone probability.Cone
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cone))
			assert.Len(t, cone.Points, tt.wantPoints)
			assert.Equal(t, "BTC", cone.Asset)
		})
	}
}

func TestServer_Assets(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/assets", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Assets []AssetInfo `json:"assets"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Assets, 2)
	assert.Equal(t, []string{"1h", "24h"}, resp.Assets[0].Horizons)
	require.NotNil(t, resp.Assets[0].CurrentPrice)
	assert.InDelta(t, 100000.0, *resp.Assets[0].CurrentPrice, 1e-9)
	assert.Equal(t, []string{"24h"}, resp.Assets[1].Horizons)
}

func TestServer_EdgesAndStats(t *testing.T) {
	env := newTestEnv(t)

	ts := time.Date(2026, 1, 10, 14, 0, 0, 0, time.UTC)
	snap := &types.Snapshot{Timestamp: ts, Assets: map[string]*types.AssetSnapshot{
		"BTC": {CurrentPrice: 100000, PolymarketDaily: testutil.CreateTestOdds(0.70, 0.55)},
	}}
	recorded, err := env.tracker.Record(context.Background(), []edge.Edge{{
		Asset:             "BTC",
		Type:              edge.TypeProbabilityDivergence,
		Timeframe:         types.TimeframeDaily,
		Direction:         edge.DirectionUp,
		Confidence:        edge.ConfidenceHigh,
		SynthProbability:  testutil.Float64Ptr(0.70),
		MarketProbability: 0.55,
	}}, snap)
	require.NoError(t, err)
	require.Equal(t, 1, recorded)

	rec := env.do(t, http.MethodGet, "/api/edges", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var edges EdgesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &edges))
	assert.Len(t, edges.OpenEdges, 1)
	assert.Empty(t, edges.ResolvedEdges)

	rec = env.do(t, http.MethodGet, "/api/edges?limit=0", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/edges/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.EqualValues(t, 1, body["total_open"])
	assert.EqualValues(t, 0, body["total_resolved"])
}

func TestServer_Trends(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/trends", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Contains(t, body, "period")
	perf, ok := body["edge_performance"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, perf["insufficient_data"])
	assert.EqualValues(t, 0, perf["total_resolved"])
}
