package testutil

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/goccy/go-json"
	"github.com/synthlab/alphalog/pkg/types"
)

// MockSynthAPI is a mock HTTP server that simulates the Synth insights API.
type MockSynthAPI struct {
	*httptest.Server

	mu        sync.Mutex
	forecasts map[string]*types.PercentileForecast
	odds      map[string]*types.MarketOdds
	failures  []int
	status    int
	requests  map[string]int
	authKeys  []string
}

// NewMockSynthAPI creates a new mock Synth API server.
func NewMockSynthAPI() *MockSynthAPI {
	mock := &MockSynthAPI{
		forecasts: make(map[string]*types.PercentileForecast),
		odds:      make(map[string]*types.MarketOdds),
		requests:  make(map[string]int),
	}
	mock.Server = httptest.NewServer(http.HandlerFunc(mock.handle))
	return mock
}

func (m *MockSynthAPI) handle(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests[r.URL.Path]++
	m.authKeys = append(m.authKeys, r.Header.Get("Authorization"))

	if len(m.failures) > 0 {
		code := m.failures[0]
		m.failures = m.failures[1:]
		http.Error(w, http.StatusText(code), code)
		return
	}
	if m.status != 0 {
		http.Error(w, http.StatusText(m.status), m.status)
		return
	}

	asset := r.URL.Query().Get("asset")
	var body any
	switch {
	case r.URL.Path == "/insights/prediction-percentiles":
		if f, ok := m.forecasts[asset+"_"+r.URL.Query().Get("horizon")]; ok {
			body = f
		}
	case strings.HasPrefix(r.URL.Path, "/insights/polymarket/up-down/"):
		timeframe := strings.TrimPrefix(r.URL.Path, "/insights/polymarket/up-down/")
		if o, ok := m.odds[asset+"_"+timeframe]; ok {
			body = o
		}
	}
	if body == nil {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(body)
}

// SetForecast serves f for the asset and horizon.
func (m *MockSynthAPI) SetForecast(asset, horizon string, f *types.PercentileForecast) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.forecasts[asset+"_"+horizon] = f
}

// SetOdds serves o for the asset and timeframe.
func (m *MockSynthAPI) SetOdds(asset, timeframe string, o *types.MarketOdds) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.odds[asset+"_"+timeframe] = o
}

// FailNext makes the next len(codes) requests fail with the given statuses.
func (m *MockSynthAPI) FailNext(codes ...int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = append(m.failures, codes...)
}

// FailAll makes every request fail with status until reset with 0.
func (m *MockSynthAPI) FailAll(status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status = status
}

// Requests returns how many requests hit path.
func (m *MockSynthAPI) Requests(path string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requests[path]
}

// TotalRequests returns the number of requests served.
func (m *MockSynthAPI) TotalRequests() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, n := range m.requests {
		total += n
	}
	return total
}

// AuthHeaders returns every Authorization header received, in order.
func (m *MockSynthAPI) AuthHeaders() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.authKeys))
	copy(out, m.authKeys)
	return out
}
