// Package synth fetches percentile forecasts and prediction-market odds from
// the Synth insights API.
package synth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/synthlab/alphalog/pkg/types"
	"go.uber.org/zap"
)

// Endpoint paths.
const (
	PathPercentiles      = "/insights/prediction-percentiles"
	PathPolymarketDaily  = "/insights/polymarket/up-down/daily"
	PathPolymarketHourly = "/insights/polymarket/up-down/hourly"
	PathPolymarket15Min  = "/insights/polymarket/up-down/15min"
)

// Query defaults for insight endpoints.
const (
	DefaultDays       = 14
	DefaultMinerLimit = 10
)

// maxErrorBody bounds how much of an error response is kept in APIError.
const maxErrorBody = 512

// Config holds client configuration.
type Config struct {
	BaseURL        string
	APIKey         string
	Timeout        time.Duration
	MaxRetries     int
	BackoffInitial time.Duration
	Logger         *zap.Logger
	HTTPClient     *http.Client
}

// Client is an HTTP client for the Synth API.
type Client struct {
	baseURL        string
	apiKey         string
	maxRetries     int
	backoffInitial time.Duration
	httpClient     *http.Client
	logger         *zap.Logger
}

// NewClient creates a new Synth API client.
func NewClient(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	retries := cfg.MaxRetries
	if retries < 1 {
		retries = 1
	}
	return &Client{
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:         cfg.APIKey,
		maxRetries:     retries,
		backoffInitial: cfg.BackoffInitial,
		httpClient:     httpClient,
		logger:         logger,
	}
}

// GetPercentiles fetches the nine-level percentile forecast for an asset and horizon.
func (c *Client) GetPercentiles(ctx context.Context, asset, horizon string) (*types.PercentileForecast, error) {
	if _, ok := types.HorizonSeconds(horizon); !ok {
		return nil, fmt.Errorf("get percentiles: unsupported horizon %q", horizon)
	}

	var out types.PercentileForecast
	err := c.getWithRetry(ctx, PathPercentiles, insightParams(asset, horizon), &out)
	if err != nil {
		return nil, fmt.Errorf("get %s %s percentiles: %w", asset, horizon, err)
	}
	return &out, nil
}

// GetMarketOdds fetches forecast-implied and market-implied up probabilities
// for one contract timeframe.
func (c *Client) GetMarketOdds(ctx context.Context, asset, timeframe string) (*types.MarketOdds, error) {
	var path, horizon string
	switch timeframe {
	case types.TimeframeDaily:
		path, horizon = PathPolymarketDaily, types.Horizon24h
	case types.TimeframeHourly:
		path, horizon = PathPolymarketHourly, types.Horizon1h
	case types.Timeframe15Min:
		path, horizon = PathPolymarket15Min, types.Horizon1h
	default:
		return nil, fmt.Errorf("get market odds: unsupported timeframe %q", timeframe)
	}

	var out types.MarketOdds
	if err := c.getWithRetry(ctx, path, insightParams(asset, horizon), &out); err != nil {
		return nil, fmt.Errorf("get %s %s market odds: %w", asset, timeframe, err)
	}
	return &out, nil
}

func insightParams(asset, horizon string) url.Values {
	params := url.Values{}
	params.Set("asset", asset)
	params.Set("horizon", horizon)
	params.Set("days", strconv.Itoa(DefaultDays))
	params.Set("limit", strconv.Itoa(DefaultMinerLimit))
	return params
}

// getWithRetry retries transient failures with exponential backoff. Auth
// failures and context cancellation return immediately.
func (c *Client) getWithRetry(ctx context.Context, path string, params url.Values, out any) error {
	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		err := c.get(ctx, path, params, out)
		if err == nil {
			return nil
		}
		if types.IsAuthError(err) || ctx.Err() != nil {
			return err
		}
		lastErr = err

		if attempt == c.maxRetries-1 {
			break
		}
		backoff := c.backoffInitial * time.Duration(1<<attempt)
		RetriesTotal.WithLabelValues(path).Inc()
		c.logger.Warn("synth-request-retrying",
			zap.String("path", path),
			zap.String("asset", params.Get("asset")),
			zap.Int("attempt", attempt+1),
			zap.Duration("backoff", backoff),
			zap.Error(err))

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return lastErr
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	requestURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Apikey "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "alphalog/1.0")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		RequestDurationSeconds.WithLabelValues(path, "error").Observe(time.Since(start).Seconds())
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()
	RequestDurationSeconds.WithLabelValues(path, strconv.Itoa(resp.StatusCode)).Observe(time.Since(start).Seconds())

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &types.APIError{StatusCode: resp.StatusCode, Message: string(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("decode response: empty body")
		}
		return fmt.Errorf("decode response: %w", err)
	}

	c.logger.Debug("synth-request-completed",
		zap.String("path", path),
		zap.String("asset", params.Get("asset")),
		zap.Duration("duration", time.Since(start)))
	return nil
}
