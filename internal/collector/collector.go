// Package collector gathers per-asset forecasts and market odds into
// snapshots, stores them and runs the analysis pipeline over each one.
package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/synthlab/alphalog/pkg/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds concurrent per-asset collection.
const DefaultConcurrency = 4

// ErrAuthFailed is returned when the provider rejects our credentials. The
// cycle is aborted and the partial snapshot is still returned.
var ErrAuthFailed = errors.New("synth authentication failed")

// FetchClient is the upstream data provider.
type FetchClient interface {
	GetPercentiles(ctx context.Context, asset, horizon string) (*types.PercentileForecast, error)
	GetMarketOdds(ctx context.Context, asset, timeframe string) (*types.MarketOdds, error)
}

// Config holds collector configuration.
type Config struct {
	Client                 FetchClient
	Assets                 []string
	Percentiles1hAssets    []string
	PolymarketDailyAssets  []string
	PolymarketHourlyAssets []string
	Concurrency            int
	Logger                 *zap.Logger
	Now                    func() time.Time
}

// Collector builds one snapshot per call.
type Collector struct {
	client      FetchClient
	assets      []string
	hourlyPcts  map[string]bool
	daily       map[string]bool
	hourly      map[string]bool
	concurrency int
	logger      *zap.Logger
	now         func() time.Time
}

// New creates a new collector.
func New(cfg Config) *Collector {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := cfg.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Collector{
		client:      cfg.Client,
		assets:      cfg.Assets,
		hourlyPcts:  toSet(cfg.Percentiles1hAssets),
		daily:       toSet(cfg.PolymarketDailyAssets),
		hourly:      toSet(cfg.PolymarketHourlyAssets),
		concurrency: concurrency,
		logger:      logger,
		now:         now,
	}
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}

// Collect fetches every configured endpoint for every asset. Endpoint
// failures are recorded on the asset and mark the snapshot partial. An auth
// failure cancels remaining work and returns ErrAuthFailed with the partial
// snapshot.
func (c *Collector) Collect(ctx context.Context) (*types.Snapshot, error) {
	start := time.Now()
	snap := &types.Snapshot{
		Timestamp:        c.now().UTC(),
		Assets:           make(map[string]*types.AssetSnapshot, len(c.assets)),
		CollectionErrors: make([]string, 0),
	}

	results := make([]*types.AssetSnapshot, len(c.assets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)

	for i, asset := range c.assets {
		g.Go(func() error {
			data, err := c.collectAsset(gctx, asset)
			if err != nil {
				return fmt.Errorf("collect %s: %w", asset, err)
			}
			results[i] = data
			return nil
		})
	}
	groupErr := g.Wait()

	for i, asset := range c.assets {
		data := results[i]
		if data == nil {
			continue
		}
		snap.Assets[asset] = data
		if len(data.Errors) > 0 {
			snap.Partial = true
		}
	}

	var err error
	if groupErr != nil {
		snap.Partial = true
		if types.IsAuthError(groupErr) {
			snap.CollectionErrors = append(snap.CollectionErrors, "AUTH_FAILED: "+groupErr.Error())
			err = fmt.Errorf("%w: %w", ErrAuthFailed, groupErr)
			c.logger.Error("collection-auth-failed", zap.Error(groupErr))
		} else {
			snap.CollectionErrors = append(snap.CollectionErrors, groupErr.Error())
			c.logger.Error("collection-failed", zap.Error(groupErr))
		}
	}

	elapsed := time.Since(start)
	snap.CollectionDurationMS = elapsed.Milliseconds()
	CollectionDurationSeconds.Observe(elapsed.Seconds())

	errorCount := len(snap.CollectionErrors)
	for _, a := range snap.Assets {
		errorCount += len(a.Errors)
	}
	CollectionErrorsTotal.Add(float64(errorCount))
	c.logger.Info("snapshot-collected",
		zap.Int("assets", len(snap.Assets)),
		zap.Int("configured-assets", len(c.assets)),
		zap.Int("errors", errorCount),
		zap.Bool("partial", snap.Partial),
		zap.Duration("duration", elapsed))

	return snap, err
}

// collectAsset fetches one asset's endpoints sequentially. Only auth failures
// are returned; other failures are recorded on the asset.
func (c *Collector) collectAsset(ctx context.Context, asset string) (*types.AssetSnapshot, error) {
	data := &types.AssetSnapshot{Errors: make([]string, 0)}

	type fetch struct {
		name    string
		enabled bool
		run     func() error
	}
	fetches := []fetch{
		{name: "percentiles_24h", enabled: true, run: func() error {
			f, err := c.client.GetPercentiles(ctx, asset, types.Horizon24h)
			if err == nil {
				data.Percentiles24h = f
			}
			return err
		}},
		{name: "percentiles_1h", enabled: c.hourlyPcts[asset], run: func() error {
			f, err := c.client.GetPercentiles(ctx, asset, types.Horizon1h)
			if err == nil {
				data.Percentiles1h = f
			}
			return err
		}},
		{name: "polymarket_daily", enabled: c.daily[asset], run: func() error {
			o, err := c.client.GetMarketOdds(ctx, asset, types.TimeframeDaily)
			if err == nil {
				data.PolymarketDaily = o
			}
			return err
		}},
		{name: "polymarket_hourly", enabled: c.hourly[asset], run: func() error {
			o, err := c.client.GetMarketOdds(ctx, asset, types.TimeframeHourly)
			if err == nil {
				data.PolymarketHourly = o
			}
			return err
		}},
	}

	for _, f := range fetches {
		if !f.enabled {
			continue
		}
		err := f.run()
		if err == nil {
			continue
		}
		if types.IsAuthError(err) {
			return nil, err
		}
		data.Errors = append(data.Errors, fmt.Sprintf("%s: %v", f.name, err))
		c.logger.Warn("endpoint-fetch-failed",
			zap.String("asset", asset),
			zap.String("endpoint", f.name),
			zap.Error(err))
	}

	// Spot comes from the first forecast that carries one.
	for _, f := range []*types.PercentileForecast{data.Percentiles24h, data.Percentiles1h} {
		if f != nil && f.CurrentPrice > 0 {
			data.CurrentPrice = f.CurrentPrice
			break
		}
	}
	return data, nil
}
