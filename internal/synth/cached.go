package synth

import (
	"context"
	"fmt"
	"time"

	"github.com/synthlab/alphalog/pkg/cache"
	"github.com/synthlab/alphalog/pkg/types"
)

// DefaultCacheTTL matches the upstream forecast refresh cadence.
const DefaultCacheTTL = 5 * time.Minute

// PercentileSource fetches raw percentile forecasts.
type PercentileSource interface {
	GetPercentiles(ctx context.Context, asset, horizon string) (*types.PercentileForecast, error)
}

// CachedSource serves percentile forecasts from a TTL cache, falling back to
// the wrapped source on a miss.
type CachedSource struct {
	source PercentileSource
	cache  cache.Cache
	ttl    time.Duration
}

// NewCachedSource wraps source. A nil cache disables caching.
func NewCachedSource(source PercentileSource, c cache.Cache, ttl time.Duration) *CachedSource {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedSource{source: source, cache: c, ttl: ttl}
}

// GetPercentiles returns a cached forecast when fresh.
func (s *CachedSource) GetPercentiles(ctx context.Context, asset, horizon string) (*types.PercentileForecast, error) {
	key := fmt.Sprintf("percentiles:%s:%s", asset, horizon)

	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			if forecast, ok := cached.(*types.PercentileForecast); ok {
				CachedSourceRequestsTotal.WithLabelValues("hit").Inc()
				return forecast, nil
			}
		}
		CachedSourceRequestsTotal.WithLabelValues("miss").Inc()
	}

	forecast, err := s.source.GetPercentiles(ctx, asset, horizon)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Set(key, forecast, s.ttl)
	}
	return forecast, nil
}
