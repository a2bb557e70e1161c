package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestCache(t *testing.T) *RistrettoCache {
	t.Helper()
	c, err := NewRistrettoCache(&RistrettoConfig{
		NumCounters: 1000,
		MaxCost:     100,
		BufferItems: 64,
		Logger:      zap.NewNop(),
	})
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func TestRistrettoCache(t *testing.T) {
	c := newTestCache(t)

	t.Run("set-and-get", func(t *testing.T) {
		require.True(t, c.Set("percentiles:BTC:24h", 101234.5, time.Hour))
		c.Wait()

		got, found := c.Get("percentiles:BTC:24h")
		require.True(t, found)
		assert.Equal(t, 101234.5, got)
	})

	t.Run("get-missing-key", func(t *testing.T) {
		_, found := c.Get("percentiles:DOGE:24h")
		assert.False(t, found)
	})

	t.Run("delete", func(t *testing.T) {
		c.Set("percentiles:ETH:1h", "eth", time.Hour)
		c.Wait()
		c.Delete("percentiles:ETH:1h")

		_, found := c.Get("percentiles:ETH:1h")
		assert.False(t, found)
	})

	t.Run("ttl-expiration", func(t *testing.T) {
		c.Set("percentiles:SOL:1h", "sol", 200*time.Millisecond)
		c.Wait()

		_, found := c.Get("percentiles:SOL:1h")
		require.True(t, found)

		time.Sleep(400 * time.Millisecond)
		_, found = c.Get("percentiles:SOL:1h")
		assert.False(t, found)
	})

	t.Run("clear", func(t *testing.T) {
		c.Set("a", 1, time.Hour)
		c.Set("b", 2, time.Hour)
		c.Wait()
		c.Clear()

		_, foundA := c.Get("a")
		_, foundB := c.Get("b")
		assert.False(t, foundA)
		assert.False(t, foundB)
	})
}

func TestDefaultRistrettoConfig(t *testing.T) {
	cfg := DefaultRistrettoConfig(nil)

	c, err := NewRistrettoCache(cfg)
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, cfg.NumCounters, 10*cfg.MaxCost)
}
