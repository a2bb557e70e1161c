package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		HTTPPort:          "8080",
		SynthBaseURL:      "https://api.synthdata.co",
		SynthMaxRetries:   3,
		CollectInterval:   time.Hour,
		Assets:            []string{"BTC"},
		ProbMin:           0.001,
		ProbMax:           0.999,
		OutlierZThreshold: 1.5,
		MirrorMode:        MirrorModeNone,
	}
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, 5*time.Minute, cfg.ForecastCacheTTL)
	assert.Equal(t, DefaultAssets, cfg.Assets)
	assert.Equal(t, []string{"BTC", "ETH", "SOL", "XAU"}, cfg.Percentiles1hAssets)
	assert.Equal(t, []string{"BTC", "ETH", "SOL"}, cfg.PolymarketHourlyAssets)
	assert.InDelta(t, 0.001, cfg.ProbMin, 1e-12)
	assert.InDelta(t, 0.999, cfg.ProbMax, 1e-12)
	assert.InDelta(t, 1.5, cfg.OutlierZThreshold, 1e-12)
	assert.Equal(t, MirrorModeNone, cfg.MirrorMode)
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	t.Setenv("ASSETS", " btc, eth ,,sol")
	t.Setenv("ALPHALOG_INTERVAL", "15m")
	t.Setenv("OUTLIER_Z_THRESHOLD", "2.0")
	t.Setenv("SYNTH_MAX_RETRIES", "not-a-number")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, []string{"BTC", "ETH", "SOL"}, cfg.Assets)
	assert.Equal(t, 15*time.Minute, cfg.CollectInterval)
	assert.InDelta(t, 2.0, cfg.OutlierZThreshold, 1e-12)
	assert.Equal(t, 3, cfg.SynthMaxRetries)
}

func TestLoadFromEnv_InvalidMirrorMode(t *testing.T) {
	t.Setenv("MIRROR_MODE", "kafka")

	_, err := LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MIRROR_MODE")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(*Config) {},
		},
		{
			name:    "empty-http-port",
			mutate:  func(c *Config) { c.HTTPPort = "" },
			wantErr: "HTTP_PORT cannot be empty",
		},
		{
			name:    "empty-base-url",
			mutate:  func(c *Config) { c.SynthBaseURL = "" },
			wantErr: "SYNTH_BASE_URL cannot be empty",
		},
		{
			name:    "zero-retries",
			mutate:  func(c *Config) { c.SynthMaxRetries = 0 },
			wantErr: "SYNTH_MAX_RETRIES must be at least 1, got 0",
		},
		{
			name:    "inverted-prob-bounds",
			mutate:  func(c *Config) { c.ProbMin, c.ProbMax = 0.9, 0.1 },
			wantErr: "PROB_MIN/PROB_MAX",
		},
		{
			name:    "prob-max-one",
			mutate:  func(c *Config) { c.ProbMax = 1.0 },
			wantErr: "PROB_MIN/PROB_MAX",
		},
		{
			name:    "no-assets",
			mutate:  func(c *Config) { c.Assets = nil },
			wantErr: "ASSETS cannot be empty",
		},
		{
			name:    "non-positive-interval",
			mutate:  func(c *Config) { c.CollectInterval = 0 },
			wantErr: "ALPHALOG_INTERVAL must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger("")
	require.NoError(t, err)
	assert.NotNil(t, logger)

	_, err = NewLogger("verbose")
	assert.Error(t, err)
}
