package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Mirror modes for the best-effort edge mirror.
const (
	MirrorModeNone     = "none"
	MirrorModeConsole  = "console"
	MirrorModePostgres = "postgres"
)

// Config holds all application configuration.
type Config struct {
	// Application
	LogLevel string
	HTTPPort string

	// Synth API
	SynthBaseURL        string
	SynthAPIKey         string
	SynthTimeout        time.Duration
	SynthMaxRetries     int
	SynthBackoffInitial time.Duration
	ForecastCacheTTL    time.Duration

	// Collection
	CollectInterval        time.Duration
	SnapshotsDir           string
	EdgesDir               string
	Assets                 []string
	Percentiles1hAssets    []string
	PolymarketDailyAssets  []string
	PolymarketHourlyAssets []string

	// Analytics
	ProbMin           float64
	ProbMax           float64
	OutlierZThreshold float64

	// Mirror
	MirrorMode   string // "none", "console" or "postgres"
	PostgresHost string
	PostgresPort string
	PostgresUser string
	PostgresPass string
	PostgresDB   string
	PostgresSSL  string
}

// DefaultAssets are the assets the forecast provider covers.
//
//nolint:gochecknoglobals // default asset universe
var DefaultAssets = []string{"BTC", "ETH", "SOL", "XAU", "SPY", "NVDA", "GOOGL", "TSLA", "AAPL"}

// LoadFromEnv loads configuration from environment variables with defaults.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		// Application defaults
		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
		HTTPPort: getEnvOrDefault("HTTP_PORT", "8080"),

		// Synth API defaults
		SynthBaseURL:        getEnvOrDefault("SYNTH_BASE_URL", "https://api.synthdata.co"),
		SynthAPIKey:         os.Getenv("SYNTH_API_KEY"),
		SynthTimeout:        getDurationOrDefault("SYNTH_TIMEOUT", 30*time.Second),
		SynthMaxRetries:     getIntOrDefault("SYNTH_MAX_RETRIES", 3),
		SynthBackoffInitial: getDurationOrDefault("SYNTH_BACKOFF_INITIAL", 1*time.Second),
		ForecastCacheTTL:    getDurationOrDefault("FORECAST_CACHE_TTL", 5*time.Minute),

		// Collection defaults
		CollectInterval:        getDurationOrDefault("ALPHALOG_INTERVAL", 1*time.Hour),
		SnapshotsDir:           getEnvOrDefault("SNAPSHOTS_DIR", "data/snapshots"),
		EdgesDir:               getEnvOrDefault("EDGES_DIR", "data/edges"),
		Assets:                 getListOrDefault("ASSETS", DefaultAssets),
		Percentiles1hAssets:    getListOrDefault("PERCENTILES_1H_ASSETS", []string{"BTC", "ETH", "SOL", "XAU"}),
		PolymarketDailyAssets:  getListOrDefault("POLYMARKET_DAILY_ASSETS", DefaultAssets),
		PolymarketHourlyAssets: getListOrDefault("POLYMARKET_HOURLY_ASSETS", []string{"BTC", "ETH", "SOL"}),

		// Analytics defaults
		ProbMin:           getFloat64OrDefault("PROB_MIN", 0.001),
		ProbMax:           getFloat64OrDefault("PROB_MAX", 0.999),
		OutlierZThreshold: getFloat64OrDefault("OUTLIER_Z_THRESHOLD", 1.5),

		// Mirror defaults
		MirrorMode:   getEnvOrDefault("MIRROR_MODE", MirrorModeNone),
		PostgresHost: getEnvOrDefault("POSTGRES_HOST", "localhost"),
		PostgresPort: getEnvOrDefault("POSTGRES_PORT", "5432"),
		PostgresUser: getEnvOrDefault("POSTGRES_USER", "alphalog"),
		PostgresPass: getEnvOrDefault("POSTGRES_PASSWORD", ""),
		PostgresDB:   getEnvOrDefault("POSTGRES_DB", "alphalog"),
		PostgresSSL:  getEnvOrDefault("POSTGRES_SSLMODE", "disable"),
	}

	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate checks that configuration values are valid.
func (c *Config) Validate() error {
	if c.HTTPPort == "" {
		return fmt.Errorf("HTTP_PORT cannot be empty")
	}

	if c.SynthBaseURL == "" {
		return fmt.Errorf("SYNTH_BASE_URL cannot be empty")
	}

	if c.SynthMaxRetries < 1 {
		return fmt.Errorf("SYNTH_MAX_RETRIES must be at least 1, got %d", c.SynthMaxRetries)
	}

	if c.CollectInterval <= 0 {
		return fmt.Errorf("ALPHALOG_INTERVAL must be positive, got %s", c.CollectInterval)
	}

	if len(c.Assets) == 0 {
		return fmt.Errorf("ASSETS cannot be empty")
	}

	if c.ProbMin <= 0 || c.ProbMax >= 1.0 || c.ProbMin >= c.ProbMax {
		return fmt.Errorf("PROB_MIN/PROB_MAX must satisfy 0 < min < max < 1, got %f/%f", c.ProbMin, c.ProbMax)
	}

	if c.OutlierZThreshold <= 0 {
		return fmt.Errorf("OUTLIER_Z_THRESHOLD must be positive, got %f", c.OutlierZThreshold)
	}

	switch c.MirrorMode {
	case MirrorModeNone, MirrorModeConsole, MirrorModePostgres:
	default:
		return fmt.Errorf("MIRROR_MODE must be 'none', 'console' or 'postgres', got %q", c.MirrorMode)
	}

	return nil
}

func getEnvOrDefault(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intVal, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intVal
}

func getFloat64OrDefault(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	floatVal, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}

	return floatVal
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}

	return duration
}

// getListOrDefault parses a comma-separated, upper-cased asset list.
func getListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return append([]string(nil), defaultValue...)
	}

	var out []string
	for _, part := range strings.Split(value, ",") {
		part = strings.ToUpper(strings.TrimSpace(part))
		if part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return append([]string(nil), defaultValue...)
	}

	return out
}
