package app

import (
	"context"
	"fmt"
	"time"

	"github.com/synthlab/alphalog/internal/collector"
	"github.com/synthlab/alphalog/internal/crossasset"
	"github.com/synthlab/alphalog/internal/distribution"
	"github.com/synthlab/alphalog/internal/edge"
	"github.com/synthlab/alphalog/internal/positionrisk"
	"github.com/synthlab/alphalog/internal/probability"
	"github.com/synthlab/alphalog/internal/storage"
	"github.com/synthlab/alphalog/internal/synth"
	"github.com/synthlab/alphalog/internal/tracker"
	"github.com/synthlab/alphalog/internal/trends"
	"github.com/synthlab/alphalog/pkg/cache"
	"github.com/synthlab/alphalog/pkg/config"
	"github.com/synthlab/alphalog/pkg/healthprobe"
	"github.com/synthlab/alphalog/pkg/httpserver"
	"github.com/synthlab/alphalog/pkg/types"
	"go.uber.org/zap"
)

// Components is every domain component built from configuration. The CLI
// subcommands share it with the long-running app.
type Components struct {
	Client       *synth.Client
	Cache        *cache.RistrettoCache
	Engine       *probability.Engine
	RiskAnalyzer *positionrisk.Analyzer
	Distribution *distribution.Analyzer
	CrossAsset   *crossasset.Analyzer
	EdgeDetector *edge.Detector
	Tracker      *tracker.Tracker
	Mirror       storage.Mirror
	Store        *collector.Store
	Collector    *collector.Collector
	Pipeline     *collector.Pipeline
	Trends       *trends.Analyzer
}

// BuildComponents creates all domain components. onSnapshot may be nil.
func BuildComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger, onSnapshot func(*types.Snapshot)) (*Components, error) {
	client := setupSynthClient(cfg, logger)

	forecastCache, err := setupCache(logger)
	if err != nil {
		return nil, fmt.Errorf("setup cache: %w", err)
	}

	engine := probability.New(probability.Config{
		Source:  synth.NewCachedSource(client, forecastCache, cfg.ForecastCacheTTL),
		ProbMin: cfg.ProbMin,
		ProbMax: cfg.ProbMax,
	})

	mirror, err := setupMirror(ctx, cfg, logger)
	if err != nil {
		forecastCache.Close()
		return nil, fmt.Errorf("setup mirror: %w", err)
	}

	edgeTracker, err := setupTracker(cfg, logger, mirror)
	if err != nil {
		forecastCache.Close()
		closeMirror(mirror, logger)
		return nil, fmt.Errorf("setup tracker: %w", err)
	}

	dist := distribution.New(distribution.Config{
		Assets:              cfg.Assets,
		Percentiles1hAssets: cfg.Percentiles1hAssets,
	})
	cross := crossasset.New(crossasset.Config{OutlierZThreshold: cfg.OutlierZThreshold})
	detector := edge.New(edge.Config{Assets: cfg.Assets, Logger: logger})
	store := collector.NewStore(cfg.SnapshotsDir, logger)

	coll := collector.New(collector.Config{
		Client:                 client,
		Assets:                 cfg.Assets,
		Percentiles1hAssets:    cfg.Percentiles1hAssets,
		PolymarketDailyAssets:  cfg.PolymarketDailyAssets,
		PolymarketHourlyAssets: cfg.PolymarketHourlyAssets,
		Logger:                 logger,
	})

	pipeline := collector.NewPipeline(collector.PipelineConfig{
		Collector:    coll,
		Store:        store,
		Distribution: dist,
		CrossAsset:   cross,
		Edges:        detector,
		Tracker:      edgeTracker,
		Interval:     cfg.CollectInterval,
		Logger:       logger,
		OnSnapshot:   onSnapshot,
	})

	return &Components{
		Client:       client,
		Cache:        forecastCache,
		Engine:       engine,
		RiskAnalyzer: positionrisk.New(positionrisk.Config{Engine: engine}),
		Distribution: dist,
		CrossAsset:   cross,
		EdgeDetector: detector,
		Tracker:      edgeTracker,
		Mirror:       mirror,
		Store:        store,
		Collector:    coll,
		Pipeline:     pipeline,
		Trends:       trends.New(dist),
	}, nil
}

// Close releases the cache and the mirror.
func (c *Components) Close(logger *zap.Logger) {
	if c.Cache != nil {
		c.Cache.Close()
	}
	closeMirror(c.Mirror, logger)
}

// New creates a new application instance.
func New(cfg *config.Config, logger *zap.Logger, opts *Options) (*App, error) {
	if opts == nil {
		opts = &Options{}
	}

	ctx, cancel := context.WithCancel(context.Background())

	healthChecker := setupHealthChecker(cfg)

	components, err := BuildComponents(ctx, cfg, logger, func(snap *types.Snapshot) {
		healthChecker.MarkSnapshot(snap.Timestamp)
	})
	if err != nil {
		cancel()
		return nil, err
	}

	var httpServer *httpserver.Server
	if !opts.DisableHTTP {
		httpServer = setupHTTPServer(cfg, logger, healthChecker, components)
	}

	return &App{
		cfg:           cfg,
		logger:        logger,
		components:    components,
		healthChecker: healthChecker,
		httpServer:    httpServer,
		ctx:           ctx,
		cancel:        cancel,
		pipelineErr:   make(chan error, 1),
	}, nil
}

// setupHealthChecker reports not ready once two collection intervals pass
// without a snapshot.
func setupHealthChecker(cfg *config.Config) *healthprobe.HealthChecker {
	return healthprobe.NewWithMaxSnapshotAge(2 * cfg.CollectInterval)
}

func setupHTTPServer(
	cfg *config.Config,
	logger *zap.Logger,
	healthChecker *healthprobe.HealthChecker,
	c *Components,
) *httpserver.Server {
	return httpserver.New(&httpserver.Config{
		Port:                cfg.HTTPPort,
		Logger:              logger,
		HealthChecker:       healthChecker,
		Engine:              c.Engine,
		RiskAnalyzer:        c.RiskAnalyzer,
		Tracker:             c.Tracker,
		Trends:              c.Trends,
		Snapshots:           c.Store,
		Assets:              cfg.Assets,
		Percentiles1hAssets: cfg.Percentiles1hAssets,
	})
}

func setupSynthClient(cfg *config.Config, logger *zap.Logger) *synth.Client {
	return synth.NewClient(synth.Config{
		BaseURL:        cfg.SynthBaseURL,
		APIKey:         cfg.SynthAPIKey,
		Timeout:        cfg.SynthTimeout,
		MaxRetries:     cfg.SynthMaxRetries,
		BackoffInitial: cfg.SynthBackoffInitial,
		Logger:         logger,
	})
}

func setupCache(logger *zap.Logger) (*cache.RistrettoCache, error) {
	return cache.NewRistrettoCache(cache.DefaultRistrettoConfig(logger))
}

func setupTracker(cfg *config.Config, logger *zap.Logger, mirror storage.Mirror) (*tracker.Tracker, error) {
	repo, err := tracker.NewFileRepository(cfg.EdgesDir)
	if err != nil {
		return nil, err
	}

	trackerCfg := tracker.Config{Repository: repo, Logger: logger}
	if mirror != nil {
		trackerCfg.Mirror = mirror
	}
	return tracker.New(trackerCfg), nil
}

func setupMirror(ctx context.Context, cfg *config.Config, logger *zap.Logger) (storage.Mirror, error) {
	switch cfg.MirrorMode {
	case config.MirrorModeConsole:
		return storage.NewConsoleMirror(logger), nil
	case config.MirrorModePostgres:
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		mirror, err := storage.NewPostgresMirror(connectCtx, &storage.PostgresConfig{
			Host:     cfg.PostgresHost,
			Port:     cfg.PostgresPort,
			User:     cfg.PostgresUser,
			Password: cfg.PostgresPass,
			Database: cfg.PostgresDB,
			SSLMode:  cfg.PostgresSSL,
			Logger:   logger,
		})
		if err != nil {
			return nil, err
		}
		return mirror, nil
	default:
		logger.Info("edge-mirror-disabled")
		return nil, nil
	}
}

func closeMirror(m storage.Mirror, logger *zap.Logger) {
	if m == nil {
		return
	}
	err := m.Close()
	if err != nil {
		logger.Error("mirror-close-error", zap.Error(err))
	}
}
