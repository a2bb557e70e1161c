package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/synthlab/alphalog/internal/positionrisk"
	"github.com/synthlab/alphalog/internal/probability"
	"github.com/synthlab/alphalog/internal/tracker"
	"github.com/synthlab/alphalog/internal/trends"
	"github.com/synthlab/alphalog/pkg/healthprobe"
	"go.uber.org/zap"
)

// Server provides HTTP endpoints for metrics, health checks and queries.
type Server struct {
	server        *http.Server
	handler       http.Handler
	logger        *zap.Logger
	healthChecker *healthprobe.HealthChecker
}

// Config holds server configuration.
type Config struct {
	Port          string
	Logger        *zap.Logger
	HealthChecker *healthprobe.HealthChecker

	// Query API components. Routes whose component is nil are not mounted.
	Engine              *probability.Engine
	RiskAnalyzer        *positionrisk.Analyzer
	Tracker             *tracker.Tracker
	Trends              *trends.Analyzer
	Snapshots           SnapshotLoader
	Assets              []string
	Percentiles1hAssets []string
}

// New creates a new HTTP server.
func New(cfg *Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	// Routes
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	r.Get("/health", cfg.HealthChecker.Health())
	r.Get("/ready", cfg.HealthChecker.Ready())

	api := NewAPIHandler(cfg, logger)
	r.Route("/api", func(r chi.Router) {
		if cfg.Engine != nil {
			r.Get("/assets", api.HandleAssets)
			r.Post("/probability", api.HandleProbability)
			r.Get("/cone/{asset}", api.HandleCone)
		}
		if cfg.RiskAnalyzer != nil {
			r.Post("/position-risk", api.HandlePositionRisk)
		}
		if cfg.Tracker != nil {
			r.Get("/edges", api.HandleEdges)
			r.Get("/edges/stats", api.HandleEdgeStats)
		}
		if cfg.Trends != nil && cfg.Snapshots != nil {
			r.Get("/trends", api.HandleTrends)
		}
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      35 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &Server{
		server:        server,
		handler:       r,
		logger:        logger,
		healthChecker: cfg.HealthChecker,
	}
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start starts the HTTP server.
// This is a blocking call that returns when the server stops or encounters an error.
func (s *Server) Start() error {
	s.logger.Info("http-server-starting", zap.String("addr", s.server.Addr))

	err := s.server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("listen and serve: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http-server-shutting-down")

	err := s.server.Shutdown(ctx)
	if err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	s.logger.Info("http-server-shutdown-complete")
	return nil
}
