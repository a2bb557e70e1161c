// Package app wires the collector loop, edge tracker and query API into one
// long-running process.
package app

import (
	"context"
	"sync"

	"github.com/synthlab/alphalog/pkg/config"
	"github.com/synthlab/alphalog/pkg/healthprobe"
	"github.com/synthlab/alphalog/pkg/httpserver"
	"go.uber.org/zap"
)

// App is the main application orchestrator.
type App struct {
	cfg           *config.Config
	logger        *zap.Logger
	components    *Components
	healthChecker *healthprobe.HealthChecker
	httpServer    *httpserver.Server
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
	pipelineErr   chan error
}

// Options holds application options.
type Options struct {
	// DisableHTTP runs the collector loop without the query API.
	DisableHTTP bool
}
