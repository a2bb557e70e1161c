package app

import (
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// Run starts the application and blocks until shutdown.
func (a *App) Run() error {
	a.logger.Info("application-starting",
		zap.Strings("assets", a.cfg.Assets),
		zap.Duration("interval", a.cfg.CollectInterval),
		zap.String("mirror-mode", a.cfg.MirrorMode),
		zap.String("log-level", a.cfg.LogLevel))

	a.startComponents()

	// Mark as ready
	a.healthChecker.SetReady(true)

	if a.httpServer != nil {
		a.logger.Info("application-ready", zap.String("http-addr", ":"+a.cfg.HTTPPort))
	} else {
		a.logger.Info("application-ready")
	}

	// Wait for shutdown signal
	return a.waitForShutdown()
}

func (a *App) startComponents() {
	if a.httpServer != nil {
		a.wg.Add(1)
		go a.runHTTPServer()

		// Give HTTP server a moment to start
		time.Sleep(100 * time.Millisecond)
	}

	a.wg.Add(1)
	go a.runPipeline()
}

func (a *App) runHTTPServer() {
	defer a.wg.Done()
	err := a.httpServer.Start()
	if err != nil {
		a.logger.Error("http-server-error", zap.Error(err))
	}
}

func (a *App) runPipeline() {
	defer a.wg.Done()
	err := a.components.Pipeline.Run(a.ctx)
	if err != nil && !errors.Is(err, a.ctx.Err()) {
		a.logger.Error("pipeline-error", zap.Error(err))
		a.pipelineErr <- err
	}
}

func (a *App) waitForShutdown() error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	var runErr error
	select {
	case sig := <-sigChan:
		a.logger.Info("shutdown-signal-received", zap.String("signal", sig.String()))
	case runErr = <-a.pipelineErr:
		a.logger.Error("pipeline-stopped", zap.Error(runErr))
	case <-a.ctx.Done():
		a.logger.Info("context-cancelled")
	}

	err := a.Shutdown()
	if runErr != nil {
		return runErr
	}
	return err
}
