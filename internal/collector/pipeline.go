package collector

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/synthlab/alphalog/internal/anomaly"
	"github.com/synthlab/alphalog/internal/crossasset"
	"github.com/synthlab/alphalog/internal/distribution"
	"github.com/synthlab/alphalog/internal/edge"
	"github.com/synthlab/alphalog/internal/synthindex"
	"github.com/synthlab/alphalog/internal/tracker"
	"github.com/synthlab/alphalog/pkg/types"
	"go.uber.org/zap"
)

// DefaultInterval is the collection cadence when none is configured.
const DefaultInterval = time.Hour

// Analysis is everything derived from one snapshot.
type Analysis struct {
	Metrics    distribution.MetricsMap      `json:"metrics"`
	SynthIndex map[string]*synthindex.Score `json:"synth_index"`
	Anomalies  []anomaly.Anomaly            `json:"anomalies"`
	CrossAsset *crossasset.Result           `json:"cross_asset"`
}

// Result summarizes one pipeline cycle.
type Result struct {
	Snapshot     *types.Snapshot `json:"-"`
	SnapshotPath string          `json:"snapshot_path"`
	Analysis     *Analysis       `json:"analysis"`
	Edges        []edge.Edge     `json:"edges"`
	Recorded     int             `json:"recorded"`
	Resolved     int             `json:"resolved"`
	Correct      int             `json:"correct"`
}

// PipelineConfig wires the cycle's collaborators.
type PipelineConfig struct {
	Collector    *Collector
	Store        *Store
	Distribution *distribution.Analyzer
	CrossAsset   *crossasset.Analyzer
	Edges        *edge.Detector
	Tracker      *tracker.Tracker
	Interval     time.Duration
	Logger       *zap.Logger

	// OnSnapshot is called after every saved snapshot.
	OnSnapshot func(*types.Snapshot)
}

// Pipeline runs collect, store, analyze and track on an interval.
type Pipeline struct {
	collector *Collector
	store     *Store
	dist      *distribution.Analyzer
	cross     *crossasset.Analyzer
	edges     *edge.Detector
	tracker   *tracker.Tracker
	interval  time.Duration
	logger    *zap.Logger
	onSave    func(*types.Snapshot)

	mu       sync.RWMutex
	previous distribution.MetricsMap
	latest   *Result
	loaded   bool
}

// NewPipeline creates a pipeline.
func NewPipeline(cfg PipelineConfig) *Pipeline {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Pipeline{
		collector: cfg.Collector,
		store:     cfg.Store,
		dist:      cfg.Distribution,
		cross:     cfg.CrossAsset,
		edges:     cfg.Edges,
		tracker:   cfg.Tracker,
		interval:  interval,
		logger:    logger,
		onSave:    cfg.OnSnapshot,
	}
}

// Analyze derives metrics, index scores, anomalies against previous and the
// cross-asset view for a snapshot.
func (p *Pipeline) Analyze(snap *types.Snapshot, previous distribution.MetricsMap) *Analysis {
	metrics := p.dist.AnalyzeSnapshot(snap)
	scores := synthindex.Compute(metrics)

	anomalies := make([]anomaly.Anomaly, 0)
	if previous != nil {
		anomalies = append(anomalies, anomaly.Detect(metrics, previous)...)
	}

	return &Analysis{
		Metrics:    metrics,
		SynthIndex: scores,
		Anomalies:  anomalies,
		CrossAsset: p.cross.Analyze(metrics, scores),
	}
}

// RunOnce executes a single cycle. The snapshot is saved even when
// collection fails authentication; analysis and tracking are skipped then.
func (p *Pipeline) RunOnce(ctx context.Context) (*Result, error) {
	start := time.Now()
	defer func() {
		CycleDurationSeconds.Observe(time.Since(start).Seconds())
	}()

	previous := p.previousMetrics()

	snap, collectErr := p.collector.Collect(ctx)
	if snap == nil {
		CyclesTotal.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("collect snapshot: %w", collectErr)
	}

	path, err := p.store.Save(snap)
	if err != nil {
		CyclesTotal.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("save snapshot: %w", err)
	}
	LastSnapshotTimestamp.Set(float64(snap.Timestamp.Unix()))
	if p.onSave != nil {
		p.onSave(snap)
	}

	result := &Result{Snapshot: snap, SnapshotPath: path}
	if collectErr != nil {
		CyclesTotal.WithLabelValues("auth_failed").Inc()
		p.setLatest(result, nil)
		return result, collectErr
	}

	result.Analysis = p.Analyze(snap, previous)

	if p.tracker != nil {
		resolved, correct, err := p.tracker.Resolve(ctx, snap)
		if err != nil {
			p.logger.Error("edge-resolution-failed", zap.Error(err))
		}
		result.Resolved, result.Correct = resolved, correct
	}

	if p.edges != nil {
		result.Edges = p.edges.Detect(snap, result.Analysis.Metrics)
	}
	if p.tracker != nil && len(result.Edges) > 0 {
		recorded, err := p.tracker.Record(ctx, result.Edges, snap)
		if err != nil {
			p.logger.Error("edge-recording-failed", zap.Error(err))
		}
		result.Recorded = recorded
	}

	p.setLatest(result, result.Analysis.Metrics)
	CyclesTotal.WithLabelValues("ok").Inc()

	p.logger.Info("cycle-complete",
		zap.String("snapshot", path),
		zap.Int("metrics", len(result.Analysis.Metrics)),
		zap.Int("anomalies", len(result.Analysis.Anomalies)),
		zap.Int("edges", len(result.Edges)),
		zap.Int("recorded", result.Recorded),
		zap.Int("resolved", result.Resolved),
		zap.Duration("duration", time.Since(start)))
	return result, nil
}

// Run executes a cycle immediately and then on every interval tick until ctx
// is cancelled. Auth failures stop the loop.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline-starting", zap.Duration("interval", p.interval))

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	if err := p.cycle(ctx); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("pipeline-stopping")
			return ctx.Err()
		case <-ticker.C:
			if err := p.cycle(ctx); err != nil {
				return err
			}
		}
	}
}

func (p *Pipeline) cycle(ctx context.Context) error {
	_, err := p.RunOnce(ctx)
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrAuthFailed) {
		p.logger.Error("pipeline-auth-failed", zap.Error(err))
		return err
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	p.logger.Error("cycle-failed", zap.Error(err))
	return nil
}

// Latest returns the most recent cycle result, or nil before the first one.
func (p *Pipeline) Latest() *Result {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.latest
}

func (p *Pipeline) setLatest(result *Result, metrics distribution.MetricsMap) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.latest = result
	if metrics != nil {
		p.previous = metrics
	}
}

// previousMetrics returns the last cycle's metrics. On the first cycle it
// falls back to the newest stored snapshot.
func (p *Pipeline) previousMetrics() distribution.MetricsMap {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.previous != nil || p.loaded {
		return p.previous
	}
	p.loaded = true

	latest, err := p.store.Latest(1)
	if err != nil || len(latest) == 0 {
		return nil
	}
	p.previous = p.dist.AnalyzeSnapshot(latest[0])
	return p.previous
}
