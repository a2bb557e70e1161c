package trends

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
	"github.com/synthlab/alphalog/internal/tracker"
	"github.com/synthlab/alphalog/pkg/types"
)

// Report combines history, per-key summaries and edge performance.
type Report struct {
	Period          Period                  `json:"period"`
	AssetSummaries  []AssetSummary          `json:"asset_summaries"`
	EdgePerformance *EdgePerformance        `json:"edge_performance"`
	SynthIndex      map[string][]IndexPoint `json:"synth_index_history"`
}

// GenerateReport replays snapshots and summarizes resolved edges.
func (a *Analyzer) GenerateReport(snapshots []*types.Snapshot, resolved []tracker.Record) *Report {
	h := a.ComputeHistory(snapshots)
	return &Report{
		Period:          h.Period,
		AssetSummaries:  SummaryStats(h),
		EdgePerformance: ComputeEdgePerformance(resolved),
		SynthIndex:      h.SynthIndex,
	}
}

// Export writes the report as indented JSON, creating parent directories.
func Export(path string, report *Report) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
