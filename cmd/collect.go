package cmd

import (
	"context"
	"fmt"
	"maps"
	"os"
	"slices"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/synthlab/alphalog/internal/app"
	"github.com/synthlab/alphalog/internal/collector"
	"github.com/synthlab/alphalog/pkg/config"
)

//nolint:gochecknoglobals // Cobra boilerplate
var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Run a single collection cycle",
	Long: `Collects one snapshot, saves it, analyzes it against the previous stored
snapshot, resolves due edges and records new ones. Useful from cron when
the long-running process is not deployed.`,
	RunE: runCollect,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(collectCmd)
	collectCmd.Flags().Duration("timeout", 5*time.Minute, "Maximum time for the cycle")
}

func runCollect(cmd *cobra.Command, args []string) error {
	timeout, _ := cmd.Flags().GetDuration("timeout")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	return withComponents(ctx, true, func(_ *config.Config, c *app.Components) error {
		result, runErr := c.Pipeline.RunOnce(ctx)
		if result == nil {
			return fmt.Errorf("run cycle: %w", runErr)
		}

		if jsonOutput(cmd) {
			if err := printJSON(result); err != nil {
				return err
			}
			return runErr
		}

		printCycle(result)
		return runErr
	})
}

func printCycle(result *collector.Result) {
	snap := result.Snapshot
	fmt.Printf("Snapshot saved: %s\n", result.SnapshotPath)
	fmt.Printf("Collected %d assets in %dms (partial: %v)\n\n",
		len(snap.Assets), snap.CollectionDurationMS, snap.Partial)

	for _, e := range snap.CollectionErrors {
		fmt.Printf("  ⚠️  %s\n", e)
	}

	if result.Analysis == nil {
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ASSET\tHORIZON\tSYNTH-INDEX\tLEVEL\n")
	fmt.Fprintf(w, "-----\t-------\t-----------\t-----\n")
	for _, key := range slices.Sorted(maps.Keys(result.Analysis.SynthIndex)) {
		score := result.Analysis.SynthIndex[key]
		fmt.Fprintf(w, "%s\t%s\t%.1f\t%s\n", score.Asset, score.Horizon, score.SynthIndex, score.Level)
	}
	w.Flush()

	fmt.Printf("\nAnomalies: %d\n", len(result.Analysis.Anomalies))
	for i := range result.Analysis.Anomalies {
		a := &result.Analysis.Anomalies[i]
		fmt.Printf("  [%s] %s\n", a.Severity, a.Description)
	}

	fmt.Printf("\nEdges detected: %d (recorded %d)\n", len(result.Edges), result.Recorded)
	for i := range result.Edges {
		e := &result.Edges[i]
		fmt.Printf("  %s %s %s %s: %s\n", e.Asset, e.Timeframe, e.Direction, e.Confidence, e.Description)
	}

	fmt.Printf("\nResolved: %d (correct %d)\n", result.Resolved, result.Correct)
}
