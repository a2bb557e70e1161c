package cmd

import (
	"context"
	"fmt"
	"maps"
	"os"
	"slices"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/synthlab/alphalog/internal/app"
	"github.com/synthlab/alphalog/internal/tracker"
	"github.com/synthlab/alphalog/pkg/config"
)

//nolint:gochecknoglobals // Cobra boilerplate
var edgesCmd = &cobra.Command{
	Use:   "edges",
	Short: "List open and recently resolved edges",
	RunE:  runEdges,
}

//nolint:gochecknoglobals // Cobra boilerplate
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cumulative edge performance",
	Long: `Recomputes hit rate, P&L and Sharpe ratio over every resolved edge, broken
down by asset, edge type and confidence.`,
	RunE: runStats,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(edgesCmd)
	rootCmd.AddCommand(statsCmd)
	edgesCmd.Flags().IntP("limit", "l", tracker.DefaultResolvedLimit, "Maximum number of resolved edges to show")
}

func runEdges(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	if limit < 1 {
		return fmt.Errorf("limit must be at least 1, got %d", limit)
	}

	return withComponents(context.Background(), false, func(_ *config.Config, c *app.Components) error {
		open, err := c.Tracker.OpenEdges()
		if err != nil {
			return fmt.Errorf("load open edges: %w", err)
		}
		resolved, err := c.Tracker.ResolvedEdges(limit)
		if err != nil {
			return fmt.Errorf("load resolved edges: %w", err)
		}

		if jsonOutput(cmd) {
			return printJSON(map[string][]tracker.Record{
				"open_edges":     open,
				"resolved_edges": resolved,
			})
		}

		fmt.Printf("Open edges: %d\n\n", len(open))
		printRecords(open)
		fmt.Printf("\nResolved edges (showing %d):\n\n", len(resolved))
		printRecords(resolved)
		return nil
	})
}

func printRecords(records []tracker.Record) {
	if len(records) == 0 {
		fmt.Println("  none")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "\tDETECTED\tASSET\tTYPE\tTF\tDIRECTION\tCONF\tEDGE\tDEADLINE\tOUTCOME\tPNL\n")
	for i := range records {
		r := &records[i]
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			resolutionIcon(r.Resolution),
			r.DetectedAt.Format("01-02 15:04"),
			r.Asset,
			r.EdgeType,
			r.Timeframe,
			r.Direction,
			r.Confidence,
			formatOptional(r.EdgeSize, formatPct),
			r.ResolutionDeadline.Format("01-02 15:04"),
			outcomeLabel(r),
			formatPnL(r.PnL))
	}
	w.Flush()
}

func outcomeLabel(r *tracker.Record) string {
	if !r.Resolved {
		return "-"
	}
	if r.ActualOutcome == "" {
		return string(r.Resolution)
	}
	return string(r.Resolution) + " (" + r.ActualOutcome + ")"
}

func runStats(cmd *cobra.Command, args []string) error {
	return withComponents(context.Background(), false, func(_ *config.Config, c *app.Components) error {
		stats, err := c.Tracker.Stats()
		if err != nil {
			return fmt.Errorf("compute stats: %w", err)
		}

		if jsonOutput(cmd) {
			return printJSON(stats)
		}

		fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		fmt.Printf("📊 Edges detected: %d (open %d, resolved %d)\n",
			stats.TotalDetected, stats.TotalOpen, stats.TotalResolved)
		fmt.Printf("✅ Correct: %d   ❌ Incorrect: %d   ❔ Unknown: %d\n",
			stats.Correct, stats.Incorrect, stats.Unknown)
		fmt.Printf("🎯 Hit rate: %s\n", formatPct(stats.HitRate))
		fmt.Printf("💰 Total P&L: %+.4f (avg %+.4f per edge)\n", stats.TotalPnL, stats.AvgPnL)
		fmt.Printf("📈 Sharpe: %.4f\n", stats.SharpeRatio)
		fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

		printGroupStats("BY ASSET", stats.ByAsset)
		printGroupStats("BY EDGE TYPE", stats.ByEdgeType)
		printGroupStats("BY CONFIDENCE", stats.ByConfidence)
		return nil
	})
}

func printGroupStats(title string, groups map[string]*tracker.GroupStats) {
	if len(groups) == 0 {
		return
	}

	fmt.Printf("\n%s\n", title)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "KEY\tTOTAL\tCORRECT\tHIT RATE\tTOTAL PNL\tAVG PNL\n")
	for _, key := range slices.Sorted(maps.Keys(groups)) {
		g := groups[key]
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\t%+.4f\t%+.4f\n",
			key, g.Total, g.Correct, formatPct(g.HitRate), g.TotalPnL, g.AvgPnL)
	}
	w.Flush()
}
