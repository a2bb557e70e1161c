package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/synthlab/alphalog/internal/app"
	"github.com/synthlab/alphalog/internal/trends"
	"github.com/synthlab/alphalog/pkg/config"
)

//nolint:gochecknoglobals // Cobra boilerplate
var trendsCmd = &cobra.Command{
	Use:   "trends",
	Short: "Summarize forecast history and edge performance",
	Long: `Replays every stored snapshot to build per-asset Synth-Index, bias, width
and skew series, then combines them with rolling and cumulative edge
performance. Use --export to write the full report as JSON.`,
	RunE: runTrends,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(trendsCmd)
	trendsCmd.Flags().StringP("export", "o", "", "Write the full report to this JSON file")
}

func runTrends(cmd *cobra.Command, args []string) error {
	exportPath, _ := cmd.Flags().GetString("export")

	return withComponents(context.Background(), false, func(_ *config.Config, c *app.Components) error {
		snapshots, err := c.Store.LoadAll()
		if err != nil {
			return fmt.Errorf("load snapshots: %w", err)
		}
		resolved, err := c.Tracker.ResolvedHistory()
		if err != nil {
			return fmt.Errorf("load resolved edges: %w", err)
		}

		report := c.Trends.GenerateReport(snapshots, resolved)

		if exportPath != "" {
			if err := trends.Export(exportPath, report); err != nil {
				return fmt.Errorf("export report: %w", err)
			}
			fmt.Printf("Report written to %s\n", exportPath)
			return nil
		}

		if jsonOutput(cmd) {
			return printJSON(report)
		}

		printReport(report)
		return nil
	})
}

func printReport(r *trends.Report) {
	if r.Period.Snapshots == 0 {
		fmt.Println("No snapshots found.")
	} else {
		fmt.Printf("Period: %s to %s (%d snapshots, %.1f hours)\n\n",
			r.Period.Start.Format("2006-01-02 15:04"),
			r.Period.End.Format("2006-01-02 15:04"),
			r.Period.Snapshots,
			r.Period.HoursCovered)
	}

	if len(r.AssetSummaries) > 0 {
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "ASSET\tHORIZON\tINDEX NOW\tINDEX MEAN\tRANK\tBIAS TREND\tWIDTH TREND\tSKEW FLIPS\n")
		for i := range r.AssetSummaries {
			s := &r.AssetSummaries[i]
			now, mean, rank := "-", "-", "-"
			if s.SynthIndex != nil {
				now = fmt.Sprintf("%.1f", s.SynthIndex.Current)
				mean = fmt.Sprintf("%.1f", s.SynthIndex.Mean)
				rank = fmt.Sprintf("%d", s.SynthIndex.PercentileRank)
			}
			biasTrend, widthTrend, flips := "-", "-", "-"
			if s.Bias != nil {
				biasTrend = string(s.Bias.Trend)
			}
			if s.Width != nil {
				widthTrend = string(s.Width.Trend)
			}
			if s.Skew != nil {
				flips = fmt.Sprintf("%d", s.Skew.Flips)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				s.Asset, s.Horizon, now, mean, rank, biasTrend, widthTrend, flips)
		}
		w.Flush()
	}

	perf := r.EdgePerformance
	fmt.Println()
	if perf == nil || perf.InsufficientData {
		fmt.Println("Edge performance: insufficient data")
		return
	}
	fmt.Printf("Edge performance over %d resolved edges\n", perf.TotalResolved)
	fmt.Printf("  Hit rate: %s   P&L: %+.4f   Sharpe: %.4f\n", formatPct(perf.HitRate), perf.PnL, perf.Sharpe)
	if perf.Best != nil && perf.Worst != nil {
		fmt.Printf("  Best window: %s   Worst window: %s\n", formatPct(perf.Best.HitRate), formatPct(perf.Worst.HitRate))
	}
}
