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
	"github.com/synthlab/alphalog/internal/collector"
	"github.com/synthlab/alphalog/internal/distribution"
	"github.com/synthlab/alphalog/pkg/config"
)

//nolint:gochecknoglobals // Cobra boilerplate
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze the latest stored snapshot",
	Long: `Loads the newest snapshot from SNAPSHOTS_DIR and prints its shape metrics,
Synth-Index scores, cross-asset regime and the anomalies found against the
snapshot before it. Nothing is fetched and no edges are recorded.`,
	RunE: runAnalyze,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	return withComponents(context.Background(), false, func(_ *config.Config, c *app.Components) error {
		latest, err := c.Store.Latest(2)
		if err != nil {
			return fmt.Errorf("load snapshots: %w", err)
		}
		if len(latest) == 0 {
			fmt.Println("No snapshots found. Run 'alphalog collect' first.")
			return nil
		}

		var previous distribution.MetricsMap
		if len(latest) > 1 {
			previous = c.Distribution.AnalyzeSnapshot(latest[1])
		}
		analysis := c.Pipeline.Analyze(latest[0], previous)

		if jsonOutput(cmd) {
			return printJSON(analysis)
		}

		fmt.Printf("Snapshot: %s\n\n", latest[0].Timestamp.Format("2006-01-02 15:04:05 MST"))
		printAnalysis(analysis)
		return nil
	})
}

func printAnalysis(a *collector.Analysis) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "KEY\tPRICE\tMEDIAN\tBIAS\tWIDTH\tSKEW\tFATNESS\tREGIME\tINDEX\n")
	fmt.Fprintf(w, "---\t-----\t------\t----\t-----\t----\t-------\t------\t-----\n")
	for _, key := range slices.Sorted(maps.Keys(a.Metrics)) {
		m := a.Metrics[key]
		index := "-"
		if score, ok := a.SynthIndex[key]; ok {
			index = fmt.Sprintf("%.1f %s", score.SynthIndex, score.Level)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%.4f\t%.4f\t%s\t%s\n",
			key,
			formatPrice(m.CurrentPrice),
			formatPrice(m.MedianForecast),
			formatPct(m.DirectionalBias),
			formatPct(m.ForecastWidth),
			m.TailAsymmetry,
			m.TailFatness,
			m.Regime,
			index)
	}
	w.Flush()

	if a.CrossAsset != nil {
		fmt.Println("\n━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		fmt.Printf("Regime: %s\n", a.CrossAsset.CrossGroup.Regime)
		fmt.Printf("%s\n", a.CrossAsset.CrossGroup.Description)
		for _, name := range slices.Sorted(maps.Keys(a.CrossAsset.Groups)) {
			g := a.CrossAsset.Groups[name]
			fmt.Printf("  %s: consensus %.4f (%s), avg bias %s\n",
				name, g.Consensus, g.ConsensusLevel, formatPct(g.AvgBias))
			if g.Outlier != nil {
				fmt.Printf("    outlier %s: %s\n", g.Outlier.Asset, g.Outlier.Reason)
			}
		}
		fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	}

	fmt.Printf("\nAnomalies: %d\n", len(a.Anomalies))
	for i := range a.Anomalies {
		fmt.Printf("  [%s] %s\n", a.Anomalies[i].Severity, a.Anomalies[i].Description)
	}
}
