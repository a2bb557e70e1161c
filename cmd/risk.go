package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/synthlab/alphalog/internal/app"
	"github.com/synthlab/alphalog/internal/positionrisk"
	"github.com/synthlab/alphalog/pkg/config"
	"github.com/synthlab/alphalog/pkg/types"
)

//nolint:gochecknoglobals // Cobra boilerplate
var riskCmd = &cobra.Command{
	Use:   "risk",
	Short: "Analyze a leveraged position against the forecast",
	Long: `Computes liquidation price and probability, take-profit and stop-loss hit
probabilities, the P&L at every forecast percentile and a composite risk
score for a leveraged position.

Example:
  alphalog risk --asset BTC --entry 85000 --leverage 10 --direction long --sl 83000`,
	RunE: runRisk,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(riskCmd)
	riskCmd.Flags().StringP("asset", "a", "BTC", "Asset symbol")
	riskCmd.Flags().Float64P("entry", "e", 0, "Entry price (required)")
	riskCmd.Flags().Float64P("leverage", "x", 1, "Leverage multiple")
	riskCmd.Flags().StringP("direction", "d", "LONG", "LONG or SHORT")
	riskCmd.Flags().Float64("tp", 0, "Take-profit price")
	riskCmd.Flags().Float64("sl", 0, "Stop-loss price")
	riskCmd.Flags().String("horizon", types.Horizon24h, "Forecast horizon: 1h or 24h")
	_ = riskCmd.MarkFlagRequired("entry")
}

func runRisk(cmd *cobra.Command, args []string) error {
	asset, _ := cmd.Flags().GetString("asset")
	entry, _ := cmd.Flags().GetFloat64("entry")
	leverage, _ := cmd.Flags().GetFloat64("leverage")
	directionStr, _ := cmd.Flags().GetString("direction")
	horizon, _ := cmd.Flags().GetString("horizon")

	direction, err := positionrisk.ParseDirection(directionStr)
	if err != nil {
		return err
	}

	pos := positionrisk.Position{
		Asset:      strings.ToUpper(asset),
		EntryPrice: entry,
		Leverage:   leverage,
		Direction:  direction,
		TakeProfit: optionalFloat(cmd, "tp"),
		StopLoss:   optionalFloat(cmd, "sl"),
		Horizon:    horizon,
	}
	if err := pos.Validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	return withComponents(ctx, false, func(_ *config.Config, c *app.Components) error {
		analysis, err := c.RiskAnalyzer.Analyze(ctx, pos)
		if err != nil {
			return fmt.Errorf("analyze position: %w", err)
		}

		if jsonOutput(cmd) {
			return printJSON(analysis)
		}

		printRisk(analysis)
		return nil
	})
}

func printRisk(a *positionrisk.Analysis) {
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("%s %s %.0fx @ %s (spot %s, %s)\n",
		a.Asset, a.Direction, a.Leverage, formatPrice(a.EntryPrice), formatPrice(a.CurrentPrice), a.Horizon)
	fmt.Printf("⚠️  Risk score: %d (%s)\n", a.RiskScore.Score, a.RiskScore.Label)
	for _, f := range a.RiskScore.Factors {
		fmt.Printf("   - %s\n", f)
	}
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

	fmt.Printf("💀 Liquidation: %s (%s away), probability %s [%s]\n",
		formatPrice(a.Liquidation.Price),
		formatPct(a.Liquidation.DistancePct/100),
		formatPct(a.Liquidation.Probability),
		a.Liquidation.RiskLevel)
	if a.TakeProfit != nil {
		fmt.Printf("🎯 Take profit: %s, probability %s\n", formatPrice(a.TakeProfit.Price), formatPct(a.TakeProfit.Probability))
	}
	if a.StopLoss != nil {
		fmt.Printf("🛑 Stop loss: %s, probability %s\n", formatPrice(a.StopLoss.Price), formatPct(a.StopLoss.Probability))
	}

	fmt.Printf("\nExpected P&L: %+.2f%%   Probability profitable: %s\n\n",
		a.PnLDistribution.ExpectedPnLPct, formatPct(a.PnLDistribution.ProbabilityProfitable))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "PERCENTILE\tPRICE\tPNL\n")
	for _, key := range positionrisk.LevelNames {
		level, ok := a.PnLDistribution.Percentiles[key]
		if !ok {
			continue
		}
		pnl := fmt.Sprintf("%+.2f%%", level.PnLPct)
		if level.PnLNote != "" {
			pnl += " " + level.PnLNote
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", key, formatPrice(level.Price), pnl)
	}
	w.Flush()
}
