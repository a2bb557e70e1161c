package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var rootCmd = &cobra.Command{
	Use:   "alphalog",
	Short: "Percentile forecast analytics and edge tracking",
	Long: `alphalog collects percentile price forecasts and prediction market odds
on a fixed interval, derives distribution shape metrics, uncertainty scores,
anomalies and cross-asset regimes, and records edges where the forecast
disagrees with the market so they can be scored once they resolve.

It also answers ad-hoc questions about a single forecast: the probability
of finishing above, below or between prices, and the liquidation and P&L
profile of a leveraged position.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.PersistentFlags().Bool("json", false, "Print results as JSON")
}
