package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/synthlab/alphalog/internal/app"
	"github.com/synthlab/alphalog/internal/probability"
	"github.com/synthlab/alphalog/pkg/config"
	"github.com/synthlab/alphalog/pkg/types"
)

//nolint:gochecknoglobals // Cobra boilerplate
var probCmd = &cobra.Command{
	Use:   "prob",
	Short: "Probability of the price finishing above, below or between levels",
	Long: `Interpolates the forecast's percentile curve at the end of the horizon.

Examples:
  alphalog prob --asset BTC --above 90000
  alphalog prob --asset ETH --below 3000 --horizon 1h
  alphalog prob --asset SOL --above 140 --below 160
  alphalog prob --asset BTC --cone 8`,
	RunE: runProb,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(probCmd)
	probCmd.Flags().StringP("asset", "a", "BTC", "Asset symbol")
	probCmd.Flags().Float64("above", 0, "Target price to finish above (lower bound when --below is also set)")
	probCmd.Flags().Float64("below", 0, "Target price to finish below (upper bound when --above is also set)")
	probCmd.Flags().String("horizon", types.Horizon24h, "Forecast horizon: 1h or 24h")
	probCmd.Flags().Int("cone", 0, "Print the forecast cone sampled at this many timepoints")
}

// errNoQuery is returned when neither a price level nor a cone was requested.
var errNoQuery = errors.New("set --above, --below or both, or --cone") //nolint:gochecknoglobals // sentinel

// probQuery is the question a prob invocation asks.
type probQuery struct {
	above *float64
	below *float64
}

func (q probQuery) validate() error {
	if q.above == nil && q.below == nil {
		return errNoQuery
	}
	if q.above != nil && q.below != nil && *q.above >= *q.below {
		return fmt.Errorf("--above (%g) must be less than --below (%g)", *q.above, *q.below)
	}
	return nil
}

func runProb(cmd *cobra.Command, args []string) error {
	asset, _ := cmd.Flags().GetString("asset")
	horizon, _ := cmd.Flags().GetString("horizon")
	conePoints, _ := cmd.Flags().GetInt("cone")
	asset = strings.ToUpper(asset)

	q := probQuery{above: optionalFloat(cmd, "above"), below: optionalFloat(cmd, "below")}
	if conePoints == 0 {
		if err := q.validate(); err != nil {
			return err
		}
	} else if conePoints < 2 {
		return fmt.Errorf("--cone needs at least 2 points, got %d", conePoints)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	return withComponents(ctx, false, func(_ *config.Config, c *app.Components) error {
		if conePoints > 0 {
			cone, err := c.Engine.Cone(ctx, asset, horizon, conePoints)
			if err != nil {
				return fmt.Errorf("build cone: %w", err)
			}
			if jsonOutput(cmd) {
				return printJSON(cone)
			}
			printCone(cone)
			return nil
		}

		result, err := answer(ctx, c.Engine, asset, horizon, q)
		if err != nil {
			return err
		}
		if jsonOutput(cmd) {
			return printJSON(result)
		}

		switch r := result.(type) {
		case *probability.RangeResult:
			fmt.Printf("%s %s: P(%s < price < %s) = %s  [spot %s, %s confidence]\n",
				r.Asset, r.Horizon, formatPrice(r.Lower), formatPrice(r.Upper),
				formatPct(r.Probability), formatPrice(r.CurrentPrice), r.Confidence)
			fmt.Printf("  below %s: %s   above %s: %s\n",
				formatPrice(r.Lower), formatPct(r.ProbabilityBelowLower),
				formatPrice(r.Upper), formatPct(r.ProbabilityAboveUpper))
		case *probability.Result:
			side := "above"
			if q.above == nil {
				side = "below"
			}
			fmt.Printf("%s %s: P(price %s %s) = %s  [spot %s, %s confidence]\n",
				r.Asset, r.Horizon, side, formatPrice(r.TargetPrice),
				formatPct(r.Probability), formatPrice(r.CurrentPrice), r.Confidence)
		}
		return nil
	})
}

func answer(ctx context.Context, engine *probability.Engine, asset, horizon string, q probQuery) (any, error) {
	switch {
	case q.above != nil && q.below != nil:
		res, err := engine.Between(ctx, asset, horizon, *q.above, *q.below, probability.LastTimepoint)
		if err != nil {
			return nil, fmt.Errorf("probability between: %w", err)
		}
		return res, nil
	case q.above != nil:
		res, err := engine.Above(ctx, asset, horizon, *q.above, probability.LastTimepoint)
		if err != nil {
			return nil, fmt.Errorf("probability above: %w", err)
		}
		return res, nil
	default:
		res, err := engine.Below(ctx, asset, horizon, *q.below, probability.LastTimepoint)
		if err != nil {
			return nil, fmt.Errorf("probability below: %w", err)
		}
		return res, nil
	}
}

func printCone(cone *probability.Cone) {
	fmt.Printf("%s %s cone (spot %s)\n\n", cone.Asset, cone.Horizon, formatPrice(cone.CurrentPrice))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "HOURS\tP0.5\tP5\tP20\tP50\tP80\tP95\tP99.5\n")
	for i := range cone.Points {
		p := &cone.Points[i]
		fmt.Fprintf(w, "%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\n",
			p.HoursAhead, p.P005, p.P05, p.P20, p.P50, p.P80, p.P95, p.P995)
	}
	w.Flush()
}
