package positionrisk

import (
	"fmt"
	"math"

	"github.com/synthlab/alphalog/internal/stats"
)

type band struct {
	below float64
	label string
}

//nolint:gochecknoglobals // static threshold table
var liquidationBands = []band{
	{0.02, "LOW"},
	{0.10, "MEDIUM"},
	{0.25, "HIGH"},
}

//nolint:gochecknoglobals // static threshold table
var riskBands = []band{
	{25, "LOW"},
	{50, "MODERATE"},
	{75, "HIGH"},
}

func bandLabel(bands []band, value float64) string {
	for _, b := range bands {
		if value < b.below {
			return b.label
		}
	}
	return "CRITICAL"
}

func liquidationRiskLevel(p float64) string {
	return bandLabel(liquidationBands, p)
}

// Risk score component weights.
const (
	weightLiquidation = 0.40
	weightLeverage    = 0.30
	weightLoss        = 0.30
)

// ComputeRiskScore blends liquidation probability (30% maps to 100), log-scaled
// leverage (1x is 0, 100x is 100) and loss probability into a 0-100 score.
func ComputeRiskScore(liqProb, leverage, probProfitable float64) RiskScore {
	liqScore := math.Min(liqProb/0.30, 1) * 100

	levScore := 0.0
	if leverage > 1 {
		levScore = math.Min(math.Log(leverage)/math.Log(100), 1) * 100
	}

	lossScore := (1 - probProfitable) * 100

	composite := liqScore*weightLiquidation + levScore*weightLeverage + lossScore*weightLoss
	score := int(math.RoundToEven(stats.Clamp(composite, 0, 100)))

	return RiskScore{
		Score: score,
		Label: bandLabel(riskBands, float64(score)),
		Factors: []string{
			fmt.Sprintf("Leverage %.0fx amplifies moves by %.0fx", leverage, leverage),
			fmt.Sprintf("Liquidation probability %.1f%% in horizon", liqProb*100),
			fmt.Sprintf("%.0f%% chance of profit", probProfitable*100),
		},
	}
}
