package crossasset

import (
	"fmt"

	"github.com/synthlab/alphalog/internal/stats"
)

// Regime is the cross-group macro classification.
type Regime string

// Regimes, in decision order.
const (
	RegimeDivergent        Regime = "DIVERGENT"
	RegimeRiskOn           Regime = "RISK_ON"
	RegimeRiskOff          Regime = "RISK_OFF"
	RegimeRotation         Regime = "ROTATION"
	RegimeCalm             Regime = "CALM"
	RegimeMixed            Regime = "MIXED"
	RegimeInsufficientData Regime = "INSUFFICIENT_DATA"
)

type groupRead struct {
	bullish, bearish, stressed bool
	consensus                  float64
}

func (g groupRead) direction() string {
	switch {
	case g.bullish:
		return "bullish"
	case g.bearish:
		return "bearish"
	default:
		return "neutral"
	}
}

type regimeRule struct {
	regime Regime
	match  func(crypto, equity groupRead) bool
	desc   func(crypto, equity groupRead) string
}

func fixed(s string) func(groupRead, groupRead) string {
	return func(groupRead, groupRead) string { return s }
}

// Evaluated first-match; MIXED is the fallback.
//
//nolint:gochecknoglobals // static rule table
var regimeRules = []regimeRule{
	{
		regime: RegimeDivergent,
		match: func(c, e groupRead) bool {
			return c.consensus < MediumConsensus && e.consensus < MediumConsensus
		},
		desc: fixed("Low consensus within both groups, no clear macro signal"),
	},
	{
		regime: RegimeRiskOn,
		match: func(c, e groupRead) bool {
			return c.bullish && e.bullish && !c.stressed && !e.stressed
		},
		desc: fixed("Both crypto and equities showing bullish bias with contained uncertainty"),
	},
	{
		regime: RegimeRiskOff,
		match: func(c, e groupRead) bool {
			return (c.bearish || e.bearish) && (c.stressed || e.stressed)
		},
		desc: fixed("Bearish bias and/or elevated uncertainty across asset classes"),
	},
	{
		regime: RegimeRotation,
		match: func(c, e groupRead) bool {
			return (c.bullish && e.bearish) || (c.bearish && e.bullish)
		},
		desc: func(c, e groupRead) string {
			return fmt.Sprintf("Crypto %s, equities %s -- sector rotation signal", c.direction(), e.direction())
		},
	},
	{
		regime: RegimeCalm,
		match: func(c, e groupRead) bool {
			return !c.stressed && !e.stressed
		},
		desc: fixed("Both groups showing contained distributions with no strong directional signal"),
	},
}

// readGroup compares bias and width at two decimal places of a percent, the
// precision the group summaries are reported at.
func readGroup(g groupStats, elevatedWidth float64) groupRead {
	bias := stats.Round(g.avgVec[0], 4)
	width := stats.Round(g.avgVec[1], 4)
	return groupRead{
		bullish:   bias > BullishBias,
		bearish:   bias < BearishBias,
		stressed:  width > elevatedWidth,
		consensus: g.summary.Consensus,
	}
}

// classifyRegime applies the decision order to two group reads.
func classifyRegime(crypto, equity groupRead) (Regime, string) {
	for _, rule := range regimeRules {
		if rule.match(crypto, equity) {
			return rule.regime, rule.desc(crypto, equity)
		}
	}
	return RegimeMixed, "No clear regime classification"
}

func crossGroup(crypto, equity groupStats) CrossGroup {
	c := readGroup(crypto, ElevatedWidthCrypto)
	e := readGroup(equity, ElevatedWidthEquity)
	regime, desc := classifyRegime(c, e)

	corr := stats.Round(stats.CosineSimilarity(crypto.avgVec, equity.avgVec), 4)
	cBias := stats.Round(crypto.avgVec[0], 6)
	eBias := stats.Round(equity.avgVec[0], 6)

	return CrossGroup{
		Correlation: &corr,
		Regime:      regime,
		CryptoBias:  &cBias,
		EquityBias:  &eBias,
		Description: desc,
	}
}
