// Package edge flags mispricings between forecast distributions and the
// reference prediction market's up/down odds.
package edge

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/synthlab/alphalog/internal/distribution"
	"github.com/synthlab/alphalog/internal/stats"
	"github.com/synthlab/alphalog/pkg/types"
	"go.uber.org/zap"
)

// Detection thresholds.
const (
	ProbabilityThreshold          = 0.05
	TailRiskThreshold             = 0.50
	DispersionThreshold           = 0.20
	ConfidentMarketThreshold      = 0.60
	VeryConfidentMarketThreshold  = 0.65
	BullishSkewThreshold          = 1.50
	BearishSkewThreshold          = 0.67
	highConfidenceDensity         = 0.15
	highConfidenceMarketCertainty = 0.70
)

// Config holds detector configuration.
type Config struct {
	// Assets is walked in order; missing assets are skipped.
	Assets []string
	Logger *zap.Logger
}

// Detector compares distribution metrics against market odds.
type Detector struct {
	assets []string
	logger *zap.Logger
}

// New creates a new edge detector.
func New(cfg Config) *Detector {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Detector{assets: cfg.Assets, logger: logger}
}

// distributionCheck inspects 24h metrics against the market's up probability.
type distributionCheck func(asset, timeframe string, m *distribution.Metrics, marketUp float64) (Edge, bool)

//nolint:gochecknoglobals // fixed evaluation order
var distributionChecks = []distributionCheck{
	checkTailRisk,
	checkUncertainty,
	checkSkew,
}

//nolint:gochecknoglobals // timeframes with market odds
var timeframes = []string{types.TimeframeDaily, types.TimeframeHourly}

// Detect runs every check for every asset and timeframe and returns the edges
// ordered HIGH, MEDIUM, LOW. Order within a confidence band follows detection order.
func (d *Detector) Detect(snap *types.Snapshot, metrics distribution.MetricsMap) []Edge {
	edges := make([]Edge, 0)

	for _, asset := range d.assets {
		data := snap.Asset(asset)
		if data == nil {
			continue
		}
		m := metrics[distribution.Key(asset, types.Horizon24h)]

		for _, tf := range timeframes {
			odds := data.Odds(tf)
			if odds == nil || odds.SynthProbabilityUp == nil || odds.PolymarketProbabilityUp == nil {
				continue
			}
			synthUp := *odds.SynthProbabilityUp
			marketUp := *odds.PolymarketProbabilityUp

			if e, ok := checkProbability(asset, tf, synthUp, marketUp); ok {
				edges = append(edges, e)
			}
			if m == nil {
				continue
			}
			for _, check := range distributionChecks {
				if e, ok := check(asset, tf, m, marketUp); ok {
					edges = append(edges, e)
				}
			}
		}
	}

	sort.SliceStable(edges, func(i, j int) bool {
		return edges[i].Confidence.Order() < edges[j].Confidence.Order()
	})

	for i := range edges {
		EdgesDetectedTotal.WithLabelValues(string(edges[i].Type), string(edges[i].Confidence)).Inc()
	}
	d.logger.Debug("edges-detected",
		zap.Int("count", len(edges)),
		zap.Int("metrics", len(metrics)))

	return edges
}

func checkProbability(asset, timeframe string, synthUp, marketUp float64) (Edge, bool) {
	gap := synthUp - marketUp
	absGap := math.Abs(gap)
	if absGap <= ProbabilityThreshold {
		return Edge{}, false
	}

	direction := DirectionDown
	if gap > 0 {
		direction = DirectionUp
	}
	confidence := ConfidenceMedium
	if absGap > ProbabilityThreshold*2 {
		confidence = ConfidenceHigh
	}

	synth := synthUp
	return Edge{
		Asset:             asset,
		Type:              TypeProbabilityDivergence,
		Timeframe:         timeframe,
		Direction:         direction,
		Confidence:        confidence,
		SynthProbability:  &synth,
		MarketProbability: stats.Round(marketUp, 4),
		Signal: map[string]float64{
			"synth_probability_up": stats.Round(synthUp, 4),
			"gap":                  stats.Round(gap, 4),
		},
		Description: fmt.Sprintf("Synth prices %s Up at %.1f%% vs Polymarket %.1f%% (%s, gap %.1f%%)",
			asset, synthUp*100, marketUp*100, timeframe, absGap*100),
	}, true
}

func checkTailRisk(asset, timeframe string, m *distribution.Metrics, marketUp float64) (Edge, bool) {
	upper, lower := m.UpperTailRisk, m.LowerTailRisk
	hasUpper := upper > TailRiskThreshold
	hasLower := lower > TailRiskThreshold

	var (
		direction Direction
		tail      float64
	)
	switch {
	case hasLower && marketUp > VeryConfidentMarketThreshold:
		direction, tail = DirectionDownRisk, lower
	case hasUpper && marketUp < 1-VeryConfidentMarketThreshold:
		direction, tail = DirectionUpRisk, upper
	default:
		return Edge{}, false
	}

	confidence := ConfidenceMedium
	if math.Max(upper, lower)/TailRiskThreshold > 2 {
		confidence = ConfidenceHigh
	}

	width := m.ForecastWidth
	return Edge{
		Asset:             asset,
		Type:              TypeTailRiskUnderpriced,
		Timeframe:         timeframe,
		Direction:         direction,
		Confidence:        confidence,
		MarketProbability: stats.Round(marketUp, 4),
		ForecastWidth:     &width,
		Signal: map[string]float64{
			"lower_tail_risk": stats.Round(lower, 4),
			"upper_tail_risk": stats.Round(upper, 4),
			"forecast_width":  width,
		},
		Description: fmt.Sprintf("Synth sees significant %s (tail=%.2f) but Polymarket prices Up at %.1f%%",
			strings.ReplaceAll(strings.ToLower(string(direction)), "_", " "), tail, marketUp*100),
	}, true
}

func checkUncertainty(asset, timeframe string, m *distribution.Metrics, marketUp float64) (Edge, bool) {
	density := m.DensityConcentration
	if density >= DispersionThreshold {
		return Edge{}, false
	}
	certainty := math.Max(marketUp, 1-marketUp)
	if certainty <= ConfidentMarketThreshold {
		return Edge{}, false
	}

	side, direction := "DOWN", DirectionAgainstDown
	if marketUp > 0.5 {
		side, direction = "UP", DirectionAgainstUp
	}
	confidence := ConfidenceMedium
	if density < highConfidenceDensity && certainty > highConfidenceMarketCertainty {
		confidence = ConfidenceHigh
	}

	width := m.ForecastWidth
	return Edge{
		Asset:             asset,
		Type:              TypeUncertaintyUnderpriced,
		Timeframe:         timeframe,
		Direction:         direction,
		Confidence:        confidence,
		MarketProbability: stats.Round(marketUp, 4),
		ForecastWidth:     &width,
		Signal: map[string]float64{
			"density_concentration": stats.Round(density, 4),
			"forecast_width":        width,
		},
		Description: fmt.Sprintf("Synth shows dispersed distribution (density=%.2f) but Polymarket confidently prices %s at %.1f%%",
			density, side, certainty*100),
	}, true
}

func checkSkew(asset, timeframe string, m *distribution.Metrics, marketUp float64) (Edge, bool) {
	asym := m.TailAsymmetry

	var (
		direction   Direction
		description string
	)
	switch {
	case asym > BullishSkewThreshold && marketUp < 0.5:
		direction = DirectionSkewBullish
		description = fmt.Sprintf("Synth shows bullish skew (asymmetry=%.2f) but Polymarket prices Down at %.1f%%",
			asym, (1-marketUp)*100)
	case asym < BearishSkewThreshold && marketUp > 0.5:
		direction = DirectionSkewBearish
		description = fmt.Sprintf("Synth shows bearish skew (asymmetry=%.2f) but Polymarket prices Up at %.1f%%",
			asym, marketUp*100)
	default:
		return Edge{}, false
	}

	strength := math.Abs(asym-1) / (BullishSkewThreshold - 1)
	confidence := ConfidenceLow
	switch {
	case strength > 2:
		confidence = ConfidenceHigh
	case strength > 1:
		confidence = ConfidenceMedium
	}

	return Edge{
		Asset:             asset,
		Type:              TypeSkewMismatch,
		Timeframe:         timeframe,
		Direction:         direction,
		Confidence:        confidence,
		MarketProbability: stats.Round(marketUp, 4),
		Signal: map[string]float64{
			"tail_asymmetry":   stats.Round(asym, 4),
			"directional_bias": stats.Round(m.DirectionalBias, 6),
		},
		Description: description,
	}, true
}
