// Package positionrisk maps leveraged positions onto forecast CDFs.
package positionrisk

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/synthlab/alphalog/internal/probability"
	"github.com/synthlab/alphalog/internal/stats"
	"github.com/synthlab/alphalog/pkg/types"
)

// Direction is the side of a position.
type Direction string

// Directions.
const (
	Long  Direction = "LONG"
	Short Direction = "SHORT"
)

// ParseDirection accepts either side case-insensitively.
func ParseDirection(s string) (Direction, error) {
	switch d := Direction(strings.ToUpper(strings.TrimSpace(s))); d {
	case Long, Short:
		return d, nil
	}
	return "", fmt.Errorf("%w: direction must be LONG or SHORT, got %q", ErrInvalidPosition, s)
}

// MinLeverage is the smallest accepted leverage. Below it the long
// liquidation price turns negative.
const MinLeverage = 1.0

// DefaultMaintenanceMargin is the exchange maintenance margin fraction.
const DefaultMaintenanceMargin = 0.005

// LiquidatedNote marks a percentile outcome beyond the liquidation price.
const LiquidatedNote = "LIQUIDATED"

// ErrInvalidPosition is returned for positions that cannot be analyzed.
var ErrInvalidPosition = errors.New("invalid position")

// Probability mass around each level by the midpoint-boundary method. Sums to 1.
//
//nolint:gochecknoglobals // static weight table
var levelWeights = [types.NumLevels]float64{0.0275, 0.0975, 0.15, 0.15, 0.15, 0.15, 0.15, 0.0975, 0.0275}

// LevelNames key PnLDistribution.Percentiles, lowest level first.
//
//nolint:gochecknoglobals // display names for percentile levels
var LevelNames = [types.NumLevels]string{"p005", "p05", "p20", "p35", "p50", "p65", "p80", "p95", "p995"}

// Position is a leveraged position to analyze.
type Position struct {
	Asset      string
	EntryPrice float64
	Leverage   float64
	Direction  Direction
	TakeProfit *float64
	StopLoss   *float64
	Horizon    string
}

// Validate rejects positions the math cannot handle.
func (p Position) Validate() error {
	if p.EntryPrice <= 0 {
		return fmt.Errorf("%w: entry price must be positive", ErrInvalidPosition)
	}
	if p.Leverage < MinLeverage {
		return fmt.Errorf("%w: leverage must be at least %g, got %g", ErrInvalidPosition, MinLeverage, p.Leverage)
	}
	if p.Direction != Long && p.Direction != Short {
		return fmt.Errorf("%w: direction must be LONG or SHORT, got %q", ErrInvalidPosition, p.Direction)
	}
	return nil
}

// Liquidation describes where and how likely the position is liquidated.
type Liquidation struct {
	Price       float64 `json:"price"`
	Probability float64 `json:"probability"`
	DistancePct float64 `json:"distance_pct"`
	RiskLevel   string  `json:"risk_level"`
}

// Target is a take-profit or stop-loss level and its hit probability.
type Target struct {
	Price       float64 `json:"price"`
	Probability float64 `json:"probability"`
	DistancePct float64 `json:"distance_pct"`
}

// LevelPnL is the position's P&L if the price finishes at one percentile.
type LevelPnL struct {
	Price   float64 `json:"price"`
	PnLPct  float64 `json:"pnl_pct"`
	PnLNote string  `json:"pnl_note,omitempty"`
}

// PnLDistribution is P&L across all nine percentile outcomes.
type PnLDistribution struct {
	Percentiles           map[string]LevelPnL `json:"percentiles"`
	ExpectedPnLPct        float64             `json:"expected_pnl_pct"`
	ProbabilityProfitable float64             `json:"probability_profitable"`
}

// ConeWithLevels overlays the position's price levels on the forecast cone.
type ConeWithLevels struct {
	Cone            []probability.ConePoint `json:"cone"`
	LiquidationLine float64                 `json:"liquidation_line"`
	TakeProfitLine  *float64                `json:"take_profit_line"`
	StopLossLine    *float64                `json:"stop_loss_line"`
}

// RiskScore is the composite 0-100 risk reading.
type RiskScore struct {
	Score   int      `json:"score"`
	Label   string   `json:"label"`
	Factors []string `json:"factors"`
}

// Analysis is the full risk picture for a position.
type Analysis struct {
	Asset           string          `json:"asset"`
	Direction       Direction       `json:"direction"`
	EntryPrice      float64         `json:"entry_price"`
	Leverage        float64         `json:"leverage"`
	Horizon         string          `json:"horizon"`
	CurrentPrice    float64         `json:"current_price"`
	Liquidation     Liquidation     `json:"liquidation"`
	TakeProfit      *Target         `json:"take_profit"`
	StopLoss        *Target         `json:"stop_loss"`
	PnLDistribution PnLDistribution `json:"pnl_distribution"`
	ConeWithLevels  ConeWithLevels  `json:"cone_with_levels"`
	RiskScore       RiskScore       `json:"risk_score"`
}

// Config configures an Analyzer.
type Config struct {
	Engine            *probability.Engine
	MaintenanceMargin float64
}

// Analyzer computes position risk from forecasts.
type Analyzer struct {
	engine *probability.Engine
	mm     float64
}

// New creates an Analyzer.
func New(cfg Config) *Analyzer {
	mm := cfg.MaintenanceMargin
	if mm <= 0 {
		mm = DefaultMaintenanceMargin
	}
	return &Analyzer{engine: cfg.Engine, mm: mm}
}

// LiquidationPrice is where a position's margin is exhausted.
func LiquidationPrice(entry, leverage float64, direction Direction, maintenanceMargin float64) float64 {
	if direction == Long {
		return entry * (1 - 1/leverage + maintenanceMargin)
	}
	return entry * (1 + 1/leverage - maintenanceMargin)
}

// PnLPct is leveraged P&L in percent, floored at total loss.
func PnLPct(entry, price, leverage float64, direction Direction) float64 {
	move := (price - entry) / entry
	if direction == Short {
		move = -move
	}
	return math.Max(move*leverage*100, -100)
}

// Analyze fetches the forecast once and evaluates the position against it.
func (a *Analyzer) Analyze(ctx context.Context, pos Position) (*Analysis, error) {
	if err := pos.Validate(); err != nil {
		return nil, err
	}
	if pos.Horizon == "" {
		pos.Horizon = types.Horizon24h
	}

	data, err := a.engine.PercentileData(ctx, pos.Asset, pos.Horizon)
	if err != nil {
		return nil, fmt.Errorf("analyze position: %w", err)
	}
	return a.AnalyzeData(data, pos)
}

// AnalyzeData evaluates a position against already-fetched forecast data.
func (a *Analyzer) AnalyzeData(data *probability.Data, pos Position) (*Analysis, error) {
	if err := pos.Validate(); err != nil {
		return nil, err
	}
	if len(data.Timepoints) == 0 {
		return nil, fmt.Errorf("analyze position: %w", probability.ErrNoTimepoints)
	}

	prices := data.Final().Prices
	liqPrice := LiquidationPrice(pos.EntryPrice, pos.Leverage, pos.Direction, a.mm)

	liqProb := a.engine.CDF(liqPrice, prices)
	if pos.Direction == Short {
		liqProb = 1 - liqProb
	}

	pnl := a.pnlDistribution(pos, liqPrice, prices)

	return &Analysis{
		Asset:        pos.Asset,
		Direction:    pos.Direction,
		EntryPrice:   pos.EntryPrice,
		Leverage:     pos.Leverage,
		Horizon:      data.Horizon,
		CurrentPrice: data.CurrentPrice,
		Liquidation: Liquidation{
			Price:       stats.Round(liqPrice, 2),
			Probability: stats.Round(liqProb, 4),
			DistancePct: distancePct(liqPrice, pos.EntryPrice),
			RiskLevel:   liquidationRiskLevel(liqProb),
		},
		TakeProfit:      a.target(pos.TakeProfit, pos, true, prices),
		StopLoss:        a.target(pos.StopLoss, pos, false, prices),
		PnLDistribution: pnl,
		ConeWithLevels: ConeWithLevels{
			Cone:            probability.BuildCone(data, probability.DefaultConePoints),
			LiquidationLine: stats.Round(liqPrice, 2),
			TakeProfitLine:  pos.TakeProfit,
			StopLossLine:    pos.StopLoss,
		},
		RiskScore: ComputeRiskScore(liqProb, pos.Leverage, pnl.ProbabilityProfitable),
	}, nil
}

// target evaluates a take-profit (upside for longs) or stop-loss level.
func (a *Analyzer) target(price *float64, pos Position, takeProfit bool, prices types.Prices) *Target {
	if price == nil {
		return nil
	}
	cdf := a.engine.CDF(*price, prices)
	// Longs profit above the level, shorts below.
	prob := cdf
	if (pos.Direction == Long) == takeProfit {
		prob = 1 - cdf
	}
	return &Target{
		Price:       *price,
		Probability: stats.Round(prob, 4),
		DistancePct: distancePct(*price, pos.EntryPrice),
	}
}

func (a *Analyzer) pnlDistribution(pos Position, liqPrice float64, prices types.Prices) PnLDistribution {
	levels := make(map[string]LevelPnL, types.NumLevels)
	weighted := 0.0

	for i, price := range prices {
		pnl := PnLPct(pos.EntryPrice, price, pos.Leverage, pos.Direction)
		liquidated := (pos.Direction == Long && price <= liqPrice) ||
			(pos.Direction == Short && price >= liqPrice)

		entry := LevelPnL{Price: stats.Round(price, 2)}
		if liquidated {
			pnl = -100
			entry.PnLNote = LiquidatedNote
		}
		entry.PnLPct = stats.Round(pnl, 1)

		levels[LevelNames[i]] = entry
		weighted += pnl * levelWeights[i]
	}

	entryCDF := a.engine.CDF(pos.EntryPrice, prices)
	profitable := 1 - entryCDF
	if pos.Direction == Short {
		profitable = entryCDF
	}

	return PnLDistribution{
		Percentiles:           levels,
		ExpectedPnLPct:        stats.Round(weighted, 1),
		ProbabilityProfitable: stats.Round(profitable, 4),
	}
}

func distancePct(price, entry float64) float64 {
	return stats.Round((price/entry-1)*100, 2)
}
