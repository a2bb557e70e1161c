// Package crossasset compares forecast shapes across assets and asset groups.
package crossasset

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/synthlab/alphalog/internal/distribution"
	"github.com/synthlab/alphalog/internal/stats"
	"github.com/synthlab/alphalog/internal/synthindex"
	"github.com/synthlab/alphalog/pkg/types"
)

// Group names.
const (
	GroupCrypto   = "crypto"
	GroupEquities = "equities"
)

// ConsensusLevel grades how alike a group's shapes are.
type ConsensusLevel string

// Consensus levels.
const (
	ConsensusHigh   ConsensusLevel = "HIGH"
	ConsensusMedium ConsensusLevel = "MEDIUM"
	ConsensusLow    ConsensusLevel = "LOW"
)

// Consensus and regime thresholds.
const (
	HighConsensus       = 0.80
	MediumConsensus     = 0.50
	BullishBias         = 0.002
	BearishBias         = -0.002
	ElevatedWidthCrypto = 0.06
	ElevatedWidthEquity = 0.03

	DefaultOutlierZThreshold = 1.5
)

//nolint:gochecknoglobals // fixed group membership, sorted
var groups = []struct {
	name   string
	assets []string
}{
	{GroupCrypto, []string{"BTC", "ETH", "SOL"}},
	{GroupEquities, []string{"AAPL", "GOOGL", "NVDA", "SPY", "TSLA"}},
}

// Outlier is the group member whose shape least resembles the others.
type Outlier struct {
	Asset               string  `json:"asset"`
	AvgSimilarity       float64 `json:"avg_similarity"`
	GroupMeanSimilarity float64 `json:"group_mean_similarity"`
	ZScore              float64 `json:"z_score"`
	Reason              string  `json:"reason"`
}

// GroupSummary describes one asset group's 24h shape agreement.
type GroupSummary struct {
	Assets         []string       `json:"assets"`
	Consensus      float64        `json:"consensus"`
	ConsensusLevel ConsensusLevel `json:"consensus_level"`
	AvgBias        float64        `json:"avg_bias"`
	AvgWidth       float64        `json:"avg_width"`
	AvgTailFatness float64        `json:"avg_tail_fatness"`
	AvgSkew        float64        `json:"avg_skew"`
	AvgSynthIndex  *float64       `json:"avg_synth_index"`
	Outlier        *Outlier       `json:"outlier"`
}

// CrossGroup is the macro regime read from crypto versus equities.
type CrossGroup struct {
	Correlation *float64 `json:"correlation"`
	Regime      Regime   `json:"regime"`
	CryptoBias  *float64 `json:"crypto_bias,omitempty"`
	EquityBias  *float64 `json:"equity_bias,omitempty"`
	Description string   `json:"description"`
}

// Result is the full cross-asset analysis.
type Result struct {
	Groups             map[string]*GroupSummary `json:"groups"`
	CrossGroup         CrossGroup               `json:"cross_group"`
	SimilarityMatrices map[string][][]float64   `json:"similarity_matrices"`
}

// Config holds analyzer tuning.
type Config struct {
	// OutlierZThreshold is how many sample standard deviations below the group
	// mean an asset's average similarity must fall to be flagged.
	OutlierZThreshold float64
}

// Analyzer runs cross-asset comparisons.
type Analyzer struct {
	outlierZ float64
}

// New creates an Analyzer.
func New(cfg Config) *Analyzer {
	z := cfg.OutlierZThreshold
	if z <= 0 {
		z = DefaultOutlierZThreshold
	}
	return &Analyzer{outlierZ: z}
}

type groupStats struct {
	summary *GroupSummary
	avgVec  []float64
}

// Analyze compares 24h shapes within each group, then across groups.
// scores may be nil.
func (a *Analyzer) Analyze(metrics distribution.MetricsMap, scores map[string]*synthindex.Score) *Result {
	result := &Result{
		Groups:             make(map[string]*GroupSummary),
		SimilarityMatrices: make(map[string][][]float64),
	}
	computed := make(map[string]groupStats)

	for _, g := range groups {
		members := collectGroup(g.assets, metrics)
		if len(members) < 2 {
			continue
		}

		assets := make([]string, 0, len(members))
		vectors := make([][]float64, 0, len(members))
		for _, asset := range g.assets {
			if m, ok := members[asset]; ok {
				assets = append(assets, asset)
				vectors = append(vectors, shapeVector(m))
			}
		}

		matrix := similarityMatrix(vectors)
		consensus := upperTriangleMean(matrix)
		avg := averageVector(vectors)

		summary := &GroupSummary{
			Assets:         assets,
			Consensus:      stats.Round(consensus, 4),
			ConsensusLevel: consensusLevel(consensus),
			AvgBias:        stats.Round(avg[0], 6),
			AvgWidth:       stats.Round(avg[1], 6),
			AvgSkew:        stats.Round(avg[2], 2),
			AvgTailFatness: stats.Round(avg[3], 2),
			AvgSynthIndex:  averageIndex(g.assets, scores),
			Outlier:        a.detectOutlier(matrix, assets, members),
		}
		result.Groups[g.name] = summary
		result.SimilarityMatrices[g.name] = roundMatrix(matrix)
		computed[g.name] = groupStats{summary: summary, avgVec: avg}
	}

	crypto, okC := computed[GroupCrypto]
	equity, okE := computed[GroupEquities]
	if !okC || !okE {
		result.CrossGroup = CrossGroup{
			Regime:      RegimeInsufficientData,
			Description: "Need both crypto and equities data for cross-group analysis",
		}
		return result
	}

	result.CrossGroup = crossGroup(crypto, equity)
	return result
}

func collectGroup(assets []string, metrics distribution.MetricsMap) map[string]*distribution.Metrics {
	members := make(map[string]*distribution.Metrics)
	for _, asset := range assets {
		m := metrics[distribution.Key(asset, types.Horizon24h)]
		if m == nil || !stats.Finite(shapeVector(m)...) {
			continue
		}
		members[asset] = m
	}
	return members
}

func shapeVector(m *distribution.Metrics) []float64 {
	return []float64{
		m.DirectionalBias,
		m.ForecastWidth,
		m.TailAsymmetry,
		m.TailFatness,
		m.DensityConcentration,
	}
}

func similarityMatrix(vectors [][]float64) [][]float64 {
	n := len(vectors)
	matrix := make([][]float64, n)
	for i := range matrix {
		matrix[i] = make([]float64, n)
		for j := range matrix[i] {
			matrix[i][j] = stats.CosineSimilarity(vectors[i], vectors[j])
		}
	}
	return matrix
}

func upperTriangleMean(matrix [][]float64) float64 {
	var pairs []float64
	for i := range matrix {
		for j := i + 1; j < len(matrix); j++ {
			pairs = append(pairs, matrix[i][j])
		}
	}
	return stats.Mean(pairs)
}

func averageVector(vectors [][]float64) []float64 {
	if len(vectors) == 0 {
		return nil
	}
	avg := make([]float64, len(vectors[0]))
	col := make([]float64, len(vectors))
	for d := range avg {
		for i, v := range vectors {
			col[i] = v[d]
		}
		avg[d] = stats.Mean(col)
	}
	return avg
}

func roundMatrix(matrix [][]float64) [][]float64 {
	out := make([][]float64, len(matrix))
	for i, row := range matrix {
		out[i] = make([]float64, len(row))
		for j, v := range row {
			out[i][j] = stats.Round(v, 4)
		}
	}
	return out
}

func consensusLevel(consensus float64) ConsensusLevel {
	switch {
	case consensus >= HighConsensus:
		return ConsensusHigh
	case consensus >= MediumConsensus:
		return ConsensusMedium
	default:
		return ConsensusLow
	}
}

func averageIndex(assets []string, scores map[string]*synthindex.Score) *float64 {
	if len(scores) == 0 {
		return nil
	}
	var values []float64
	for _, asset := range assets {
		if s := scores[distribution.Key(asset, types.Horizon24h)]; s != nil {
			values = append(values, s.SynthIndex)
		}
	}
	if len(values) == 0 {
		return nil
	}
	avg := stats.Round(stats.Mean(values), 1)
	return &avg
}

func (a *Analyzer) detectOutlier(matrix [][]float64, assets []string, members map[string]*distribution.Metrics) *Outlier {
	n := len(matrix)
	if n < 3 {
		return nil
	}

	avgSims := make([]float64, n)
	others := make([]float64, 0, n-1)
	for i := range matrix {
		others = others[:0]
		for j := range matrix[i] {
			if j != i {
				others = append(others, matrix[i][j])
			}
		}
		avgSims[i] = stats.Mean(others)
	}

	mean := stats.Mean(avgSims)
	std := stats.SampleStd(avgSims)
	if std == 0 {
		return nil
	}

	minIdx := 0
	for i, s := range avgSims {
		if s < avgSims[minIdx] {
			minIdx = i
		}
	}

	z := (mean - avgSims[minIdx]) / std
	if z < a.outlierZ {
		return nil
	}

	return &Outlier{
		Asset:               assets[minIdx],
		AvgSimilarity:       stats.Round(avgSims[minIdx], 4),
		GroupMeanSimilarity: stats.Round(mean, 4),
		ZScore:              stats.Round(z, 2),
		Reason:              describeOutlier(assets[minIdx], members),
	}
}

// describeOutlier compares the outlier's metrics with the average of the rest of its group.
func describeOutlier(asset string, members map[string]*distribution.Metrics) string {
	o := members[asset]

	var bias, skew, tail, width []float64
	names := make([]string, 0, len(members))
	for name := range members {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if name == asset {
			continue
		}
		m := members[name]
		bias = append(bias, m.DirectionalBias)
		skew = append(skew, m.TailAsymmetry)
		tail = append(tail, m.TailFatness)
		width = append(width, m.ForecastWidth)
	}
	avgBias, avgSkew, avgTail, avgWidth := stats.Mean(bias), stats.Mean(skew), stats.Mean(tail), stats.Mean(width)

	var reasons []string

	switch {
	case o.DirectionalBias > 0 && avgBias < 0:
		reasons = append(reasons, "bullish while group is bearish")
	case o.DirectionalBias < 0 && avgBias > 0:
		reasons = append(reasons, "bearish while group is bullish")
	}

	switch {
	case o.TailAsymmetry > 1.3 && avgSkew < 1.0:
		reasons = append(reasons, "bullish skew vs group bearish")
	case o.TailAsymmetry < 0.7 && avgSkew > 1.0:
		reasons = append(reasons, "bearish skew vs group bullish")
	}

	if avgTail > 0 && o.TailFatness/math.Max(avgTail, 0.01) > 1.5 {
		reasons = append(reasons, fmt.Sprintf("tail fatness %.1fx group average", o.TailFatness/avgTail))
	}

	if avgWidth > 0 {
		ratio := o.ForecastWidth / math.Max(avgWidth, 0.0001)
		switch {
		case ratio > 1.5:
			reasons = append(reasons, fmt.Sprintf("width %.1fx group average", o.ForecastWidth/avgWidth))
		case ratio < 0.5:
			reasons = append(reasons, fmt.Sprintf("width %.1fx group average (compressed)", o.ForecastWidth/avgWidth))
		}
	}

	if len(reasons) == 0 {
		return "shape vector diverges from group"
	}
	return strings.Join(reasons, "; ")
}
