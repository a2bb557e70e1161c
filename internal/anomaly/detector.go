// Package anomaly flags significant shape changes between consecutive metric sets.
package anomaly

import (
	"fmt"
	"math"
	"sort"

	"github.com/synthlab/alphalog/internal/distribution"
	"github.com/synthlab/alphalog/internal/stats"
)

// Type names the kind of change detected.
type Type string

// Anomaly types.
const (
	TypeSkewFlip              Type = "skew_flip"
	TypeTailFattening         Type = "tail_fattening"
	TypeVolatilityExpansion   Type = "volatility_expansion"
	TypeVolatilityCompression Type = "volatility_compression"
	TypeRegimeChange          Type = "regime_change"
)

// Severity grades an anomaly.
type Severity string

// Severities.
const (
	SeverityHigh   Severity = "HIGH"
	SeverityMedium Severity = "MEDIUM"
	SeverityLow    Severity = "LOW"
)

// Change thresholds, as fractions.
const (
	SkewFlipBoundary     = 1.0
	TailChangeThreshold  = 0.20
	WidthChangeThreshold = 0.20
)

type severityThreshold struct {
	min      float64
	severity Severity
}

//nolint:gochecknoglobals // static threshold table
var severities = []severityThreshold{
	{0.50, SeverityHigh},
	{0.30, SeverityMedium},
	{0, SeverityLow},
}

// SeverityFor maps an absolute fractional change to a severity.
func SeverityFor(change float64) Severity {
	for _, s := range severities {
		if change >= s.min {
			return s.severity
		}
	}
	return SeverityLow
}

// Anomaly is one flagged change for a metrics key.
type Anomaly struct {
	Asset         string   `json:"asset"`
	Key           string   `json:"key"`
	Type          Type     `json:"anomaly_type"`
	Severity      Severity `json:"severity"`
	PreviousValue any      `json:"previous_value"`
	CurrentValue  any      `json:"current_value"`
	ChangePct     *float64 `json:"change_pct,omitempty"`
	Description   string   `json:"description"`
}

type check func(asset, key string, curr, prev *distribution.Metrics) *Anomaly

//nolint:gochecknoglobals // ordered check list
var checks = []check{checkSkewFlip, checkTailFattening, checkWidthChange, checkRegimeChange}

// Detect compares keys present in both maps, in key order. Every check runs
// independently, so one key can produce several anomalies.
func Detect(current, previous distribution.MetricsMap) []Anomaly {
	keys := make([]string, 0, len(current))
	for key := range current {
		if _, ok := previous[key]; ok {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	var anomalies []Anomaly
	for _, key := range keys {
		curr, prev := current[key], previous[key]
		if curr == nil || prev == nil {
			continue
		}
		asset := curr.Asset
		if asset == "" {
			asset = key
		}
		for _, c := range checks {
			if a := c(asset, key, curr, prev); a != nil {
				anomalies = append(anomalies, *a)
			}
		}
	}
	return anomalies
}

func checkSkewFlip(asset, key string, curr, prev *distribution.Metrics) *Anomaly {
	p, c := prev.TailAsymmetry, curr.TailAsymmetry
	crossed := (p < SkewFlipBoundary && SkewFlipBoundary <= c) || (c < SkewFlipBoundary && SkewFlipBoundary <= p)
	if !crossed {
		return nil
	}

	direction := "bullish to bearish"
	if c > SkewFlipBoundary {
		direction = "bearish to bullish"
	}

	return &Anomaly{
		Asset:         asset,
		Key:           key,
		Type:          TypeSkewFlip,
		Severity:      SeverityFor(math.Abs(c - p)),
		PreviousValue: p,
		CurrentValue:  c,
		Description:   fmt.Sprintf("%s skew flipped from %s", asset, direction),
	}
}

func checkTailFattening(asset, key string, curr, prev *distribution.Metrics) *Anomaly {
	p, c := prev.TailFatness, curr.TailFatness
	if p == 0 || c == 0 {
		return nil
	}

	change := (c - p) / p
	if change <= TailChangeThreshold {
		return nil
	}

	pct := stats.Round(change, 4)
	return &Anomaly{
		Asset:         asset,
		Key:           key,
		Type:          TypeTailFattening,
		Severity:      SeverityFor(change),
		PreviousValue: p,
		CurrentValue:  c,
		ChangePct:     &pct,
		Description:   fmt.Sprintf("%s tails fattened by %.0f%% (%.2f -> %.2f)", asset, change*100, p, c),
	}
}

func checkWidthChange(asset, key string, curr, prev *distribution.Metrics) *Anomaly {
	p, c := prev.ForecastWidth, curr.ForecastWidth
	if p == 0 || c == 0 {
		return nil
	}

	change := (c - p) / p
	abs := math.Abs(change)
	if abs <= WidthChangeThreshold {
		return nil
	}

	typ, verb := TypeVolatilityExpansion, "expanded"
	if change < 0 {
		typ, verb = TypeVolatilityCompression, "compressed"
	}

	pct := stats.Round(change, 4)
	return &Anomaly{
		Asset:         asset,
		Key:           key,
		Type:          typ,
		Severity:      SeverityFor(abs),
		PreviousValue: p,
		CurrentValue:  c,
		ChangePct:     &pct,
		Description: fmt.Sprintf("%s forecast width %s by %.0f%% (%.4f%% -> %.4f%%)",
			asset, verb, abs*100, p*100, c*100),
	}
}

func checkRegimeChange(asset, key string, curr, prev *distribution.Metrics) *Anomaly {
	if prev.Regime == "" || curr.Regime == "" || prev.Regime == curr.Regime {
		return nil
	}

	return &Anomaly{
		Asset:         asset,
		Key:           key,
		Type:          TypeRegimeChange,
		Severity:      SeverityHigh,
		PreviousValue: prev.Regime,
		CurrentValue:  curr.Regime,
		Description:   fmt.Sprintf("%s regime changed from %s to %s", asset, prev.Regime, curr.Regime),
	}
}
