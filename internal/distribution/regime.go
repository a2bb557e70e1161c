package distribution

// Regime labels a forecast distribution's overall shape.
type Regime string

// Regimes.
const (
	RegimeNormal     Regime = "NORMAL"
	RegimeCompressed Regime = "COMPRESSED"
	RegimeStressed   Regime = "STRESSED"
)

// Global shape thresholds.
const (
	FatTailThreshold      = 2.5
	DispersedThreshold    = 0.20
	ConcentratedThreshold = 0.40
)

type shapeFlags struct {
	wide, narrow, fatTailed, dispersed, concentrated bool
}

type regimeRule struct {
	match  func(shapeFlags) bool
	regime Regime
}

// Evaluated first-match; STRESSED dominates.
//
//nolint:gochecknoglobals // static rule table
var regimeRules = []regimeRule{
	{match: func(f shapeFlags) bool { return f.wide || f.fatTailed || f.dispersed }, regime: RegimeStressed},
	{match: func(f shapeFlags) bool { return f.narrow && f.concentrated }, regime: RegimeCompressed},
}

// ClassifyRegime labels a distribution from its width, tail fatness and
// density concentration using the asset's class thresholds.
func ClassifyRegime(asset string, width, tailFatness, density float64) Regime {
	th := ThresholdsFor(asset)
	flags := shapeFlags{
		wide:         width > th.StressedLower,
		narrow:       width < th.CompressedUpper,
		fatTailed:    tailFatness > FatTailThreshold,
		dispersed:    density < DispersedThreshold,
		concentrated: density > ConcentratedThreshold,
	}
	for _, rule := range regimeRules {
		if rule.match(flags) {
			return rule.regime
		}
	}
	return RegimeNormal
}
