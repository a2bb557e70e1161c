package distribution

// AssetClass groups assets whose forecast widths are on comparable scales.
type AssetClass string

// Asset classes.
const (
	ClassCrypto AssetClass = "crypto"
	ClassEquity AssetClass = "equity"
	ClassGold   AssetClass = "gold"
)

//nolint:gochecknoglobals // static asset classification
var assetClasses = map[string]AssetClass{
	"BTC":   ClassCrypto,
	"ETH":   ClassCrypto,
	"SOL":   ClassCrypto,
	"SPY":   ClassEquity,
	"NVDA":  ClassEquity,
	"GOOGL": ClassEquity,
	"TSLA":  ClassEquity,
	"AAPL":  ClassEquity,
	"XAU":   ClassGold,
}

// ClassOf returns the asset's class. Unknown assets are treated as crypto.
func ClassOf(asset string) AssetClass {
	if cls, ok := assetClasses[asset]; ok {
		return cls
	}
	return ClassCrypto
}

// WidthThresholds are the forecast widths below which a class is narrow and
// above which it is wide.
type WidthThresholds struct {
	CompressedUpper float64
	StressedLower   float64
}

// Gold runs at 60% of crypto.
//
//nolint:gochecknoglobals // static threshold table
var widthThresholds = map[AssetClass]WidthThresholds{
	ClassCrypto: {CompressedUpper: 0.02, StressedLower: 0.06},
	ClassEquity: {CompressedUpper: 0.01, StressedLower: 0.03},
	ClassGold:   {CompressedUpper: 0.012, StressedLower: 0.036},
}

// ThresholdsFor returns the width thresholds for an asset.
func ThresholdsFor(asset string) WidthThresholds {
	return widthThresholds[ClassOf(asset)]
}
