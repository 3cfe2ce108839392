package models

// Display symbols served by the API.
const (
	XAUUSD = "XAUUSD"
	NAS100 = "NAS100"
	SP500  = "SP500"
	EURUSD = "EURUSD"
	DOW    = "DOW"
)

// TrackedSymbols are the assets that receive a directional analysis.
var TrackedSymbols = []string{XAUUSD, NAS100, SP500, EURUSD}

// AssetClass groups symbols that share scoring and tilt rules.
type AssetClass string

const (
	ClassMetal    AssetClass = "metal"
	ClassIndex    AssetClass = "index"
	ClassCurrency AssetClass = "currency"
)

// AssetClassOf returns the class of a tracked symbol. Unknown symbols are treated as indices.
func AssetClassOf(symbol string) AssetClass {
	switch symbol {
	case XAUUSD:
		return ClassMetal
	case EURUSD:
		return ClassCurrency
	default:
		return ClassIndex
	}
}

// IsTracked reports whether symbol is one of the analysed assets.
func IsTracked(symbol string) bool {
	for _, s := range TrackedSymbols {
		if s == symbol {
			return true
		}
	}
	return false
}

// PriceDecimals is the number of decimals used when presenting prices of symbol.
func PriceDecimals(symbol string) int32 {
	if AssetClassOf(symbol) == ClassCurrency {
		return 5
	}
	return 2
}
