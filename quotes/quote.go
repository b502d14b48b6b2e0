package quotes

import "math"

// Quote define a price snapshot for one symbol
type Quote struct {
	CurrentPrice   float64
	PreviousClose  float64
	MarketCapUnits int64
	Name           string
}

// Valid report whether the quote carries a usable price
func (q Quote) Valid() bool {
	return q.CurrentPrice > 0
}

// EffectivePreviousClose previous close coerced to the current price when the
// provider omitted it or reported a non positive value
func (q Quote) EffectivePreviousClose() float64 {
	if q.PreviousClose > 0 {
		return q.PreviousClose
	}

	return q.CurrentPrice
}

// ChangePercent day change percentage, 0 when the previous close is unusable
func (q Quote) ChangePercent() float64 {
	if q.PreviousClose <= 0 {
		return 0
	}

	return (q.CurrentPrice - q.PreviousClose) / q.PreviousClose * 100
}

// Merge fill empty fields from other. Fields already filled are never
// overwritten by later, sparser results.
func (q Quote) Merge(other Quote) Quote {
	if q.CurrentPrice <= 0 {
		q.CurrentPrice = other.CurrentPrice
	}

	if q.PreviousClose <= 0 {
		q.PreviousClose = other.PreviousClose
	}

	if q.MarketCapUnits <= 0 {
		q.MarketCapUnits = other.MarketCapUnits
	}

	if q.Name == "" {
		q.Name = other.Name
	}

	return q
}

// ScaleMarketCap convert a raw market cap into scaled units, rounded
func ScaleMarketCap(raw float64, scale int64) int64 {
	if raw <= 0 || scale <= 0 {
		return 0
	}

	return int64(math.Round(raw / float64(scale)))
}
