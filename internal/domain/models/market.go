package models

import "time"

// Source tags where a snapshot came from.
type Source string

const (
	SourceLive      Source = "live"
	SourceSynthetic Source = "synthetic"
)

// VolDirection is the qualitative day-over-day move of the volatility index.
type VolDirection string

const (
	VolRising  VolDirection = "rising"
	VolFalling VolDirection = "falling"
	VolStable  VolDirection = "stable"
)

// VolRegime classifies the absolute level of the volatility index.
type VolRegime string

const (
	RegimeRiskOn  VolRegime = "risk-on"
	RegimeRiskOff VolRegime = "risk-off"
	RegimeNeutral VolRegime = "neutral"
)

// Bar is one OHLC observation returned by a market data provider.
type Bar struct {
	Time  time.Time `json:"time"`
	Open  float64   `json:"open"`
	High  float64   `json:"high"`
	Low   float64   `json:"low"`
	Close float64   `json:"close"`
}

// VolatilitySnapshot is the cached state of the volatility index.
type VolatilitySnapshot struct {
	Current       float64      `json:"current"`
	Previous      float64      `json:"previous"`
	PercentChange float64      `json:"change_pct"`
	Direction     VolDirection `json:"direction"`
	Regime        VolRegime    `json:"regime"`
	FiveDayHigh   float64      `json:"high_5d"`
	FiveDayLow    float64      `json:"low_5d"`
	CapturedAt    time.Time    `json:"captured_at"`
	Source        Source       `json:"source"`
}

// DirectionFor maps a percent change onto a direction label.
func DirectionFor(changePct float64) VolDirection {
	switch {
	case changePct > 2:
		return VolRising
	case changePct < -2:
		return VolFalling
	default:
		return VolStable
	}
}

// RegimeFor maps a volatility level onto a regime label.
func RegimeFor(current float64) VolRegime {
	switch {
	case current < 18:
		return RegimeRiskOn
	case current > 25:
		return RegimeRiskOff
	default:
		return RegimeNeutral
	}
}

// NewVolatilitySnapshot derives the change, direction and regime from raw levels.
// A zero previous level yields a zero percent change.
func NewVolatilitySnapshot(current, previous, high, low float64, at time.Time, src Source) VolatilitySnapshot {
	var change float64
	if previous != 0 {
		change = (current - previous) / previous * 100
	}
	return VolatilitySnapshot{
		Current:       current,
		Previous:      previous,
		PercentChange: change,
		Direction:     DirectionFor(change),
		Regime:        RegimeFor(current),
		FiveDayHigh:   high,
		FiveDayLow:    low,
		CapturedAt:    at,
		Source:        src,
	}
}

// PriceSnapshot is the recent price state of one tradable symbol.
type PriceSnapshot struct {
	Symbol     string  `json:"symbol"`
	Price      float64 `json:"price"`
	ChangePct  float64 `json:"change_pct"`
	PrevClose  float64 `json:"prev_close"`
	WeeklyHigh float64 `json:"weekly_high"`
	WeeklyLow  float64 `json:"weekly_low"`
	Source     Source  `json:"source"`
}

// PriceBoard groups price snapshots refreshed together.
type PriceBoard struct {
	Prices     map[string]PriceSnapshot `json:"prices"`
	CapturedAt time.Time                `json:"captured_at"`
}

// Price returns the last price for symbol, or 0 when unknown.
func (b PriceBoard) Price(symbol string) float64 {
	if p, ok := b.Prices[symbol]; ok {
		return p.Price
	}
	return 0
}
