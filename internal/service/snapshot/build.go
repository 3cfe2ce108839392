package snapshot

import (
	"fmt"
	"math"
	"time"

	"Karion/internal/domain"
	"Karion/internal/domain/models"
)

const minBars = 2

// VolatilityFromBars builds a live snapshot from at least two daily bars.
func VolatilityFromBars(bars []models.Bar, at time.Time) (models.VolatilitySnapshot, error) {
	if len(bars) < minBars {
		return models.VolatilitySnapshot{}, fmt.Errorf("volatility: %w: %d bars", domain.ErrInsufficientHistory, len(bars))
	}
	hi, lo := extremes(bars)
	cur := bars[len(bars)-1].Close
	prev := bars[len(bars)-2].Close
	return models.NewVolatilitySnapshot(cur, prev, hi, lo, at, models.SourceLive), nil
}

// PriceFromBars builds a live price snapshot from at least two daily bars.
func PriceFromBars(symbol string, bars []models.Bar) (models.PriceSnapshot, error) {
	if len(bars) < minBars {
		return models.PriceSnapshot{}, fmt.Errorf("%s: %w: %d bars", symbol, domain.ErrInsufficientHistory, len(bars))
	}
	hi, lo := extremes(bars)
	cur := bars[len(bars)-1].Close
	prev := bars[len(bars)-2].Close
	var change float64
	if prev != 0 {
		change = (cur - prev) / prev * 100
	}
	return models.PriceSnapshot{
		Symbol:     symbol,
		Price:      cur,
		ChangePct:  change,
		PrevClose:  prev,
		WeeklyHigh: hi,
		WeeklyLow:  lo,
		Source:     models.SourceLive,
	}, nil
}

func extremes(bars []models.Bar) (hi, lo float64) {
	hi, lo = math.Inf(-1), math.Inf(1)
	for _, b := range bars {
		hi = math.Max(hi, b.High)
		lo = math.Min(lo, b.Low)
	}
	return hi, lo
}

// syntheticVolatility draws a plausible level in [18,24) with a move within ±2%.
// Direction and regime follow from the drawn values like for live data.
func (c *Cache) syntheticVolatility(now time.Time) models.VolatilitySnapshot {
	base := 18 + c.rng.Float64()*6
	change := (c.rng.Float64() - 0.5) * 4
	prev := base / (1 + change/100)
	return models.NewVolatilitySnapshot(base, prev, base+3, base-3, now, models.SourceSynthetic)
}

// syntheticPrice perturbs the configured base price by up to ±1%.
func (c *Cache) syntheticPrice(symbol string) models.PriceSnapshot {
	base, ok := c.cfg.BasePrices[symbol]
	if !ok {
		base = 100
	}
	change := (c.rng.Float64() - 0.5) * 2
	return models.PriceSnapshot{
		Symbol:     symbol,
		Price:      base * (1 + change/100),
		ChangePct:  change,
		PrevClose:  base,
		WeeklyHigh: base * 1.02,
		WeeklyLow:  base * 0.98,
		Source:     models.SourceSynthetic,
	}
}
