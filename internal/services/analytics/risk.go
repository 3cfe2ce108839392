package analytics

import (
	"fmt"
	"math"
	"sort"
	"time"

	"Karion/internal/domain/models"
	domsvc "Karion/internal/domain/service"
)

const (
	defaultHoursToEvent = 24
	defaultMinDistance  = 100.0
	defaultIndexPrice   = 6000.0
	tradingDaysPerYear  = 252
	secondReasonMin     = 12
)

// RiskAggregator scores portfolio risk from four additive components.
type RiskAggregator struct{}

func NewRiskAggregator() *RiskAggregator { return &RiskAggregator{} }

// Assess is a pure function of its inputs.
func (RiskAggregator) Assess(vol models.VolatilitySnapshot, prices models.PriceBoard, events []models.MacroEvent, now time.Time) models.RiskAssessment {
	next, hours := NextHighImpactEvent(events, now)

	stretch := make(map[string]models.AssetStretch, len(models.TrackedSymbols))
	minDistance := defaultMinDistance
	for _, sym := range models.TrackedSymbols {
		p, ok := prices.Prices[sym]
		if !ok {
			continue
		}
		s, ok := StretchOf(p)
		if !ok {
			continue
		}
		if s.DistanceToExtremePct < minDistance {
			minDistance = s.DistanceToExtremePct
		}
		stretch[sym] = s
	}

	comp := models.RiskComponents{
		VolatilityLevel:    VolatilityLevelRisk(vol.Current),
		VolatilityMomentum: VolatilityMomentumRisk(vol.PercentChange),
		EventRisk:          EventRisk(hours),
		MarketStretch:      StretchRisk(minDistance),
	}
	total := comp.Total()

	spx := defaultIndexPrice
	if p := prices.Price(models.SP500); p > 0 {
		spx = p
	}

	return models.RiskAssessment{
		Score:           total,
		Category:        CategoryFor(total),
		Components:      comp,
		Reasons:         rankReasons(comp, vol, hours, minDistance),
		PerAssetStretch: stretch,
		ExpectedMove:    ExpectedMoveFor(vol.Current, spx),
		Tilts:           TiltsFor(vol.PercentChange > 2),
		NextEvent:       next,
		HoursToEvent:    hours,
		Volatility:      vol,
		Events:          events,
		Timestamp:       now,
	}
}

func VolatilityLevelRisk(current float64) int {
	switch {
	case current >= 30:
		return 25
	case current >= 25:
		return 22
	case current >= 22:
		return 18
	case current >= 18:
		return 12
	case current >= 14:
		return 6
	default:
		return 3
	}
}

func VolatilityMomentumRisk(changePct float64) int {
	switch {
	case changePct > 10:
		return 25
	case changePct > 6:
		return 22
	case changePct > 3:
		return 16
	case changePct >= -3:
		return 8
	case changePct >= -6:
		return 4
	default:
		return 2
	}
}

func EventRisk(hours int) int {
	switch {
	case hours <= 1:
		return 25
	case hours <= 2:
		return 22
	case hours <= 4:
		return 16
	case hours <= 8:
		return 10
	case hours <= 12:
		return 6
	default:
		return 3
	}
}

// StretchRisk scores the smallest distance (percent) to a two-week extreme.
func StretchRisk(distance float64) int {
	switch {
	case distance <= 0.25:
		return 25
	case distance <= 0.5:
		return 20
	case distance <= 0.75:
		return 15
	case distance <= 1.0:
		return 10
	case distance <= 1.5:
		return 6
	default:
		return 3
	}
}

func CategoryFor(total int) models.RiskCategory {
	switch {
	case total >= 67:
		return models.RiskHigh
	case total >= 34:
		return models.RiskMedium
	default:
		return models.RiskSafe
	}
}

// NextHighImpactEvent finds the first high-impact event whose hour is after now's hour.
// Without one the event is nil and the distance defaults to 24 hours.
func NextHighImpactEvent(events []models.MacroEvent, now time.Time) (*models.MacroEvent, int) {
	cur := now.UTC().Hour()
	for _, e := range events {
		if e.Impact != models.ImpactHigh {
			continue
		}
		h, err := e.Hour()
		if err != nil {
			continue
		}
		if h > cur {
			ev := e
			return &ev, h - cur
		}
	}
	return nil, defaultHoursToEvent
}

// NextEvent finds the first event of any impact whose hour is after now's hour.
func NextEvent(events []models.MacroEvent, now time.Time) *models.ScheduledEvent {
	cur := now.UTC().Hour()
	for _, e := range events {
		h, err := e.Hour()
		if err != nil {
			continue
		}
		if h > cur {
			return &models.ScheduledEvent{MacroEvent: e, Countdown: fmt.Sprintf("%dh", h-cur)}
		}
	}
	return nil
}

// StretchOf measures the distance of a price to its widened weekly band.
// It reports false when the band is unusable.
func StretchOf(p models.PriceSnapshot) (models.AssetStretch, bool) {
	hi := p.WeeklyHigh * 1.005
	lo := p.WeeklyLow * 0.995
	if hi <= 0 || lo <= 0 {
		return models.AssetStretch{}, false
	}
	toHigh := math.Abs((hi - p.Price) / hi * 100)
	toLow := math.Abs((p.Price - lo) / lo * 100)

	s := models.AssetStretch{
		TwoWeekHigh: hi,
		TwoWeekLow:  lo,
		Current:     p.Price,
		ChangePct:   p.ChangePct,
	}
	if toHigh < toLow {
		s.NearestExtreme = models.ExtremeHigh
		s.DistanceToExtremePct = toHigh
	} else {
		s.NearestExtreme = models.ExtremeLow
		s.DistanceToExtremePct = toLow
	}
	return s, true
}

// ExpectedMoveFor converts the annualised volatility level into a one-day move.
func ExpectedMoveFor(current, indexPrice float64) models.ExpectedMove {
	daily := current / math.Sqrt(tradingDaysPerYear)
	return models.ExpectedMove{
		PctOfCapital: daily,
		IndexPoints:  indexPrice * daily / 100,
	}
}

var (
	tiltsRising = map[models.AssetClass]models.AssetTilt{
		models.ClassIndex:    {Bias: "breakout-risk", Color: "red", Note: "Rising VIX raises flush and breakout risk. Scale back contrarian entries."},
		models.ClassMetal:    {Bias: "safe-haven", Color: "yellow", Note: "Risk-off flows can support gold as a safe haven."},
		models.ClassCurrency: {Bias: "bearish-bias", Color: "red", Note: "Rising VIX signals stress. EURUSD longs carry more risk as USD may firm."},
	}
	tiltsCalm = map[models.AssetClass]models.AssetTilt{
		models.ClassIndex:    {Bias: "mean-reversion", Color: "green", Note: "Falling VIX favours rotation back to the intraday mean."},
		models.ClassMetal:    {Bias: "range", Color: "green", Note: "Risk-on backdrop caps gold upside. Range trade more likely."},
		models.ClassCurrency: {Bias: "bounce-possible", Color: "green", Note: "Falling VIX is risk-on. EURUSD rebounds more plausible."},
	}
)

// TiltsFor returns the static stance per tracked asset.
func TiltsFor(volRising bool) map[string]models.AssetTilt {
	table := tiltsCalm
	if volRising {
		table = tiltsRising
	}
	out := make(map[string]models.AssetTilt, len(models.TrackedSymbols))
	for _, sym := range models.TrackedSymbols {
		out[sym] = table[models.AssetClassOf(sym)]
	}
	return out
}

func rankReasons(c models.RiskComponents, vol models.VolatilitySnapshot, hours int, minDistance float64) []models.RiskReason {
	sign := ""
	if vol.PercentChange > 0 {
		sign = "+"
	}
	event := "No imminent events"
	if hours <= 12 {
		event = fmt.Sprintf("High-impact event in %dh", hours)
	}
	ranked := []models.RiskReason{
		{Factor: "VIX Level", Value: c.VolatilityLevel, Detail: fmt.Sprintf("VIX at %.2f", vol.Current)},
		{Factor: "VIX Momentum", Value: c.VolatilityMomentum, Detail: fmt.Sprintf("VIX %s%.1f%%", sign, vol.PercentChange)},
		{Factor: "Event Risk", Value: c.EventRisk, Detail: event},
		{Factor: "Market Stretch", Value: c.MarketStretch, Detail: fmt.Sprintf("Asset at %.2f%% from 2W extreme", minDistance)},
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Value > ranked[j].Value })

	out := ranked[:1]
	if ranked[1].Value >= secondReasonMin {
		out = ranked[:2]
	}
	return out
}

var _ domsvc.RiskAggregator = (*RiskAggregator)(nil)
