package analytics

import (
	"fmt"
	"time"

	"Karion/internal/domain"
	"Karion/internal/domain/models"
	domsvc "Karion/internal/domain/service"
	"Karion/pkg/util"
)

// Reports are "as of" Tuesday and published Friday 20:30 UTC.
const (
	releaseLagDays = 3
	releaseHour    = 20
	releaseMinute  = 30
)

// PositioningModel simulates weekly Commitment of Traders reports.
type PositioningModel struct {
	rng domsvc.RandomSource
}

func NewPositioningModel(rng domsvc.RandomSource) *PositioningModel {
	return &PositioningModel{rng: rng}
}

// Report builds the report of one tracked symbol.
func (m *PositioningModel) Report(symbol string, now time.Time) (models.PositioningReport, error) {
	if !models.IsTracked(symbol) {
		return models.PositioningReport{}, fmt.Errorf("%w: %s", domain.ErrUnknownSymbol, symbol)
	}
	asOf := util.PreviousWeekday(now, time.Tuesday)
	r := models.PositioningReport{
		Symbol:     symbol,
		AsOf:       asOf,
		ReleasedAt: asOf.AddDate(0, 0, releaseLagDays),
	}
	if models.AssetClassOf(symbol) == models.ClassMetal {
		m.disaggregated(&r)
	} else {
		m.financialFutures(&r)
	}
	r.OpenInterest = IntBetween(m.rng, 200000, 500000)
	r.OIChange = IntBetween(m.rng, -5000, 5000)
	return r, nil
}

// Summary builds every tracked report plus the countdown to the next release.
func (m *PositioningModel) Summary(now time.Time) models.PositioningSummary {
	reports := make(map[string]models.PositioningReport, len(models.TrackedSymbols))
	for _, sym := range models.TrackedSymbols {
		r, _ := m.Report(sym, now)
		reports[sym] = r
	}
	next := util.NextWeekdayAt(now, time.Friday, releaseHour, releaseMinute)
	return models.PositioningSummary{
		Reports:     reports,
		NextRelease: next,
		Countdown:   Countdown(next.Sub(now)),
		LastUpdate:  util.ClockLabel(now),
		Timestamp:   now,
	}
}

// Countdown renders a duration as "Nd Mh", or "Nh" below one day.
func Countdown(d time.Duration) string {
	hours := int(d.Hours())
	if days := hours / 24; days > 0 {
		return fmt.Sprintf("%dd %dh", days, hours%24)
	}
	return fmt.Sprintf("%dh", hours)
}

// BiasFor maps the dominant category percentile onto a bias.
func BiasFor(percentile int) models.Bias {
	switch {
	case percentile > 70:
		return models.BiasBull
	case percentile < 30:
		return models.BiasBear
	default:
		return models.BiasNeutral
	}
}

// Crowding measures how far a percentile sits from the 52-week midpoint, in [0,100].
func Crowding(percentile int) int {
	c := abs(percentile-50) * 2
	if c > 100 {
		c = 100
	}
	return c
}

// financialFutures fills a Traders in Financial Futures report (indices and FX).
func (m *PositioningModel) financialFutures(r *models.PositioningReport) {
	r.ReportType = models.ReportTFF

	am := m.category("Asset Manager/Institutional", -50000, 80000, 10000, 30000, 5000, 20000, 5000, 10, 90)
	lev := m.category("Leveraged Funds", -40000, 40000, 5000, 20000, 5000, 15000, 3000, 10, 90)
	dealer := m.category("Dealer/Intermediary", -30000, 30000, 10000, 25000, 10000, 25000, 2000, 20, 80)
	other := models.TraderCategory{
		Name:       "Other Reportables",
		Net:        IntBetween(m.rng, -20000, 20000),
		NetChange:  IntBetween(m.rng, -1000, 1000),
		Percentile: IntBetween(m.rng, 20, 80),
	}
	r.Categories = map[string]models.TraderCategory{
		"asset_manager": am,
		"leveraged":     lev,
		"dealer":        dealer,
		"other":         other,
	}

	r.Bias = BiasFor(am.Percentile)
	switch r.Bias {
	case models.BiasBull:
		r.Driver = fmt.Sprintf("Asset managers net long at the %d 52w percentile. Institutions accumulating.", am.Percentile)
	case models.BiasBear:
		r.Driver = fmt.Sprintf("Asset managers reduced at the %d 52w percentile. Institutions distributing.", am.Percentile)
	default:
		r.Driver = fmt.Sprintf("Asset managers in the neutral zone (%d percentile). No strong bias.", am.Percentile)
	}

	r.Crowding = Crowding(lev.Percentile)
	switch p := lev.Percentile; {
	case p > 85 || p < 15:
		r.SqueezeRisk = 75 + IntBetween(m.rng, 0, 20)
		r.Driver += fmt.Sprintf(" Leveraged funds at the %d percentile, elevated squeeze risk.", p)
	case p > 70 || p < 30:
		r.SqueezeRisk = 40 + IntBetween(m.rng, 0, 20)
	default:
		r.SqueezeRisk = IntBetween(m.rng, 10, 30)
	}

	r.Confidence = min(90, 50+abs(am.Percentile-50))
}

// disaggregated fills a Disaggregated report (metals).
func (m *PositioningModel) disaggregated(r *models.PositioningReport) {
	r.ReportType = models.ReportDisaggregated

	mmNet := IntBetween(m.rng, -20000, 60000)
	mm := models.TraderCategory{
		Name:       "Managed Money",
		Long:       max(0, mmNet+IntBetween(m.rng, 20000, 50000)),
		Short:      IntBetween(m.rng, 10000, 30000),
		Net:        mmNet,
		NetChange:  IntBetween(m.rng, -4000, 4000),
		Percentile: IntBetween(m.rng, 15, 85),
	}
	swap := m.category("Swap Dealers", -30000, 30000, 15000, 35000, 15000, 35000, 2000, 25, 75)
	prodNet := IntBetween(m.rng, -50000, -10000)
	producer := models.TraderCategory{
		Name:       "Producer/Merchant",
		Long:       IntBetween(m.rng, 5000, 15000),
		Short:      abs(prodNet) + IntBetween(m.rng, 5000, 15000),
		Net:        prodNet,
		NetChange:  IntBetween(m.rng, -1500, 1500),
		Percentile: IntBetween(m.rng, 30, 70),
	}
	r.Categories = map[string]models.TraderCategory{
		"managed_money": mm,
		"swap_dealers":  swap,
		"producer":      producer,
	}

	r.Bias = BiasFor(mm.Percentile)
	switch r.Bias {
	case models.BiasBull:
		r.Driver = fmt.Sprintf("Managed money net long at the %d percentile. Speculators bullish on gold.", mm.Percentile)
	case models.BiasBear:
		r.Driver = fmt.Sprintf("Managed money reduced at the %d percentile. Speculative interest fading.", mm.Percentile)
	default:
		r.Driver = fmt.Sprintf("Managed money in the neutral zone (%d percentile).", mm.Percentile)
	}

	r.Crowding = Crowding(mm.Percentile)
	if p := mm.Percentile; p > 80 || p < 20 {
		r.SqueezeRisk = 70 + IntBetween(m.rng, 0, 25)
		r.Driver += " Overcrowding detected, reversal risk."
	} else {
		r.SqueezeRisk = IntBetween(m.rng, 15, 40)
	}

	r.Confidence = min(85, 45+abs(mm.Percentile-50))
}

// category draws a net position with long and short legs consistent with it.
func (m *PositioningModel) category(name string, netLo, netHi, longLo, longHi, shortLo, shortHi, chg, pLo, pHi int) models.TraderCategory {
	net := IntBetween(m.rng, netLo, netHi)
	long := max(0, net+IntBetween(m.rng, longLo, longHi))
	short := IntBetween(m.rng, shortLo, shortHi)
	if net < 0 {
		short += -net
	}
	return models.TraderCategory{
		Name:       name,
		Long:       long,
		Short:      short,
		Net:        net,
		NetChange:  IntBetween(m.rng, -chg, chg),
		Percentile: IntBetween(m.rng, pLo, pHi),
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

var _ domsvc.PositioningReporter = (*PositioningModel)(nil)
