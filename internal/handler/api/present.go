package api

import (
	"context"

	"Karion/internal/domain/models"
	domrepo "Karion/internal/domain/repository"
	"Karion/pkg/util"
)

// Engine values keep full precision; rounding happens only on the way out.

func presentVolatility(v models.VolatilitySnapshot) models.VolatilitySnapshot {
	v.Current = util.Round(v.Current, 2)
	v.Previous = util.Round(v.Previous, 2)
	v.PercentChange = util.Round(v.PercentChange, 2)
	v.FiveDayHigh = util.Round(v.FiveDayHigh, 2)
	v.FiveDayLow = util.Round(v.FiveDayLow, 2)
	return v
}

func presentPrice(p models.PriceSnapshot) models.PriceSnapshot {
	dp := models.PriceDecimals(p.Symbol)
	p.Price = util.Round(p.Price, dp)
	p.PrevClose = util.Round(p.PrevClose, dp)
	p.WeeklyHigh = util.Round(p.WeeklyHigh, dp)
	p.WeeklyLow = util.Round(p.WeeklyLow, dp)
	p.ChangePct = util.Round(p.ChangePct, 2)
	return p
}

func presentBoard(b models.PriceBoard) models.PriceBoard {
	out := models.PriceBoard{Prices: make(map[string]models.PriceSnapshot, len(b.Prices)), CapturedAt: b.CapturedAt}
	for k, p := range b.Prices {
		out.Prices[k] = presentPrice(p)
	}
	return out
}

func presentAnalysis(a models.DirectionalAnalysis) models.DirectionalAnalysis {
	a.CompositeScore = util.Round(a.CompositeScore, 4)
	a.Factors = models.FactorScores{
		Volatility:  util.Round(a.Factors.Volatility, 4),
		Macro:       util.Round(a.Factors.Macro, 4),
		News:        util.Round(a.Factors.News, 4),
		Positioning: util.Round(a.Factors.Positioning, 4),
	}
	a.Price = util.Round(a.Price, models.PriceDecimals(a.Symbol))
	return a
}

func presentScores(scores map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(scores))
	for k, v := range scores {
		out[k] = util.Round(v, 4)
	}
	return out
}

func presentOverview(o *models.MarketOverview) *models.MarketOverview {
	if o == nil {
		return nil
	}
	out := *o
	out.Volatility = presentVolatility(o.Volatility)
	out.Analyses = make(map[string]models.DirectionalAnalysis, len(o.Analyses))
	for k, a := range o.Analyses {
		out.Analyses[k] = presentAnalysis(a)
	}
	return &out
}

func presentRisk(r models.RiskAssessment) models.RiskAssessment {
	r.Volatility = presentVolatility(r.Volatility)
	r.ExpectedMove = models.ExpectedMove{
		PctOfCapital: util.Round(r.ExpectedMove.PctOfCapital, 2),
		IndexPoints:  util.Round(r.ExpectedMove.IndexPoints, 2),
	}
	stretch := make(map[string]models.AssetStretch, len(r.PerAssetStretch))
	for sym, s := range r.PerAssetStretch {
		dp := models.PriceDecimals(sym)
		s.DistanceToExtremePct = util.Round(s.DistanceToExtremePct, 2)
		s.ChangePct = util.Round(s.ChangePct, 2)
		s.TwoWeekHigh = util.Round(s.TwoWeekHigh, dp)
		s.TwoWeekLow = util.Round(s.TwoWeekLow, dp)
		s.Current = util.Round(s.Current, dp)
		stretch[sym] = s
	}
	r.PerAssetStretch = stretch
	return r
}

func presentSimulation(r models.SimulationResult) models.SimulationResult {
	r.AvgTerminal = util.Round(r.AvgTerminal, 2)
	r.MinTerminal = util.Round(r.MinTerminal, 2)
	r.MaxTerminal = util.Round(r.MaxTerminal, 2)
	r.RuinRatePct = util.Round(r.RuinRatePct, 2)
	curves := make([][]float64, len(r.SampleEquityCurves))
	for i, c := range r.SampleEquityCurves {
		out := make([]float64, len(c))
		for j, v := range c {
			out[j] = util.Round(v, 2)
		}
		curves[i] = out
	}
	r.SampleEquityCurves = curves
	return r
}

// RoundedPublisher rounds overviews the same way the REST endpoints do before forwarding them.
type RoundedPublisher struct {
	Next domrepo.OverviewPublisher
}

var _ domrepo.OverviewPublisher = (*RoundedPublisher)(nil)

func (p *RoundedPublisher) PublishOverview(ctx context.Context, o *models.MarketOverview) error {
	return p.Next.PublishOverview(ctx, presentOverview(o))
}

func (p *RoundedPublisher) Close() error { return p.Next.Close() }
