package usecase

import (
	"context"
	"time"

	"Karion/internal/domain/models"
	domrepo "Karion/internal/domain/repository"
	domsvc "Karion/internal/domain/service"
	"Karion/internal/services/analytics"
	"Karion/pkg/util"
)

// MarketUseCase serves the market context: snapshots, directional analyses and risk.
type MarketUseCase struct {
	snap     domsvc.SnapshotSource
	scorer   domsvc.Scorer
	risk     domsvc.RiskAggregator
	calendar domrepo.EventCalendar
	now      func() time.Time
}

func NewMarketUseCase(snap domsvc.SnapshotSource, scorer domsvc.Scorer, risk domsvc.RiskAggregator, calendar domrepo.EventCalendar) *MarketUseCase {
	return &MarketUseCase{snap: snap, scorer: scorer, risk: risk, calendar: calendar, now: time.Now}
}

// WithClock overrides the evaluation time, mainly for tests.
func (uc *MarketUseCase) WithClock(now func() time.Time) *MarketUseCase {
	uc.now = now
	return uc
}

func (uc *MarketUseCase) Volatility(ctx context.Context) models.VolatilitySnapshot {
	return uc.snap.Volatility(ctx)
}

func (uc *MarketUseCase) Prices(ctx context.Context) models.PriceBoard {
	return uc.snap.Prices(ctx)
}

// Overview scores every tracked symbol against one volatility and price snapshot.
func (uc *MarketUseCase) Overview(ctx context.Context) *models.MarketOverview {
	return uc.overview(ctx, uc.scorer.Score)
}

// Preview builds the same overview without moving the momentum baseline.
func (uc *MarketUseCase) Preview(ctx context.Context) *models.MarketOverview {
	return uc.overview(ctx, uc.scorer.Peek)
}

type scoreFunc func(symbol string, vol models.VolatilitySnapshot, prices models.PriceBoard) models.DirectionalAnalysis

func (uc *MarketUseCase) overview(ctx context.Context, score scoreFunc) *models.MarketOverview {
	now := uc.now().UTC()
	vol := uc.snap.Volatility(ctx)
	prices := uc.snap.Prices(ctx)
	label := util.ClockLabel(now)

	out := &models.MarketOverview{
		Analyses:   make(map[string]models.DirectionalAnalysis, len(models.TrackedSymbols)),
		Volatility: vol,
		Regime:     vol.Regime,
		NextEvent:  analytics.NextEvent(uc.calendar.Upcoming(), now),
		Timestamp:  now,
		LastUpdate: label,
	}
	for _, sym := range models.TrackedSymbols {
		a := score(sym, vol, prices)
		a.LastUpdate = label
		out.Analyses[sym] = a
	}
	return out
}

// Analysis scores a single tracked symbol.
func (uc *MarketUseCase) Analysis(ctx context.Context, symbol string) (models.DirectionalAnalysis, error) {
	if !models.IsTracked(symbol) {
		return models.DirectionalAnalysis{}, unknownSymbol(symbol)
	}
	a := uc.scorer.Score(symbol, uc.snap.Volatility(ctx), uc.snap.Prices(ctx))
	a.LastUpdate = util.ClockLabel(uc.now())
	return a, nil
}

// Risk assesses portfolio risk against the current snapshots and the day's calendar.
func (uc *MarketUseCase) Risk(ctx context.Context) models.RiskAssessment {
	return uc.risk.Assess(uc.snap.Volatility(ctx), uc.snap.Prices(ctx), uc.calendar.Upcoming(), uc.now().UTC())
}
