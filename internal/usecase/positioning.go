package usecase

import (
	"context"
	"encoding/json"
	"time"

	"Karion/internal/domain/models"
	domsvc "Karion/internal/domain/service"
	"Karion/internal/service/cache"
	"Karion/internal/services/analytics"
	applogger "Karion/pkg/logger"
)

const positioningKey = "positioning:summary"

// PositioningUseCase serves weekly positioning reports. Reports only change once a week,
// so the summary is cached and single-symbol reads are served from it.
type PositioningUseCase struct {
	rep   domsvc.PositioningReporter
	cache cache.BytesCache
	ttl   time.Duration
	l     *applogger.Logger
	now   func() time.Time
}

func NewPositioningUseCase(rep domsvc.PositioningReporter, c cache.BytesCache, ttl time.Duration, l *applogger.Logger) *PositioningUseCase {
	return &PositioningUseCase{
		rep:   rep,
		cache: c,
		ttl:   ttl,
		l:     applogger.OrNop(l).Component("positioning"),
		now:   time.Now,
	}
}

// WithClock overrides the evaluation time, mainly for tests.
func (uc *PositioningUseCase) WithClock(now func() time.Time) *PositioningUseCase {
	uc.now = now
	return uc
}

// Summary returns every tracked report. The countdown is recomputed on each call.
func (uc *PositioningUseCase) Summary(ctx context.Context) models.PositioningSummary {
	now := uc.now().UTC()
	if s, ok := uc.cached(ctx); ok {
		s.Countdown = analytics.Countdown(s.NextRelease.Sub(now))
		s.Timestamp = now
		return s
	}

	s := uc.rep.Summary(now)
	if uc.cache != nil {
		if b, err := json.Marshal(s); err == nil {
			if err := uc.cache.SetBytes(ctx, positioningKey, b, uc.ttl); err != nil {
				uc.l.Warn("cache write failed", applogger.Error(err))
			}
		}
	}
	return s
}

// Report returns the report of one tracked symbol.
func (uc *PositioningUseCase) Report(ctx context.Context, symbol string) (models.PositioningReport, error) {
	if !models.IsTracked(symbol) {
		return models.PositioningReport{}, unknownSymbol(symbol)
	}
	s := uc.Summary(ctx)
	if r, ok := s.Reports[symbol]; ok {
		return r, nil
	}
	return uc.rep.Report(symbol, uc.now().UTC())
}

func (uc *PositioningUseCase) cached(ctx context.Context) (models.PositioningSummary, bool) {
	var s models.PositioningSummary
	if uc.cache == nil {
		return s, false
	}
	b, ok, err := uc.cache.GetBytes(ctx, positioningKey)
	if err != nil {
		uc.l.Warn("cache read failed", applogger.Error(err))
		return s, false
	}
	if !ok || json.Unmarshal(b, &s) != nil {
		return s, false
	}
	// a cached summary is stale once its release has passed
	if !uc.now().Before(s.NextRelease) {
		return s, false
	}
	return s, true
}
