package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Karion/internal/domain"
	"Karion/internal/domain/models"
	"Karion/internal/service/cache"
	"Karion/internal/service/calendar"
	"Karion/internal/service/momentum"
	"Karion/internal/services/analytics"
)

var testNow = time.Date(2024, 10, 10, 13, 10, 0, 0, time.UTC)

type staticSnapshots struct {
	vol    models.VolatilitySnapshot
	prices models.PriceBoard
}

func (s staticSnapshots) Volatility(context.Context) models.VolatilitySnapshot { return s.vol }
func (s staticSnapshots) Prices(context.Context) models.PriceBoard             { return s.prices }

type halfRand struct{}

func (halfRand) Float64() float64 { return 0.5 }
func (halfRand) Intn(n int) int   { return n / 2 }

func snapshots() staticSnapshots {
	return staticSnapshots{
		vol: models.NewVolatilitySnapshot(26, 26/1.09, 27, 20, testNow, models.SourceLive),
		prices: models.PriceBoard{Prices: map[string]models.PriceSnapshot{
			models.SP500:  {Symbol: models.SP500, Price: 6000, WeeklyHigh: 6100, WeeklyLow: 5900, Source: models.SourceLive},
			models.XAUUSD: {Symbol: models.XAUUSD, Price: 2650, WeeklyHigh: 2700, WeeklyLow: 2600, Source: models.SourceSynthetic},
		}},
	}
}

func newMarket() *MarketUseCase {
	return NewMarketUseCase(
		snapshots(),
		analytics.NewScoringModel(halfRand{}, momentum.NewStore()),
		analytics.NewRiskAggregator(),
		calendar.New(calendar.DefaultEvents),
	).WithClock(func() time.Time { return testNow })
}

func TestOverview(t *testing.T) {
	o := newMarket().Overview(context.Background())

	assert.Len(t, o.Analyses, len(models.TrackedSymbols))
	assert.Equal(t, models.RegimeRiskOff, o.Regime)
	assert.Equal(t, "13:10", o.LastUpdate)
	require.NotNil(t, o.NextEvent)
	assert.Equal(t, "US Core CPI m/m", o.NextEvent.Name)
	assert.Equal(t, "1h", o.NextEvent.Countdown)

	gold := o.Analyses[models.XAUUSD]
	assert.Equal(t, "13:10", gold.LastUpdate)
	assert.Equal(t, models.SourceSynthetic, gold.Source)
	assert.Equal(t, models.SourceLive, o.Analyses[models.SP500].Source)
}

func TestAnalysisUnknownSymbol(t *testing.T) {
	_, err := newMarket().Analysis(context.Background(), "BTCUSD")
	assert.True(t, errors.Is(err, domain.ErrUnknownSymbol))
}

func TestRiskEndToEnd(t *testing.T) {
	r := newMarket().Risk(context.Background())

	assert.Equal(t, models.VolRising, r.Volatility.Direction)
	assert.Equal(t, 22, r.Components.VolatilityLevel)
	assert.Equal(t, 22, r.Components.VolatilityMomentum)
	assert.Equal(t, 1, r.HoursToEvent)
	require.NotNil(t, r.NextEvent)
	assert.Len(t, r.Events, len(calendar.DefaultEvents))
}

type fakeSim struct{ err error }

func (f fakeSim) Simulate(_ context.Context, p models.SimulationParams) (models.SimulationResult, error) {
	return models.SimulationResult{Params: p}, f.err
}

type countingMetrics struct{ errs, latencies int }

func (m *countingMetrics) RecordSnapshotRefresh(string, models.Source) {}
func (m *countingMetrics) RecordError(string)                          { m.errs++ }
func (m *countingMetrics) RecordVolatility(float64)                    {}
func (m *countingMetrics) RecordLatency(string, float64)               { m.latencies++ }

func TestSimulationRecordsMetrics(t *testing.T) {
	m := &countingMetrics{}
	_, err := NewSimulationUseCase(fakeSim{err: domain.ErrInvalidParameter}, m).
		Simulate(context.Background(), models.SimulationParams{})
	require.Error(t, err)
	assert.Equal(t, 1, m.errs)
	assert.Equal(t, 1, m.latencies)
}

func TestPositioningSummaryIsCached(t *testing.T) {
	clk := testNow
	ttl := cache.NewTTLCache()
	uc := NewPositioningUseCase(analytics.NewPositioningModel(analytics.NewRandomSource(7)), ttl, time.Hour, nil).
		WithClock(func() time.Time { return clk })

	first := uc.Summary(context.Background())
	require.Len(t, first.Reports, len(models.TrackedSymbols))

	clk = clk.Add(2 * time.Hour)
	second := uc.Summary(context.Background())
	assert.Equal(t, first.Reports[models.SP500].Categories, second.Reports[models.SP500].Categories)
	assert.NotEqual(t, first.Countdown, second.Countdown)

	r, err := uc.Report(context.Background(), models.SP500)
	require.NoError(t, err)
	assert.Equal(t, second.Reports[models.SP500].OpenInterest, r.OpenInterest)

	_, err = uc.Report(context.Background(), "DOGE")
	assert.True(t, errors.Is(err, domain.ErrUnknownSymbol))
}

type recordingPublisher struct {
	got []*models.MarketOverview
	err error
}

func (p *recordingPublisher) PublishOverview(_ context.Context, o *models.MarketOverview) error {
	p.got = append(p.got, o)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

type publishCounter map[string]int

func (c publishCounter) RecordPublished(ch string) { c[ch]++ }

func TestOverviewJobFansOut(t *testing.T) {
	kafka := &recordingPublisher{err: errors.New("broker down")}
	ws := &recordingPublisher{}
	counts := publishCounter{}
	job := NewOverviewJob(newMarket(), []Channel{
		{Name: "kafka", Publisher: kafka},
		{Name: "websocket", Publisher: ws, Live: true},
	}, "0 * * * *", 0, counts, nil)

	err := job.RunOnce(context.Background(), false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kafka")
	assert.Len(t, kafka.got, 1)
	assert.Len(t, ws.got, 1)
	assert.Equal(t, 1, counts["websocket"])
	assert.Zero(t, counts["kafka"])

	require.NoError(t, job.RunOnce(context.Background(), true))
	assert.Len(t, kafka.got, 1)
	assert.Len(t, ws.got, 2)
}

func TestOverviewJobRejectsBadSchedule(t *testing.T) {
	job := NewOverviewJob(newMarket(), nil, "not a cron", 0, nil, nil)
	assert.Error(t, job.Start())
}

func TestLiveRefreshKeepsMomentumBaseline(t *testing.T) {
	store := momentum.NewStore()
	market := NewMarketUseCase(
		snapshots(),
		analytics.NewScoringModel(halfRand{}, store),
		analytics.NewRiskAggregator(),
		calendar.New(calendar.DefaultEvents),
	).WithClock(func() time.Time { return testNow })
	ws := &recordingPublisher{}
	job := NewOverviewJob(market, []Channel{{Name: "websocket", Publisher: ws, Live: true}}, "0 * * * *", 0, nil, nil)

	require.NoError(t, job.RunOnce(context.Background(), true))
	assert.Len(t, job.Latest(context.Background()).Analyses, len(models.TrackedSymbols))
	_, ok := store.Previous(models.SP500)
	assert.False(t, ok)

	require.NoError(t, job.RunOnce(context.Background(), false))
	_, ok = store.Previous(models.SP500)
	assert.True(t, ok)
	assert.Len(t, ws.got, 2)
}
