package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Karion/internal/domain/models"
	"Karion/internal/service/cache"
)

type fakeProvider struct {
	mu        sync.Mutex
	volBars   []models.Bar
	volErr    error
	series    map[string][]models.Bar
	seriesErr error
	volCalls  int
	serCalls  int
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) FetchVolatility(_ context.Context, _, _, _ string) ([]models.Bar, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.volCalls++
	return f.volBars, f.volErr
}

func (f *fakeProvider) FetchSeries(_ context.Context, _ map[string]string, _, _ string) (map[string][]models.Bar, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.serCalls++
	return f.series, f.seriesErr
}

type halfRand struct{}

func (halfRand) Float64() float64 { return 0.5 }
func (halfRand) Intn(n int) int   { return n / 2 }

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

var t0 = time.Date(2024, 10, 10, 13, 0, 0, 0, time.UTC)

func bars(closes ...float64) []models.Bar {
	out := make([]models.Bar, len(closes))
	for i, c := range closes {
		out[i] = models.Bar{Open: c, High: c + 1, Low: c - 1, Close: c}
	}
	return out
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.PriceSymbols = map[string]string{models.SP500: "ES=F", models.XAUUSD: "GC=F"}
	return cfg
}

func TestVolatilityLiveAndCached(t *testing.T) {
	p := &fakeProvider{volBars: bars(15, 16, 20)}
	clk := &clock{t: t0}
	c := New(testConfig(), p, halfRand{}, WithClock(clk.now))

	v := c.Volatility(context.Background())
	assert.Equal(t, models.SourceLive, v.Source)
	assert.Equal(t, 20.0, v.Current)
	assert.Equal(t, 16.0, v.Previous)
	assert.InDelta(t, 25.0, v.PercentChange, 1e-9)
	assert.Equal(t, models.VolRising, v.Direction)
	assert.Equal(t, models.RegimeNeutral, v.Regime)
	assert.Equal(t, 21.0, v.FiveDayHigh)
	assert.Equal(t, 14.0, v.FiveDayLow)

	clk.advance(299 * time.Second)
	again := c.Volatility(context.Background())
	assert.Equal(t, v, again)
	assert.Equal(t, 1, p.volCalls)

	clk.advance(time.Second)
	c.Volatility(context.Background())
	assert.Equal(t, 2, p.volCalls)
}

func TestVolatilityFallsBackOnError(t *testing.T) {
	p := &fakeProvider{volErr: errors.New("boom")}
	c := New(testConfig(), p, halfRand{}, WithClock((&clock{t: t0}).now))

	v := c.Volatility(context.Background())
	assert.Equal(t, models.SourceSynthetic, v.Source)
	assert.Equal(t, 21.0, v.Current)
	assert.Equal(t, 0.0, v.PercentChange)
	assert.Equal(t, models.VolStable, v.Direction)
	assert.Equal(t, 24.0, v.FiveDayHigh)
	assert.Equal(t, 18.0, v.FiveDayLow)

	// the fallback is cached like a live value
	c.Volatility(context.Background())
	assert.Equal(t, 1, p.volCalls)
}

func TestVolatilityNeedsTwoBars(t *testing.T) {
	p := &fakeProvider{volBars: bars(19)}
	c := New(testConfig(), p, halfRand{}, WithClock((&clock{t: t0}).now))

	v := c.Volatility(context.Background())
	assert.Equal(t, models.SourceSynthetic, v.Source)
}

func TestPricesFallBackPerSymbol(t *testing.T) {
	p := &fakeProvider{series: map[string][]models.Bar{
		models.SP500:  bars(6000, 6060),
		models.XAUUSD: bars(2600),
	}}
	c := New(testConfig(), p, halfRand{}, WithClock((&clock{t: t0}).now))

	board := c.Prices(context.Background())
	require.Len(t, board.Prices, 2)

	spx := board.Prices[models.SP500]
	assert.Equal(t, models.SourceLive, spx.Source)
	assert.Equal(t, 6060.0, spx.Price)
	assert.InDelta(t, 1.0, spx.ChangePct, 1e-9)
	assert.Equal(t, 6061.0, spx.WeeklyHigh)
	assert.Equal(t, 5999.0, spx.WeeklyLow)

	gold := board.Prices[models.XAUUSD]
	assert.Equal(t, models.SourceSynthetic, gold.Source)
	assert.Equal(t, 2650.0, gold.Price)
	assert.InDelta(t, 2650*1.02, gold.WeeklyHigh, 1e-9)
	assert.InDelta(t, 2650*0.98, gold.WeeklyLow, 1e-9)
}

func TestPricesAllSyntheticOnError(t *testing.T) {
	p := &fakeProvider{seriesErr: errors.New("down")}
	clk := &clock{t: t0}
	c := New(testConfig(), p, halfRand{}, WithClock(clk.now))

	board := c.Prices(context.Background())
	for sym, ps := range board.Prices {
		assert.Equal(t, models.SourceSynthetic, ps.Source, sym)
	}
	assert.Equal(t, t0, board.CapturedAt)

	clk.advance(119 * time.Second)
	c.Prices(context.Background())
	assert.Equal(t, 1, p.serCalls)

	clk.advance(time.Second)
	c.Prices(context.Background())
	assert.Equal(t, 2, p.serCalls)
}

// stallingProvider never answers before its context ends.
type stallingProvider struct{}

func (stallingProvider) Name() string { return "stalling" }

func (stallingProvider) FetchVolatility(ctx context.Context, _, _, _ string) ([]models.Bar, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (stallingProvider) FetchSeries(ctx context.Context, _ map[string]string, _, _ string) (map[string][]models.Bar, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestUpstreamTimeoutFallsBackToSynthetic(t *testing.T) {
	cfg := testConfig()
	cfg.FetchTimeout = 50 * time.Millisecond
	c := New(cfg, stallingProvider{}, halfRand{}, WithClock((&clock{t: t0}).now))

	start := time.Now()
	v := c.Volatility(context.Background())
	board := c.Prices(context.Background())
	elapsed := time.Since(start)

	assert.Equal(t, models.SourceSynthetic, v.Source)
	require.Len(t, board.Prices, 2)
	for sym, ps := range board.Prices {
		assert.Equal(t, models.SourceSynthetic, ps.Source, sym)
	}
	assert.Less(t, elapsed, 2*time.Second)
}

func TestMirrorSharesFreshSnapshot(t *testing.T) {
	mirror := cache.NewTTLCache()
	shared := models.NewVolatilitySnapshot(30, 25, 31, 24, t0.Add(-time.Minute), models.SourceLive)
	raw, err := json.Marshal(shared)
	require.NoError(t, err)
	require.NoError(t, mirror.SetBytes(context.Background(), mirrorVolatilityKey, raw, time.Hour))

	p := &fakeProvider{volBars: bars(15, 16)}
	c := New(testConfig(), p, halfRand{}, WithMirror(mirror), WithClock((&clock{t: t0}).now))

	v := c.Volatility(context.Background())
	assert.Equal(t, 30.0, v.Current)
	assert.Equal(t, models.RegimeRiskOff, v.Regime)
	assert.Zero(t, p.volCalls)
}

func TestMirrorIgnoresStaleSnapshot(t *testing.T) {
	mirror := cache.NewTTLCache()
	stale := models.NewVolatilitySnapshot(30, 25, 31, 24, t0.Add(-10*time.Minute), models.SourceLive)
	raw, _ := json.Marshal(stale)
	require.NoError(t, mirror.SetBytes(context.Background(), mirrorVolatilityKey, raw, time.Hour))

	p := &fakeProvider{volBars: bars(15, 16)}
	c := New(testConfig(), p, halfRand{}, WithMirror(mirror), WithClock((&clock{t: t0}).now))

	v := c.Volatility(context.Background())
	assert.Equal(t, 16.0, v.Current)
	assert.Equal(t, 1, p.volCalls)

	// the refreshed value replaces the stale one for other replicas
	b, ok, err := mirror.GetBytes(context.Background(), mirrorVolatilityKey)
	require.NoError(t, err)
	require.True(t, ok)
	var got models.VolatilitySnapshot
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, 16.0, got.Current)
}

func TestPriceFromBarsZeroPrevious(t *testing.T) {
	p, err := PriceFromBars(models.EURUSD, bars(0, 1.1))
	require.NoError(t, err)
	assert.Equal(t, 0.0, p.ChangePct)
}
