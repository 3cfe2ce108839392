package snapshot

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"Karion/internal/domain/models"
	domrepo "Karion/internal/domain/repository"
	domsvc "Karion/internal/domain/service"
	"Karion/internal/service/breaker"
	"Karion/internal/service/cache"
	applogger "Karion/pkg/logger"
)

const (
	feedVolatility = "volatility"
	feedPrices     = "prices"

	mirrorVolatilityKey = "snapshot:volatility"
	mirrorPricesKey     = "snapshot:prices"
)

// Config controls freshness windows and what is fetched upstream.
type Config struct {
	VolatilitySymbol string
	// PriceSymbols maps display symbols to provider tickers.
	PriceSymbols  map[string]string
	Period        string
	Interval      string
	VolatilityTTL time.Duration
	PriceTTL      time.Duration
	FetchTimeout  time.Duration
	// BasePrices anchor synthetic quotes per display symbol.
	BasePrices map[string]float64
}

// DefaultConfig mirrors the production defaults.
func DefaultConfig() Config {
	return Config{
		VolatilitySymbol: "^VIX",
		PriceSymbols: map[string]string{
			models.XAUUSD: "GC=F",
			models.NAS100: "NQ=F",
			models.SP500:  "ES=F",
			models.EURUSD: "EURUSD=X",
			models.DOW:    "YM=F",
		},
		Period:        "5d",
		Interval:      "1d",
		VolatilityTTL: 300 * time.Second,
		PriceTTL:      120 * time.Second,
		FetchTimeout:  5 * time.Second,
		BasePrices: map[string]float64{
			models.XAUUSD: 2650,
			models.NAS100: 21450,
			models.SP500:  6050,
			models.EURUSD: 1.085,
			models.DOW:    44200,
		},
	}
}

// FetchResult is the outcome of one upstream refresh. Err is set when Value must not be used.
type FetchResult[T any] struct {
	Value T
	Err   error
}

func (r FetchResult[T]) OK() bool { return r.Err == nil }

// Cache holds the volatility and price snapshots. Each slot has its own freshness window;
// a failed refresh stores a synthetic snapshot so callers always get data.
type Cache struct {
	cfg      Config
	provider domrepo.MarketDataProvider
	rng      domsvc.RandomSource
	breaker  *breaker.Breaker
	mirror   cache.BytesCache
	metrics  domrepo.Metrics
	l        *applogger.Logger
	now      func() time.Time

	mu       sync.Mutex
	vol      *models.VolatilitySnapshot
	volAt    time.Time
	prices   *models.PriceBoard
	pricesAt time.Time
}

type Option func(*Cache)

// WithBreaker routes upstream calls through a circuit breaker.
func WithBreaker(b *breaker.Breaker) Option { return func(c *Cache) { c.breaker = b } }

// WithMirror shares snapshots with other replicas through a bytes cache.
func WithMirror(m cache.BytesCache) Option { return func(c *Cache) { c.mirror = m } }

func WithMetrics(m domrepo.Metrics) Option { return func(c *Cache) { c.metrics = m } }

func WithLogger(l *applogger.Logger) Option { return func(c *Cache) { c.l = applogger.OrNop(l) } }

func WithClock(now func() time.Time) Option { return func(c *Cache) { c.now = now } }

func New(cfg Config, provider domrepo.MarketDataProvider, rng domsvc.RandomSource, opts ...Option) *Cache {
	c := &Cache{
		cfg:      cfg,
		provider: provider,
		rng:      rng,
		l:        applogger.Nop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.l = c.l.Component("snapshot")
	return c
}

// Volatility returns the volatility snapshot, refreshing it when older than its window.
func (c *Cache) Volatility(ctx context.Context) models.VolatilitySnapshot {
	now := c.now()

	c.mu.Lock()
	if c.vol != nil && now.Sub(c.volAt) < c.cfg.VolatilityTTL {
		v := *c.vol
		c.mu.Unlock()
		return v
	}
	c.mu.Unlock()

	var shared models.VolatilitySnapshot
	if c.loadMirror(ctx, mirrorVolatilityKey, &shared) && now.Sub(shared.CapturedAt) < c.cfg.VolatilityTTL {
		c.setVolatility(shared, shared.CapturedAt)
		return shared
	}

	res := c.fetchVolatility(ctx, now)
	snap := res.Value
	if !res.OK() {
		c.l.Warn("volatility refresh failed, using synthetic snapshot",
			applogger.String("symbol", c.cfg.VolatilitySymbol),
			applogger.Error(res.Err),
		)
		c.recordError("snapshot_volatility")
		snap = c.syntheticVolatility(now)
	}

	c.setVolatility(snap, now)
	c.storeMirror(ctx, mirrorVolatilityKey, snap, c.cfg.VolatilityTTL)
	if c.metrics != nil {
		c.metrics.RecordSnapshotRefresh(feedVolatility, snap.Source)
		c.metrics.RecordVolatility(snap.Current)
	}
	return snap
}

// Prices returns the price board, refreshing it when older than its window.
// Symbols the upstream could not serve are synthesized individually.
func (c *Cache) Prices(ctx context.Context) models.PriceBoard {
	now := c.now()

	c.mu.Lock()
	if c.prices != nil && now.Sub(c.pricesAt) < c.cfg.PriceTTL {
		b := *c.prices
		c.mu.Unlock()
		return b
	}
	c.mu.Unlock()

	var shared models.PriceBoard
	if c.loadMirror(ctx, mirrorPricesKey, &shared) && now.Sub(shared.CapturedAt) < c.cfg.PriceTTL {
		c.setPrices(shared, shared.CapturedAt)
		return shared
	}

	res := c.fetchPrices(ctx)
	if !res.OK() {
		c.l.Warn("price refresh failed, using synthetic quotes", applogger.Error(res.Err))
		c.recordError("snapshot_prices")
	}

	board := models.PriceBoard{
		Prices:     make(map[string]models.PriceSnapshot, len(c.cfg.PriceSymbols)),
		CapturedAt: now,
	}
	source := models.SourceLive
	for display := range c.cfg.PriceSymbols {
		if p, ok := res.Value[display]; ok {
			board.Prices[display] = p
			continue
		}
		if res.OK() {
			c.l.Debug("no usable bars, using synthetic quote", applogger.String("symbol", display))
		}
		board.Prices[display] = c.syntheticPrice(display)
		source = models.SourceSynthetic
	}

	c.setPrices(board, now)
	c.storeMirror(ctx, mirrorPricesKey, board, c.cfg.PriceTTL)
	if c.metrics != nil {
		c.metrics.RecordSnapshotRefresh(feedPrices, source)
	}
	return board
}

func (c *Cache) setVolatility(v models.VolatilitySnapshot, at time.Time) {
	c.mu.Lock()
	c.vol, c.volAt = &v, at
	c.mu.Unlock()
}

func (c *Cache) setPrices(b models.PriceBoard, at time.Time) {
	c.mu.Lock()
	c.prices, c.pricesAt = &b, at
	c.mu.Unlock()
}

func (c *Cache) fetchVolatility(ctx context.Context, now time.Time) FetchResult[models.VolatilitySnapshot] {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	bars, err := breaker.Do(c.breaker, func() ([]models.Bar, error) {
		return c.provider.FetchVolatility(ctx, c.cfg.VolatilitySymbol, c.cfg.Period, c.cfg.Interval)
	})
	c.recordLatency("fetch_volatility", start)
	if err != nil {
		return FetchResult[models.VolatilitySnapshot]{Err: err}
	}
	snap, err := VolatilityFromBars(bars, now)
	return FetchResult[models.VolatilitySnapshot]{Value: snap, Err: err}
}

func (c *Cache) fetchPrices(ctx context.Context) FetchResult[map[string]models.PriceSnapshot] {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	series, err := breaker.Do(c.breaker, func() (map[string][]models.Bar, error) {
		return c.provider.FetchSeries(ctx, c.cfg.PriceSymbols, c.cfg.Period, c.cfg.Interval)
	})
	c.recordLatency("fetch_prices", start)
	if err != nil {
		return FetchResult[map[string]models.PriceSnapshot]{Err: err}
	}

	out := make(map[string]models.PriceSnapshot, len(series))
	for display, bars := range series {
		if p, err := PriceFromBars(display, bars); err == nil {
			out[display] = p
		}
	}
	return FetchResult[map[string]models.PriceSnapshot]{Value: out}
}

func (c *Cache) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.cfg.FetchTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.cfg.FetchTimeout)
}

func (c *Cache) loadMirror(ctx context.Context, key string, dest interface{}) bool {
	if c.mirror == nil {
		return false
	}
	b, ok, err := c.mirror.GetBytes(ctx, key)
	if err != nil {
		c.l.Warn("snapshot mirror read failed", applogger.String("key", key), applogger.Error(err))
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal(b, dest); err != nil {
		c.l.Warn("snapshot mirror decode failed", applogger.String("key", key), applogger.Error(err))
		return false
	}
	return true
}

func (c *Cache) storeMirror(ctx context.Context, key string, v interface{}, ttl time.Duration) {
	if c.mirror == nil {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.mirror.SetBytes(ctx, key, b, ttl); err != nil {
		c.l.Warn("snapshot mirror write failed", applogger.String("key", key), applogger.Error(err))
	}
}

func (c *Cache) recordError(kind string) {
	if c.metrics != nil {
		c.metrics.RecordError(kind)
	}
}

func (c *Cache) recordLatency(op string, start time.Time) {
	if c.metrics != nil {
		c.metrics.RecordLatency(op, time.Since(start).Seconds())
	}
}

var _ domsvc.SnapshotSource = (*Cache)(nil)
