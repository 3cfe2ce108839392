package repository

import (
	"context"

	"Karion/internal/domain/models"
)

// MarketDataProvider fetches recent OHLC bars from an upstream quote source.
type MarketDataProvider interface {
	Name() string
	FetchVolatility(ctx context.Context, symbol, period, interval string) ([]models.Bar, error)
	// FetchSeries maps display symbols to provider tickers. Symbols that failed are absent from the result.
	FetchSeries(ctx context.Context, symbols map[string]string, period, interval string) (map[string][]models.Bar, error)
}

// EventCalendar lists the macro events of the current day in time order.
type EventCalendar interface {
	Upcoming() []models.MacroEvent
}

// MomentumStore keeps the last composite score per symbol.
type MomentumStore interface {
	Previous(symbol string) (float64, bool)
	Store(symbol string, score float64)
}

// OverviewPublisher distributes scheduled market overviews to downstream consumers.
type OverviewPublisher interface {
	PublishOverview(ctx context.Context, o *models.MarketOverview) error
	Close() error
}

type Metrics interface {
	RecordSnapshotRefresh(feed string, source models.Source)
	RecordError(kind string)
	RecordVolatility(level float64)
	RecordLatency(op string, seconds float64)
}
