package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"Karion/internal/domain"
	"Karion/internal/domain/models"
	domrepo "Karion/internal/domain/repository"
	pkgch "Karion/pkg/clickhouse"
	applogger "Karion/pkg/logger"
)

// Schema creates the daily bars table read by CHBarStore.
var Schema = []string{
	`CREATE DATABASE IF NOT EXISTS karion`,
	`CREATE TABLE IF NOT EXISTS karion.daily_bars (
        symbol String,
        day    Date,
        open   Float64,
        high   Float64,
        low    Float64,
        close  Float64
    ) ENGINE = ReplacingMergeTree ORDER BY (symbol, day)`,
}

const latestBarsQuery = `
        SELECT day, open, high, low, close
        FROM karion.daily_bars
        WHERE symbol = ?
        ORDER BY day DESC
        LIMIT ?
    `

// CHBarStore serves daily bars loaded into ClickHouse by an external ingester.
type CHBarStore struct {
	db *sql.DB
	l  *applogger.Logger
}

func NewCHBarStore(ch *pkgch.Client, l *applogger.Logger) *CHBarStore {
	return NewCHBarStoreDB(ch.DB(), l)
}

func NewCHBarStoreDB(db *sql.DB, l *applogger.Logger) *CHBarStore {
	return &CHBarStore{db: db, l: applogger.OrNop(l).Component("clickhouse_bars")}
}

func (s *CHBarStore) Name() string { return "clickhouse" }

func (s *CHBarStore) FetchVolatility(ctx context.Context, symbol, period, interval string) ([]models.Bar, error) {
	n, err := barsFor(period, interval)
	if err != nil {
		return nil, err
	}
	return s.latest(ctx, symbol, n)
}

func (s *CHBarStore) FetchSeries(ctx context.Context, symbols map[string]string, period, interval string) (map[string][]models.Bar, error) {
	n, err := barsFor(period, interval)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]models.Bar, len(symbols))
	var errs []error
	for display, ticker := range symbols {
		bars, err := s.latest(ctx, ticker, n)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out[display] = bars
	}
	if len(out) == 0 && len(errs) > 0 {
		return nil, fmt.Errorf("%w: %w", domain.ErrUpstreamUnavailable, errors.Join(errs...))
	}
	return out, nil
}

func (s *CHBarStore) latest(ctx context.Context, symbol string, n int) ([]models.Bar, error) {
	start := time.Now()
	rows, err := s.db.QueryContext(ctx, latestBarsQuery, symbol, n)
	if err != nil {
		s.l.Error("latest bars query error", applogger.String("symbol", symbol), applogger.Error(err))
		return nil, fmt.Errorf("latest bars %s: %w", symbol, err)
	}
	defer rows.Close()

	tmp := make([]models.Bar, 0, n)
	for rows.Next() {
		var b models.Bar
		if err := rows.Scan(&b.Time, &b.Open, &b.High, &b.Low, &b.Close); err != nil {
			return nil, fmt.Errorf("scan bar: %w", err)
		}
		tmp = append(tmp, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	// reverse to ascending
	for i, j := 0, len(tmp)-1; i < j; i, j = i+1, j-1 {
		tmp[i], tmp[j] = tmp[j], tmp[i]
	}
	s.l.Debug("latest bars ok",
		applogger.String("symbol", symbol),
		applogger.Int("rows", len(tmp)),
		applogger.Duration("took", time.Since(start)),
	)
	return tmp, nil
}

// barsFor turns a lookback such as "5d" or "2w" into a daily bar count.
func barsFor(period, interval string) (int, error) {
	if interval != "1d" {
		return 0, fmt.Errorf("unsupported interval: %s", interval)
	}
	unit := 1
	num := period
	switch {
	case strings.HasSuffix(period, "d"):
		num = strings.TrimSuffix(period, "d")
	case strings.HasSuffix(period, "w"):
		num, unit = strings.TrimSuffix(period, "w"), 7
	default:
		return 0, fmt.Errorf("unsupported period: %s", period)
	}
	n, err := strconv.Atoi(num)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("unsupported period: %s", period)
	}
	return n * unit, nil
}

var _ domrepo.MarketDataProvider = (*CHBarStore)(nil)
