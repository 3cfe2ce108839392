package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Karion/internal/domain"
)

var queryRe = regexp.QuoteMeta("FROM karion.daily_bars")

func TestLatestBarsAscending(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	d1 := time.Date(2024, 10, 9, 0, 0, 0, 0, time.UTC)
	d0 := d1.AddDate(0, 0, -1)
	mock.ExpectQuery(queryRe).
		WithArgs("^VIX", 5).
		WillReturnRows(sqlmock.NewRows([]string{"day", "open", "high", "low", "close"}).
			AddRow(d1, 20.0, 22.0, 19.0, 21.5).
			AddRow(d0, 18.0, 20.5, 17.5, 20.0))

	s := NewCHBarStoreDB(db, nil)
	bars, err := s.FetchVolatility(context.Background(), "^VIX", "5d", "1d")
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, d0, bars[0].Time)
	assert.Equal(t, 21.5, bars[1].Close)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFetchSeriesAllFailing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(queryRe).WithArgs("ES=F", 5).WillReturnError(errors.New("connection refused"))

	s := NewCHBarStoreDB(db, nil)
	_, err = s.FetchSeries(context.Background(), map[string]string{"SP500": "ES=F"}, "5d", "1d")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUpstreamUnavailable))
}

func TestBarsFor(t *testing.T) {
	n, err := barsFor("5d", "1d")
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	n, err = barsFor("2w", "1d")
	require.NoError(t, err)
	assert.Equal(t, 14, n)

	_, err = barsFor("5d", "1h")
	assert.Error(t, err)
	_, err = barsFor("xd", "1d")
	assert.Error(t, err)
	_, err = barsFor("1mo", "1d")
	assert.Error(t, err)
}
