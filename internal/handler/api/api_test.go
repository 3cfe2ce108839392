package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Karion/internal/domain"
	"Karion/internal/domain/models"
	"Karion/internal/service/cache"
	"Karion/internal/service/calendar"
	"Karion/internal/service/momentum"
	"Karion/internal/service/stream"
	"Karion/internal/services/analytics"
	"Karion/internal/usecase"
	xhttp "Karion/pkg/http"
)

var testNow = time.Date(2024, 10, 10, 13, 10, 0, 0, time.UTC)

type staticSnapshots struct{}

func (staticSnapshots) Volatility(context.Context) models.VolatilitySnapshot {
	return models.NewVolatilitySnapshot(21.123456, 20.5, 22.987654, 19.01234, testNow, models.SourceLive)
}

func (staticSnapshots) Prices(context.Context) models.PriceBoard {
	return models.PriceBoard{CapturedAt: testNow, Prices: map[string]models.PriceSnapshot{
		models.EURUSD: {Symbol: models.EURUSD, Price: 1.0854321, PrevClose: 1.08, WeeklyHigh: 1.09, WeeklyLow: 1.07, ChangePct: 0.50308, Source: models.SourceLive},
		models.SP500:  {Symbol: models.SP500, Price: 6012.3456, PrevClose: 6000, WeeklyHigh: 6100, WeeklyLow: 5900, ChangePct: 0.2057, Source: models.SourceLive},
	}}
}

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newServer(t *testing.T) *echo.Echo {
	t.Helper()
	rng := analytics.NewRandomSource(7)
	store := momentum.NewStore()
	market := usecase.NewMarketUseCase(
		staticSnapshots{},
		analytics.NewScoringModel(rng, store),
		analytics.NewRiskAggregator(),
		calendar.New(calendar.DefaultEvents),
	).WithClock(func() time.Time { return testNow })
	sim := usecase.NewSimulationUseCase(analytics.NewSimulator(rng, analytics.WithTrials(50)), nil)
	pos := usecase.NewPositioningUseCase(analytics.NewPositioningModel(rng), cache.NewTTLCache(), time.Hour, nil).
		WithClock(func() time.Time { return testNow })
	job := usecase.NewOverviewJob(market, nil, "0 * * * *", 0, nil, nil)

	s := xhttp.NewServer(nil, []xhttp.Handler{
		NewMarketEchoHandler(nil, market, Health{
			Provider: "yahoo",
			Breaker:  func() string { return "closed" },
			Momentum: store.Snapshot,
		}),
		NewEngineEchoHandler(nil, sim, pos),
		NewStreamEchoHandler(nil, stream.NewHub(nil), job),
	}, xhttp.WithMetrics(false))
	return s.Echo()
}

func do(t *testing.T, e *echo.Echo, method, path, body string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec.Code, env
}

func TestHealth(t *testing.T) {
	code, env := do(t, newServer(t), http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusOK, code)

	var h healthResponse
	require.NoError(t, json.Unmarshal(env.Data, &h))
	assert.Equal(t, "online", h.Status)
	assert.Equal(t, "yahoo", h.Provider)
	assert.Equal(t, "closed", h.Breaker)
	assert.Empty(t, h.Momentum)
}

func TestHealthReportsMomentumAfterScoring(t *testing.T) {
	e := newServer(t)
	code, env := do(t, e, http.MethodGet, "/api/analysis/SP500", "")
	require.Equal(t, http.StatusOK, code)
	var a models.DirectionalAnalysis
	require.NoError(t, json.Unmarshal(env.Data, &a))

	_, env = do(t, e, http.MethodGet, "/api/health", "")
	var h healthResponse
	require.NoError(t, json.Unmarshal(env.Data, &h))
	require.Contains(t, h.Momentum, models.SP500)
	assert.Equal(t, a.CompositeScore, h.Momentum[models.SP500])
	assert.NotContains(t, h.Momentum, models.XAUUSD)
}

func TestVolatilityIsRounded(t *testing.T) {
	code, env := do(t, newServer(t), http.MethodGet, "/api/market/vix", "")
	require.Equal(t, http.StatusOK, code)

	var v models.VolatilitySnapshot
	require.NoError(t, json.Unmarshal(env.Data, &v))
	assert.Equal(t, 21.12, v.Current)
	assert.Equal(t, 22.99, v.FiveDayHigh)
	assert.Equal(t, 19.01, v.FiveDayLow)
	assert.Equal(t, models.RegimeNeutral, v.Regime)
}

func TestPricesUseSymbolDecimals(t *testing.T) {
	_, env := do(t, newServer(t), http.MethodGet, "/api/market/prices", "")

	var b models.PriceBoard
	require.NoError(t, json.Unmarshal(env.Data, &b))
	assert.Equal(t, 1.08543, b.Prices[models.EURUSD].Price)
	assert.Equal(t, 0.5, b.Prices[models.EURUSD].ChangePct)
	assert.Equal(t, 6012.35, b.Prices[models.SP500].Price)
}

func TestOverviewCoversTrackedSymbols(t *testing.T) {
	code, env := do(t, newServer(t), http.MethodGet, "/api/analysis/multi-source", "")
	require.Equal(t, http.StatusOK, code)

	var o models.MarketOverview
	require.NoError(t, json.Unmarshal(env.Data, &o))
	assert.Len(t, o.Analyses, len(models.TrackedSymbols))
	assert.Equal(t, "13:10", o.LastUpdate)
	require.NotNil(t, o.NextEvent)
	for sym, a := range o.Analyses {
		assert.Equal(t, sym, a.Symbol)
		assert.GreaterOrEqual(t, a.ProbabilityUp, 0)
		assert.LessOrEqual(t, a.ProbabilityUp, 100)
	}
}

func TestAnalysisUnknownSymbol(t *testing.T) {
	code, env := do(t, newServer(t), http.MethodGet, "/api/analysis/BTCUSD", "")
	require.Equal(t, http.StatusBadRequest, code)

	var errs []*xhttp.AppError
	require.NoError(t, json.Unmarshal(env.Data, &errs))
	require.Len(t, errs, 1)
	assert.Equal(t, "ERR_UNKNOWN_SYMBOL", errs[0].Code)
	assert.Equal(t, "BTCUSD", errs[0].Params["symbol"])
}

func TestRisk(t *testing.T) {
	code, env := do(t, newServer(t), http.MethodGet, "/api/risk/analysis", "")
	require.Equal(t, http.StatusOK, code)

	var r models.RiskAssessment
	require.NoError(t, json.Unmarshal(env.Data, &r))
	assert.Equal(t, r.Components.Total(), r.Score)
	assert.Contains(t, []models.RiskCategory{models.RiskSafe, models.RiskMedium, models.RiskHigh}, r.Category)
	assert.Equal(t, 21.12, r.Volatility.Current)
}

func TestPositioning(t *testing.T) {
	e := newServer(t)

	code, env := do(t, e, http.MethodGet, "/api/cot", "")
	require.Equal(t, http.StatusOK, code)
	var s models.PositioningSummary
	require.NoError(t, json.Unmarshal(env.Data, &s))
	assert.Len(t, s.Reports, len(models.TrackedSymbols))
	assert.NotEmpty(t, s.Countdown)

	code, env = do(t, e, http.MethodGet, "/api/cot/XAUUSD", "")
	require.Equal(t, http.StatusOK, code)
	var r models.PositioningReport
	require.NoError(t, json.Unmarshal(env.Data, &r))
	assert.Equal(t, models.ReportDisaggregated, r.ReportType)
	assert.Equal(t, s.Reports[models.XAUUSD].Bias, r.Bias)

	code, _ = do(t, e, http.MethodGet, "/api/cot/BTCUSD", "")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestSimulate(t *testing.T) {
	code, env := do(t, newServer(t), http.MethodPost, "/api/montecarlo/simulate",
		`{"win_rate":0.55,"avg_win":2,"avg_loss":1,"num_trades":100}`)
	require.Equal(t, http.StatusOK, code)

	var r models.SimulationResult
	require.NoError(t, json.Unmarshal(env.Data, &r))
	assert.Equal(t, 50, r.Trials)
	assert.Equal(t, 10000.0, r.Params.InitialCapital)
	assert.Equal(t, 0.01, r.Params.RiskPerTrade)
	assert.LessOrEqual(t, len(r.SampleEquityCurves), 20)
	require.NotEmpty(t, r.SampleEquityCurves)
	assert.Equal(t, 10000.0, r.SampleEquityCurves[0][0])
	assert.LessOrEqual(t, r.MinTerminal, r.AvgTerminal)
	assert.LessOrEqual(t, r.AvgTerminal, r.MaxTerminal)
}

func TestSimulateRejectsOutOfRangeInput(t *testing.T) {
	code, env := do(t, newServer(t), http.MethodPost, "/api/montecarlo/simulate", `{"win_rate":1.5,"avg_win":1,"avg_loss":1}`)
	require.Equal(t, http.StatusBadRequest, code)

	var errs []xhttp.ValidationError
	require.NoError(t, json.Unmarshal(env.Data, &errs))
	require.Len(t, errs, 1)
	assert.Equal(t, "win_rate", errs[0].Field)
}

func TestSimulateRequiresSystemParameters(t *testing.T) {
	code, env := do(t, newServer(t), http.MethodPost, "/api/montecarlo/simulate", `{}`)
	require.Equal(t, http.StatusBadRequest, code)

	var errs []xhttp.ValidationError
	require.NoError(t, json.Unmarshal(env.Data, &errs))
	fields := make([]string, 0, len(errs))
	for _, e := range errs {
		assert.Equal(t, "ERR_REQUIRED", e.Code)
		fields = append(fields, e.Field)
	}
	assert.ElementsMatch(t, []string{"win_rate", "avg_win", "avg_loss"}, fields)
}

func TestSimulateKeepsExplicitZeros(t *testing.T) {
	code, env := do(t, newServer(t), http.MethodPost, "/api/montecarlo/simulate",
		`{"win_rate":0.5,"avg_win":1,"avg_loss":1,"risk_per_trade":0,"num_trades":0}`)
	require.Equal(t, http.StatusBadRequest, code)

	var errs []xhttp.ValidationError
	require.NoError(t, json.Unmarshal(env.Data, &errs))
	fields := make([]string, 0, len(errs))
	for _, e := range errs {
		fields = append(fields, e.Field)
	}
	assert.ElementsMatch(t, []string{"num_trades", "risk_per_trade"}, fields)
}

func TestSimulateAcceptsZeroWinRate(t *testing.T) {
	code, env := do(t, newServer(t), http.MethodPost, "/api/montecarlo/simulate",
		`{"win_rate":0,"avg_win":0,"avg_loss":1,"num_trades":10}`)
	require.Equal(t, http.StatusOK, code)

	var r models.SimulationResult
	require.NoError(t, json.Unmarshal(env.Data, &r))
	assert.Equal(t, 0.0, r.Params.WinRate)
	assert.Equal(t, 10, r.Params.NumTrades)
	assert.Less(t, r.MaxTerminal, 10000.0)
}

func TestToAppError(t *testing.T) {
	err := toAppError(fmt.Errorf("%w: num_trades must be positive", domain.ErrInvalidParameter), "")
	var appErr *xhttp.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "ERR_INVALID_PARAMETER", appErr.Code)
	assert.Equal(t, "num_trades must be positive", appErr.Message)

	plain := errors.New("boom")
	assert.Same(t, plain, toAppError(plain, ""))
}

type capture struct{ got *models.MarketOverview }

func (c *capture) PublishOverview(_ context.Context, o *models.MarketOverview) error {
	c.got = o
	return nil
}
func (c *capture) Close() error { return nil }

func TestRoundedPublisher(t *testing.T) {
	next := &capture{}
	p := &RoundedPublisher{Next: next}
	o := &models.MarketOverview{
		Volatility: models.VolatilitySnapshot{Current: 18.4567},
		Analyses:   map[string]models.DirectionalAnalysis{models.SP500: {Symbol: models.SP500, CompositeScore: 0.123456}},
	}
	require.NoError(t, p.PublishOverview(context.Background(), o))
	assert.Equal(t, 18.46, next.got.Volatility.Current)
	assert.Equal(t, 0.1235, next.got.Analyses[models.SP500].CompositeScore)
	assert.Equal(t, 18.4567, o.Volatility.Current)
}

func TestStreamGreetsWithOverview(t *testing.T) {
	srv := httptest.NewServer(newServer(t))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg struct {
		Type string                `json:"type"`
		Data models.MarketOverview `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "overview", msg.Type)
	assert.Len(t, msg.Data.Analyses, len(models.TrackedSymbols))
}
