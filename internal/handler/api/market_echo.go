package api

import (
	"time"

	"github.com/labstack/echo/v4"

	"Karion/internal/domain/models"
	"Karion/internal/service/metrics"
	"Karion/internal/usecase"
	xhttp "Karion/pkg/http"
	xlogger "Karion/pkg/logger"
)

// Health describes the upstream the snapshot cache reads from.
type Health struct {
	Provider string
	// Breaker reports the circuit breaker state; nil when the breaker is disabled.
	Breaker func() string
	// Momentum returns the last recorded composite score per symbol.
	Momentum func() map[string]float64
}

type healthResponse struct {
	Status    string             `json:"status"`
	Provider  string             `json:"provider"`
	Breaker   string             `json:"breaker"`
	Momentum  map[string]float64 `json:"momentum,omitempty"`
	Timestamp time.Time          `json:"timestamp"`
}

// MarketEchoHandler serves snapshots, directional analyses and portfolio risk.
type MarketEchoHandler struct {
	logger *xlogger.Logger
	market *usecase.MarketUseCase
	health Health
}

func NewMarketEchoHandler(logger *xlogger.Logger, market *usecase.MarketUseCase, health Health) *MarketEchoHandler {
	metrics.Register()
	return &MarketEchoHandler{logger: xlogger.OrNop(logger).Component("api"), market: market, health: health}
}

func (h *MarketEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/health", h.Health)
	g.GET("/market/vix", h.Volatility)
	g.GET("/market/prices", h.Prices)
	g.GET("/analysis/multi-source", h.Overview)
	g.GET("/analysis/:symbol", h.Analysis)
	g.GET("/risk/analysis", h.Risk)
}

func (h *MarketEchoHandler) Health(c echo.Context) error {
	state := "disabled"
	if h.health.Breaker != nil {
		state = h.health.Breaker()
	}
	resp := healthResponse{
		Status:    "online",
		Provider:  h.health.Provider,
		Breaker:   state,
		Timestamp: time.Now().UTC(),
	}
	if h.health.Momentum != nil {
		resp.Momentum = presentScores(h.health.Momentum())
	}
	return xhttp.SuccessResponse(c, resp)
}

func (h *MarketEchoHandler) Volatility(c echo.Context) error {
	done := metrics.Track("vix")
	defer done(nil)
	return xhttp.SuccessResponse(c, presentVolatility(h.market.Volatility(c.Request().Context())))
}

func (h *MarketEchoHandler) Prices(c echo.Context) error {
	done := metrics.Track("prices")
	defer done(nil)
	return xhttp.SuccessResponse(c, presentBoard(h.market.Prices(c.Request().Context())))
}

func (h *MarketEchoHandler) Overview(c echo.Context) error {
	done := metrics.Track("multi_source")
	defer done(nil)
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=15")
	return xhttp.SuccessResponse(c, presentOverview(h.market.Overview(c.Request().Context())))
}

func (h *MarketEchoHandler) Analysis(c echo.Context) error {
	done := metrics.Track("analysis")
	req := &models.SymbolRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		done(nil)
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.market.Analysis(c.Request().Context(), req.Symbol)
	done(err)
	if err != nil {
		h.logger.Warn("analysis usecase error", xlogger.String("symbol", req.Symbol), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, toAppError(err, req.Symbol))
	}
	return xhttp.SuccessResponse(c, presentAnalysis(res))
}

func (h *MarketEchoHandler) Risk(c echo.Context) error {
	done := metrics.Track("risk")
	defer done(nil)
	return xhttp.SuccessResponse(c, presentRisk(h.market.Risk(c.Request().Context())))
}
