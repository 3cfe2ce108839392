package api

import (
	"github.com/labstack/echo/v4"

	"Karion/internal/domain/models"
	"Karion/internal/service/metrics"
	"Karion/internal/usecase"
	xhttp "Karion/pkg/http"
	xlogger "Karion/pkg/logger"
)

// EngineEchoHandler serves the Monte Carlo simulator and positioning reports.
type EngineEchoHandler struct {
	logger      *xlogger.Logger
	sim         *usecase.SimulationUseCase
	positioning *usecase.PositioningUseCase
}

func NewEngineEchoHandler(logger *xlogger.Logger, sim *usecase.SimulationUseCase, positioning *usecase.PositioningUseCase) *EngineEchoHandler {
	metrics.Register()
	return &EngineEchoHandler{logger: xlogger.OrNop(logger).Component("api"), sim: sim, positioning: positioning}
}

func (h *EngineEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/montecarlo/simulate", h.Simulate)
	g.GET("/cot", h.Positioning)
	g.GET("/cot/:symbol", h.PositioningReport)
}

func (h *EngineEchoHandler) Simulate(c echo.Context) error {
	done := metrics.Track("simulate")
	req := &models.SimulationRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		done(nil)
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.sim.Simulate(c.Request().Context(), req.Params())
	done(err)
	if err != nil {
		h.logger.Error("simulate usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, toAppError(err, ""))
	}
	metrics.SimulationTrials.Add(float64(res.Trials))
	return xhttp.SuccessResponse(c, presentSimulation(res))
}

func (h *EngineEchoHandler) Positioning(c echo.Context) error {
	done := metrics.Track("cot")
	defer done(nil)
	return xhttp.SuccessResponse(c, h.positioning.Summary(c.Request().Context()))
}

func (h *EngineEchoHandler) PositioningReport(c echo.Context) error {
	done := metrics.Track("cot_symbol")
	req := &models.SymbolRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		done(nil)
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.positioning.Report(c.Request().Context(), req.Symbol)
	done(err)
	if err != nil {
		h.logger.Warn("positioning usecase error", xlogger.String("symbol", req.Symbol), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, toAppError(err, req.Symbol))
	}
	return xhttp.SuccessResponse(c, res)
}
