package api

import (
	"github.com/labstack/echo/v4"

	"Karion/internal/service/stream"
	"Karion/internal/usecase"
	xlogger "Karion/pkg/logger"
)

// StreamEchoHandler upgrades dashboard clients to the live overview stream.
type StreamEchoHandler struct {
	logger *xlogger.Logger
	hub    *stream.Hub
	job    *usecase.OverviewJob
}

func NewStreamEchoHandler(logger *xlogger.Logger, hub *stream.Hub, job *usecase.OverviewJob) *StreamEchoHandler {
	return &StreamEchoHandler{logger: xlogger.OrNop(logger).Component("api"), hub: hub, job: job}
}

func (h *StreamEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/stream", h.Stream)
}

// Stream greets the client with the current overview and then relays every published one.
func (h *StreamEchoHandler) Stream(c echo.Context) error {
	var hello interface{}
	if h.job != nil {
		hello = presentOverview(h.job.Latest(c.Request().Context()))
	}
	if err := h.hub.Serve(c.Response(), c.Request(), hello); err != nil {
		h.logger.Warn("stream upgrade failed", xlogger.Error(err))
	}
	return nil
}
