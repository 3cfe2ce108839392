package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	applogger "Karion/pkg/logger"
)

// RequestLogging logs one line per request. 5xx responses log at error level,
// requests slower than slow at warn, everything else at debug.
func RequestLogging(l *applogger.Logger, slow time.Duration) echo.MiddlewareFunc {
	l = applogger.OrNop(l).Component("http")
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			took := time.Since(start)
			status := c.Response().Status
			fields := []applogger.Field{
				applogger.String("method", c.Request().Method),
				applogger.String("route", routeOf(c)),
				applogger.Int("status", status),
				applogger.Duration("took", took),
				applogger.String("remote", c.RealIP()),
			}
			switch {
			case status >= 500:
				l.Error("request failed", append(fields, applogger.Error(err))...)
			case slow > 0 && took >= slow:
				l.Warn("slow request", fields...)
			default:
				l.Debug("request", fields...)
			}
			return nil
		}
	}
}

func routeOf(c echo.Context) string {
	if p := c.Path(); p != "" {
		return p
	}
	return c.Request().URL.Path
}
