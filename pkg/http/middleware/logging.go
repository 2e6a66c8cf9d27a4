package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	applogger "TraderBlock/pkg/logger"
)

// RequestLogging logs one line per request: debug for success, warn for
// server errors.
func RequestLogging(l *applogger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			if err := next(c); err != nil {
				c.Error(err)
			}

			res := c.Response()
			fields := []applogger.Field{
				applogger.String("method", c.Request().Method),
				applogger.String("route", c.Path()),
				applogger.String("uri", c.Request().RequestURI),
				applogger.String("client", c.RealIP()),
				applogger.String("request_id", res.Header().Get(echo.HeaderXRequestID)),
				applogger.Int("status", res.Status),
				applogger.Int64("bytes_out", res.Size),
				applogger.Duration("duration", time.Since(start)),
			}
			if res.Status >= 500 {
				l.Warn("http request", fields...)
				return nil
			}
			l.Debug("http request", fields...)
			return nil
		}
	}
}
