package middleware

import (
	"log/slog"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/freeslot/internal/observability"
)

// RequestContext attaches an observability.RequestContext to every request,
// reusing an inbound X-Request-ID, and echoes the ID back.
func RequestContext(logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			id := req.Header.Get(observability.HeaderRequestID)
			rc := observability.NewRequestContextWithID(logger, id, req.Method+" "+c.Path())
			c.Response().Header().Set(observability.HeaderRequestID, rc.RequestID)
			c.SetRequest(req.WithContext(observability.WithRequestContext(req.Context(), rc)))

			err := next(c)
			rc.Debug("request handled",
				slog.Int("status", c.Response().Status),
				slog.Int64(observability.LogFieldDuration, rc.DurationMs()),
			)
			return err
		}
	}
}
