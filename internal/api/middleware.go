package api

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/leonw111/mac-ai-toolkit/internal/metrics"
)

// sharedSecret gates every route with the configured key. An empty key
// disables the check entirely: the gateway is open by default for local
// trusted use. The liveness route is exempted at registration time.
func sharedSecret(key string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if key == "" {
				return next(c)
			}
			header := c.Request().Header.Get("Authorization")
			presented := strings.TrimPrefix(header, "Bearer ")
			if presented != key {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or missing API key")
			}
			return next(c)
		}
	}
}

// countRequests increments the process-wide counter once per successful
// invocation.
func countRequests(counter *metrics.RequestCounter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := next(c); err != nil {
				return err
			}
			if c.Response().Status < http.StatusBadRequest {
				counter.Inc()
			}
			return nil
		}
	}
}
