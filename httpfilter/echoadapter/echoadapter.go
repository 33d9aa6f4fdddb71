// Package echoadapter binds an httpfilter.Filter to the labstack/echo
// framework, mirroring the teacher's own examples/middleware/echo split
// between a framework-agnostic core and a thin per-framework adapter.
package echoadapter

import (
	"github.com/labstack/echo/v4"

	"github.com/OpenFluxGate/fluxgate-sub000/httpfilter"
)

// Middleware adapts filter to echo.MiddlewareFunc by running it as a
// standard net/http handler wrapped around Echo's request, exactly as
// Echo itself recommends for stdlib middleware.
func Middleware(filter *httpfilter.Filter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var handlerErr error
			wrapped := filter.Middleware(echoNextHandler(c, next, &handlerErr))
			wrapped.ServeHTTP(c.Response(), c.Request())
			return handlerErr
		}
	}
}
