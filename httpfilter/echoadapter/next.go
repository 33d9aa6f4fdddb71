package echoadapter

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// echoNextHandler adapts echo's next(c) HandlerFunc into an http.Handler
// so httpfilter.Filter.Middleware (stdlib-shaped) can wrap it. Any error
// next returns is stashed into errOut since http.Handler has no error
// return.
func echoNextHandler(c echo.Context, next echo.HandlerFunc, errOut *error) http.Handler {
	return http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		*errOut = next(c)
	})
}
