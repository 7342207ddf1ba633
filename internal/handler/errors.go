package handler

import (
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/concertify/internal/log"
)

// ErrorHandler replaces echo's default error handler.  HTTP errors keep
// their status and message; anything else is logged and reported as a
// bare 500.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg, ok := he.Message.(string)
		if !ok {
			msg = http.StatusText(he.Code)
		}
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(he.Code)
			return
		}
		_ = c.JSON(he.Code, echo.Map{"error": msg})
		return
	}
	log.FromContext(c.Request().Context()).WithError(err).Error("unhandled error")
	_ = c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal Server Error"})
}
