package errors

import (
	"errors"

	"github.com/labstack/echo/v4"
)

// CustomHTTPErrorHandler maps the domain sentinels wrapped by services and
// repositories to their HTTP status codes. Everything else falls through
// to echo's default handling.
func CustomHTTPErrorHandler(err error, c echo.Context) {
	e := HttpError{}
	if errors.As(err, &e) {
		c.Echo().DefaultHTTPErrorHandler(echo.NewHTTPError(e.Code, err.Error()), c)
		return
	}
	c.Echo().DefaultHTTPErrorHandler(err, c)
}
