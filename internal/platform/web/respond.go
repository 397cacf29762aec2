package web

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ehr/wardadmin/internal/platform/apperr"
)

// WantsJSON is true when the Accept header asks for application/json.
func WantsJSON(c echo.Context) bool {
	return strings.Contains(c.Request().Header.Get(echo.HeaderAccept), echo.MIMEApplicationJSON)
}

// Respond writes data as JSON when the client asked for it, else renders
// the page template with data.
func Respond(c echo.Context, status int, page string, data any) error {
	if WantsJSON(c) {
		return c.JSON(status, data)
	}
	return c.Render(status, page, data)
}

// Fail converts err into an HTTP error with a fixed client message. The
// original error is kept as the internal error for logging only.
func Fail(err error, notFound, failure string) *echo.HTTPError {
	var he *echo.HTTPError
	switch apperr.KindOf(err) {
	case apperr.KindNotFound:
		he = echo.NewHTTPError(http.StatusNotFound, notFound)
	case apperr.KindValidation:
		he = echo.NewHTTPError(http.StatusBadRequest, failure)
	case apperr.KindConflict:
		he = echo.NewHTTPError(http.StatusConflict, failure)
	case apperr.KindForbidden:
		he = echo.NewHTTPError(http.StatusForbidden, failure)
	default:
		he = echo.NewHTTPError(http.StatusInternalServerError, failure)
	}
	return he.SetInternal(err)
}

// HTTPErrorHandler writes errors as plain text, or as {"message": ...} for
// JSON clients. Errors that are not *echo.HTTPError become a bare 500.
func HTTPErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		he, ok := err.(*echo.HTTPError)
		if !ok {
			he = echo.NewHTTPError(http.StatusInternalServerError, "Server Error").SetInternal(err)
		}
		msg, ok := he.Message.(string)
		if !ok {
			msg = http.StatusText(he.Code)
		}

		if he.Code >= http.StatusInternalServerError {
			rid, _ := c.Get("request_id").(string)
			evt := logger.Error().Str("request_id", rid).Str("path", c.Request().URL.Path)
			if he.Internal != nil {
				evt = evt.Err(he.Internal)
			}
			evt.Msg(msg)
		}

		var werr error
		switch {
		case c.Request().Method == http.MethodHead:
			werr = c.NoContent(he.Code)
		case WantsJSON(c):
			werr = c.JSON(he.Code, map[string]string{"message": msg})
		default:
			werr = c.String(he.Code, msg)
		}
		if werr != nil {
			logger.Error().Err(werr).Msg("failed to write error response")
		}
	}
}
