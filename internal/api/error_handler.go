package api

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/artgallery/gallery-web/internal/api/handler"
	"github.com/artgallery/gallery-web/internal/api/view"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps domain errors to HTTP status codes through handler.ErrorStatus.
//   - Logs unexpected errors without leaking details to the client.
//   - Answers JSON callers with {"error": "<message>"} and pages with the error view.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := handler.ErrorStatus(err)
		if code >= http.StatusInternalServerError {
			log.Error().
				Err(err).
				Int("status", code).
				Str("method", c.Request().Method).
				Str("path", c.Path()).
				Msg("request failed")
		}

		if wantsJSON(c) {
			_ = c.JSON(code, errorResponse{Error: msg})
			return
		}
		if rerr := c.Render(code, view.Error, view.NewPage(c, msg, nil)); rerr != nil {
			_ = c.String(code, msg)
		}
	}
}

func wantsJSON(c echo.Context) bool {
	req := c.Request()
	return strings.HasPrefix(req.URL.Path, "/api/") ||
		strings.Contains(req.Header.Get(echo.HeaderAccept), echo.MIMEApplicationJSON)
}
