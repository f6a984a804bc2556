package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/minicrm/crm-api/internal/core/domain"
	"github.com/minicrm/crm-api/pkg/logger"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Msg    string            `json:"msg"`
	Errors map[string]string `json:"errors,omitempty"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps domain error kinds to their HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"msg": "<message>"}, plus
//     "errors" with per-field messages when validation names fields.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		body := errorResponse{Msg: msg}
		var de *domain.Error
		if code == http.StatusBadRequest && errors.As(err, &de) && len(de.Fields) > 0 {
			body.Errors = de.Fields
		}
		_ = c.JSON(code, body)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors: unknown routes, bad bodies, etc.
	var he *echo.HTTPError
	if errors.As(err, &he) && he.Code != http.StatusInternalServerError {
		if he.Code == http.StatusNotFound || he.Code == http.StatusMethodNotAllowed {
			return http.StatusNotFound, fmt.Sprintf("Route Not Found: %s %s", c.Request().Method, c.Request().URL.Path)
		}
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	var de *domain.Error
	if errors.As(err, &de) {
		switch de.Kind {
		case domain.ErrUnauthenticated:
			return http.StatusUnauthorized, de.Msg
		case domain.ErrForbidden:
			return http.StatusForbidden, de.Msg
		case domain.ErrValidation, domain.ErrConflict:
			if de.Err != nil {
				reqLog := requestLog(c, log)
				reqLog.Debug().Err(de.Err).Msg("request rejected")
			}
			return http.StatusBadRequest, de.Msg
		case domain.ErrNotFound:
			return http.StatusNotFound, de.Msg
		}
	}

	// Unexpected error: log the real cause, return a generic message.
	reqLog := requestLog(c, log)
	reqLog.Error().Err(err).Msg("unhandled error")

	return http.StatusInternalServerError, "Server Error"
}

// requestLog returns the request-scoped logger, building one from base when
// the request never passed the router middleware.
func requestLog(c echo.Context, base zerolog.Logger) zerolog.Logger {
	req := c.Request()
	fallback := logger.WithRequest(base, c.Response().Header().Get(echo.HeaderXRequestID), req.Method, c.Path())
	return logger.FromContext(req.Context(), fallback)
}
