package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/minicrm/crm-api/internal/api/metrics"
	"github.com/minicrm/crm-api/internal/core/domain"
)

// CallerKey is the echo.Context key holding the domain.Caller set by Auth.
const CallerKey = "caller"

// TokenParser verifies a raw bearer token.
type TokenParser interface {
	Parse(raw string) (domain.Caller, error)
}

// Auth validates the bearer token and injects the caller into the context.
// Requests without a valid token never reach next.
func Auth(tokens TokenParser) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
				metrics.AuthFailuresTotal.WithLabelValues("missing_token").Inc()
				return domain.Unauthenticated("No token or invalid format, authorization denied.")
			}

			caller, err := tokens.Parse(strings.TrimSpace(parts[1]))
			if err != nil {
				metrics.AuthFailuresTotal.WithLabelValues("invalid_token").Inc()
				return domain.Unauthenticated("Token is not valid.")
			}

			c.Set(CallerKey, caller)
			return next(c)
		}
	}
}

// CallerFrom returns the caller injected by Auth.
func CallerFrom(c echo.Context) (domain.Caller, bool) {
	caller, ok := c.Get(CallerKey).(domain.Caller)
	return caller, ok
}
