package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/minicrm/crm-api/internal/core/authz"
	"github.com/minicrm/crm-api/internal/core/domain"
)

// Authorize rejects callers whose role has no access at all to op. Record
// ownership is checked later by the service that loads the record.
func Authorize(op authz.Operation) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			caller, ok := CallerFrom(c)
			if !ok {
				return domain.Unauthenticated("No token or invalid format, authorization denied.")
			}
			if _, err := authz.Resolve(op, caller); err != nil {
				return err
			}
			return next(c)
		}
	}
}
