package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/capachica/turismo-api/internal/core/domain"
)

// RequireRoles lets the request through when the caller holds at least one of
// allowedRoles. It must run after Authenticate.
func RequireRoles(allowedRoles ...domain.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			identity := IdentityFrom(c)
			if identity == nil {
				return domain.ErrAuthenticationRequired
			}
			if !identity.Roles.Intersects(allowedRoles...) {
				return domain.ErrInsufficientRole
			}
			return next(c)
		}
	}
}
