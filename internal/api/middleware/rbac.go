package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/authify/authify-gateway/internal/core/domain"
)

// RequireLogin rejects requests whose session has no user.
func RequireLogin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sess := SessionFrom(c)
			if sess == nil || !sess.State.LoggedIn() {
				return domain.ErrUnauthenticated
			}
			return next(c)
		}
	}
}

// RBAC enforces role-based access control on the gateway's own routes from
// the role set the backend reported at login. The backend still authorizes
// every admin call on its side.
func RBAC(allowedRoles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sess := SessionFrom(c)
			if sess == nil || !sess.State.LoggedIn() {
				return domain.ErrUnauthenticated
			}
			for _, r := range allowedRoles {
				if sess.State.User.Roles.Has(r) {
					return next(c)
				}
			}
			return domain.ErrForbidden
		}
	}
}
