package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// LoginPath is where unauthenticated requests are sent.
const LoginPath = "/login"

// RequireLogin redirects requests without a session to the login page.
func RequireLogin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !IdentityFromContext(c.Request().Context()).IsAuthenticated() {
				return c.Redirect(http.StatusFound, LoginPath)
			}
			return next(c)
		}
	}
}

// RequireRole admits only the given role; there is no superuser, so
// admins cannot open staff-only pages.
func RequireRole(role, denial string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := IdentityFromContext(c.Request().Context())
			if !id.IsAuthenticated() || id.Role != role {
				return echo.NewHTTPError(http.StatusForbidden, denial)
			}
			return next(c)
		}
	}
}

func RequireAdmin() echo.MiddlewareFunc {
	return RequireRole(RoleAdmin, "Access Denied: Admins only")
}

func RequireStaff() echo.MiddlewareFunc {
	return RequireRole(RoleStaff, "Access Denied: Staff only")
}
