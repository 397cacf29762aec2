package auth

import (
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// SessionMiddleware resolves the session cookie into an Identity on the
// request context. Requests without a valid session continue as Anonymous;
// gating is left to RequireLogin and RequireRole.
func SessionMiddleware(m *SessionManager, logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(m.cfg.CookieName)
			if err != nil || cookie.Value == "" {
				return next(c)
			}

			claims, err := m.Parse(c.Request().Context(), cookie.Value)
			if err != nil {
				logger.Debug().Err(err).Msg("discarding session cookie")
				return next(c)
			}

			setIdentity(c, Identity{
				UserID:   claims.Subject,
				Username: claims.Username,
				Role:     claims.Role,
			})
			return next(c)
		}
	}
}

// DevAuthMiddleware is a permissive middleware for development: requests
// that carry no session act as an admin.
func DevAuthMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !IdentityFromContext(c.Request().Context()).IsAuthenticated() {
				setIdentity(c, Identity{UserID: "dev-user", Username: "dev", Role: RoleAdmin})
			}
			return next(c)
		}
	}
}

func setIdentity(c echo.Context, id Identity) {
	ctx := WithIdentity(c.Request().Context(), id)
	c.SetRequest(c.Request().WithContext(ctx))
	c.Set("username", id.Username)
	c.Set("role", id.Role)
}
