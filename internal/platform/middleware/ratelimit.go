package middleware

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

// LoginThrottleConfig bounds credential submissions per client IP.
type LoginThrottleConfig struct {
	PerMinute float64
	Burst     int
}

func DefaultLoginThrottleConfig() LoginThrottleConfig {
	return LoginThrottleConfig{PerMinute: 10, Burst: 5}
}

// LoginThrottle limits POSTs (login and signup form submissions) per IP.
// Other methods pass straight through.
func LoginThrottle(cfg LoginThrottleConfig) echo.MiddlewareFunc {
	store := echomw.NewRateLimiterMemoryStoreWithConfig(echomw.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(cfg.PerMinute / 60),
		Burst:     cfg.Burst,
		ExpiresIn: 10 * time.Minute,
	})
	return echomw.RateLimiterWithConfig(echomw.RateLimiterConfig{
		Skipper: func(c echo.Context) bool {
			return c.Request().Method != http.MethodPost
		},
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusForbidden, "Unable to identify client")
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			c.Response().Header().Set("Retry-After", "60")
			return echo.NewHTTPError(http.StatusTooManyRequests, "Too many attempts, try again later")
		},
	})
}
