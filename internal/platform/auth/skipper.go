package auth

import (
	"github.com/labstack/echo/v4"
)

// publicPaths are infrastructure endpoints that never need a session and
// are exempt from CSRF checks.
var publicPaths = map[string]bool{
	"/health":  true,
	"/metrics": true,
}

// PublicSkipper returns true for requests whose route is a public
// infrastructure endpoint.
func PublicSkipper(c echo.Context) bool {
	return publicPaths[c.Path()] || publicPaths[c.Request().URL.Path]
}
