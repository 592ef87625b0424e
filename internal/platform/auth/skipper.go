package auth

import (
	"github.com/labstack/echo/v4"
)

// publicPaths bypass authentication.
var publicPaths = map[string]bool{
	"/health":        true,
	"/health/db":     true,
	"/metrics":       true,
	"/auth/register": true,
	"/auth/login":    true,
}

// AuthSkipper returns true for requests whose route should skip authentication.
func AuthSkipper(c echo.Context) bool {
	if publicPaths[c.Path()] {
		return true
	}
	return publicPaths[c.Request().URL.Path]
}

// IsPublicPath reports whether path is reachable without a token.
func IsPublicPath(path string) bool {
	return publicPaths[path]
}
