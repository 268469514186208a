package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"habitcal/internal/utils"
)

// JWTAuth returns an Echo middleware that validates a Bearer session token
// and injects the resolved identity into the request context. The provided
// secret must match the one used when issuing tokens. Handlers behind this
// middleware read the caller via c.Get("user_id") (uint64) and
// c.Get("username") (string).
//
// Status codes are deliberately split: a request with no bearer token at all
// gets 401, while a token that fails verification (bad signature, expired,
// malformed claims) gets 403. Every protected endpoint shares this behavior,
// so an expired or tampered token is rejected before any handler logic runs.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			claims, err := utils.ParseSessionToken(secret, raw)
			if err != nil {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "invalid token"})
			}

			c.Set("user_id", claims.UserID)
			c.Set("username", claims.Username)
			return next(c)
		}
	}
}

// UserID extracts the authenticated user id stored by JWTAuth. It returns
// false when the middleware did not run, which on a registered protected
// route indicates a wiring bug rather than a client error.
func UserID(c echo.Context) (uint64, bool) {
	id, ok := c.Get("user_id").(uint64)
	return id, ok
}
