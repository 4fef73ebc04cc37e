package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/jobos/jobos-backend/internal/utils"
)

// JWTAuth returns an Echo middleware that validates a Bearer access
// token and injects its claims into the request context. The provided
// secret must match the one used when issuing tokens. Protected
// handlers read the authenticated identity via c.Get("user_id"),
// c.Get("email"), c.Get("role") and c.Get("session_id").
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			claims, err := utils.ParseAccessToken(secret, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			// Typed values; handlers can assert without re-parsing the token.
			c.Set("user_id", claims.UserID)
			c.Set("email", claims.Email)
			c.Set("role", claims.Role)
			c.Set("session_id", claims.SessionID)
			return next(c)
		}
	}
}
