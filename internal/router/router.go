// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/jobos/jobos-backend/internal/config"
	"github.com/jobos/jobos-backend/internal/handler"
	"github.com/jobos/jobos-backend/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance. Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication-related routes.
// Unauthenticated operations live under /v1/auth, protected endpoints
// under /v1 behind the JWT and role middleware.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, pr *handler.PasswordResetHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/forgot-password", pr.ForgotPassword)
	g.POST("/reset-password", pr.ResetPassword)

	// Logout needs a bearer token: the session to revoke is taken from
	// the token's session claim, never from the request body.
	g.POST("/logout", a.Logout, middleware.JWTAuth(jwtSecret))
	g.POST("/change-password", pr.ChangePassword, middleware.JWTAuth(jwtSecret))

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole("SEEKER", "POSTER"))
	auth.GET("/me", a.Me)
}

// RegisterCredits registers the credit and subscription endpoints under
// /v1/credits. The plan catalogue is public and sits behind the Redis
// response cache; everything else requires a valid access token.
func RegisterCredits(e *echo.Echo, h *handler.CreditHandler, jwtSecret string, rdb *redis.Client) {
	e.GET("/v1/credits/plans", h.Plans, middleware.NewRedisCache(config.LoadCacheConfig(), rdb))

	g := e.Group("/v1/credits")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole("SEEKER", "POSTER"))
	g.GET("", h.Balance)
	g.POST("/purchase", h.Purchase)
	g.GET("/transactions", h.Transactions)
	g.POST("/subscribe", h.Subscribe)
}
