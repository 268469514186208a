package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"habitcal/internal/handler"
	"habitcal/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance. Currently it exposes only a health check used by
// load balancers and monitoring systems.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the credential endpoints and the token probe.
// Register and login are open; /verify-token sits behind the JWT middleware,
// so reaching its handler already proves the token is valid.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	e.POST("/register", a.Register)
	e.POST("/login", a.Login)
	e.GET("/verify-token", a.VerifyToken, middleware.JWTAuth(jwtSecret))
}

// RegisterAPI registers the habit and event endpoints. All of them require a
// valid session token; the JWT middleware resolves the acting user and every
// handler scopes its repository calls to that id, so cross-user access
// surfaces as 404 rather than 403.
func RegisterAPI(e *echo.Echo, h *handler.HabitHandler, ev *handler.EventHandler, jwtSecret string) {
	api := e.Group("")
	api.Use(middleware.JWTAuth(jwtSecret))

	api.POST("/habits", h.Create)
	api.GET("/habits", h.List)
	api.PUT("/habits/:id", h.Update)
	api.DELETE("/habits/:id", h.Delete)
	api.POST("/habits/:id/toggle", h.Toggle)

	api.POST("/events", ev.Create)
	api.GET("/events", ev.List)
	api.PUT("/events/:id", ev.Update)
	api.DELETE("/events/:id", ev.Delete)
}
