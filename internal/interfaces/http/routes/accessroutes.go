package routes

import (
	"github.com/gin-gonic/gin"

	accesshandlers "github.com/veyra-hq/veyra/internal/interfaces/http/handlers/access"
	"github.com/veyra-hq/veyra/internal/interfaces/http/middleware"
)

type AccessRouteConfig struct {
	AccessHandler  *accesshandlers.Handler
	AuthMiddleware *middleware.AuthMiddleware
}

// SetupAccessRoutes wires the session-facing resolution endpoints. These sit
// behind authentication only: the snapshot and introspection views are about
// the caller's own access and need no further gating.
func SetupAccessRoutes(engine *gin.Engine, config *AccessRouteConfig) {
	api := engine.Group("/api/access")
	api.Use(config.AuthMiddleware.RequireAuth())
	{
		api.GET("/snapshot", config.AccessHandler.GetSnapshot)
		api.GET("/me", config.AccessHandler.GetMe)
	}
}
