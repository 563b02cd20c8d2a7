package routes

import (
	"github.com/gin-gonic/gin"

	authhandlers "github.com/veyra-hq/veyra/internal/interfaces/http/handlers/auth"
)

type AuthRouteConfig struct {
	AuthHandler *authhandlers.Handler
}

// SetupAuthRoutes wires the session lifecycle endpoints. These are the only
// unauthenticated API routes besides the health check.
func SetupAuthRoutes(engine *gin.Engine, config *AuthRouteConfig) {
	api := engine.Group("/api/auth")
	{
		api.POST("/login", config.AuthHandler.Login)
		api.POST("/refresh", config.AuthHandler.Refresh)
		api.POST("/logout", config.AuthHandler.Logout)
	}
}
