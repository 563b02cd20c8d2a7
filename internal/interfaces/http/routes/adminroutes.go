package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/veyra-hq/veyra/internal/domain/rbac"
	adminhandlers "github.com/veyra-hq/veyra/internal/interfaces/http/handlers/admin"
	"github.com/veyra-hq/veyra/internal/interfaces/http/middleware"
)

type AdminRouteConfig struct {
	EntitlementHandler *adminhandlers.EntitlementHandler
	RoleHandler        *adminhandlers.RoleHandler
	DelegationHandler  *adminhandlers.DelegationHandler
	AuthMiddleware     *middleware.AuthMiddleware
	AccessMiddleware   *middleware.AccessMiddleware
}

// SetupAdminRoutes wires the administration endpoints. Entitlement writes
// and role management sit behind the admin module, which is RBAC-only: no
// entitlement row can lock an organization out of its own administration.
func SetupAdminRoutes(engine *gin.Engine, config *AdminRouteConfig) {
	admin := engine.Group("/api/admin")
	admin.Use(config.AuthMiddleware.RequireAuth())
	{
		entitlements := admin.Group("/entitlements")
		entitlements.Use(config.AccessMiddleware.RequireAccess("admin", rbac.ActionWrite))
		{
			entitlements.POST("/provision", config.EntitlementHandler.ProvisionOrganization)
			entitlements.PUT("/status", config.EntitlementHandler.SetModuleStatus)
			entitlements.POST("/trial", config.EntitlementHandler.StartTrial)
			entitlements.GET("/:org_id", config.EntitlementHandler.ListEntitlements)
		}

		roles := admin.Group("/roles")
		{
			roles.GET("/:role/grants",
				config.AccessMiddleware.RequireAccess("admin", rbac.ActionRead),
				config.RoleHandler.GetRoleGrants)
			roles.PUT("/grants",
				config.AccessMiddleware.RequireAccess("admin", rbac.ActionWrite),
				config.RoleHandler.UpdateRoleGrants)
		}
	}

	// Delegations are a user-level surface: any caller may pass on a
	// permission they hold. The use case enforces that the delegator
	// actually holds it.
	delegations := engine.Group("/api/delegations")
	delegations.Use(config.AuthMiddleware.RequireAuth())
	{
		delegations.POST("", config.DelegationHandler.GrantDelegation)
		delegations.GET("", config.DelegationHandler.ListDelegations)
		delegations.DELETE("/:id", config.DelegationHandler.RevokeDelegation)
	}
}
