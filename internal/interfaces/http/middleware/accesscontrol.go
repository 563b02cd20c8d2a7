package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/veyra-hq/veyra/internal/application/access/usecases"
	"github.com/veyra-hq/veyra/internal/domain/access"
	"github.com/veyra-hq/veyra/internal/domain/rbac"
	"github.com/veyra-hq/veyra/internal/shared/catalog"
	"github.com/veyra-hq/veyra/internal/shared/constants"
	"github.com/veyra-hq/veyra/internal/shared/logger"
	"github.com/veyra-hq/veyra/internal/shared/services/markdown"
	"github.com/veyra-hq/veyra/internal/shared/utils"
)

// AccessMiddleware guards protected routes with the resolution pipeline.
// Denials are translated for the wire: a tenant mismatch surfaces as 404 so
// foreign resources cannot be probed, an entitlement denial carries the
// module's upgrade prompt, and an RBAC denial stays a generic 403.
type AccessMiddleware struct {
	resolveAccess *usecases.ResolveAccessUseCase
	catalog       *catalog.Catalog
	markdown      markdown.MarkdownService
	logger        logger.Interface
}

func NewAccessMiddleware(
	resolveAccess *usecases.ResolveAccessUseCase,
	cat *catalog.Catalog,
	md markdown.MarkdownService,
	log logger.Interface,
) *AccessMiddleware {
	return &AccessMiddleware{
		resolveAccess: resolveAccess,
		catalog:       cat,
		markdown:      md,
		logger:        log,
	}
}

// RequireAccess resolves the caller against a module-level operation.
func (m *AccessMiddleware) RequireAccess(moduleKey string, action rbac.Action) gin.HandlerFunc {
	return m.require(moduleKey, "", action)
}

// RequireSubmoduleAccess resolves the caller against a submodule operation.
func (m *AccessMiddleware) RequireSubmoduleAccess(moduleKey, submoduleKey string, action rbac.Action) gin.HandlerFunc {
	return m.require(moduleKey, submoduleKey, action)
}

func (m *AccessMiddleware) require(moduleKey, submoduleKey string, action rbac.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := GetSession(c)
		if !ok {
			utils.ErrorResponse(c, http.StatusUnauthorized, "missing authentication")
			c.Abort()
			return
		}

		decision := m.resolveAccess.Execute(c.Request.Context(), access.Request{
			Session:      session,
			OrgID:        requestedOrg(c, session),
			ModuleKey:    moduleKey,
			SubmoduleKey: submoduleKey,
			Action:       action,
		})

		if !decision.Allowed {
			m.writeDenial(c, moduleKey, decision)
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyOrgID, decision.OrgID)
		c.Next()
	}
}

// requestedOrg picks the organization scope of the request. Org-bound
// sessions always operate in their own organization; an explicit org
// parameter is honored verbatim so cross-tenant attempts reach the tenant
// check instead of being silently rewritten.
func requestedOrg(c *gin.Context, session access.Session) uint {
	if raw := c.Param("org_id"); raw != "" {
		if id, err := strconv.ParseUint(raw, 10, 32); err == nil {
			return uint(id)
		}
		return 0
	}
	if raw := c.Query("org_id"); raw != "" {
		if id, err := strconv.ParseUint(raw, 10, 32); err == nil {
			return uint(id)
		}
		return 0
	}
	return session.Org()
}

func (m *AccessMiddleware) writeDenial(c *gin.Context, moduleKey string, decision access.Decision) {
	if decision.NotFoundShaped() {
		utils.ErrorResponse(c, http.StatusNotFound, constants.ErrMsgResourceNotFound)
		return
	}

	switch decision.Layer {
	case access.LayerEntitlement:
		info := utils.ErrorInfo{
			Type:    string(decision.Reason),
			Message: "This feature is not available on your current plan",
		}
		if decision.UpgradeEligible {
			info.UpgradePrompt = m.renderUpgradePrompt(moduleKey)
		}
		c.JSON(http.StatusForbidden, utils.APIResponse{Success: false, Error: &info})
	case access.LayerTenant:
		// no_org_context: the session itself lacks a tenant binding
		utils.ErrorResponse(c, http.StatusForbidden, "this operation requires an organization-bound session")
	default:
		// RBAC and internal denials stay generic; details are in the audit log
		utils.ErrorResponse(c, http.StatusForbidden, constants.ErrMsgForbidden)
	}
}

func (m *AccessMiddleware) renderUpgradePrompt(moduleKey string) string {
	module, ok := m.catalog.Module(moduleKey)
	if !ok || module.UpgradePrompt == "" {
		return ""
	}
	html, err := m.markdown.ToHTMLSanitized(module.UpgradePrompt)
	if err != nil {
		m.logger.Warnw("failed to render upgrade prompt", "module", moduleKey, "error", err)
		return ""
	}
	return html
}

// GetOrgID returns the resolved organization scope set by RequireAccess.
func GetOrgID(c *gin.Context) uint {
	if value, exists := c.Get(constants.ContextKeyOrgID); exists {
		if id, ok := value.(uint); ok {
			return id
		}
	}
	return 0
}
