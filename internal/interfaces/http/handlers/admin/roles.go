package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/veyra-hq/veyra/internal/application/rbac/dto"
	"github.com/veyra-hq/veyra/internal/application/rbac/usecases"
	"github.com/veyra-hq/veyra/internal/interfaces/http/middleware"
	"github.com/veyra-hq/veyra/internal/shared/logger"
	"github.com/veyra-hq/veyra/internal/shared/utils"
)

type RoleHandler struct {
	getGrantsUC    *usecases.GetRoleGrantsUseCase
	updateGrantsUC *usecases.UpdateRoleGrantsUseCase
	logger         logger.Interface
}

func NewRoleHandler(
	getGrantsUC *usecases.GetRoleGrantsUseCase,
	updateGrantsUC *usecases.UpdateRoleGrantsUseCase,
	log logger.Interface,
) *RoleHandler {
	return &RoleHandler{
		getGrantsUC:    getGrantsUC,
		updateGrantsUC: updateGrantsUC,
		logger:         log,
	}
}

// GetRoleGrants handles GET /admin/roles/:role/grants
func (h *RoleHandler) GetRoleGrants(c *gin.Context) {
	grants, err := h.getGrantsUC.Execute(c.Request.Context(), c.Param("role"))
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", grants)
}

// UpdateRoleGrants handles PUT /admin/roles/grants
func (h *RoleHandler) UpdateRoleGrants(c *gin.Context) {
	session, ok := middleware.GetSession(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "missing authentication")
		return
	}

	var req dto.UpdateRoleGrantsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid role grants request", "error", err)
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	grants, err := h.updateGrantsUC.Execute(c.Request.Context(), session.Role, session.SuperAdmin, req)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Role grants updated", grants)
}
