// Package admin exposes the platform and organization administration
// endpoints: entitlement management, role grants and delegations.
package admin

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/veyra-hq/veyra/internal/application/entitlement/dto"
	"github.com/veyra-hq/veyra/internal/application/entitlement/usecases"
	"github.com/veyra-hq/veyra/internal/interfaces/http/middleware"
	"github.com/veyra-hq/veyra/internal/shared/constants"
	"github.com/veyra-hq/veyra/internal/shared/errors"
	"github.com/veyra-hq/veyra/internal/shared/logger"
	"github.com/veyra-hq/veyra/internal/shared/utils"
)

type EntitlementHandler struct {
	provisionUC *usecases.ProvisionOrganizationUseCase
	setStatusUC *usecases.SetModuleStatusUseCase
	trialUC     *usecases.StartTrialUseCase
	listUC      *usecases.ListEntitlementsUseCase
	logger      logger.Interface
}

func NewEntitlementHandler(
	provisionUC *usecases.ProvisionOrganizationUseCase,
	setStatusUC *usecases.SetModuleStatusUseCase,
	trialUC *usecases.StartTrialUseCase,
	listUC *usecases.ListEntitlementsUseCase,
	log logger.Interface,
) *EntitlementHandler {
	return &EntitlementHandler{
		provisionUC: provisionUC,
		setStatusUC: setStatusUC,
		trialUC:     trialUC,
		listUC:      listUC,
		logger:      log,
	}
}

// scopedOrgID returns the organization scope resolved by the access
// middleware. Entitlement writes only ever target that scope: a body org
// naming a different organization gets the not-found shape, the same answer
// a tenant mismatch produces on the resolution path.
func scopedOrgID(c *gin.Context, bodyOrgID uint) (uint, error) {
	resolved := middleware.GetOrgID(c)
	if resolved == 0 {
		return 0, errors.NewValidationError("organization scope is required")
	}
	if bodyOrgID != 0 && bodyOrgID != resolved {
		return 0, errors.NewNotFoundError(constants.ErrMsgResourceNotFound)
	}
	return resolved, nil
}

// ProvisionOrganization handles POST /admin/entitlements/provision
func (h *EntitlementHandler) ProvisionOrganization(c *gin.Context) {
	var req dto.ProvisionOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid provision request", "error", err)
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	orgID, err := scopedOrgID(c, req.OrgID)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	req.OrgID = orgID

	rows, err := h.provisionUC.Execute(c.Request.Context(), req)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.CreatedResponse(c, rows, "Organization provisioned successfully")
}

// SetModuleStatus handles PUT /admin/entitlements/status
func (h *EntitlementHandler) SetModuleStatus(c *gin.Context) {
	var req dto.SetModuleStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid status request", "error", err)
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	orgID, err := scopedOrgID(c, req.OrgID)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	req.OrgID = orgID

	row, err := h.setStatusUC.Execute(c.Request.Context(), req)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Module status updated", row)
}

// StartTrial handles POST /admin/entitlements/trial
func (h *EntitlementHandler) StartTrial(c *gin.Context) {
	var req dto.StartTrialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid trial request", "error", err)
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	orgID, err := scopedOrgID(c, req.OrgID)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	req.OrgID = orgID

	row, err := h.trialUC.Execute(c.Request.Context(), req)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.CreatedResponse(c, row, "Trial started successfully")
}

// ListEntitlements handles GET /admin/entitlements/:org_id
func (h *EntitlementHandler) ListEntitlements(c *gin.Context) {
	orgID, err := parseOrgID(c)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	rows, err := h.listUC.Execute(c.Request.Context(), orgID)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", rows)
}

func parseOrgID(c *gin.Context) (uint, error) {
	raw := c.Param("org_id")
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, errors.NewValidationError("invalid organization ID")
	}
	return uint(id), nil
}
