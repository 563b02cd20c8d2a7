package admin

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/veyra-hq/veyra/internal/application/rbac/dto"
	"github.com/veyra-hq/veyra/internal/application/rbac/usecases"
	"github.com/veyra-hq/veyra/internal/interfaces/http/middleware"
	"github.com/veyra-hq/veyra/internal/shared/errors"
	"github.com/veyra-hq/veyra/internal/shared/logger"
	"github.com/veyra-hq/veyra/internal/shared/utils"
)

type DelegationHandler struct {
	grantUC  *usecases.GrantDelegationUseCase
	revokeUC *usecases.RevokeDelegationUseCase
	listUC   *usecases.ListDelegationsUseCase
	logger   logger.Interface
}

func NewDelegationHandler(
	grantUC *usecases.GrantDelegationUseCase,
	revokeUC *usecases.RevokeDelegationUseCase,
	listUC *usecases.ListDelegationsUseCase,
	log logger.Interface,
) *DelegationHandler {
	return &DelegationHandler{
		grantUC:  grantUC,
		revokeUC: revokeUC,
		listUC:   listUC,
		logger:   log,
	}
}

// GrantDelegation handles POST /delegations
func (h *DelegationHandler) GrantDelegation(c *gin.Context) {
	session, ok := middleware.GetSession(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "missing authentication")
		return
	}

	var req dto.GrantDelegationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid delegation request", "error", err)
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	delegation, err := h.grantUC.Execute(c.Request.Context(), session, req)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.CreatedResponse(c, delegation, "Delegation granted successfully")
}

// RevokeDelegation handles DELETE /delegations/:id
func (h *DelegationHandler) RevokeDelegation(c *gin.Context) {
	session, ok := middleware.GetSession(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "missing authentication")
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		utils.ErrorResponseWithError(c, errors.NewValidationError("invalid delegation ID"))
		return
	}

	delegation, err := h.revokeUC.Execute(c.Request.Context(), session, uint(id))
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Delegation revoked", delegation)
}

// ListDelegations handles GET /delegations
func (h *DelegationHandler) ListDelegations(c *gin.Context) {
	session, ok := middleware.GetSession(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "missing authentication")
		return
	}

	delegations, err := h.listUC.Execute(c.Request.Context(), session.UserID)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", delegations)
}
