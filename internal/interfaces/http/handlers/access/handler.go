// Package access exposes the session-facing resolution endpoints: the
// snapshot feed for client mirrors and the self-introspection view.
package access

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/veyra-hq/veyra/internal/application/access/usecases"
	"github.com/veyra-hq/veyra/internal/interfaces/http/middleware"
	"github.com/veyra-hq/veyra/internal/shared/logger"
	"github.com/veyra-hq/veyra/internal/shared/utils"
)

type Handler struct {
	getSnapshotUC *usecases.GetSnapshotUseCase
	introspectUC  *usecases.IntrospectUseCase
	logger        logger.Interface
}

func NewHandler(
	getSnapshotUC *usecases.GetSnapshotUseCase,
	introspectUC *usecases.IntrospectUseCase,
	log logger.Interface,
) *Handler {
	return &Handler{
		getSnapshotUC: getSnapshotUC,
		introspectUC:  introspectUC,
		logger:        log,
	}
}

// GetSnapshot handles GET /access/snapshot
func (h *Handler) GetSnapshot(c *gin.Context) {
	session, ok := middleware.GetSession(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "missing authentication")
		return
	}

	snapshot, err := h.getSnapshotUC.Execute(c.Request.Context(), session)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", snapshot)
}

// GetMe handles GET /access/me
func (h *Handler) GetMe(c *gin.Context) {
	session, ok := middleware.GetSession(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "missing authentication")
		return
	}

	me, err := h.introspectUC.Execute(c.Request.Context(), session)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", me)
}
