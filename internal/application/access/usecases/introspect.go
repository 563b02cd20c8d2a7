package usecases

import (
	"context"
	"fmt"

	"github.com/veyra-hq/veyra/internal/application/access/dto"
	"github.com/veyra-hq/veyra/internal/domain/access"
	"github.com/veyra-hq/veyra/internal/domain/rbac"
	"github.com/veyra-hq/veyra/internal/shared/logger"
)

// IntrospectUseCase returns the caller's own effective permissions. It is
// strictly self-scoped; there is no variant that inspects another user.
type IntrospectUseCase struct {
	permissions *rbac.Store
	logger      logger.Interface
}

// NewIntrospectUseCase creates a new introspect use case.
func NewIntrospectUseCase(permissions *rbac.Store, logger logger.Interface) *IntrospectUseCase {
	return &IntrospectUseCase{
		permissions: permissions,
		logger:      logger,
	}
}

// Execute returns the session's effective permission view.
func (uc *IntrospectUseCase) Execute(ctx context.Context, session access.Session) (*dto.MeResponse, error) {
	keys, err := uc.permissions.EffectivePermissions(ctx, session.UserID, session.Role)
	if err != nil {
		uc.logger.Errorw("failed to load effective permissions", "error", err, "user_id", session.UserID)
		return nil, fmt.Errorf("failed to load effective permissions: %w", err)
	}

	return &dto.MeResponse{
		UserID:      session.UserID,
		Role:        string(session.Role),
		OrgID:       session.Org(),
		SuperAdmin:  session.SuperAdmin,
		Permissions: keys,
	}, nil
}
