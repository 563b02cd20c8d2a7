package usecases

import (
	"context"
	"fmt"

	"github.com/veyra-hq/veyra/internal/application/rbac/dto"
	"github.com/veyra-hq/veyra/internal/domain/rbac"
	"github.com/veyra-hq/veyra/internal/shared/errors"
	"github.com/veyra-hq/veyra/internal/shared/logger"
)

// GetRoleGrantsUseCase returns a role's current permission grants.
type GetRoleGrantsUseCase struct {
	enforcer rbac.Enforcer
	logger   logger.Interface
}

// NewGetRoleGrantsUseCase creates a new get role grants use case.
func NewGetRoleGrantsUseCase(enforcer rbac.Enforcer, logger logger.Interface) *GetRoleGrantsUseCase {
	return &GetRoleGrantsUseCase{
		enforcer: enforcer,
		logger:   logger,
	}
}

// Execute returns the role's grants.
func (uc *GetRoleGrantsUseCase) Execute(ctx context.Context, role string) (*dto.RoleGrantsResponse, error) {
	target := rbac.Role(role)
	if !target.IsValid() {
		return nil, errors.NewValidationError(fmt.Sprintf("invalid role: %s", role))
	}

	grants, err := uc.enforcer.GrantsForRole(ctx, target)
	if err != nil {
		uc.logger.Errorw("failed to load role grants", "error", err, "role", target)
		return nil, fmt.Errorf("failed to load role grants: %w", err)
	}

	return &dto.RoleGrantsResponse{Role: string(target), Grants: grants}, nil
}
