package usecases

import (
	"context"
	"fmt"

	"github.com/veyra-hq/veyra/internal/application/rbac/dto"
	"github.com/veyra-hq/veyra/internal/domain/rbac"
	"github.com/veyra-hq/veyra/internal/shared/catalog"
	"github.com/veyra-hq/veyra/internal/shared/errors"
	"github.com/veyra-hq/veyra/internal/shared/logger"
)

// UpdateRoleGrantsUseCase replaces a role's permission grants. The acting
// user can only manage roles strictly below their own; super-admins manage
// every role.
type UpdateRoleGrantsUseCase struct {
	enforcer rbac.Enforcer
	catalog  *catalog.Catalog
	logger   logger.Interface
}

// NewUpdateRoleGrantsUseCase creates a new update role grants use case.
func NewUpdateRoleGrantsUseCase(
	enforcer rbac.Enforcer,
	cat *catalog.Catalog,
	logger logger.Interface,
) *UpdateRoleGrantsUseCase {
	return &UpdateRoleGrantsUseCase{
		enforcer: enforcer,
		catalog:  cat,
		logger:   logger,
	}
}

// Execute replaces the target role's grants and returns the new set.
func (uc *UpdateRoleGrantsUseCase) Execute(
	ctx context.Context,
	actorRole rbac.Role,
	actorSuperAdmin bool,
	req dto.UpdateRoleGrantsRequest,
) (*dto.RoleGrantsResponse, error) {
	target := rbac.Role(req.Role)
	if !target.IsValid() {
		return nil, errors.NewValidationError(fmt.Sprintf("invalid role: %s", req.Role))
	}

	if !actorSuperAdmin && !rbac.CanManageRole(actorRole, target) {
		uc.logger.Warnw("role grant update refused",
			"actor_role", actorRole, "target_role", target)
		return nil, errors.NewForbiddenError("cannot manage a role at or above your own")
	}

	for _, key := range req.Grants {
		if err := uc.validateGrantKey(key); err != nil {
			return nil, err
		}
	}

	uc.logger.Infow("replacing role grants", "role", target, "grants", len(req.Grants))

	if err := uc.enforcer.SetGrants(ctx, target, req.Grants); err != nil {
		uc.logger.Errorw("failed to replace role grants", "error", err, "role", target)
		return nil, fmt.Errorf("failed to replace role grants: %w", err)
	}

	grants, err := uc.enforcer.GrantsForRole(ctx, target)
	if err != nil {
		uc.logger.Errorw("failed to reload role grants", "error", err, "role", target)
		return nil, fmt.Errorf("failed to reload role grants: %w", err)
	}

	return &dto.RoleGrantsResponse{Role: string(target), Grants: grants}, nil
}

func (uc *UpdateRoleGrantsUseCase) validateGrantKey(key string) error {
	moduleKey, submoduleKey, _, err := rbac.ParsePermissionKey(key)
	if err != nil {
		return errors.NewValidationError(err.Error())
	}
	if !uc.catalog.HasModule(moduleKey) {
		return errors.NewValidationError(fmt.Sprintf("unknown module in grant: %s", key))
	}
	if submoduleKey != "" && !uc.catalog.HasSubmodule(moduleKey, submoduleKey) {
		return errors.NewValidationError(fmt.Sprintf("unknown submodule in grant: %s", key))
	}
	return nil
}
