package usecases

import (
	"context"
	"fmt"

	"github.com/veyra-hq/veyra/internal/application/rbac/dto"
	"github.com/veyra-hq/veyra/internal/domain/access"
	"github.com/veyra-hq/veyra/internal/domain/rbac"
	"github.com/veyra-hq/veyra/internal/domain/user"
	"github.com/veyra-hq/veyra/internal/shared/errors"
	"github.com/veyra-hq/veyra/internal/shared/logger"
)

// GrantDelegationUseCase delegates one of the caller's permissions to
// another user in the same organization. A user can only delegate what they
// currently hold, so a delegation never widens the org's permission surface.
type GrantDelegationUseCase struct {
	permissions *rbac.Store
	delegations rbac.DelegationRepository
	users       user.Repository
	logger      logger.Interface
}

// NewGrantDelegationUseCase creates a new grant delegation use case.
func NewGrantDelegationUseCase(
	permissions *rbac.Store,
	delegations rbac.DelegationRepository,
	users user.Repository,
	logger logger.Interface,
) *GrantDelegationUseCase {
	return &GrantDelegationUseCase{
		permissions: permissions,
		delegations: delegations,
		users:       users,
		logger:      logger,
	}
}

// Execute creates the delegation, reactivating a previously revoked one for
// the same (delegatee, permission) pair instead of inserting a duplicate.
func (uc *GrantDelegationUseCase) Execute(
	ctx context.Context,
	session access.Session,
	req dto.GrantDelegationRequest,
) (*dto.DelegationResponse, error) {
	moduleKey, submoduleKey, action, err := rbac.ParsePermissionKey(req.Permission)
	if err != nil {
		return nil, errors.NewValidationError(err.Error())
	}

	if err := uc.checkDelegatee(ctx, session, req.DelegateeID); err != nil {
		return nil, err
	}

	held, err := uc.permissions.HasPermission(ctx, session.UserID, session.Role, session.SuperAdmin,
		moduleKey, submoduleKey, action)
	if err != nil {
		uc.logger.Errorw("failed to check delegator permission", "error", err, "user_id", session.UserID)
		return nil, fmt.Errorf("failed to check delegator permission: %w", err)
	}
	if !held {
		uc.logger.Warnw("delegation of unheld permission refused",
			"user_id", session.UserID, "permission", req.Permission)
		return nil, errors.NewForbiddenError("cannot delegate a permission you do not hold")
	}

	uc.logger.Infow("granting delegation",
		"delegator_id", session.UserID, "delegatee_id", req.DelegateeID, "permission", req.Permission)

	if existing, err := uc.delegations.Find(ctx, req.DelegateeID, req.Permission); err == nil && existing != nil {
		if existing.DelegatorID() != session.UserID {
			return nil, errors.NewConflictError("permission already delegated by another user")
		}
		existing.Reactivate()
		if err := uc.delegations.Update(ctx, existing); err != nil {
			uc.logger.Errorw("failed to reactivate delegation", "error", err, "delegation_id", existing.ID())
			return nil, fmt.Errorf("failed to reactivate delegation: %w", err)
		}
		return toDelegationResponse(existing), nil
	}

	delegation, err := rbac.NewDelegation(session.UserID, req.DelegateeID, req.Permission)
	if err != nil {
		return nil, errors.NewValidationError(err.Error())
	}
	if err := uc.delegations.Create(ctx, delegation); err != nil {
		if errors.IsDuplicateError(err) {
			return nil, errors.NewConflictError("delegation already exists")
		}
		uc.logger.Errorw("failed to create delegation", "error", err, "delegator_id", session.UserID)
		return nil, fmt.Errorf("failed to create delegation: %w", err)
	}

	return toDelegationResponse(delegation), nil
}

// checkDelegatee requires the target user to exist and, for org-bound
// callers, to belong to the caller's organization. A foreign-org user gets
// the same not-found answer as a nonexistent one so user IDs cannot be
// probed across tenants.
func (uc *GrantDelegationUseCase) checkDelegatee(ctx context.Context, session access.Session, delegateeID uint) error {
	if delegateeID == session.UserID {
		return errors.NewValidationError("cannot delegate a permission to yourself")
	}

	delegatee, err := uc.users.GetByID(ctx, delegateeID)
	if err != nil {
		if !errors.IsNotFoundError(err) {
			uc.logger.Errorw("failed to load delegatee", "error", err, "delegatee_id", delegateeID)
			return fmt.Errorf("failed to load delegatee: %w", err)
		}
		return errors.NewNotFoundError("delegatee not found")
	}

	if session.SuperAdmin {
		return nil
	}
	if !session.HasOrg() || delegatee.OrgID() == nil || *delegatee.OrgID() != session.Org() {
		uc.logger.Warnw("cross-organization delegation refused",
			"delegator_id", session.UserID, "delegatee_id", delegateeID)
		return errors.NewNotFoundError("delegatee not found")
	}
	return nil
}

func toDelegationResponse(d *rbac.Delegation) *dto.DelegationResponse {
	return &dto.DelegationResponse{
		ID:          d.ID(),
		DelegatorID: d.DelegatorID(),
		DelegateeID: d.DelegateeID(),
		Permission:  d.Permission(),
		Active:      d.IsActive(),
		CreatedAt:   d.CreatedAt(),
		UpdatedAt:   d.UpdatedAt(),
	}
}
