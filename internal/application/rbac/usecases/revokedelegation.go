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

// RevokeDelegationUseCase deactivates a delegation. Only the granting user,
// an org admin of the delegator's organization, or a super-admin may revoke
// it.
type RevokeDelegationUseCase struct {
	delegations rbac.DelegationRepository
	users       user.Repository
	logger      logger.Interface
}

// NewRevokeDelegationUseCase creates a new revoke delegation use case.
func NewRevokeDelegationUseCase(
	delegations rbac.DelegationRepository,
	users user.Repository,
	logger logger.Interface,
) *RevokeDelegationUseCase {
	return &RevokeDelegationUseCase{
		delegations: delegations,
		users:       users,
		logger:      logger,
	}
}

// Execute revokes the delegation. Revoking an already inactive delegation is
// a no-op.
func (uc *RevokeDelegationUseCase) Execute(
	ctx context.Context,
	session access.Session,
	delegationID uint,
) (*dto.DelegationResponse, error) {
	if delegationID == 0 {
		return nil, errors.NewValidationError("delegation ID cannot be zero")
	}

	delegation, err := uc.delegations.GetByID(ctx, delegationID)
	if err != nil {
		uc.logger.Warnw("delegation not found", "delegation_id", delegationID)
		return nil, errors.NewNotFoundError("delegation not found")
	}

	if err := uc.authorize(ctx, session, delegation); err != nil {
		uc.logger.Warnw("delegation revoke refused",
			"delegation_id", delegationID, "user_id", session.UserID)
		return nil, err
	}

	delegation.Revoke()
	if err := uc.delegations.Update(ctx, delegation); err != nil {
		uc.logger.Errorw("failed to revoke delegation", "error", err, "delegation_id", delegationID)
		return nil, fmt.Errorf("failed to revoke delegation: %w", err)
	}

	uc.logger.Infow("delegation revoked", "delegation_id", delegationID, "user_id", session.UserID)

	return toDelegationResponse(delegation), nil
}

// authorize checks the caller may revoke the delegation. The org-admin path
// is scoped to the delegator's organization; a delegation in another tenant
// answers not-found so delegation IDs cannot be probed across tenants.
func (uc *RevokeDelegationUseCase) authorize(ctx context.Context, session access.Session, d *rbac.Delegation) error {
	if session.SuperAdmin {
		return nil
	}
	if d.DelegatorID() == session.UserID {
		return nil
	}
	if session.Role != rbac.RoleOrgAdmin {
		return errors.NewForbiddenError("cannot revoke this delegation")
	}

	delegator, err := uc.users.GetByID(ctx, d.DelegatorID())
	if err != nil {
		if !errors.IsNotFoundError(err) {
			uc.logger.Errorw("failed to load delegator", "error", err, "delegation_id", d.ID())
			return fmt.Errorf("failed to load delegator: %w", err)
		}
		return errors.NewNotFoundError("delegation not found")
	}
	if !session.HasOrg() || delegator.OrgID() == nil || *delegator.OrgID() != session.Org() {
		return errors.NewNotFoundError("delegation not found")
	}
	return nil
}
