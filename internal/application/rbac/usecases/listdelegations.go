package usecases

import (
	"context"
	"fmt"

	"github.com/veyra-hq/veyra/internal/application/rbac/dto"
	"github.com/veyra-hq/veyra/internal/domain/rbac"
	"github.com/veyra-hq/veyra/internal/shared/logger"
)

// ListDelegationsUseCase lists the delegations a user has granted, active
// and revoked alike.
type ListDelegationsUseCase struct {
	delegations rbac.DelegationRepository
	logger      logger.Interface
}

// NewListDelegationsUseCase creates a new list delegations use case.
func NewListDelegationsUseCase(
	delegations rbac.DelegationRepository,
	logger logger.Interface,
) *ListDelegationsUseCase {
	return &ListDelegationsUseCase{
		delegations: delegations,
		logger:      logger,
	}
}

// Execute lists delegations granted by the user.
func (uc *ListDelegationsUseCase) Execute(ctx context.Context, delegatorID uint) ([]*dto.DelegationResponse, error) {
	rows, err := uc.delegations.ListByDelegator(ctx, delegatorID)
	if err != nil {
		uc.logger.Errorw("failed to list delegations", "error", err, "delegator_id", delegatorID)
		return nil, fmt.Errorf("failed to list delegations: %w", err)
	}

	responses := make([]*dto.DelegationResponse, 0, len(rows))
	for _, row := range rows {
		responses = append(responses, toDelegationResponse(row))
	}
	return responses, nil
}
