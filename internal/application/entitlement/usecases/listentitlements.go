package usecases

import (
	"context"
	"fmt"
	"sort"

	"github.com/veyra-hq/veyra/internal/application/entitlement/dto"
	"github.com/veyra-hq/veyra/internal/domain/entitlement"
	"github.com/veyra-hq/veyra/internal/shared/errors"
	"github.com/veyra-hq/veyra/internal/shared/logger"
)

// ListEntitlementsUseCase returns every entitlement row of an organization,
// ordered by module then submodule for stable admin listings.
type ListEntitlementsUseCase struct {
	entitlementRepo entitlement.Repository
	logger          logger.Interface
}

// NewListEntitlementsUseCase creates a new list entitlements use case.
func NewListEntitlementsUseCase(
	entitlementRepo entitlement.Repository,
	logger logger.Interface,
) *ListEntitlementsUseCase {
	return &ListEntitlementsUseCase{
		entitlementRepo: entitlementRepo,
		logger:          logger,
	}
}

// Execute lists the organization's entitlement rows.
func (uc *ListEntitlementsUseCase) Execute(ctx context.Context, orgID uint) ([]*dto.EntitlementResponse, error) {
	if orgID == 0 {
		return nil, errors.NewValidationError("organization ID cannot be zero")
	}

	rows, err := uc.entitlementRepo.ListByOrg(ctx, orgID)
	if err != nil {
		uc.logger.Errorw("failed to list entitlements", "error", err, "org_id", orgID)
		return nil, fmt.Errorf("failed to list entitlements: %w", err)
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].ModuleKey() != rows[j].ModuleKey() {
			return rows[i].ModuleKey() < rows[j].ModuleKey()
		}
		return rows[i].SubmoduleKey() < rows[j].SubmoduleKey()
	})

	responses := make([]*dto.EntitlementResponse, 0, len(rows))
	for _, row := range rows {
		responses = append(responses, toEntitlementResponse(row))
	}
	return responses, nil
}
