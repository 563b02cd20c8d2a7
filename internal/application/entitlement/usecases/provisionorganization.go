package usecases

import (
	"context"
	"fmt"

	"github.com/veyra-hq/veyra/internal/application/entitlement/dto"
	"github.com/veyra-hq/veyra/internal/domain/entitlement"
	"github.com/veyra-hq/veyra/internal/domain/organization"
	"github.com/veyra-hq/veyra/internal/shared/catalog"
	"github.com/veyra-hq/veyra/internal/shared/errors"
	"github.com/veyra-hq/veyra/internal/shared/logger"
)

// ProvisionOrganizationUseCase seeds a new organization's entitlement rows
// from its license tier. Licensed modules in the tier are created enabled,
// submodules included; always-on and RBAC-only modules need no rows.
type ProvisionOrganizationUseCase struct {
	entitlementRepo entitlement.Repository
	orgRepo         organization.Repository
	catalog         *catalog.Catalog
	logger          logger.Interface
}

// NewProvisionOrganizationUseCase creates a new provision organization use
// case. orgRepo may be nil, in which case the organization is not verified
// before seeding.
func NewProvisionOrganizationUseCase(
	entitlementRepo entitlement.Repository,
	orgRepo organization.Repository,
	cat *catalog.Catalog,
	logger logger.Interface,
) *ProvisionOrganizationUseCase {
	return &ProvisionOrganizationUseCase{
		entitlementRepo: entitlementRepo,
		orgRepo:         orgRepo,
		catalog:         cat,
		logger:          logger,
	}
}

// Execute provisions the organization and returns the created rows.
func (uc *ProvisionOrganizationUseCase) Execute(
	ctx context.Context,
	req dto.ProvisionOrganizationRequest,
) ([]*dto.EntitlementResponse, error) {
	uc.logger.Infow("provisioning organization entitlements", "org_id", req.OrgID, "tier", req.Tier)

	if req.OrgID == 0 {
		return nil, errors.NewValidationError("organization ID cannot be zero")
	}

	if uc.orgRepo != nil {
		org, err := uc.orgRepo.GetByID(ctx, req.OrgID)
		if err != nil {
			uc.logger.Warnw("organization lookup failed", "error", err, "org_id", req.OrgID)
			return nil, errors.NewNotFoundError("organization not found")
		}
		if !org.IsActive() {
			return nil, errors.NewValidationError("organization is deactivated")
		}
	}

	moduleKeys, ok := uc.catalog.TierModules(req.Tier)
	if !ok {
		uc.logger.Warnw("unknown license tier", "tier", req.Tier)
		return nil, errors.NewValidationError(fmt.Sprintf("unknown license tier: %s", req.Tier))
	}

	existing, err := uc.entitlementRepo.ListByOrg(ctx, req.OrgID)
	if err != nil {
		uc.logger.Errorw("failed to list existing entitlements", "error", err, "org_id", req.OrgID)
		return nil, fmt.Errorf("failed to list existing entitlements: %w", err)
	}
	if len(existing) > 0 {
		uc.logger.Warnw("organization already provisioned", "org_id", req.OrgID)
		return nil, errors.NewConflictError("organization already has entitlements")
	}

	var rows []*entitlement.ModuleEntitlement
	for _, moduleKey := range moduleKeys {
		module, ok := uc.catalog.Module(moduleKey)
		if !ok {
			return nil, errors.NewInternalError(fmt.Sprintf("tier references unknown module: %s", moduleKey))
		}

		row, err := entitlement.NewModuleEntitlement(req.OrgID, moduleKey, entitlement.StatusEnabled, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to build module entitlement: %w", err)
		}
		rows = append(rows, row)

		for _, sub := range module.Submodules {
			subRow, err := entitlement.NewSubmoduleEntitlement(req.OrgID, moduleKey, sub.Key, entitlement.StatusEnabled, nil)
			if err != nil {
				return nil, fmt.Errorf("failed to build submodule entitlement: %w", err)
			}
			rows = append(rows, subRow)
		}
	}

	if err := uc.entitlementRepo.BatchCreate(ctx, rows); err != nil {
		uc.logger.Errorw("failed to create entitlements", "error", err, "org_id", req.OrgID)
		return nil, fmt.Errorf("failed to create entitlements: %w", err)
	}

	uc.logger.Infow("organization provisioned", "org_id", req.OrgID, "tier", req.Tier, "rows", len(rows))

	responses := make([]*dto.EntitlementResponse, 0, len(rows))
	for _, row := range rows {
		responses = append(responses, toEntitlementResponse(row))
	}
	return responses, nil
}

func toEntitlementResponse(e *entitlement.ModuleEntitlement) *dto.EntitlementResponse {
	return &dto.EntitlementResponse{
		ID:           e.ID(),
		OrgID:        e.OrgID(),
		ModuleKey:    e.ModuleKey(),
		SubmoduleKey: e.SubmoduleKey(),
		Status:       string(e.Status()),
		TrialExpiry:  e.TrialExpiry(),
		CreatedAt:    e.CreatedAt(),
		UpdatedAt:    e.UpdatedAt(),
	}
}
