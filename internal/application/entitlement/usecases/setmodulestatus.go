package usecases

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/veyra-hq/veyra/internal/application/entitlement/dto"
	"github.com/veyra-hq/veyra/internal/domain/entitlement"
	"github.com/veyra-hq/veyra/internal/shared/catalog"
	"github.com/veyra-hq/veyra/internal/shared/errors"
	"github.com/veyra-hq/veyra/internal/shared/logger"
)

// SnapshotInvalidator drops cached client snapshots after an entitlement
// write so stale mirrors refresh promptly.
type SnapshotInvalidator interface {
	DeleteByOrg(ctx context.Context, orgID uint) error
}

// SetModuleStatusUseCase enables or disables a module or submodule for an
// organization, creating the row if none exists. Disabling masks, it never
// deletes: role grants and submodule rows survive for re-enabling.
type SetModuleStatusUseCase struct {
	entitlementRepo entitlement.Repository
	catalog         *catalog.Catalog
	publisher       entitlement.EventPublisher
	snapshots       SnapshotInvalidator
	logger          logger.Interface
}

// NewSetModuleStatusUseCase creates a new set module status use case.
// publisher and snapshots may be nil.
func NewSetModuleStatusUseCase(
	entitlementRepo entitlement.Repository,
	cat *catalog.Catalog,
	publisher entitlement.EventPublisher,
	snapshots SnapshotInvalidator,
	logger logger.Interface,
) *SetModuleStatusUseCase {
	return &SetModuleStatusUseCase{
		entitlementRepo: entitlementRepo,
		catalog:         cat,
		publisher:       publisher,
		snapshots:       snapshots,
		logger:          logger,
	}
}

// Execute applies the status change and returns the updated row.
func (uc *SetModuleStatusUseCase) Execute(
	ctx context.Context,
	req dto.SetModuleStatusRequest,
) (*dto.EntitlementResponse, error) {
	if err := uc.validate(req); err != nil {
		return nil, err
	}
	enabled := *req.Enabled

	uc.logger.Infow("setting entitlement status",
		"org_id", req.OrgID, "module", req.ModuleKey, "submodule", req.SubmoduleKey, "enabled", enabled)

	row, err := uc.load(ctx, req)
	if err != nil && !stderrors.Is(err, entitlement.ErrEntitlementNotFound) {
		uc.logger.Errorw("failed to load entitlement", "error", err, "org_id", req.OrgID)
		return nil, fmt.Errorf("failed to load entitlement: %w", err)
	}

	created := false
	if row == nil {
		status := entitlement.StatusDisabled
		if enabled {
			status = entitlement.StatusEnabled
		}
		if req.SubmoduleKey != "" {
			row, err = entitlement.NewSubmoduleEntitlement(req.OrgID, req.ModuleKey, req.SubmoduleKey, status, nil)
		} else {
			row, err = entitlement.NewModuleEntitlement(req.OrgID, req.ModuleKey, status, nil)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to build entitlement: %w", err)
		}
		created = true
	} else if enabled {
		row.Enable()
	} else {
		row.Disable()
	}

	if created {
		err = uc.entitlementRepo.Create(ctx, row)
	} else {
		err = uc.entitlementRepo.Update(ctx, row)
	}
	if err != nil {
		uc.logger.Errorw("failed to persist entitlement", "error", err, "org_id", req.OrgID)
		return nil, fmt.Errorf("failed to persist entitlement: %w", err)
	}

	uc.afterWrite(ctx, row)

	return toEntitlementResponse(row), nil
}

func (uc *SetModuleStatusUseCase) validate(req dto.SetModuleStatusRequest) error {
	if req.OrgID == 0 {
		return errors.NewValidationError("organization ID cannot be zero")
	}
	if req.Enabled == nil {
		return errors.NewValidationError("enabled flag is required")
	}
	if !uc.catalog.HasModule(req.ModuleKey) {
		return errors.NewValidationError(fmt.Sprintf("unknown module: %s", req.ModuleKey))
	}
	if !uc.catalog.IsLicensed(req.ModuleKey) {
		return errors.NewValidationError(fmt.Sprintf("module is not licensable: %s", req.ModuleKey))
	}
	if req.SubmoduleKey != "" && !uc.catalog.HasSubmodule(req.ModuleKey, req.SubmoduleKey) {
		return errors.NewValidationError(
			fmt.Sprintf("unknown submodule: %s.%s", req.ModuleKey, req.SubmoduleKey))
	}
	return nil
}

func (uc *SetModuleStatusUseCase) load(ctx context.Context, req dto.SetModuleStatusRequest) (*entitlement.ModuleEntitlement, error) {
	if req.SubmoduleKey != "" {
		return uc.entitlementRepo.GetSubmodule(ctx, req.OrgID, req.ModuleKey, req.SubmoduleKey)
	}
	return uc.entitlementRepo.GetModule(ctx, req.OrgID, req.ModuleKey)
}

// afterWrite publishes the change event and invalidates cached snapshots.
// Both are best-effort: the write has already committed.
func (uc *SetModuleStatusUseCase) afterWrite(ctx context.Context, row *entitlement.ModuleEntitlement) {
	if uc.publisher != nil {
		event := entitlement.NewModuleStatusChanged(row.OrgID(), row.ModuleKey(), row.SubmoduleKey(), row.Status())
		if err := uc.publisher.PublishModuleStatusChanged(ctx, event); err != nil {
			uc.logger.Warnw("failed to publish status change event", "error", err, "org_id", row.OrgID())
		}
	}
	if uc.snapshots != nil {
		if err := uc.snapshots.DeleteByOrg(ctx, row.OrgID()); err != nil {
			uc.logger.Warnw("failed to invalidate snapshots", "error", err, "org_id", row.OrgID())
		}
	}
}
