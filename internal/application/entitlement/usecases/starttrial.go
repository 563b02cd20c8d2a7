package usecases

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/veyra-hq/veyra/internal/application/entitlement/dto"
	"github.com/veyra-hq/veyra/internal/domain/entitlement"
	"github.com/veyra-hq/veyra/internal/shared/catalog"
	"github.com/veyra-hq/veyra/internal/shared/errors"
	"github.com/veyra-hq/veyra/internal/shared/logger"
)

// StartTrialUseCase opens a time-boxed trial for a licensed module. Trials
// are module-level; submodules of a trial module follow their own rows.
type StartTrialUseCase struct {
	entitlementRepo entitlement.Repository
	catalog         *catalog.Catalog
	publisher       entitlement.EventPublisher
	snapshots       SnapshotInvalidator
	logger          logger.Interface
}

// NewStartTrialUseCase creates a new start trial use case.
func NewStartTrialUseCase(
	entitlementRepo entitlement.Repository,
	cat *catalog.Catalog,
	publisher entitlement.EventPublisher,
	snapshots SnapshotInvalidator,
	logger logger.Interface,
) *StartTrialUseCase {
	return &StartTrialUseCase{
		entitlementRepo: entitlementRepo,
		catalog:         cat,
		publisher:       publisher,
		snapshots:       snapshots,
		logger:          logger,
	}
}

// Execute starts or restarts the trial and returns the updated row.
func (uc *StartTrialUseCase) Execute(
	ctx context.Context,
	req dto.StartTrialRequest,
) (*dto.EntitlementResponse, error) {
	uc.logger.Infow("starting module trial",
		"org_id", req.OrgID, "module", req.ModuleKey, "expires_at", req.ExpiresAt)

	if req.OrgID == 0 {
		return nil, errors.NewValidationError("organization ID cannot be zero")
	}
	if !uc.catalog.IsLicensed(req.ModuleKey) {
		return nil, errors.NewValidationError(fmt.Sprintf("module is not licensable: %s", req.ModuleKey))
	}
	if !req.ExpiresAt.After(time.Now()) {
		return nil, errors.NewValidationError("trial expiry must be in the future")
	}

	row, err := uc.entitlementRepo.GetModule(ctx, req.OrgID, req.ModuleKey)
	if err != nil && !stderrors.Is(err, entitlement.ErrEntitlementNotFound) {
		uc.logger.Errorw("failed to load entitlement", "error", err, "org_id", req.OrgID)
		return nil, fmt.Errorf("failed to load entitlement: %w", err)
	}

	created := false
	if row == nil {
		row, err = entitlement.NewModuleEntitlement(req.OrgID, req.ModuleKey, entitlement.StatusTrial, &req.ExpiresAt)
		if err != nil {
			return nil, fmt.Errorf("failed to build entitlement: %w", err)
		}
		created = true
	} else {
		if err := row.StartTrial(req.ExpiresAt); err != nil {
			return nil, errors.NewValidationError(err.Error())
		}
	}

	if created {
		err = uc.entitlementRepo.Create(ctx, row)
	} else {
		err = uc.entitlementRepo.Update(ctx, row)
	}
	if err != nil {
		uc.logger.Errorw("failed to persist trial", "error", err, "org_id", req.OrgID)
		return nil, fmt.Errorf("failed to persist trial: %w", err)
	}

	if uc.publisher != nil {
		event := entitlement.NewModuleStatusChanged(row.OrgID(), row.ModuleKey(), "", row.Status())
		if err := uc.publisher.PublishModuleStatusChanged(ctx, event); err != nil {
			uc.logger.Warnw("failed to publish status change event", "error", err, "org_id", row.OrgID())
		}
	}
	if uc.snapshots != nil {
		if err := uc.snapshots.DeleteByOrg(ctx, row.OrgID()); err != nil {
			uc.logger.Warnw("failed to invalidate snapshots", "error", err, "org_id", row.OrgID())
		}
	}

	return toEntitlementResponse(row), nil
}
