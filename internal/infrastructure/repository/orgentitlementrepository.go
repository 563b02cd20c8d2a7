package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/veyra-hq/veyra/internal/domain/entitlement"
	"github.com/veyra-hq/veyra/internal/infrastructure/persistence/models"
	"github.com/veyra-hq/veyra/internal/shared/errors"
	"github.com/veyra-hq/veyra/internal/shared/logger"
)

// OrgEntitlementRepositoryImpl implements the entitlement.Repository interface
type OrgEntitlementRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

// NewOrgEntitlementRepository creates a new org entitlement repository instance
func NewOrgEntitlementRepository(db *gorm.DB, logger logger.Interface) entitlement.Repository {
	return &OrgEntitlementRepositoryImpl{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new entitlement row
func (r *OrgEntitlementRepositoryImpl) Create(ctx context.Context, e *entitlement.ModuleEntitlement) error {
	model := toOrgEntitlementModel(e)

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.IsDuplicateError(err) {
			return errors.NewConflictError("entitlement row already exists")
		}
		r.logger.Errorw("failed to create entitlement",
			"org_id", e.OrgID(), "module", e.ModuleKey(), "submodule", e.SubmoduleKey(), "error", err)
		return fmt.Errorf("failed to create entitlement: %w", err)
	}

	if err := e.SetID(model.ID); err != nil {
		return fmt.Errorf("failed to set entitlement ID: %w", err)
	}

	r.logger.Infow("entitlement created",
		"id", model.ID, "org_id", model.OrgID, "module", model.ModuleKey,
		"submodule", model.SubmoduleKey, "status", model.Status)
	return nil
}

// Update persists status and trial expiry changes
func (r *OrgEntitlementRepositoryImpl) Update(ctx context.Context, e *entitlement.ModuleEntitlement) error {
	if e.ID() == 0 {
		return errors.NewValidationError("entitlement ID cannot be zero")
	}

	result := r.db.WithContext(ctx).Model(&models.OrgEntitlementModel{}).
		Where("id = ?", e.ID()).
		Updates(map[string]interface{}{
			"status":       string(e.Status()),
			"trial_expiry": e.TrialExpiry(),
		})
	if result.Error != nil {
		r.logger.Errorw("failed to update entitlement", "id", e.ID(), "error", result.Error)
		return fmt.Errorf("failed to update entitlement: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.NewNotFoundError("entitlement not found")
	}

	r.logger.Infow("entitlement updated", "id", e.ID(), "status", e.Status())
	return nil
}

// GetModule retrieves the module-level row for (org, module)
func (r *OrgEntitlementRepositoryImpl) GetModule(ctx context.Context, orgID uint, moduleKey string) (*entitlement.ModuleEntitlement, error) {
	return r.getRow(ctx, orgID, moduleKey, "")
}

// GetSubmodule retrieves the submodule-level row for (org, module, sub)
func (r *OrgEntitlementRepositoryImpl) GetSubmodule(ctx context.Context, orgID uint, moduleKey, submoduleKey string) (*entitlement.ModuleEntitlement, error) {
	return r.getRow(ctx, orgID, moduleKey, submoduleKey)
}

func (r *OrgEntitlementRepositoryImpl) getRow(ctx context.Context, orgID uint, moduleKey, submoduleKey string) (*entitlement.ModuleEntitlement, error) {
	var model models.OrgEntitlementModel
	err := r.db.WithContext(ctx).
		Where("org_id = ? AND module_key = ? AND submodule_key = ?", orgID, moduleKey, submoduleKey).
		First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, entitlement.ErrEntitlementNotFound
		}
		r.logger.Errorw("failed to get entitlement",
			"org_id", orgID, "module", moduleKey, "submodule", submoduleKey, "error", err)
		return nil, fmt.Errorf("failed to get entitlement: %w", err)
	}
	return fromOrgEntitlementModel(&model)
}

// ListByOrg returns all entitlement rows for an organization
func (r *OrgEntitlementRepositoryImpl) ListByOrg(ctx context.Context, orgID uint) ([]*entitlement.ModuleEntitlement, error) {
	var rows []models.OrgEntitlementModel
	if err := r.db.WithContext(ctx).
		Where("org_id = ?", orgID).
		Order("module_key, submodule_key").
		Find(&rows).Error; err != nil {
		r.logger.Errorw("failed to list entitlements", "org_id", orgID, "error", err)
		return nil, fmt.Errorf("failed to list entitlements: %w", err)
	}
	return fromOrgEntitlementModels(rows)
}

// BatchCreate inserts multiple rows in a single transaction
func (r *OrgEntitlementRepositoryImpl) BatchCreate(ctx context.Context, rows []*entitlement.ModuleEntitlement) error {
	if len(rows) == 0 {
		return nil
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, e := range rows {
			model := toOrgEntitlementModel(e)
			if err := tx.Create(model).Error; err != nil {
				if errors.IsDuplicateError(err) {
					return errors.NewConflictError("entitlement row already exists")
				}
				return fmt.Errorf("failed to create entitlement: %w", err)
			}
			if err := e.SetID(model.ID); err != nil {
				return fmt.Errorf("failed to set entitlement ID: %w", err)
			}
		}
		r.logger.Infow("entitlements created", "count", len(rows))
		return nil
	})
}

// ListExpiredTrials returns trial rows whose expiry has passed but whose
// stored status is still trial
func (r *OrgEntitlementRepositoryImpl) ListExpiredTrials(ctx context.Context, now time.Time) ([]*entitlement.ModuleEntitlement, error) {
	var rows []models.OrgEntitlementModel
	if err := r.db.WithContext(ctx).
		Where("status = ? AND trial_expiry IS NOT NULL AND trial_expiry < ?", "trial", now).
		Find(&rows).Error; err != nil {
		r.logger.Errorw("failed to list expired trials", "error", err)
		return nil, fmt.Errorf("failed to list expired trials: %w", err)
	}
	return fromOrgEntitlementModels(rows)
}

func toOrgEntitlementModel(e *entitlement.ModuleEntitlement) *models.OrgEntitlementModel {
	return &models.OrgEntitlementModel{
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

func fromOrgEntitlementModel(model *models.OrgEntitlementModel) (*entitlement.ModuleEntitlement, error) {
	e, err := entitlement.ReconstructModuleEntitlement(
		model.ID,
		model.OrgID,
		model.ModuleKey,
		model.SubmoduleKey,
		entitlement.Status(model.Status),
		model.TrialExpiry,
		model.CreatedAt,
		model.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct entitlement: %w", err)
	}
	return e, nil
}

func fromOrgEntitlementModels(rows []models.OrgEntitlementModel) ([]*entitlement.ModuleEntitlement, error) {
	result := make([]*entitlement.ModuleEntitlement, 0, len(rows))
	for i := range rows {
		e, err := fromOrgEntitlementModel(&rows[i])
		if err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	return result, nil
}
