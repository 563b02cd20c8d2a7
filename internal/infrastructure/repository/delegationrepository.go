package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/veyra-hq/veyra/internal/domain/rbac"
	"github.com/veyra-hq/veyra/internal/infrastructure/persistence/models"
	"github.com/veyra-hq/veyra/internal/shared/errors"
	"github.com/veyra-hq/veyra/internal/shared/logger"
)

// DelegationRepositoryImpl implements the rbac.DelegationRepository interface
type DelegationRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

// NewDelegationRepository creates a new delegation repository instance
func NewDelegationRepository(db *gorm.DB, logger logger.Interface) rbac.DelegationRepository {
	return &DelegationRepositoryImpl{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new delegation
func (r *DelegationRepositoryImpl) Create(ctx context.Context, d *rbac.Delegation) error {
	model := toDelegationModel(d)

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.IsDuplicateError(err) {
			return errors.NewConflictError("delegation already exists")
		}
		r.logger.Errorw("failed to create delegation",
			"delegator_id", d.DelegatorID(), "delegatee_id", d.DelegateeID(),
			"permission", d.Permission(), "error", err)
		return fmt.Errorf("failed to create delegation: %w", err)
	}

	if err := d.SetID(model.ID); err != nil {
		return fmt.Errorf("failed to set delegation ID: %w", err)
	}

	r.logger.Infow("delegation created",
		"id", model.ID, "delegator_id", model.DelegatorID,
		"delegatee_id", model.DelegateeID, "permission", model.Permission)
	return nil
}

// Update persists activation state changes
func (r *DelegationRepositoryImpl) Update(ctx context.Context, d *rbac.Delegation) error {
	if d.ID() == 0 {
		return errors.NewValidationError("delegation ID cannot be zero")
	}

	result := r.db.WithContext(ctx).Model(&models.DelegationModel{}).
		Where("id = ?", d.ID()).
		Update("active", d.IsActive())
	if result.Error != nil {
		r.logger.Errorw("failed to update delegation", "id", d.ID(), "error", result.Error)
		return fmt.Errorf("failed to update delegation: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.NewNotFoundError("delegation not found")
	}

	r.logger.Infow("delegation updated", "id", d.ID(), "active", d.IsActive())
	return nil
}

// GetByID retrieves a delegation by ID
func (r *DelegationRepositoryImpl) GetByID(ctx context.Context, id uint) (*rbac.Delegation, error) {
	var model models.DelegationModel
	if err := r.db.WithContext(ctx).First(&model, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NewNotFoundError("delegation not found")
		}
		r.logger.Errorw("failed to get delegation", "id", id, "error", err)
		return nil, fmt.Errorf("failed to get delegation: %w", err)
	}
	return fromDelegationModel(&model)
}

// Find returns the delegation for a delegatee and permission key
func (r *DelegationRepositoryImpl) Find(ctx context.Context, delegateeID uint, permission string) (*rbac.Delegation, error) {
	var model models.DelegationModel
	err := r.db.WithContext(ctx).
		Where("delegatee_id = ? AND permission = ?", delegateeID, permission).
		First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NewNotFoundError("delegation not found")
		}
		r.logger.Errorw("failed to find delegation",
			"delegatee_id", delegateeID, "permission", permission, "error", err)
		return nil, fmt.Errorf("failed to find delegation: %w", err)
	}
	return fromDelegationModel(&model)
}

// ActiveForUser returns all active delegations granted to a user
func (r *DelegationRepositoryImpl) ActiveForUser(ctx context.Context, delegateeID uint) ([]*rbac.Delegation, error) {
	var rows []models.DelegationModel
	if err := r.db.WithContext(ctx).
		Where("delegatee_id = ? AND active = ?", delegateeID, true).
		Find(&rows).Error; err != nil {
		r.logger.Errorw("failed to list active delegations", "delegatee_id", delegateeID, "error", err)
		return nil, fmt.Errorf("failed to list active delegations: %w", err)
	}
	return fromDelegationModels(rows)
}

// ListByDelegator returns all delegations a user has granted
func (r *DelegationRepositoryImpl) ListByDelegator(ctx context.Context, delegatorID uint) ([]*rbac.Delegation, error) {
	var rows []models.DelegationModel
	if err := r.db.WithContext(ctx).
		Where("delegator_id = ?", delegatorID).
		Order("id").
		Find(&rows).Error; err != nil {
		r.logger.Errorw("failed to list delegations", "delegator_id", delegatorID, "error", err)
		return nil, fmt.Errorf("failed to list delegations: %w", err)
	}
	return fromDelegationModels(rows)
}

func toDelegationModel(d *rbac.Delegation) *models.DelegationModel {
	return &models.DelegationModel{
		ID:          d.ID(),
		DelegatorID: d.DelegatorID(),
		DelegateeID: d.DelegateeID(),
		Permission:  d.Permission(),
		Active:      d.IsActive(),
		CreatedAt:   d.CreatedAt(),
		UpdatedAt:   d.UpdatedAt(),
	}
}

func fromDelegationModel(model *models.DelegationModel) (*rbac.Delegation, error) {
	d, err := rbac.ReconstructDelegation(
		model.ID,
		model.DelegatorID,
		model.DelegateeID,
		model.Permission,
		model.Active,
		model.CreatedAt,
		model.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct delegation: %w", err)
	}
	return d, nil
}

func fromDelegationModels(rows []models.DelegationModel) ([]*rbac.Delegation, error) {
	result := make([]*rbac.Delegation, 0, len(rows))
	for i := range rows {
		d, err := fromDelegationModel(&rows[i])
		if err != nil {
			return nil, err
		}
		result = append(result, d)
	}
	return result, nil
}
