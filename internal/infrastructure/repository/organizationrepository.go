package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/veyra-hq/veyra/internal/domain/organization"
	"github.com/veyra-hq/veyra/internal/infrastructure/persistence/models"
	"github.com/veyra-hq/veyra/internal/shared/errors"
	"github.com/veyra-hq/veyra/internal/shared/logger"
)

// OrganizationRepositoryImpl implements the organization.Repository interface
type OrganizationRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

// NewOrganizationRepository creates a new organization repository instance
func NewOrganizationRepository(db *gorm.DB, logger logger.Interface) organization.Repository {
	return &OrganizationRepositoryImpl{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new organization
func (r *OrganizationRepositoryImpl) Create(ctx context.Context, org *organization.Organization) error {
	model := &models.OrganizationModel{
		Name:      org.Name(),
		Tier:      org.Tier(),
		Active:    org.IsActive(),
		CreatedAt: org.CreatedAt(),
		UpdatedAt: org.UpdatedAt(),
	}

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		r.logger.Errorw("failed to create organization", "name", org.Name(), "error", err)
		return fmt.Errorf("failed to create organization: %w", err)
	}

	if err := org.SetID(model.ID); err != nil {
		return fmt.Errorf("failed to set organization ID: %w", err)
	}

	r.logger.Infow("organization created", "id", model.ID, "name", model.Name, "tier", model.Tier)
	return nil
}

// Update persists tier and activation changes
func (r *OrganizationRepositoryImpl) Update(ctx context.Context, org *organization.Organization) error {
	if org.ID() == 0 {
		return errors.NewValidationError("organization ID cannot be zero")
	}

	result := r.db.WithContext(ctx).Model(&models.OrganizationModel{}).
		Where("id = ?", org.ID()).
		Updates(map[string]interface{}{
			"name":   org.Name(),
			"tier":   org.Tier(),
			"active": org.IsActive(),
		})
	if result.Error != nil {
		r.logger.Errorw("failed to update organization", "id", org.ID(), "error", result.Error)
		return fmt.Errorf("failed to update organization: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.NewNotFoundError("organization not found")
	}
	return nil
}

// GetByID retrieves an organization by ID
func (r *OrganizationRepositoryImpl) GetByID(ctx context.Context, id uint) (*organization.Organization, error) {
	var model models.OrganizationModel
	if err := r.db.WithContext(ctx).First(&model, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NewNotFoundError("organization not found")
		}
		r.logger.Errorw("failed to get organization", "id", id, "error", err)
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}
	return organization.ReconstructOrganization(
		model.ID, model.Name, model.Tier, model.Active, model.CreatedAt, model.UpdatedAt)
}

// List returns all organizations
func (r *OrganizationRepositoryImpl) List(ctx context.Context) ([]*organization.Organization, error) {
	var rows []models.OrganizationModel
	if err := r.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		r.logger.Errorw("failed to list organizations", "error", err)
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}

	result := make([]*organization.Organization, 0, len(rows))
	for i := range rows {
		org, err := organization.ReconstructOrganization(
			rows[i].ID, rows[i].Name, rows[i].Tier, rows[i].Active, rows[i].CreatedAt, rows[i].UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to reconstruct organization: %w", err)
		}
		result = append(result, org)
	}
	return result, nil
}
