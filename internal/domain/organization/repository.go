package organization

import "context"

// Repository defines the persistence contract for organizations.
type Repository interface {
	Create(ctx context.Context, org *Organization) error
	Update(ctx context.Context, org *Organization) error
	GetByID(ctx context.Context, id uint) (*Organization, error)
	List(ctx context.Context) ([]*Organization, error)
}
