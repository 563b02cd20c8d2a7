package user

import "context"

// Repository defines the persistence contract for users.
type Repository interface {
	Create(ctx context.Context, u *User) error
	Update(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uint) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	ListByOrg(ctx context.Context, orgID uint) ([]*User, error)
}
