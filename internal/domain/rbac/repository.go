package rbac

import "context"

// Enforcer is the backend that stores and evaluates role permission grants.
// The production implementation is casbin-backed; tests use an in-memory one.
type Enforcer interface {
	// HasGrant reports whether the role holds the given permission key.
	HasGrant(ctx context.Context, role Role, permissionKey string) (bool, error)

	// GrantsForRole returns all permission keys the role holds.
	GrantsForRole(ctx context.Context, role Role) ([]string, error)

	// SetGrants replaces the role's grants with the given permission keys.
	SetGrants(ctx context.Context, role Role, permissionKeys []string) error

	// AddGrant adds a single permission key to the role.
	AddGrant(ctx context.Context, role Role, permissionKey string) error

	// RemoveGrant removes a single permission key from the role.
	RemoveGrant(ctx context.Context, role Role, permissionKey string) error
}

// DelegationRepository persists per-user permission delegations.
type DelegationRepository interface {
	Create(ctx context.Context, d *Delegation) error
	Update(ctx context.Context, d *Delegation) error
	GetByID(ctx context.Context, id uint) (*Delegation, error)

	// Find returns the delegation for a delegatee and permission key, active
	// or not, or a not-found error.
	Find(ctx context.Context, delegateeID uint, permission string) (*Delegation, error)

	// ActiveForUser returns all active delegations granted to a user.
	ActiveForUser(ctx context.Context, delegateeID uint) ([]*Delegation, error)

	// ListByDelegator returns all delegations a user has granted.
	ListByDelegator(ctx context.Context, delegatorID uint) ([]*Delegation, error)
}
