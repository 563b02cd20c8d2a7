package entitlement

import (
	"context"
	"time"
)

// Repository defines the persistence contract for entitlement rows.
type Repository interface {
	// Create creates a new entitlement row.
	Create(ctx context.Context, e *ModuleEntitlement) error

	// Update updates an existing entitlement row.
	Update(ctx context.Context, e *ModuleEntitlement) error

	// GetModule retrieves the module-level row for (org, module).
	// Returns ErrEntitlementNotFound when no row exists.
	GetModule(ctx context.Context, orgID uint, moduleKey string) (*ModuleEntitlement, error)

	// GetSubmodule retrieves the submodule-level row for (org, module, sub).
	// Returns ErrEntitlementNotFound when no row exists.
	GetSubmodule(ctx context.Context, orgID uint, moduleKey, submoduleKey string) (*ModuleEntitlement, error)

	// ListByOrg returns all entitlement rows for an organization.
	ListByOrg(ctx context.Context, orgID uint) ([]*ModuleEntitlement, error)

	// BatchCreate creates multiple rows in a single transaction. Used by
	// organization provisioning.
	BatchCreate(ctx context.Context, rows []*ModuleEntitlement) error

	// ListExpiredTrials returns trial rows whose expiry has passed but whose
	// stored status is still trial. Consumed by the reconciliation sweep.
	ListExpiredTrials(ctx context.Context, now time.Time) ([]*ModuleEntitlement, error)
}

// EventPublisher broadcasts entitlement status changes for asynchronous
// reconciliation and client snapshot invalidation. Publishing must never
// block or fail the triggering write.
type EventPublisher interface {
	PublishModuleStatusChanged(ctx context.Context, event ModuleStatusChanged) error
}
