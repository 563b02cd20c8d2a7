package rbac

import (
	"context"
	"fmt"

	"github.com/veyra-hq/veyra/internal/shared/logger"
)

// Store resolves effective permissions: role grants from the enforcer plus
// active per-user delegations. Delegations can only add to the role's base
// grant, never revoke from it.
type Store struct {
	enforcer    Enforcer
	delegations DelegationRepository
	logger      logger.Interface
}

// NewStore creates a permission store.
func NewStore(enforcer Enforcer, delegations DelegationRepository, log logger.Interface) *Store {
	return &Store{
		enforcer:    enforcer,
		delegations: delegations,
		logger:      log,
	}
}

// HasPermission reports whether the user holds the permission, either through
// their role or through an active delegation. Super-admins always pass.
func (s *Store) HasPermission(ctx context.Context, userID uint, role Role, superAdmin bool, moduleKey, submoduleKey string, action Action) (bool, error) {
	if superAdmin {
		return true, nil
	}

	key := PermissionKey(moduleKey, submoduleKey, action)

	granted, err := s.enforcer.HasGrant(ctx, role, key)
	if err != nil {
		return false, fmt.Errorf("failed to check role grant: %w", err)
	}
	if granted {
		return true, nil
	}

	// Submodule-level requests also pass on a module-wide grant.
	if submoduleKey != "" {
		moduleWide, err := s.enforcer.HasGrant(ctx, role, PermissionKey(moduleKey, "", action))
		if err != nil {
			return false, fmt.Errorf("failed to check role grant: %w", err)
		}
		if moduleWide {
			return true, nil
		}
	}

	return s.hasDelegation(ctx, userID, moduleKey, submoduleKey, action)
}

func (s *Store) hasDelegation(ctx context.Context, userID uint, moduleKey, submoduleKey string, action Action) (bool, error) {
	active, err := s.delegations.ActiveForUser(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("failed to load delegations: %w", err)
	}

	key := PermissionKey(moduleKey, submoduleKey, action)
	moduleWide := PermissionKey(moduleKey, "", action)
	for _, d := range active {
		if d.Permission() == key {
			return true, nil
		}
		if submoduleKey != "" && d.Permission() == moduleWide {
			return true, nil
		}
	}
	return false, nil
}

// EffectivePermissions returns every permission key the user currently holds,
// role grants and active delegations combined. Used to build client
// snapshots and the self-introspection view.
func (s *Store) EffectivePermissions(ctx context.Context, userID uint, role Role) ([]string, error) {
	grants, err := s.enforcer.GrantsForRole(ctx, role)
	if err != nil {
		return nil, fmt.Errorf("failed to load role grants: %w", err)
	}

	seen := make(map[string]struct{}, len(grants))
	keys := make([]string, 0, len(grants))
	for _, key := range grants {
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}

	active, err := s.delegations.ActiveForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load delegations: %w", err)
	}
	for _, d := range active {
		if _, dup := seen[d.Permission()]; dup {
			continue
		}
		seen[d.Permission()] = struct{}{}
		keys = append(keys, d.Permission())
	}

	return keys, nil
}
