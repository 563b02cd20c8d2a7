package permission

import (
	"context"
	"fmt"
	"sync"

	"github.com/casbin/casbin/v2"
	casbinmodel "github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"gorm.io/gorm"

	"github.com/veyra-hq/veyra/internal/domain/rbac"
	"github.com/veyra-hq/veyra/internal/shared/logger"
)

var _ rbac.Enforcer = (*Enforcer)(nil)

// Policy rows are (role, permission key) pairs; the permission key already
// encodes module, optional submodule and action.
const modelText = `
[request_definition]
r = sub, perm

[policy_definition]
p = sub, perm

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && r.perm == p.perm
`

// Enforcer stores role permission grants in casbin backed by the database.
type Enforcer struct {
	enforcer *casbin.Enforcer
	mu       sync.RWMutex
	logger   logger.Interface
}

// NewEnforcer creates a database-backed enforcer and loads the policy.
func NewEnforcer(db *gorm.DB, log logger.Interface) (*Enforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin adapter: %w", err)
	}

	m, err := casbinmodel.NewModelFromString(modelText)
	if err != nil {
		return nil, fmt.Errorf("failed to parse casbin model: %w", err)
	}

	enforcer, err := casbin.NewEnforcer(m, adapter)
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin enforcer: %w", err)
	}

	if err := enforcer.LoadPolicy(); err != nil {
		return nil, fmt.Errorf("failed to load policy: %w", err)
	}

	return &Enforcer{
		enforcer: enforcer,
		logger:   log,
	}, nil
}

// HasGrant reports whether the role holds the permission key.
func (e *Enforcer) HasGrant(_ context.Context, role rbac.Role, permissionKey string) (bool, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	allowed, err := e.enforcer.Enforce(string(role), permissionKey)
	if err != nil {
		e.logger.Errorw("grant check failed", "error", err, "role", role, "permission", permissionKey)
		return false, fmt.Errorf("grant check failed: %w", err)
	}
	return allowed, nil
}

// GrantsForRole returns all permission keys the role holds.
func (e *Enforcer) GrantsForRole(_ context.Context, role rbac.Role) ([]string, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	policies, err := e.enforcer.GetFilteredPolicy(0, string(role))
	if err != nil {
		e.logger.Errorw("failed to load role policies", "error", err, "role", role)
		return nil, fmt.Errorf("failed to load role policies: %w", err)
	}

	keys := make([]string, 0, len(policies))
	for _, p := range policies {
		if len(p) >= 2 {
			keys = append(keys, p[1])
		}
	}
	return keys, nil
}

// SetGrants replaces the role's grants with the given permission keys.
func (e *Enforcer) SetGrants(_ context.Context, role rbac.Role, permissionKeys []string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.enforcer.RemoveFilteredPolicy(0, string(role)); err != nil {
		e.logger.Errorw("failed to clear role policies", "error", err, "role", role)
		return fmt.Errorf("failed to clear role policies: %w", err)
	}

	if len(permissionKeys) > 0 {
		rules := make([][]string, 0, len(permissionKeys))
		for _, key := range permissionKeys {
			rules = append(rules, []string{string(role), key})
		}
		if _, err := e.enforcer.AddPolicies(rules); err != nil {
			e.logger.Errorw("failed to add role policies", "error", err, "role", role)
			return fmt.Errorf("failed to add role policies: %w", err)
		}
	}

	if err := e.enforcer.SavePolicy(); err != nil {
		return fmt.Errorf("failed to save policy: %w", err)
	}

	e.logger.Infow("role grants replaced", "role", role, "grants", len(permissionKeys))
	return nil
}

// AddGrant adds a single permission key to the role.
func (e *Enforcer) AddGrant(_ context.Context, role rbac.Role, permissionKey string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.enforcer.AddPolicy(string(role), permissionKey); err != nil {
		e.logger.Errorw("failed to add policy", "error", err, "role", role, "permission", permissionKey)
		return fmt.Errorf("failed to add policy: %w", err)
	}
	return e.enforcer.SavePolicy()
}

// RemoveGrant removes a single permission key from the role.
func (e *Enforcer) RemoveGrant(_ context.Context, role rbac.Role, permissionKey string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.enforcer.RemovePolicy(string(role), permissionKey); err != nil {
		e.logger.Errorw("failed to remove policy", "error", err, "role", role, "permission", permissionKey)
		return fmt.Errorf("failed to remove policy: %w", err)
	}
	return e.enforcer.SavePolicy()
}
