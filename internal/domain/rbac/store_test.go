package rbac

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veyra-hq/veyra/internal/shared/logger"
)

// =====================================================================
// In-memory fakes
// =====================================================================

type memEnforcer struct {
	grants map[Role]map[string]bool
	err    error
}

func newMemEnforcer() *memEnforcer {
	return &memEnforcer{grants: make(map[Role]map[string]bool)}
}

func (m *memEnforcer) grant(role Role, keys ...string) {
	if m.grants[role] == nil {
		m.grants[role] = make(map[string]bool)
	}
	for _, k := range keys {
		m.grants[role][k] = true
	}
}

func (m *memEnforcer) HasGrant(_ context.Context, role Role, key string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	return m.grants[role][key], nil
}

func (m *memEnforcer) GrantsForRole(_ context.Context, role Role) ([]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	var keys []string
	for k := range m.grants[role] {
		keys = append(keys, k)
	}
	return keys, nil
}

func (m *memEnforcer) SetGrants(_ context.Context, role Role, keys []string) error {
	m.grants[role] = make(map[string]bool, len(keys))
	for _, k := range keys {
		m.grants[role][k] = true
	}
	return nil
}

func (m *memEnforcer) AddGrant(_ context.Context, role Role, key string) error {
	m.grant(role, key)
	return nil
}

func (m *memEnforcer) RemoveGrant(_ context.Context, role Role, key string) error {
	delete(m.grants[role], key)
	return nil
}

type memDelegations struct {
	active map[uint][]*Delegation
	err    error
}

func (m *memDelegations) Create(_ context.Context, _ *Delegation) error { return nil }
func (m *memDelegations) Update(_ context.Context, _ *Delegation) error { return nil }
func (m *memDelegations) GetByID(_ context.Context, _ uint) (*Delegation, error) {
	return nil, errors.New("not implemented")
}
func (m *memDelegations) Find(_ context.Context, _ uint, _ string) (*Delegation, error) {
	return nil, errors.New("not implemented")
}
func (m *memDelegations) ListByDelegator(_ context.Context, _ uint) ([]*Delegation, error) {
	return nil, nil
}

func (m *memDelegations) ActiveForUser(_ context.Context, delegateeID uint) ([]*Delegation, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.active[delegateeID], nil
}

func testLogger() logger.Interface {
	return logger.NewLoggerWithSlog(slog.New(slog.DiscardHandler))
}

func mustDelegation(t *testing.T, id, from, to uint, perm string) *Delegation {
	t.Helper()
	d, err := NewDelegation(from, to, perm)
	require.NoError(t, err)
	require.NoError(t, d.SetID(id))
	return d
}

// =====================================================================
// Tests
// =====================================================================

func TestStore_SuperAdminAlwaysPasses(t *testing.T) {
	store := NewStore(newMemEnforcer(), &memDelegations{}, testLogger())

	ok, err := store.HasPermission(context.Background(), 1, RoleSuperAdmin, true, "crm", "", ActionDelete)
	require.NoError(t, err)
	assert.True(t, ok, "super-admin bypasses all grant lookups")
}

func TestStore_RoleGrant(t *testing.T) {
	enforcer := newMemEnforcer()
	enforcer.grant(RoleManagement, "crm.read", "crm.write")
	store := NewStore(enforcer, &memDelegations{}, testLogger())

	ctx := context.Background()

	ok, err := store.HasPermission(ctx, 5, RoleManagement, false, "crm", "", ActionRead)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.HasPermission(ctx, 5, RoleManagement, false, "crm", "", ActionDelete)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = store.HasPermission(ctx, 5, RoleExecutive, false, "crm", "", ActionRead)
	require.NoError(t, err)
	assert.False(t, ok, "grants do not leak across roles")
}

func TestStore_ModuleWideGrantCoversSubmodule(t *testing.T) {
	enforcer := newMemEnforcer()
	enforcer.grant(RoleManagement, "crm.read")
	store := NewStore(enforcer, &memDelegations{}, testLogger())

	ok, err := store.HasPermission(context.Background(), 5, RoleManagement, false, "crm", "leads", ActionRead)
	require.NoError(t, err)
	assert.True(t, ok, "module-wide grant covers submodule request")
}

func TestStore_DelegationAddsBeyondRole(t *testing.T) {
	enforcer := newMemEnforcer()
	delegations := &memDelegations{active: map[uint][]*Delegation{
		7: {mustDelegation(t, 1, 2, 7, "finance.invoices.write")},
	}}
	store := NewStore(enforcer, delegations, testLogger())

	ctx := context.Background()

	ok, err := store.HasPermission(ctx, 7, RoleExecutive, false, "finance", "invoices", ActionWrite)
	require.NoError(t, err)
	assert.True(t, ok, "active delegation grants beyond the role baseline")

	ok, err = store.HasPermission(ctx, 8, RoleExecutive, false, "finance", "invoices", ActionWrite)
	require.NoError(t, err)
	assert.False(t, ok, "delegation is scoped to the delegatee")
}

func TestStore_RevokedDelegationDoesNotGrant(t *testing.T) {
	d := mustDelegation(t, 1, 2, 7, "finance.invoices.write")
	d.Revoke()

	// Revoked delegations are filtered by the repository in production; the
	// fake mirrors that contract by returning only the active set.
	delegations := &memDelegations{active: map[uint][]*Delegation{}}
	store := NewStore(newMemEnforcer(), delegations, testLogger())

	ok, err := store.HasPermission(context.Background(), 7, RoleExecutive, false, "finance", "invoices", ActionWrite)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, d.IsActive())
}

func TestStore_DelegationNeverRevokes(t *testing.T) {
	// A delegation row cannot subtract: the role grant alone must keep passing
	// no matter what delegations exist for the user.
	enforcer := newMemEnforcer()
	enforcer.grant(RoleManagement, "crm.read")
	delegations := &memDelegations{active: map[uint][]*Delegation{
		5: {mustDelegation(t, 1, 2, 5, "inventory.read")},
	}}
	store := NewStore(enforcer, delegations, testLogger())

	ok, err := store.HasPermission(context.Background(), 5, RoleManagement, false, "crm", "", ActionRead)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestStore_EnforcerFailurePropagates(t *testing.T) {
	enforcer := newMemEnforcer()
	enforcer.err = errors.New("store unavailable")
	store := NewStore(enforcer, &memDelegations{}, testLogger())

	ok, err := store.HasPermission(context.Background(), 5, RoleManagement, false, "crm", "", ActionRead)
	assert.Error(t, err)
	assert.False(t, ok, "errors never resolve as allowed")
}

func TestStore_EffectivePermissions(t *testing.T) {
	enforcer := newMemEnforcer()
	enforcer.grant(RoleManagement, "crm.read", "crm.write")
	delegations := &memDelegations{active: map[uint][]*Delegation{
		5: {
			mustDelegation(t, 1, 2, 5, "finance.read"),
			mustDelegation(t, 2, 2, 5, "crm.read"), // duplicate of role grant
		},
	}}
	store := NewStore(enforcer, delegations, testLogger())

	keys, err := store.EffectivePermissions(context.Background(), 5, RoleManagement)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"crm.read", "crm.write", "finance.read"}, keys)
}

func TestDelegation_SelfDelegationRejected(t *testing.T) {
	_, err := NewDelegation(3, 3, "crm.read")
	assert.Error(t, err)
}

func TestDelegation_RevokeIsIdempotent(t *testing.T) {
	d := mustDelegation(t, 1, 2, 3, "crm.read")
	d.Revoke()
	d.Revoke()
	assert.False(t, d.IsActive())

	d.Reactivate()
	assert.True(t, d.IsActive())
}
