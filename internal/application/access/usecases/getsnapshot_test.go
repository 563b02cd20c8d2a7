package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appaccess "github.com/veyra-hq/veyra/internal/application/access"
	"github.com/veyra-hq/veyra/internal/application/access/dto"
	"github.com/veyra-hq/veyra/internal/domain/access"
	"github.com/veyra-hq/veyra/internal/domain/entitlement"
	"github.com/veyra-hq/veyra/internal/domain/rbac"
	"github.com/veyra-hq/veyra/internal/shared/catalog"
	"github.com/veyra-hq/veyra/internal/shared/logger"
)

type stubEntitlementRepo struct {
	rows map[string]*entitlement.ModuleEntitlement
}

func (s *stubEntitlementRepo) key(orgID uint, moduleKey, submoduleKey string) string {
	return fmt.Sprintf("%d/%s/%s", orgID, moduleKey, submoduleKey)
}

func (s *stubEntitlementRepo) Create(_ context.Context, e *entitlement.ModuleEntitlement) error {
	s.rows[s.key(e.OrgID(), e.ModuleKey(), e.SubmoduleKey())] = e
	return nil
}

func (s *stubEntitlementRepo) Update(context.Context, *entitlement.ModuleEntitlement) error {
	return nil
}

func (s *stubEntitlementRepo) GetModule(_ context.Context, orgID uint, moduleKey string) (*entitlement.ModuleEntitlement, error) {
	row, ok := s.rows[s.key(orgID, moduleKey, "")]
	if !ok {
		return nil, entitlement.ErrEntitlementNotFound
	}
	return row, nil
}

func (s *stubEntitlementRepo) GetSubmodule(_ context.Context, orgID uint, moduleKey, submoduleKey string) (*entitlement.ModuleEntitlement, error) {
	row, ok := s.rows[s.key(orgID, moduleKey, submoduleKey)]
	if !ok {
		return nil, entitlement.ErrEntitlementNotFound
	}
	return row, nil
}

func (s *stubEntitlementRepo) ListByOrg(_ context.Context, orgID uint) ([]*entitlement.ModuleEntitlement, error) {
	var result []*entitlement.ModuleEntitlement
	for _, row := range s.rows {
		if row.OrgID() == orgID {
			result = append(result, row)
		}
	}
	return result, nil
}

func (s *stubEntitlementRepo) BatchCreate(ctx context.Context, rows []*entitlement.ModuleEntitlement) error {
	for _, row := range rows {
		if err := s.Create(ctx, row); err != nil {
			return err
		}
	}
	return nil
}

func (s *stubEntitlementRepo) ListExpiredTrials(context.Context, time.Time) ([]*entitlement.ModuleEntitlement, error) {
	return nil, nil
}

type stubEnforcer struct {
	grants map[rbac.Role][]string
}

func (s *stubEnforcer) HasGrant(_ context.Context, role rbac.Role, key string) (bool, error) {
	for _, g := range s.grants[role] {
		if g == key {
			return true, nil
		}
	}
	return false, nil
}

func (s *stubEnforcer) GrantsForRole(_ context.Context, role rbac.Role) ([]string, error) {
	return s.grants[role], nil
}

func (s *stubEnforcer) SetGrants(context.Context, rbac.Role, []string) error { return nil }
func (s *stubEnforcer) AddGrant(context.Context, rbac.Role, string) error    { return nil }
func (s *stubEnforcer) RemoveGrant(context.Context, rbac.Role, string) error { return nil }

type stubDelegations struct{}

func (stubDelegations) Create(context.Context, *rbac.Delegation) error { return nil }
func (stubDelegations) Update(context.Context, *rbac.Delegation) error { return nil }
func (stubDelegations) GetByID(context.Context, uint) (*rbac.Delegation, error) {
	return nil, fmt.Errorf("not found")
}
func (stubDelegations) Find(context.Context, uint, string) (*rbac.Delegation, error) {
	return nil, fmt.Errorf("not found")
}
func (stubDelegations) ActiveForUser(context.Context, uint) ([]*rbac.Delegation, error) {
	return nil, nil
}
func (stubDelegations) ListByDelegator(context.Context, uint) ([]*rbac.Delegation, error) {
	return nil, nil
}

type memSnapshotCache struct {
	entries map[string]*dto.SnapshotResponse
	hits    int
}

func newMemSnapshotCache() *memSnapshotCache {
	return &memSnapshotCache{entries: make(map[string]*dto.SnapshotResponse)}
}

func (c *memSnapshotCache) Get(_ context.Context, userID, orgID uint) (*dto.SnapshotResponse, error) {
	snap, ok := c.entries[fmt.Sprintf("%d/%d", userID, orgID)]
	if !ok {
		return nil, nil
	}
	c.hits++
	return snap, nil
}

func (c *memSnapshotCache) Set(_ context.Context, snap *dto.SnapshotResponse) error {
	c.entries[fmt.Sprintf("%d/%d", snap.UserID, snap.OrgID)] = snap
	return nil
}

func (c *memSnapshotCache) DeleteByOrg(_ context.Context, orgID uint) error {
	for key, snap := range c.entries {
		if snap.OrgID == orgID {
			delete(c.entries, key)
		}
	}
	return nil
}

func testLogger() logger.Interface {
	return logger.NewLoggerWithSlog(slog.New(slog.DiscardHandler))
}

func newSnapshotUseCase(t *testing.T, cache *memSnapshotCache) *GetSnapshotUseCase {
	t.Helper()
	repo := &stubEntitlementRepo{rows: make(map[string]*entitlement.ModuleEntitlement)}
	row, err := entitlement.NewModuleEntitlement(3, "crm", entitlement.StatusEnabled, nil)
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), row))

	evaluator := entitlement.NewEvaluator(catalog.Default(), repo, testLogger())
	enforcer := &stubEnforcer{grants: map[rbac.Role][]string{
		rbac.RoleManagement: {"crm.read", "crm.write"},
	}}
	store := rbac.NewStore(enforcer, stubDelegations{}, testLogger())

	var snapshotCache appaccess.SnapshotCache
	if cache != nil {
		snapshotCache = cache
	}
	return NewGetSnapshotUseCase(evaluator, store, snapshotCache, testLogger())
}

func TestGetSnapshot_BuildsFromStores(t *testing.T) {
	uc := newSnapshotUseCase(t, nil)
	orgID := uint(3)

	snap, err := uc.Execute(context.Background(), access.Session{
		UserID: 5, Role: rbac.RoleManagement, OrgID: &orgID,
	})
	require.NoError(t, err)

	assert.Equal(t, uint(5), snap.UserID)
	assert.Equal(t, uint(3), snap.OrgID)
	assert.Equal(t, "enabled", snap.Entitlements["crm"].Status)
	assert.Equal(t, "disabled", snap.Entitlements["hr"].Status, "missing rows report disabled")
	assert.Equal(t, "enabled", snap.Entitlements["dashboard"].Status, "always-on reports enabled")
	assert.ElementsMatch(t, []string{"crm.read", "crm.write"}, snap.Permissions)
}

func TestGetSnapshot_UsesCache(t *testing.T) {
	cache := newMemSnapshotCache()
	uc := newSnapshotUseCase(t, cache)
	orgID := uint(3)
	session := access.Session{UserID: 5, Role: rbac.RoleManagement, OrgID: &orgID}

	first, err := uc.Execute(context.Background(), session)
	require.NoError(t, err)

	second, err := uc.Execute(context.Background(), session)
	require.NoError(t, err)

	assert.Equal(t, 1, cache.hits)
	assert.Equal(t, first.FetchedAt, second.FetchedAt, "second call served from cache")
}

func TestGetSnapshot_RequiresOrgContext(t *testing.T) {
	uc := newSnapshotUseCase(t, nil)

	_, err := uc.Execute(context.Background(), access.Session{UserID: 5, Role: rbac.RoleManagement})
	assert.Error(t, err)
}

func TestGetSnapshot_SuperAdminMarksBypass(t *testing.T) {
	uc := newSnapshotUseCase(t, nil)

	snap, err := uc.Execute(context.Background(), access.Session{
		UserID: 1, Role: rbac.RoleSuperAdmin, SuperAdmin: true,
	})
	require.NoError(t, err)
	assert.True(t, snap.SuperAdmin)
	assert.Empty(t, snap.Entitlements)
}

func TestIntrospect_ReturnsOwnPermissions(t *testing.T) {
	enforcer := &stubEnforcer{grants: map[rbac.Role][]string{
		rbac.RoleExecutive: {"crm.read"},
	}}
	store := rbac.NewStore(enforcer, stubDelegations{}, testLogger())
	uc := NewIntrospectUseCase(store, testLogger())
	orgID := uint(3)

	me, err := uc.Execute(context.Background(), access.Session{
		UserID: 8, Role: rbac.RoleExecutive, OrgID: &orgID,
	})
	require.NoError(t, err)
	assert.Equal(t, uint(8), me.UserID)
	assert.Equal(t, []string{"crm.read"}, me.Permissions)
}
