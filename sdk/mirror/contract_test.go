package mirror

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veyra-hq/veyra/internal/domain/access"
	"github.com/veyra-hq/veyra/internal/domain/entitlement"
	"github.com/veyra-hq/veyra/internal/domain/rbac"
	"github.com/veyra-hq/veyra/internal/shared/catalog"
	"github.com/veyra-hq/veyra/internal/shared/logger"
)

// The contract between the server resolver and the client mirror: evaluated
// over the same entitlements, grants and delegations, both must produce the
// same verdict for every request. One fixture set is replayed through both.

type contractEntitlementRepo struct {
	rows map[string]*entitlement.ModuleEntitlement
}

func newContractEntitlementRepo() *contractEntitlementRepo {
	return &contractEntitlementRepo{rows: make(map[string]*entitlement.ModuleEntitlement)}
}

func entKey(orgID uint, moduleKey, submoduleKey string) string {
	return fmt.Sprintf("%d/%s/%s", orgID, moduleKey, submoduleKey)
}

func (r *contractEntitlementRepo) put(e *entitlement.ModuleEntitlement) {
	r.rows[entKey(e.OrgID(), e.ModuleKey(), e.SubmoduleKey())] = e
}

func (r *contractEntitlementRepo) Create(_ context.Context, e *entitlement.ModuleEntitlement) error {
	r.put(e)
	return nil
}

func (r *contractEntitlementRepo) Update(_ context.Context, e *entitlement.ModuleEntitlement) error {
	r.put(e)
	return nil
}

func (r *contractEntitlementRepo) GetModule(_ context.Context, orgID uint, moduleKey string) (*entitlement.ModuleEntitlement, error) {
	row, ok := r.rows[entKey(orgID, moduleKey, "")]
	if !ok {
		return nil, entitlement.ErrEntitlementNotFound
	}
	return row, nil
}

func (r *contractEntitlementRepo) GetSubmodule(_ context.Context, orgID uint, moduleKey, submoduleKey string) (*entitlement.ModuleEntitlement, error) {
	row, ok := r.rows[entKey(orgID, moduleKey, submoduleKey)]
	if !ok {
		return nil, entitlement.ErrEntitlementNotFound
	}
	return row, nil
}

func (r *contractEntitlementRepo) ListByOrg(_ context.Context, orgID uint) ([]*entitlement.ModuleEntitlement, error) {
	var result []*entitlement.ModuleEntitlement
	for _, row := range r.rows {
		if row.OrgID() == orgID {
			result = append(result, row)
		}
	}
	return result, nil
}

func (r *contractEntitlementRepo) BatchCreate(_ context.Context, rows []*entitlement.ModuleEntitlement) error {
	for _, row := range rows {
		r.put(row)
	}
	return nil
}

func (r *contractEntitlementRepo) ListExpiredTrials(_ context.Context, _ time.Time) ([]*entitlement.ModuleEntitlement, error) {
	return nil, nil
}

type contractEnforcer struct {
	grants map[rbac.Role]map[string]bool
}

func (e *contractEnforcer) HasGrant(_ context.Context, role rbac.Role, key string) (bool, error) {
	return e.grants[role][key], nil
}

func (e *contractEnforcer) GrantsForRole(_ context.Context, role rbac.Role) ([]string, error) {
	var keys []string
	for key := range e.grants[role] {
		keys = append(keys, key)
	}
	return keys, nil
}

func (e *contractEnforcer) SetGrants(_ context.Context, role rbac.Role, keys []string) error {
	set := make(map[string]bool, len(keys))
	for _, key := range keys {
		set[key] = true
	}
	e.grants[role] = set
	return nil
}

func (e *contractEnforcer) AddGrant(_ context.Context, role rbac.Role, key string) error {
	if e.grants[role] == nil {
		e.grants[role] = make(map[string]bool)
	}
	e.grants[role][key] = true
	return nil
}

func (e *contractEnforcer) RemoveGrant(_ context.Context, role rbac.Role, key string) error {
	delete(e.grants[role], key)
	return nil
}

type contractDelegations struct {
	active []*rbac.Delegation
}

func (d *contractDelegations) Create(_ context.Context, del *rbac.Delegation) error {
	d.active = append(d.active, del)
	return nil
}

func (d *contractDelegations) Update(context.Context, *rbac.Delegation) error { return nil }

func (d *contractDelegations) GetByID(context.Context, uint) (*rbac.Delegation, error) {
	return nil, fmt.Errorf("not found")
}

func (d *contractDelegations) Find(context.Context, uint, string) (*rbac.Delegation, error) {
	return nil, fmt.Errorf("not found")
}

func (d *contractDelegations) ActiveForUser(_ context.Context, delegateeID uint) ([]*rbac.Delegation, error) {
	var result []*rbac.Delegation
	for _, del := range d.active {
		if del.DelegateeID() == delegateeID && del.IsActive() {
			result = append(result, del)
		}
	}
	return result, nil
}

func (d *contractDelegations) ListByDelegator(context.Context, uint) ([]*rbac.Delegation, error) {
	return d.active, nil
}

func TestContract_ResolverAndMirrorAgree(t *testing.T) {
	ctx := context.Background()
	log := logger.NewLoggerWithSlog(slog.New(slog.DiscardHandler))
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return base }

	const orgID uint = 1
	const userID uint = 5
	role := rbac.RoleManagement

	// fixtures: entitlement rows
	repo := newContractEntitlementRepo()
	seed := func(e *entitlement.ModuleEntitlement, err error) {
		require.NoError(t, err)
		repo.put(e)
	}
	activeTrial := base.Add(48 * time.Hour)
	expiredTrial := base.Add(-time.Hour)
	seed(entitlement.NewModuleEntitlement(orgID, "crm", entitlement.StatusEnabled, nil))
	seed(entitlement.NewSubmoduleEntitlement(orgID, "crm", "leads", entitlement.StatusDisabled, nil))
	seed(entitlement.NewSubmoduleEntitlement(orgID, "crm", "contacts", entitlement.StatusEnabled, nil))
	seed(entitlement.NewModuleEntitlement(orgID, "finance", entitlement.StatusTrial, &activeTrial))
	seed(entitlement.NewModuleEntitlement(orgID, "reports", entitlement.StatusTrial, &expiredTrial))
	seed(entitlement.NewModuleEntitlement(orgID, "inventory", entitlement.StatusDisabled, nil))
	// hr intentionally has no row

	// fixtures: role grants and one delegation
	enforcer := &contractEnforcer{grants: map[rbac.Role]map[string]bool{
		role: {
			"dashboard.read": true,
			"crm.read":       true,
			"crm.write":      true,
			"finance.read":   true,
			"reports.read":   true,
			"inventory.read": true,
			"hr.read":        true,
		},
	}}
	delegations := &contractDelegations{}
	delegated, err := rbac.NewDelegation(9, userID, "finance.write")
	require.NoError(t, err)
	require.NoError(t, delegations.Create(ctx, delegated))

	// server side: the real evaluator, store and resolver over the fixtures
	evaluator := entitlement.NewEvaluator(catalog.Default(), repo, log).WithClock(clock)
	store := rbac.NewStore(enforcer, delegations, log)
	resolver := access.NewResolver(evaluator, store, log)

	// client side: a mirror over the snapshot the server would hand out
	states, err := evaluator.Snapshot(ctx, orgID)
	require.NoError(t, err)
	permissions, err := store.EffectivePermissions(ctx, userID, role)
	require.NoError(t, err)
	m := New(Snapshot{
		UserID:       userID,
		OrgID:        orgID,
		Role:         string(role),
		Entitlements: states,
		Permissions:  permissions,
		FetchedAt:    base,
	}).WithClock(clock)

	sessionOrg := orgID
	session := access.Session{UserID: userID, Role: role, OrgID: &sessionOrg}

	cases := []struct {
		name      string
		orgID     uint
		module    string
		submodule string
		action    rbac.Action
	}{
		{"enabled module allowed", orgID, "crm", "", rbac.ActionRead},
		{"cross-tenant request", 2, "crm", "", rbac.ActionRead},
		{"disabled submodule", orgID, "crm", "leads", rbac.ActionRead},
		{"enabled submodule via module-wide grant", orgID, "crm", "contacts", rbac.ActionWrite},
		{"unrecorded submodule fails closed", orgID, "crm", "deals", rbac.ActionRead},
		{"active trial allowed", orgID, "finance", "", rbac.ActionRead},
		{"delegated permission", orgID, "finance", "", rbac.ActionWrite},
		{"expired trial", orgID, "reports", "", rbac.ActionRead},
		{"disabled module", orgID, "inventory", "", rbac.ActionRead},
		{"missing module row fails closed", orgID, "hr", "", rbac.ActionRead},
		{"always-on module", orgID, "dashboard", "", rbac.ActionRead},
		{"rbac-only module without grant", orgID, "settings", "", rbac.ActionWrite},
		{"granted but not delegated action", orgID, "crm", "", rbac.ActionDelete},
		{"unknown module", orgID, "billing", "", rbac.ActionRead},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := resolver.Resolve(ctx, access.Request{
				Session:      session,
				OrgID:        tc.orgID,
				ModuleKey:    tc.module,
				SubmoduleKey: tc.submodule,
				Action:       tc.action,
			})
			client := m.CanAccess(tc.orgID, tc.module, tc.submodule, tc.action)

			assert.Equal(t, server.Allowed, client.Allowed, "verdict diverged")
			assert.Equal(t, server.Layer, client.Layer, "layer diverged")
			assert.Equal(t, server.Reason, client.Reason, "reason diverged")
		})
	}
}

// A super-admin session and its mirror counterpart must also agree, across
// arbitrary organizations.
func TestContract_SuperAdminAgreement(t *testing.T) {
	ctx := context.Background()
	log := logger.NewLoggerWithSlog(slog.New(slog.DiscardHandler))

	repo := newContractEntitlementRepo()
	enforcer := &contractEnforcer{grants: map[rbac.Role]map[string]bool{}}
	delegations := &contractDelegations{}

	evaluator := entitlement.NewEvaluator(catalog.Default(), repo, log)
	store := rbac.NewStore(enforcer, delegations, log)
	resolver := access.NewResolver(evaluator, store, log)

	m := New(Snapshot{UserID: 1, Role: string(rbac.RoleSuperAdmin), SuperAdmin: true})
	session := access.Session{UserID: 1, Role: rbac.RoleSuperAdmin, SuperAdmin: true}

	for _, org := range []uint{1, 7, 42} {
		server := resolver.Resolve(ctx, access.Request{
			Session: session, OrgID: org, ModuleKey: "settings", Action: rbac.ActionWrite,
		})
		client := m.CanAccess(org, "settings", "", rbac.ActionWrite)

		assert.True(t, server.Allowed)
		assert.Equal(t, server.Allowed, client.Allowed)
		assert.Equal(t, server.OrgID, client.OrgID)
	}
}
