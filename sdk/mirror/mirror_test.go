package mirror

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/veyra-hq/veyra/internal/domain/access"
	"github.com/veyra-hq/veyra/internal/domain/entitlement"
	"github.com/veyra-hq/veyra/internal/domain/rbac"
)

func testSnapshot() Snapshot {
	return Snapshot{
		UserID: 5,
		OrgID:  1,
		Role:   string(rbac.RoleManagement),
		Entitlements: map[string]entitlement.State{
			"crm":          {Status: entitlement.StatusEnabled},
			"crm.leads":    {Status: entitlement.StatusDisabled},
			"crm.contacts": {Status: entitlement.StatusEnabled},
		},
		Permissions: []string{"crm.read", "crm.write"},
		FetchedAt:   time.Now(),
	}
}

func TestMirror_AllowedPath(t *testing.T) {
	m := New(testSnapshot())

	d := m.CanAccess(1, "crm", "", rbac.ActionRead)
	assert.True(t, d.Allowed)
	assert.Equal(t, uint(1), d.OrgID)
}

func TestMirror_TenantScope(t *testing.T) {
	m := New(testSnapshot())

	d := m.CanAccess(2, "crm", "", rbac.ActionRead)
	assert.False(t, d.Allowed)
	assert.Equal(t, access.LayerTenant, d.Layer)
	assert.Equal(t, access.ReasonTenantMismatch, d.Reason)

	unbound := testSnapshot()
	unbound.OrgID = 0
	m = New(unbound)
	d = m.CanAccess(1, "crm", "", rbac.ActionRead)
	assert.Equal(t, access.ReasonNoOrgContext, d.Reason)
}

func TestMirror_EntitlementRules(t *testing.T) {
	m := New(testSnapshot())

	// disabled submodule under enabled module
	d := m.CanAccess(1, "crm", "leads", rbac.ActionRead)
	assert.False(t, d.Allowed)
	assert.Equal(t, access.LayerEntitlement, d.Layer)
	assert.Equal(t, access.ReasonSubmoduleDisabled, d.Reason)

	// missing module entry fails closed
	d = m.CanAccess(1, "inventory", "", rbac.ActionRead)
	assert.Equal(t, access.ReasonModuleDisabled, d.Reason)
	assert.True(t, d.UpgradeEligible)

	// always-on bypasses entitlement; denial, if any, comes from RBAC
	d = m.CanAccess(1, "dashboard", "", rbac.ActionRead)
	assert.Equal(t, access.LayerRBAC, d.Layer)
}

func TestMirror_ModuleDisabledDominatesSubmodule(t *testing.T) {
	snap := testSnapshot()
	snap.Entitlements["crm"] = entitlement.State{Status: entitlement.StatusDisabled}
	m := New(snap)

	d := m.CanAccess(1, "crm", "contacts", rbac.ActionRead)
	assert.False(t, d.Allowed)
	assert.Equal(t, access.ReasonModuleDisabled, d.Reason)
}

func TestMirror_TrialExpiryObservedAtCheckTime(t *testing.T) {
	expiry := time.Now().Add(time.Hour)
	snap := testSnapshot()
	snap.Entitlements["crm"] = entitlement.State{Status: entitlement.StatusTrial, TrialExpiry: &expiry}

	m := New(snap)
	d := m.CanAccess(1, "crm", "", rbac.ActionRead)
	assert.True(t, d.Allowed, "trial still running")

	// same snapshot, clock past expiry: the mirror observes the expiry
	// without any re-fetch
	m.WithClock(func() time.Time { return expiry.Add(time.Minute) })
	d = m.CanAccess(1, "crm", "", rbac.ActionRead)
	assert.False(t, d.Allowed)
	assert.Equal(t, access.ReasonTrialExpired, d.Reason)
}

func TestMirror_PermissionRules(t *testing.T) {
	m := New(testSnapshot())

	d := m.CanAccess(1, "crm", "", rbac.ActionDelete)
	assert.False(t, d.Allowed)
	assert.Equal(t, access.LayerRBAC, d.Layer)
	assert.Equal(t, access.ReasonInsufficientPermission, d.Reason)

	// module-wide grant covers submodule request
	d = m.CanAccess(1, "crm", "contacts", rbac.ActionRead)
	assert.True(t, d.Allowed)
}

func TestMirror_SuperAdminBypass(t *testing.T) {
	snap := Snapshot{UserID: 1, SuperAdmin: true, Role: string(rbac.RoleSuperAdmin)}
	m := New(snap)

	d := m.CanAccess(7, "settings", "", rbac.ActionWrite)
	assert.True(t, d.Allowed)
	assert.Equal(t, uint(7), d.OrgID, "resolved org comes from the request")
}

func TestMirror_CanNavigate(t *testing.T) {
	m := New(testSnapshot())

	assert.True(t, m.CanNavigate("crm"))
	assert.False(t, m.CanNavigate("inventory"), "unentitled module hidden from nav")
	assert.False(t, m.CanNavigate("hr"))
}

func TestMirror_StaleCacheServerWins(t *testing.T) {
	// The cached snapshot still shows crm enabled; the server has since
	// disabled it and denies the gated action.
	m := New(testSnapshot())
	serverDenial := access.Deny(access.LayerEntitlement, access.ReasonModuleDisabled)

	got := m.ObserveServerDecision(serverDenial, 1, "crm", "", rbac.ActionWrite)

	assert.Equal(t, serverDenial, got, "the server's decision is returned unchanged")
	assert.True(t, m.NeedsRefresh(), "contradiction marks the snapshot stale")

	// refreshed snapshot clears the marker and now agrees with the server
	refreshed := testSnapshot()
	refreshed.Entitlements["crm"] = entitlement.State{Status: entitlement.StatusDisabled}
	m.Refresh(refreshed)
	assert.False(t, m.NeedsRefresh())
	assert.False(t, m.CanAccess(1, "crm", "", rbac.ActionWrite).Allowed)
}

func TestMirror_AgreedDenialDoesNotForceRefresh(t *testing.T) {
	m := New(testSnapshot())
	serverDenial := access.Deny(access.LayerRBAC, access.ReasonInsufficientPermission)

	m.ObserveServerDecision(serverDenial, 1, "crm", "", rbac.ActionDelete)
	assert.False(t, m.NeedsRefresh(), "mirror already denied; cache is not stale")
}
