package mirror

import (
	"sync"
	"time"

	"github.com/veyra-hq/veyra/internal/domain/access"
	"github.com/veyra-hq/veyra/internal/domain/entitlement"
	"github.com/veyra-hq/veyra/internal/domain/rbac"
	"github.com/veyra-hq/veyra/internal/shared/catalog"
)

// Mirror replays the server's access policy against a cached snapshot. It
// shares the module catalog and the decision vocabulary with the server
// resolver, so outcomes are directly comparable.
type Mirror struct {
	catalog *catalog.Catalog
	now     func() time.Time

	mu           sync.RWMutex
	snapshot     Snapshot
	permissions  map[string]struct{}
	needsRefresh bool
}

// New creates a mirror over a session snapshot using the shared catalog.
func New(snap Snapshot) *Mirror {
	m := &Mirror{
		catalog: catalog.Default(),
		now:     time.Now,
	}
	m.Refresh(snap)
	return m
}

// WithClock overrides the mirror's clock. Test use only.
func (m *Mirror) WithClock(now func() time.Time) *Mirror {
	m.now = now
	return m
}

// Refresh replaces the cached snapshot, clearing any pending refresh marker.
func (m *Mirror) Refresh(snap Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshot = snap
	m.permissions = snap.permissionSet()
	m.needsRefresh = false
}

// NeedsRefresh reports whether a server denial contradicted the cached
// snapshot, meaning the client should re-fetch before trusting the mirror.
func (m *Mirror) NeedsRefresh() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.needsRefresh
}

// CanAccess evaluates the three checks against the snapshot. The result is
// UX guidance only: hide a nav item, disable a button, show an upgrade
// prompt. It must never substitute for the server's decision.
func (m *Mirror) CanAccess(orgID uint, moduleKey, submoduleKey string, action rbac.Action) access.Decision {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if d := m.checkTenant(orgID); d != nil {
		return *d
	}
	if d := m.checkEntitlement(moduleKey, submoduleKey); d != nil {
		return *d
	}
	if d := m.checkPermission(moduleKey, submoduleKey, action); d != nil {
		return *d
	}
	return access.Allow(m.snapshot.UserID, orgID)
}

// CanNavigate reports whether a module's navigation entry should render:
// entitled and readable.
func (m *Mirror) CanNavigate(moduleKey string) bool {
	return m.CanAccess(m.OrgID(), moduleKey, "", rbac.ActionRead).Allowed
}

// OrgID returns the snapshot's organization scope.
func (m *Mirror) OrgID() uint {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot.OrgID
}

// ObserveServerDecision reconciles a server decision with the cached
// snapshot. When the mirror would have allowed what the server denied, the
// cache is stale: the caller must surface the server's reason and refresh,
// not retry. The server's decision is returned unchanged; it always wins.
func (m *Mirror) ObserveServerDecision(server access.Decision, orgID uint, moduleKey, submoduleKey string, action rbac.Action) access.Decision {
	if !server.Allowed {
		local := m.CanAccess(orgID, moduleKey, submoduleKey, action)
		if local.Allowed {
			m.mu.Lock()
			m.needsRefresh = true
			m.mu.Unlock()
		}
	}
	return server
}

func (m *Mirror) checkTenant(orgID uint) *access.Decision {
	if m.snapshot.SuperAdmin {
		return nil
	}
	if m.snapshot.OrgID == 0 {
		d := access.Deny(access.LayerTenant, access.ReasonNoOrgContext)
		return &d
	}
	if m.snapshot.OrgID != orgID {
		d := access.Deny(access.LayerTenant, access.ReasonTenantMismatch)
		return &d
	}
	return nil
}

func (m *Mirror) checkEntitlement(moduleKey, submoduleKey string) *access.Decision {
	if !m.catalog.HasModule(moduleKey) {
		d := access.Deny(access.LayerEntitlement, access.ReasonModuleDisabled)
		return &d
	}
	if m.catalog.IsAlwaysOn(moduleKey) || m.catalog.IsRBACOnly(moduleKey) {
		return nil
	}
	if submoduleKey != "" && !m.catalog.HasSubmodule(moduleKey, submoduleKey) {
		d := access.Deny(access.LayerEntitlement, access.ReasonSubmoduleDisabled)
		return &d
	}

	now := m.now()

	if reason := m.stateReason(moduleKey, now, access.ReasonModuleDisabled); reason != nil {
		d := access.Deny(access.LayerEntitlement, *reason)
		return &d
	}
	if submoduleKey != "" {
		if reason := m.stateReason(moduleKey+"."+submoduleKey, now, access.ReasonSubmoduleDisabled); reason != nil {
			d := access.Deny(access.LayerEntitlement, *reason)
			return &d
		}
	}
	return nil
}

// stateReason returns the denial reason for an entitlement key, or nil when
// the key is usable. Missing entries fail closed.
func (m *Mirror) stateReason(key string, now time.Time, disabledReason access.Reason) *access.Reason {
	state, ok := m.snapshot.Entitlements[key]
	if !ok {
		return &disabledReason
	}
	switch state.Status {
	case entitlement.StatusEnabled:
		return nil
	case entitlement.StatusTrial:
		if state.TrialExpiry != nil && now.After(*state.TrialExpiry) {
			expired := access.ReasonTrialExpired
			return &expired
		}
		return nil
	default:
		return &disabledReason
	}
}

func (m *Mirror) checkPermission(moduleKey, submoduleKey string, action rbac.Action) *access.Decision {
	if m.snapshot.SuperAdmin {
		return nil
	}
	if _, ok := m.permissions[rbac.PermissionKey(moduleKey, submoduleKey, action)]; ok {
		return nil
	}
	if submoduleKey != "" {
		if _, ok := m.permissions[rbac.PermissionKey(moduleKey, "", action)]; ok {
			return nil
		}
	}
	d := access.Deny(access.LayerRBAC, access.ReasonInsufficientPermission)
	return &d
}
