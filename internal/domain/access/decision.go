package access

// Layer identifies which check of the pipeline produced a denial.
type Layer string

const (
	LayerTenant      Layer = "tenant"
	LayerEntitlement Layer = "entitlement"
	LayerRBAC        Layer = "rbac"
)

// Reason explains a denial. Reasons are internal vocabulary; the transport
// layer decides how much of them to surface externally.
type Reason string

const (
	ReasonNoOrgContext           Reason = "no_org_context"
	ReasonTenantMismatch         Reason = "tenant_mismatch"
	ReasonModuleDisabled         Reason = "module_disabled"
	ReasonSubmoduleDisabled      Reason = "submodule_disabled"
	ReasonTrialExpired           Reason = "trial_expired"
	ReasonInsufficientPermission Reason = "insufficient_permission"
	ReasonInternalError          Reason = "internal_error"
)

// Decision is the outcome of access resolution. On ALLOW it carries the
// resolved (user, org) pair so callers never re-derive tenant context on
// their own; on DENY it carries the failing layer and reason.
type Decision struct {
	Allowed bool
	Layer   Layer
	Reason  Reason

	// UpgradeEligible marks entitlement denials an organization can fix by
	// upgrading its plan, as opposed to RBAC denials an admin fixes by
	// granting a permission.
	UpgradeEligible bool

	// Resolved context, set only on ALLOW.
	UserID uint
	OrgID  uint
}

// Allow builds an allowing decision with the resolved context.
func Allow(userID, orgID uint) Decision {
	return Decision{Allowed: true, UserID: userID, OrgID: orgID}
}

// Deny builds a denying decision.
func Deny(layer Layer, reason Reason) Decision {
	return Decision{
		Allowed:         false,
		Layer:           layer,
		Reason:          reason,
		UpgradeEligible: layer == LayerEntitlement && reason != ReasonInternalError,
	}
}

// NotFoundShaped reports whether the denial must surface externally as
// "resource not found" so other tenants' data cannot be probed.
func (d Decision) NotFoundShaped() bool {
	return !d.Allowed && d.Layer == LayerTenant && d.Reason == ReasonTenantMismatch
}
