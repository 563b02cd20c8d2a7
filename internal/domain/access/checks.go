package access

import (
	"context"

	"github.com/veyra-hq/veyra/internal/domain/entitlement"
	"github.com/veyra-hq/veyra/internal/domain/rbac"
)

// EntitlementSource resolves module entitlement for an organization. The
// production implementation is entitlement.Evaluator.
type EntitlementSource interface {
	Resolve(ctx context.Context, orgID uint, moduleKey, submoduleKey string) (entitlement.Decision, error)
}

// PermissionSource resolves RBAC permissions. The production implementation
// is rbac.Store.
type PermissionSource interface {
	HasPermission(ctx context.Context, userID uint, role rbac.Role, superAdmin bool, moduleKey, submoduleKey string, action rbac.Action) (bool, error)
}

// Check is one layer of the resolution pipeline. A nil result means the
// layer passed; a non-nil result is the denial to return. The pipeline is a
// closed set of three checks in fixed order; there is no dynamic dispatch.
type Check interface {
	Layer() Layer
	Evaluate(ctx context.Context, req Request) (*Decision, error)
}

// TenantCheck enforces tenant isolation. It is a pure comparison against
// session state: no I/O.
type TenantCheck struct{}

func (TenantCheck) Layer() Layer { return LayerTenant }

func (TenantCheck) Evaluate(_ context.Context, req Request) (*Decision, error) {
	if req.Session.SuperAdmin {
		// Super-admins operate in the requested org, taken explicitly from
		// the request and never inferred.
		return nil, nil
	}

	if !req.Session.HasOrg() {
		d := Deny(LayerTenant, ReasonNoOrgContext)
		return &d, nil
	}

	if req.Session.Org() != req.OrgID {
		d := Deny(LayerTenant, ReasonTenantMismatch)
		return &d, nil
	}

	return nil, nil
}

// EntitlementCheck gates on the organization's module entitlements.
type EntitlementCheck struct {
	Source EntitlementSource
}

func (EntitlementCheck) Layer() Layer { return LayerEntitlement }

func (c EntitlementCheck) Evaluate(ctx context.Context, req Request) (*Decision, error) {
	decision, err := c.Source.Resolve(ctx, req.OrgID, req.ModuleKey, req.SubmoduleKey)
	if err != nil {
		return nil, err
	}
	if decision.Enabled {
		return nil, nil
	}

	d := Deny(LayerEntitlement, entitlementReason(decision.Reason))
	return &d, nil
}

func entitlementReason(r entitlement.DenyReason) Reason {
	switch r {
	case entitlement.DenySubmoduleDisabled:
		return ReasonSubmoduleDisabled
	case entitlement.DenyTrialExpired:
		return ReasonTrialExpired
	default:
		return ReasonModuleDisabled
	}
}

// RBACCheck gates on role permissions plus delegations.
type RBACCheck struct {
	Source PermissionSource
}

func (RBACCheck) Layer() Layer { return LayerRBAC }

func (c RBACCheck) Evaluate(ctx context.Context, req Request) (*Decision, error) {
	ok, err := c.Source.HasPermission(ctx, req.Session.UserID, req.Session.Role, req.Session.SuperAdmin,
		req.ModuleKey, req.SubmoduleKey, req.Action)
	if err != nil {
		return nil, err
	}
	if ok {
		return nil, nil
	}

	d := Deny(LayerRBAC, ReasonInsufficientPermission)
	return &d, nil
}
