package access

import (
	"context"

	"github.com/veyra-hq/veyra/internal/shared/logger"
)

// Resolver orchestrates the three checks in fixed order with short-circuit
// semantics: Tenant → Entitlement → RBAC. The ordering is load-bearing:
// tenant violations must look like "not found" before any layer that could
// leak another tenant's configuration, and entitlement denials must stay
// distinguishable from RBAC denials because they have different remedies.
type Resolver struct {
	pipeline [3]Check
	logger   logger.Interface
}

// NewResolver builds a resolver over the two backing sources.
func NewResolver(entitlements EntitlementSource, permissions PermissionSource, log logger.Interface) *Resolver {
	return &Resolver{
		pipeline: [3]Check{
			TenantCheck{},
			EntitlementCheck{Source: entitlements},
			RBACCheck{Source: permissions},
		},
		logger: log,
	}
}

// Resolve runs the pipeline for one protected request. A store failure in
// any layer fails closed: the result is a denial at that layer with an
// internal reason, never an ambiguous success.
func (r *Resolver) Resolve(ctx context.Context, req Request) Decision {
	for _, check := range r.pipeline {
		denial, err := check.Evaluate(ctx, req)
		if err != nil {
			r.logger.Errorw("access check failed, denying",
				"layer", check.Layer(),
				"user_id", req.Session.UserID,
				"org_id", req.OrgID,
				"module", req.ModuleKey,
				"submodule", req.SubmoduleKey,
				"action", req.Action,
				"error", err,
			)
			return Deny(check.Layer(), ReasonInternalError)
		}
		if denial != nil {
			r.logDenial(req, *denial)
			return *denial
		}
	}

	return Allow(req.Session.UserID, req.OrgID)
}

func (r *Resolver) logDenial(req Request, d Decision) {
	// Every denial is logged with full context for audit review. Repeated
	// tenant mismatches from the same actor are a probing signal; metrics
	// consume these records downstream.
	r.logger.Warnw("access denied",
		"layer", d.Layer,
		"reason", d.Reason,
		"user_id", req.Session.UserID,
		"session_org_id", req.Session.Org(),
		"requested_org_id", req.OrgID,
		"module", req.ModuleKey,
		"submodule", req.SubmoduleKey,
		"action", req.Action,
	)
}
