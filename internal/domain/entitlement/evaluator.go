package entitlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/veyra-hq/veyra/internal/shared/catalog"
	"github.com/veyra-hq/veyra/internal/shared/logger"
)

// Evaluator resolves the effective entitlement status of a module or
// submodule for an organization. Evaluation order:
//
//  1. always-on modules are enabled unconditionally
//  2. RBAC-only modules are enabled here; RBAC is their sole gate
//  3. missing module row resolves as disabled (fail-closed)
//  4. a disabled module dominates any submodule-level enabled row
//  5. a trial past its expiry reads as disabled without write-back
type Evaluator struct {
	catalog *catalog.Catalog
	repo    Repository
	logger  logger.Interface
	now     func() time.Time
}

// NewEvaluator creates an entitlement evaluator.
func NewEvaluator(cat *catalog.Catalog, repo Repository, log logger.Interface) *Evaluator {
	return &Evaluator{
		catalog: cat,
		repo:    repo,
		logger:  log,
		now:     time.Now,
	}
}

// WithClock overrides the evaluator's clock. Test use only.
func (ev *Evaluator) WithClock(now func() time.Time) *Evaluator {
	ev.now = now
	return ev
}

// Resolve returns the entitlement decision for (org, module[, submodule]).
// Unknown module or submodule keys resolve as disabled rather than erroring:
// an unknown key can never be entitled.
func (ev *Evaluator) Resolve(ctx context.Context, orgID uint, moduleKey, submoduleKey string) (Decision, error) {
	if !ev.catalog.HasModule(moduleKey) {
		ev.logger.Warnw("entitlement check for unknown module", "org_id", orgID, "module", moduleKey)
		return Denied(DenyModuleDisabled), nil
	}

	if ev.catalog.IsAlwaysOn(moduleKey) || ev.catalog.IsRBACOnly(moduleKey) {
		return Allowed(), nil
	}

	if submoduleKey != "" && !ev.catalog.HasSubmodule(moduleKey, submoduleKey) {
		ev.logger.Warnw("entitlement check for unknown submodule",
			"org_id", orgID, "module", moduleKey, "submodule", submoduleKey)
		return Denied(DenySubmoduleDisabled), nil
	}

	moduleDecision, err := ev.resolveModule(ctx, orgID, moduleKey)
	if err != nil {
		return Decision{}, err
	}
	if !moduleDecision.Enabled || submoduleKey == "" {
		return moduleDecision, nil
	}

	return ev.resolveSubmodule(ctx, orgID, moduleKey, submoduleKey)
}

func (ev *Evaluator) resolveModule(ctx context.Context, orgID uint, moduleKey string) (Decision, error) {
	row, err := ev.repo.GetModule(ctx, orgID, moduleKey)
	if err != nil {
		if errors.Is(err, ErrEntitlementNotFound) {
			return Denied(DenyModuleDisabled), nil
		}
		return Decision{}, fmt.Errorf("failed to load module entitlement: %w", err)
	}

	now := ev.now()
	if row.TrialExpiredAt(now) {
		return Denied(DenyTrialExpired), nil
	}
	if !row.IsUsableAt(now) {
		return Denied(DenyModuleDisabled), nil
	}
	return Allowed(), nil
}

func (ev *Evaluator) resolveSubmodule(ctx context.Context, orgID uint, moduleKey, submoduleKey string) (Decision, error) {
	row, err := ev.repo.GetSubmodule(ctx, orgID, moduleKey, submoduleKey)
	if err != nil {
		if errors.Is(err, ErrEntitlementNotFound) {
			return Denied(DenySubmoduleDisabled), nil
		}
		return Decision{}, fmt.Errorf("failed to load submodule entitlement: %w", err)
	}

	now := ev.now()
	if row.TrialExpiredAt(now) {
		return Denied(DenyTrialExpired), nil
	}
	if !row.IsUsableAt(now) {
		return Denied(DenySubmoduleDisabled), nil
	}
	return Allowed(), nil
}

// State is one entry of an organization's entitlement snapshot: the stored
// status plus trial expiry, keyed by "module" or "module.submodule". The
// snapshot carries raw stored state; consumers (the client mirror, the
// introspection view) apply the same read-time rules as Resolve, so a trial
// crossing its expiry mid-session is still observed.
type State struct {
	Status      Status     `json:"status"`
	TrialExpiry *time.Time `json:"trial_expiry,omitempty"`
}

// Snapshot returns the stored entitlement state of every catalog module and
// submodule for the organization. Always-on and RBAC-only modules are
// reported enabled so consumers need no special-casing of their keys;
// missing rows are reported disabled (fail-closed).
func (ev *Evaluator) Snapshot(ctx context.Context, orgID uint) (map[string]State, error) {
	rows, err := ev.repo.ListByOrg(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list entitlements: %w", err)
	}

	stored := make(map[string]State, len(rows))
	for _, row := range rows {
		key := row.ModuleKey()
		if !row.IsModuleLevel() {
			key = row.ModuleKey() + "." + row.SubmoduleKey()
		}
		stored[key] = State{Status: row.Status(), TrialExpiry: row.TrialExpiry()}
	}

	disabled := State{Status: StatusDisabled}
	result := make(map[string]State)
	for _, mod := range ev.catalog.Modules() {
		if ev.catalog.IsAlwaysOn(mod.Key) || ev.catalog.IsRBACOnly(mod.Key) {
			result[mod.Key] = State{Status: StatusEnabled}
			continue
		}

		state, ok := stored[mod.Key]
		if !ok {
			state = disabled
		}
		result[mod.Key] = state

		for _, sub := range mod.Submodules {
			key := mod.Key + "." + sub.Key
			subState, ok := stored[key]
			if !ok {
				subState = disabled
			}
			result[key] = subState
		}
	}

	return result, nil
}
