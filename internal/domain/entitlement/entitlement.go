package entitlement

import (
	"fmt"
	"time"
)

// ModuleEntitlement is the entitlement aggregate root. One row per
// (organization, module) or (organization, module, submodule); an empty
// submodule key means the row is module-level. Rows are never hard-deleted;
// their status transitions instead.
type ModuleEntitlement struct {
	id           uint
	orgID        uint
	moduleKey    string
	submoduleKey string
	status       Status
	trialExpiry  *time.Time
	createdAt    time.Time
	updatedAt    time.Time
}

// NewModuleEntitlement creates an entitlement row for a module.
func NewModuleEntitlement(orgID uint, moduleKey string, status Status, trialExpiry *time.Time) (*ModuleEntitlement, error) {
	return newEntitlement(orgID, moduleKey, "", status, trialExpiry)
}

// NewSubmoduleEntitlement creates an entitlement row for a submodule.
func NewSubmoduleEntitlement(orgID uint, moduleKey, submoduleKey string, status Status, trialExpiry *time.Time) (*ModuleEntitlement, error) {
	if submoduleKey == "" {
		return nil, fmt.Errorf("submodule key is required")
	}
	return newEntitlement(orgID, moduleKey, submoduleKey, status, trialExpiry)
}

func newEntitlement(orgID uint, moduleKey, submoduleKey string, status Status, trialExpiry *time.Time) (*ModuleEntitlement, error) {
	if orgID == 0 {
		return nil, fmt.Errorf("organization ID is required")
	}
	if moduleKey == "" {
		return nil, fmt.Errorf("module key is required")
	}
	if !status.IsValid() {
		return nil, fmt.Errorf("invalid entitlement status: %s", status)
	}
	if status == StatusTrial && trialExpiry == nil {
		return nil, fmt.Errorf("trial entitlement requires an expiry")
	}
	if status != StatusTrial && trialExpiry != nil {
		return nil, fmt.Errorf("trial expiry is only valid for trial status")
	}

	now := time.Now()
	return &ModuleEntitlement{
		orgID:        orgID,
		moduleKey:    moduleKey,
		submoduleKey: submoduleKey,
		status:       status,
		trialExpiry:  trialExpiry,
		createdAt:    now,
		updatedAt:    now,
	}, nil
}

// ReconstructModuleEntitlement rebuilds an entitlement from persistence.
func ReconstructModuleEntitlement(id, orgID uint, moduleKey, submoduleKey string, status Status, trialExpiry *time.Time, createdAt, updatedAt time.Time) (*ModuleEntitlement, error) {
	if id == 0 {
		return nil, fmt.Errorf("entitlement ID cannot be zero")
	}
	if orgID == 0 {
		return nil, fmt.Errorf("organization ID is required")
	}
	if moduleKey == "" {
		return nil, fmt.Errorf("module key is required")
	}
	if !status.IsValid() {
		return nil, fmt.Errorf("invalid entitlement status: %s", status)
	}

	return &ModuleEntitlement{
		id:           id,
		orgID:        orgID,
		moduleKey:    moduleKey,
		submoduleKey: submoduleKey,
		status:       status,
		trialExpiry:  trialExpiry,
		createdAt:    createdAt,
		updatedAt:    updatedAt,
	}, nil
}

func (e *ModuleEntitlement) ID() uint               { return e.id }
func (e *ModuleEntitlement) OrgID() uint            { return e.orgID }
func (e *ModuleEntitlement) ModuleKey() string      { return e.moduleKey }
func (e *ModuleEntitlement) SubmoduleKey() string   { return e.submoduleKey }
func (e *ModuleEntitlement) Status() Status         { return e.status }
func (e *ModuleEntitlement) TrialExpiry() *time.Time { return e.trialExpiry }
func (e *ModuleEntitlement) CreatedAt() time.Time   { return e.createdAt }
func (e *ModuleEntitlement) UpdatedAt() time.Time   { return e.updatedAt }

// IsModuleLevel reports whether this row gates a whole module.
func (e *ModuleEntitlement) IsModuleLevel() bool {
	return e.submoduleKey == ""
}

// SetID sets the entitlement ID (only for persistence layer use).
func (e *ModuleEntitlement) SetID(id uint) error {
	if e.id != 0 {
		return fmt.Errorf("entitlement ID is already set")
	}
	if id == 0 {
		return fmt.Errorf("entitlement ID cannot be zero")
	}
	e.id = id
	return nil
}

// Enable transitions the entitlement to enabled, clearing any trial expiry.
func (e *ModuleEntitlement) Enable() {
	e.status = StatusEnabled
	e.trialExpiry = nil
	e.updatedAt = time.Now()
}

// Disable transitions the entitlement to disabled, clearing any trial expiry.
func (e *ModuleEntitlement) Disable() {
	e.status = StatusDisabled
	e.trialExpiry = nil
	e.updatedAt = time.Now()
}

// StartTrial transitions the entitlement to trial with the given expiry.
func (e *ModuleEntitlement) StartTrial(expiry time.Time) error {
	if !expiry.After(time.Now()) {
		return fmt.Errorf("trial expiry must be in the future")
	}
	e.status = StatusTrial
	e.trialExpiry = &expiry
	e.updatedAt = time.Now()
	return nil
}

// EffectiveStatus returns the status as observed at the given instant. A
// trial past its expiry reads as disabled; the stored row is not mutated.
// Persisting the demotion is the reconciliation worker's job.
func (e *ModuleEntitlement) EffectiveStatus(now time.Time) Status {
	if e.status == StatusTrial && e.trialExpiry != nil && now.After(*e.trialExpiry) {
		return StatusDisabled
	}
	return e.status
}

// IsUsableAt reports whether the entitlement grants access at the instant.
func (e *ModuleEntitlement) IsUsableAt(now time.Time) bool {
	switch e.EffectiveStatus(now) {
	case StatusEnabled, StatusTrial:
		return true
	default:
		return false
	}
}

// TrialExpiredAt reports whether the row is a trial whose expiry has passed.
func (e *ModuleEntitlement) TrialExpiredAt(now time.Time) bool {
	return e.status == StatusTrial && e.trialExpiry != nil && now.After(*e.trialExpiry)
}
