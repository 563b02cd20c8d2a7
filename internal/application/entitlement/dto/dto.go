package dto

import "time"

// EntitlementResponse is the admin-facing view of one entitlement row.
type EntitlementResponse struct {
	ID           uint       `json:"id"`
	OrgID        uint       `json:"org_id"`
	ModuleKey    string     `json:"module_key"`
	SubmoduleKey string     `json:"submodule_key,omitempty"`
	Status       string     `json:"status"`
	TrialExpiry  *time.Time `json:"trial_expiry,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// ProvisionOrganizationRequest seeds an organization's entitlements from a
// license tier. OrgID is filled from the resolved request scope; when the
// body names it explicitly it must match that scope.
type ProvisionOrganizationRequest struct {
	OrgID uint   `json:"org_id"`
	Tier  string `json:"tier" binding:"required"`
}

// SetModuleStatusRequest enables or disables a module or submodule for an
// organization. OrgID is filled from the resolved request scope.
type SetModuleStatusRequest struct {
	OrgID        uint   `json:"org_id"`
	ModuleKey    string `json:"module_key" binding:"required"`
	SubmoduleKey string `json:"submodule_key"`
	Enabled      *bool  `json:"enabled" binding:"required"`
}

// StartTrialRequest opens a time-boxed trial for a licensed module. OrgID is
// filled from the resolved request scope.
type StartTrialRequest struct {
	OrgID     uint      `json:"org_id"`
	ModuleKey string    `json:"module_key" binding:"required"`
	ExpiresAt time.Time `json:"expires_at" binding:"required"`
}
