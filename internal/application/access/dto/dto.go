package dto

import "time"

// DecisionResponse is the externally visible shape of an access decision.
// Internal reasons are never exposed here; the HTTP layer picks the status
// code and body from the layer.
type DecisionResponse struct {
	Allowed         bool   `json:"allowed"`
	Layer           string `json:"layer,omitempty"`
	Reason          string `json:"reason,omitempty"`
	UpgradeEligible bool   `json:"upgrade_eligible,omitempty"`
	OrgID           uint   `json:"org_id,omitempty"`
}

// EntitlementState is one entry of a snapshot's entitlement map, keyed by
// "module" or "module.submodule".
type EntitlementState struct {
	Status      string     `json:"status"`
	TrialExpiry *time.Time `json:"trial_expiry,omitempty"`
}

// SnapshotResponse is the session snapshot handed to clients. The client
// mirror replays the server policy against it; it is advisory only and the
// server re-resolves every request regardless.
type SnapshotResponse struct {
	UserID       uint                        `json:"user_id"`
	OrgID        uint                        `json:"org_id,omitempty"`
	Role         string                      `json:"role"`
	SuperAdmin   bool                        `json:"super_admin,omitempty"`
	Entitlements map[string]EntitlementState `json:"entitlements"`
	Permissions  []string                    `json:"permissions"`
	FetchedAt    time.Time                   `json:"fetched_at"`
}

// MeResponse is the self-introspection view: the caller's own effective
// permissions. Other users' permissions are never exposed through it.
type MeResponse struct {
	UserID      uint     `json:"user_id"`
	Role        string   `json:"role"`
	OrgID       uint     `json:"org_id,omitempty"`
	SuperAdmin  bool     `json:"super_admin,omitempty"`
	Permissions []string `json:"permissions"`
}
