package entitlement

import "time"

// ModuleStatusChanged is emitted whenever an admin action changes the stored
// status of a module or submodule entitlement. Consumers must be idempotent:
// the event may be delivered more than once.
type ModuleStatusChanged struct {
	OrgID        uint   `json:"org_id"`
	ModuleKey    string `json:"module_key"`
	SubmoduleKey string `json:"submodule_key,omitempty"`
	NewStatus    Status `json:"new_status"`
	OccurredAt   int64  `json:"occurred_at"`
}

// NewModuleStatusChanged builds an event stamped with the current time.
func NewModuleStatusChanged(orgID uint, moduleKey, submoduleKey string, status Status) ModuleStatusChanged {
	return ModuleStatusChanged{
		OrgID:        orgID,
		ModuleKey:    moduleKey,
		SubmoduleKey: submoduleKey,
		NewStatus:    status,
		OccurredAt:   time.Now().Unix(),
	}
}
