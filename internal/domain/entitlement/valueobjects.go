// Package entitlement provides domain models and business logic for
// per-organization module entitlements: which modules and submodules an
// organization has licensed, including trials.
package entitlement

// Status represents the stored entitlement status for a module or submodule
// within an organization.
type Status string

const (
	// StatusEnabled indicates the module is licensed and usable.
	StatusEnabled Status = "enabled"
	// StatusDisabled indicates the module is not usable. A missing row
	// resolves to this status as well.
	StatusDisabled Status = "disabled"
	// StatusTrial indicates the module is usable until the trial expiry.
	StatusTrial Status = "trial"
)

// IsValid checks if the status is one of the known statuses.
func (s Status) IsValid() bool {
	switch s {
	case StatusEnabled, StatusDisabled, StatusTrial:
		return true
	default:
		return false
	}
}

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// DenyReason explains why an entitlement resolution came back disabled.
type DenyReason string

const (
	DenyModuleDisabled    DenyReason = "module_disabled"
	DenySubmoduleDisabled DenyReason = "submodule_disabled"
	DenyTrialExpired      DenyReason = "trial_expired"
)

// Decision is the outcome of resolving an entitlement for a module or
// submodule. When Enabled is false, Reason carries the failure cause.
type Decision struct {
	Enabled bool
	Reason  DenyReason
}

var decisionEnabled = Decision{Enabled: true}

// Enabled returns an allowing decision.
func Allowed() Decision {
	return decisionEnabled
}

// Denied returns a denying decision with the given reason.
func Denied(reason DenyReason) Decision {
	return Decision{Enabled: false, Reason: reason}
}
