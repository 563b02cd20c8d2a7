package errors

import (
	stderrors "errors"
	"net/http"
)

// Access-resolution error types
const (
	ErrorTypeNoOrgContext       ErrorType = "no_org_context"
	ErrorTypeTenantMismatch     ErrorType = "tenant_mismatch"
	ErrorTypeModuleDisabled     ErrorType = "module_disabled"
	ErrorTypeSubmoduleDisabled  ErrorType = "submodule_disabled"
	ErrorTypeTrialExpired       ErrorType = "trial_expired"
	ErrorTypePermissionDenied   ErrorType = "permission_denied"
	ErrorTypeResolutionInternal ErrorType = "resolution_error"
)

// AccessError represents an access-resolution denial with the context needed
// to translate it at the transport boundary without leaking internals.
type AccessError struct {
	*AppError
	// UpgradeEligible marks entitlement denials that an organization can
	// remediate by upgrading its plan.
	UpgradeEligible bool
	// SecurityEvent indicates the denial should be tracked for audit review,
	// e.g. repeated cross-tenant probes from the same actor.
	SecurityEvent bool
}

// Error implements the error interface
func (e *AccessError) Error() string {
	return e.AppError.Error()
}

// Unwrap allows errors.Is and errors.As to work correctly
func (e *AccessError) Unwrap() error {
	return e.AppError
}

// NewNoOrgContextError is returned when the session has no bound organization
// but the operation requires one. Distinct from a mismatch.
func NewNoOrgContextError() *AccessError {
	return &AccessError{
		AppError: &AppError{
			Type:    ErrorTypeNoOrgContext,
			Message: "No organization context",
			Code:    http.StatusForbidden,
			Details: "This operation requires an organization-bound session",
		},
	}
}

// NewTenantMismatchError is returned when an actor requests another
// organization's scope. It carries a 404 code so the resource cannot be
// distinguished from one that does not exist.
func NewTenantMismatchError() *AccessError {
	return &AccessError{
		AppError: &AppError{
			Type:    ErrorTypeTenantMismatch,
			Message: "Resource not found",
			Code:    http.StatusNotFound,
		},
		SecurityEvent: true,
	}
}

// NewModuleDisabledError is returned when a module is not enabled for the
// organization, whether by explicit status or by absence of any row.
func NewModuleDisabledError(moduleKey string) *AccessError {
	return &AccessError{
		AppError: &AppError{
			Type:    ErrorTypeModuleDisabled,
			Message: "Module is not enabled for this organization",
			Code:    http.StatusForbidden,
			Details: moduleKey,
		},
		UpgradeEligible: true,
	}
}

// NewSubmoduleDisabledError is returned when a submodule resolves as disabled
// even though its parent module is enabled.
func NewSubmoduleDisabledError(moduleKey, submoduleKey string) *AccessError {
	return &AccessError{
		AppError: &AppError{
			Type:    ErrorTypeSubmoduleDisabled,
			Message: "Feature is not enabled for this organization",
			Code:    http.StatusForbidden,
			Details: moduleKey + "." + submoduleKey,
		},
		UpgradeEligible: true,
	}
}

// NewTrialExpiredError is returned when a trial entitlement has passed its
// expiry. Externally identical to a disabled module, flagged for renewal.
func NewTrialExpiredError(moduleKey string) *AccessError {
	return &AccessError{
		AppError: &AppError{
			Type:    ErrorTypeTrialExpired,
			Message: "Trial period has ended for this module",
			Code:    http.StatusForbidden,
			Details: moduleKey,
		},
		UpgradeEligible: true,
	}
}

// NewPermissionDeniedError is returned on an RBAC failure. The message never
// names the specific missing permission; the full detail is logged internally.
func NewPermissionDeniedError() *AccessError {
	return &AccessError{
		AppError: &AppError{
			Type:    ErrorTypePermissionDenied,
			Message: "Insufficient permission",
			Code:    http.StatusForbidden,
		},
	}
}

// NewResolutionInternalError is returned when a backing store fails during
// resolution. The decision fails closed: this is still a denial, never an
// ambiguous success.
func NewResolutionInternalError(details ...string) *AccessError {
	detail := ""
	if len(details) > 0 {
		detail = details[0]
	}
	return &AccessError{
		AppError: &AppError{
			Type:    ErrorTypeResolutionInternal,
			Message: "Access could not be resolved",
			Code:    http.StatusForbidden,
			Details: detail,
		},
	}
}

// IsAccessError checks if the error is an AccessError (supports wrapped errors)
func IsAccessError(err error) bool {
	var accessErr *AccessError
	return stderrors.As(err, &accessErr)
}

// GetAccessError extracts AccessError from the error chain
func GetAccessError(err error) *AccessError {
	var accessErr *AccessError
	if stderrors.As(err, &accessErr) {
		return accessErr
	}
	return nil
}

// IsUpgradeEligible returns true when the denial is remediable by a plan
// upgrade rather than an admin-side permission grant.
func IsUpgradeEligible(err error) bool {
	if accessErr := GetAccessError(err); accessErr != nil {
		return accessErr.UpgradeEligible
	}
	return false
}

// IsSecurityEvent returns true if the denial should be tracked for audit
func IsSecurityEvent(err error) bool {
	if accessErr := GetAccessError(err); accessErr != nil {
		return accessErr.SecurityEvent
	}
	return false
}
