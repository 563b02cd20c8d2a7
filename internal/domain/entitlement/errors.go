package entitlement

import "errors"

var (
	// ErrEntitlementNotFound is returned when no row exists for the lookup.
	// Resolution treats this as disabled; it is an error only for admin
	// operations that expect the row to exist.
	ErrEntitlementNotFound = errors.New("entitlement not found")

	// ErrUnknownModule is returned when the module key is not in the catalog.
	ErrUnknownModule = errors.New("unknown module")

	// ErrUnknownSubmodule is returned when the submodule key is not in the
	// catalog under the given module.
	ErrUnknownSubmodule = errors.New("unknown submodule")

	// ErrNotLicensable is returned when an entitlement operation targets an
	// always-on or RBAC-only module.
	ErrNotLicensable = errors.New("module is not subject to entitlement")

	// ErrUnknownTier is returned when provisioning references an unknown
	// license tier.
	ErrUnknownTier = errors.New("unknown license tier")
)
