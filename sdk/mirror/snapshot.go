// Package mirror evaluates the access policy client-side against a cached
// snapshot, to pre-filter navigation and controls. It runs the same three
// checks as the server resolver (tenant scope, module entitlement, RBAC)
// but it is never authoritative: the server's decision always wins, and on a
// mismatch the client must surface the server's reason and refresh its
// snapshot rather than retry blindly.
package mirror

import (
	"time"

	"github.com/veyra-hq/veyra/internal/domain/entitlement"
)

// Snapshot is the caller's own access state, fetched once per session from
// the session-bootstrap endpoint and re-fetched only on explicit
// invalidation events, never by polling.
type Snapshot struct {
	UserID     uint   `json:"user_id"`
	OrgID      uint   `json:"org_id"`
	Role       string `json:"role"`
	SuperAdmin bool   `json:"super_admin"`

	// Entitlements carries raw stored state keyed by "module" or
	// "module.submodule"; trial expiry is applied at evaluation time so an
	// expiry crossed mid-session is still observed.
	Entitlements map[string]entitlement.State `json:"entitlements"`

	// Permissions is the effective permission key set: role grants plus
	// active delegations, flattened by the server.
	Permissions []string `json:"permissions"`

	FetchedAt time.Time `json:"fetched_at"`
}

// permissionSet indexes the snapshot's permission keys for lookup.
func (s *Snapshot) permissionSet() map[string]struct{} {
	set := make(map[string]struct{}, len(s.Permissions))
	for _, key := range s.Permissions {
		set[key] = struct{}{}
	}
	return set
}
