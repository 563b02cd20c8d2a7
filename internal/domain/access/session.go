// Package access implements the three-layer access resolution engine:
// tenant isolation, module entitlement, and RBAC, composed in a fixed
// short-circuiting pipeline. Every protected operation in the suite goes
// through Resolver.Resolve; the client-side mirror in sdk/mirror replays the
// same policy against a cached snapshot for UX purposes only.
package access

import "github.com/veyra-hq/veyra/internal/domain/rbac"

// Session is the authenticated caller context, as established by the auth
// middleware. OrgID is nil for platform users such as super-admins that are
// not bound to any organization.
type Session struct {
	UserID     uint
	Role       rbac.Role
	OrgID      *uint
	SuperAdmin bool
}

// HasOrg reports whether the session is bound to an organization.
func (s Session) HasOrg() bool {
	return s.OrgID != nil && *s.OrgID != 0
}

// Org returns the bound organization ID, zero when unbound.
func (s Session) Org() uint {
	if s.OrgID == nil {
		return 0
	}
	return *s.OrgID
}

// Request is a single access resolution request: a protected operation
// declares the module, action and optional submodule it covers, plus the
// organization scope it wants to operate in.
type Request struct {
	Session      Session
	OrgID        uint
	ModuleKey    string
	SubmoduleKey string
	Action       rbac.Action
}
