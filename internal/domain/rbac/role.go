// Package rbac provides role-based access control for the suite: the fixed
// role hierarchy, role permission grants, and per-user delegations layered on
// top of role grants.
package rbac

// Role is one of the fixed roles in the suite. The hierarchy is strict and
// total: executive < management < org_admin < super_admin.
type Role string

const (
	RoleExecutive  Role = "executive"
	RoleManagement Role = "management"
	RoleOrgAdmin   Role = "org_admin"
	RoleSuperAdmin Role = "super_admin"
)

var roleRanks = map[Role]int{
	RoleExecutive:  1,
	RoleManagement: 2,
	RoleOrgAdmin:   3,
	RoleSuperAdmin: 4,
}

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// IsValid checks if the role is one of the fixed roles.
func (r Role) IsValid() bool {
	_, ok := roleRanks[r]
	return ok
}

// Rank returns the role's position in the hierarchy, higher means more
// privileged. Zero for unknown roles.
func (r Role) Rank() int {
	return roleRanks[r]
}

// IsSuperAdmin checks if the role is the platform super-admin role.
func (r Role) IsSuperAdmin() bool {
	return r == RoleSuperAdmin
}

// ParseRole parses a stored role string. Unknown values degrade to the least
// privileged role rather than failing open.
func ParseRole(s string) Role {
	role := Role(s)
	if role.IsValid() {
		return role
	}
	return RoleExecutive
}

// CanManageRole reports whether an actor role may create or edit grants for
// the target role. Only strictly lower roles can be managed; lateral and
// upward management are always rejected, including between peers.
func CanManageRole(actor, target Role) bool {
	if !actor.IsValid() || !target.IsValid() {
		return false
	}
	return actor.Rank() > target.Rank()
}

// ManageableRoles returns the roles an actor may manage, in ascending rank
// order.
func ManageableRoles(actor Role) []Role {
	ordered := []Role{RoleExecutive, RoleManagement, RoleOrgAdmin, RoleSuperAdmin}
	result := make([]Role, 0, len(ordered))
	for _, r := range ordered {
		if CanManageRole(actor, r) {
			result = append(result, r)
		}
	}
	return result
}
