package rbac

import (
	"fmt"
	"strings"
)

// Action is an operation on a module, e.g. read or write.
type Action string

const (
	ActionRead   Action = "read"
	ActionWrite  Action = "write"
	ActionDelete Action = "delete"
	ActionExport Action = "export"
)

// IsValid checks if the action is one of the known actions.
func (a Action) IsValid() bool {
	switch a {
	case ActionRead, ActionWrite, ActionDelete, ActionExport:
		return true
	default:
		return false
	}
}

// String returns the string representation of the action.
func (a Action) String() string {
	return string(a)
}

// PermissionKey identifies a grantable permission as
// "module.action" or "module.submodule.action".
func PermissionKey(moduleKey, submoduleKey string, action Action) string {
	if submoduleKey == "" {
		return moduleKey + "." + string(action)
	}
	return moduleKey + "." + submoduleKey + "." + string(action)
}

// ParsePermissionKey splits a permission key back into its parts.
func ParsePermissionKey(key string) (moduleKey, submoduleKey string, action Action, err error) {
	parts := strings.Split(key, ".")
	switch len(parts) {
	case 2:
		moduleKey, action = parts[0], Action(parts[1])
	case 3:
		moduleKey, submoduleKey, action = parts[0], parts[1], Action(parts[2])
	default:
		return "", "", "", fmt.Errorf("invalid permission key: %s", key)
	}
	if moduleKey == "" || !action.IsValid() {
		return "", "", "", fmt.Errorf("invalid permission key: %s", key)
	}
	return moduleKey, submoduleKey, action, nil
}

// Grant is a single role permission row: a role holds (or is denied) an
// action on a module or submodule.
type Grant struct {
	Role         Role
	ModuleKey    string
	SubmoduleKey string
	Action       Action
}

// Key returns the grant's permission key.
func (g Grant) Key() string {
	return PermissionKey(g.ModuleKey, g.SubmoduleKey, g.Action)
}

// Validate performs domain-level validation of the grant.
func (g Grant) Validate() error {
	if !g.Role.IsValid() {
		return fmt.Errorf("invalid role: %s", g.Role)
	}
	if g.ModuleKey == "" {
		return fmt.Errorf("module key is required")
	}
	if !g.Action.IsValid() {
		return fmt.Errorf("invalid action: %s", g.Action)
	}
	return nil
}
