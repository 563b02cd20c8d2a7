package dto

import "time"

// RoleGrantsResponse lists a role's permission grants.
type RoleGrantsResponse struct {
	Role   string   `json:"role"`
	Grants []string `json:"grants"`
}

// UpdateRoleGrantsRequest replaces a role's grants. The acting user can only
// manage roles strictly below their own.
type UpdateRoleGrantsRequest struct {
	Role   string   `json:"role" binding:"required"`
	Grants []string `json:"grants" binding:"required"`
}

// GrantDelegationRequest delegates one of the caller's permissions to
// another user in the same organization.
type GrantDelegationRequest struct {
	DelegateeID uint   `json:"delegatee_id" binding:"required"`
	Permission  string `json:"permission" binding:"required,permission_key"`
}

// DelegationResponse is the externally visible shape of a delegation.
type DelegationResponse struct {
	ID          uint      `json:"id"`
	DelegatorID uint      `json:"delegator_id"`
	DelegateeID uint      `json:"delegatee_id"`
	Permission  string    `json:"permission"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
