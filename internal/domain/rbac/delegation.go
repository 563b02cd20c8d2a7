package rbac

import (
	"fmt"
	"time"
)

// Delegation is a per-user grant layered on top of role grants. A delegation
// can only add to what the role already allows, never revoke, and is
// independently revocable by deactivating it.
type Delegation struct {
	id          uint
	delegatorID uint
	delegateeID uint
	permission  string
	active      bool
	createdAt   time.Time
	updatedAt   time.Time
}

// NewDelegation creates an active delegation of a permission key from one
// user to another.
func NewDelegation(delegatorID, delegateeID uint, permission string) (*Delegation, error) {
	if delegatorID == 0 {
		return nil, fmt.Errorf("delegator ID is required")
	}
	if delegateeID == 0 {
		return nil, fmt.Errorf("delegatee ID is required")
	}
	if delegatorID == delegateeID {
		return nil, fmt.Errorf("cannot delegate a permission to yourself")
	}
	if _, _, _, err := ParsePermissionKey(permission); err != nil {
		return nil, err
	}

	now := time.Now()
	return &Delegation{
		delegatorID: delegatorID,
		delegateeID: delegateeID,
		permission:  permission,
		active:      true,
		createdAt:   now,
		updatedAt:   now,
	}, nil
}

// ReconstructDelegation rebuilds a delegation from persistence.
func ReconstructDelegation(id, delegatorID, delegateeID uint, permission string, active bool, createdAt, updatedAt time.Time) (*Delegation, error) {
	if id == 0 {
		return nil, fmt.Errorf("delegation ID cannot be zero")
	}
	if delegatorID == 0 || delegateeID == 0 {
		return nil, fmt.Errorf("delegator and delegatee IDs are required")
	}
	return &Delegation{
		id:          id,
		delegatorID: delegatorID,
		delegateeID: delegateeID,
		permission:  permission,
		active:      active,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}, nil
}

func (d *Delegation) ID() uint            { return d.id }
func (d *Delegation) DelegatorID() uint   { return d.delegatorID }
func (d *Delegation) DelegateeID() uint   { return d.delegateeID }
func (d *Delegation) Permission() string  { return d.permission }
func (d *Delegation) IsActive() bool      { return d.active }
func (d *Delegation) CreatedAt() time.Time { return d.createdAt }
func (d *Delegation) UpdatedAt() time.Time { return d.updatedAt }

// SetID sets the delegation ID after persistence assigns it.
func (d *Delegation) SetID(id uint) error {
	if d.id != 0 {
		return fmt.Errorf("delegation ID is already set")
	}
	if id == 0 {
		return fmt.Errorf("delegation ID cannot be zero")
	}
	d.id = id
	return nil
}

// Revoke deactivates the delegation. Revoking twice is a no-op.
func (d *Delegation) Revoke() {
	if !d.active {
		return
	}
	d.active = false
	d.updatedAt = time.Now()
}

// Reactivate turns a revoked delegation back on.
func (d *Delegation) Reactivate() {
	if d.active {
		return
	}
	d.active = true
	d.updatedAt = time.Now()
}
