package organization

import (
	"fmt"
	"strings"
	"time"
)

// Organization is a tenant of the suite. Its license tier decides which
// modules provisioning seeds; the entitlement rows remain the runtime
// authority afterwards.
type Organization struct {
	id        uint
	name      string
	tier      string
	active    bool
	createdAt time.Time
	updatedAt time.Time
}

// NewOrganization creates an organization aggregate with validation.
func NewOrganization(name, tier string) (*Organization, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("organization name is required")
	}
	if tier == "" {
		return nil, fmt.Errorf("license tier is required")
	}

	now := time.Now()
	return &Organization{
		name:      name,
		tier:      tier,
		active:    true,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// ReconstructOrganization recreates an organization from persistence.
func ReconstructOrganization(id uint, name, tier string, active bool, createdAt, updatedAt time.Time) (*Organization, error) {
	if id == 0 {
		return nil, fmt.Errorf("organization ID cannot be zero")
	}
	return &Organization{
		id:        id,
		name:      name,
		tier:      tier,
		active:    active,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}, nil
}

func (o *Organization) ID() uint             { return o.id }
func (o *Organization) Name() string         { return o.name }
func (o *Organization) Tier() string         { return o.tier }
func (o *Organization) IsActive() bool       { return o.active }
func (o *Organization) CreatedAt() time.Time { return o.createdAt }
func (o *Organization) UpdatedAt() time.Time { return o.updatedAt }

// SetID sets the ID after persistence. Fails if already set.
func (o *Organization) SetID(id uint) error {
	if o.id != 0 {
		return fmt.Errorf("organization ID already set")
	}
	if id == 0 {
		return fmt.Errorf("organization ID cannot be zero")
	}
	o.id = id
	return nil
}

// ChangeTier records a license tier change. Entitlement rows are adjusted
// separately; the tier is a provisioning input, not a runtime gate.
func (o *Organization) ChangeTier(tier string) error {
	if tier == "" {
		return fmt.Errorf("license tier is required")
	}
	o.tier = tier
	o.updatedAt = time.Now()
	return nil
}

// Deactivate suspends the tenant.
func (o *Organization) Deactivate() {
	if !o.active {
		return
	}
	o.active = false
	o.updatedAt = time.Now()
}

// Activate reinstates the tenant.
func (o *Organization) Activate() {
	if o.active {
		return
	}
	o.active = true
	o.updatedAt = time.Now()
}
