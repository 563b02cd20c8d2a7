package models

import "time"

// OrgEntitlementModel is the GORM model for the org_entitlements table. One
// row per (org, module) or (org, module, submodule); submodule_key is empty
// for module-level rows.
type OrgEntitlementModel struct {
	ID           uint       `gorm:"primaryKey;autoIncrement"`
	OrgID        uint       `gorm:"column:org_id;not null;uniqueIndex:uk_org_module,priority:1"`
	ModuleKey    string     `gorm:"column:module_key;type:varchar(50);not null;uniqueIndex:uk_org_module,priority:2"`
	SubmoduleKey string     `gorm:"column:submodule_key;type:varchar(50);not null;default:'';uniqueIndex:uk_org_module,priority:3"`
	Status       string     `gorm:"column:status;type:varchar(20);not null"`
	TrialExpiry  *time.Time `gorm:"column:trial_expiry"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName returns the table name for GORM
func (OrgEntitlementModel) TableName() string {
	return "org_entitlements"
}
