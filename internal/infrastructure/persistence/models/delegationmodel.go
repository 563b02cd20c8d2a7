package models

import "time"

// DelegationModel is the GORM model for the permission_delegations table.
// One row per (delegatee, permission); revoking flips active instead of
// deleting so the delegation can be reactivated with its history intact.
type DelegationModel struct {
	ID          uint      `gorm:"primaryKey;autoIncrement"`
	DelegatorID uint      `gorm:"column:delegator_id;not null;index"`
	DelegateeID uint      `gorm:"column:delegatee_id;not null;uniqueIndex:uk_delegatee_permission,priority:1"`
	Permission  string    `gorm:"column:permission;type:varchar(150);not null;uniqueIndex:uk_delegatee_permission,priority:2"`
	Active      bool      `gorm:"column:active;not null;default:true"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName returns the table name for GORM
func (DelegationModel) TableName() string {
	return "permission_delegations"
}
