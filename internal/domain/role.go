package domain

import "time"

// Role groups capability grants. An operator holds the union of the grants
// of all assigned roles.
type Role struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	Name        string      `gorm:"uniqueIndex;size:64;not null" json:"name"`
	Description string      `gorm:"size:255" json:"description"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
	Grants      []RoleGrant `gorm:"constraint:OnDelete:CASCADE" json:"grants,omitempty"`
}

// RoleGrant assigns a capability mask to a role for one admin code.
// AdminCode "*" applies to every registered admin.
type RoleGrant struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	RoleID       uint      `gorm:"not null;uniqueIndex:idx_role_grants_role_admin" json:"role_id"`
	AdminCode    string    `gorm:"size:64;not null;uniqueIndex:idx_role_grants_role_admin" json:"admin_code"`
	Capabilities int64     `gorm:"not null;default:0" json:"capabilities"`
	CreatedAt    time.Time `json:"created_at"`
}

const GrantAllAdmins = "*"
