package domain

import "time"

// Operator is a console account. Operators sign in with a local password
// or Google SSO and act on managed entities through the admin surface.
type Operator struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Email       string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	AvatarURL   string    `gorm:"size:1024" json:"avatar_url"`
	Status      string    `gorm:"size:32;not null;default:active;index:idx_operators_status" json:"status"`
	LastLoginAt time.Time `json:"last_login_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Roles       []Role    `gorm:"many2many:operator_roles" json:"roles,omitempty"`
}

const (
	OperatorStatusActive   = "active"
	OperatorStatusDisabled = "disabled"
)
