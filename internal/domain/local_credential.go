package domain

import "time"

// LocalCredential stores the argon2id password hash for an operator that
// signs in without SSO.
type LocalCredential struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	OperatorID   uint      `gorm:"uniqueIndex;not null" json:"operator_id"`
	PasswordHash string    `gorm:"size:1024;not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
