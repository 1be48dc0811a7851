package domain

import "time"

// OAuthAccount links an operator to an external identity provider account.
type OAuthAccount struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	OperatorID     uint      `gorm:"not null;index" json:"operator_id"`
	Provider       string    `gorm:"size:32;not null;uniqueIndex:idx_oauth_provider_user" json:"provider"`
	ProviderUserID string    `gorm:"size:255;not null;uniqueIndex:idx_oauth_provider_user" json:"provider_user_id"`
	EmailVerified  bool      `gorm:"not null;default:false" json:"email_verified"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
