package domain

import "time"

// Session is a refresh-token record for an operator sign-in. AccessTokenID
// holds the jti of the access token issued alongside the refresh token, so
// the current session can be matched from access-token claims.
type Session struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	OperatorID       uint       `gorm:"not null;index" json:"operator_id"`
	RefreshTokenHash string     `gorm:"uniqueIndex;size:128;not null" json:"-"`
	AccessTokenID    string     `gorm:"size:64;index" json:"-"`
	UserAgent        string     `gorm:"size:512" json:"user_agent"`
	IP               string     `gorm:"size:64" json:"ip"`
	ExpiresAt        time.Time  `gorm:"not null;index" json:"expires_at"`
	RevokedAt        *time.Time `json:"revoked_at,omitempty"`
	RevokedReason    string     `gorm:"size:64" json:"-"`
	CreatedAt        time.Time  `json:"created_at"`
}
