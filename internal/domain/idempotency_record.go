package domain

import "time"

// IdempotencyRecord reserves one idempotency key within a scope and caches
// the final response for replay until ExpiresAt.
type IdempotencyRecord struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Scope           string    `gorm:"size:128;not null;uniqueIndex:idx_idempotency_scope_key" json:"scope"`
	IdempotencyKey  string    `gorm:"size:256;not null;uniqueIndex:idx_idempotency_scope_key" json:"idempotency_key"`
	FingerprintHash string    `gorm:"size:128;not null" json:"-"`
	Status          string    `gorm:"size:32;not null" json:"status"`
	ResponseStatus  int       `json:"response_status"`
	ResponseBody    []byte    `json:"-"`
	ContentType     string    `gorm:"size:128" json:"content_type"`
	ExpiresAt       time.Time `gorm:"not null;index" json:"expires_at"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
