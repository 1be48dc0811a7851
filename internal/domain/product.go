package domain

import "time"

// Product is a catalog item managed through the console and served
// read-only on the public API.
type Product struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	SKU         string    `gorm:"uniqueIndex;size:64;not null" json:"sku"`
	Name        string    `gorm:"size:120;not null;index" json:"name"`
	Description string    `gorm:"size:500" json:"description"`
	Price       float64   `gorm:"not null" json:"price"`
	Stock       int       `gorm:"not null;default:0" json:"stock"`
	Status      string    `gorm:"size:32;not null;default:draft;index" json:"status"`
	LockVersion int64     `gorm:"not null;default:0" json:"lock_version"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

const (
	ProductStatusDraft     = "draft"
	ProductStatusPublished = "published"
	ProductStatusArchived  = "archived"
)

// Version and SetVersion implement the optimistic-lock contract checked by
// the model manager on update.
func (p *Product) Version() int64     { return p.LockVersion }
func (p *Product) SetVersion(v int64) { p.LockVersion = v }
