package database

import (
	"github.com/stewardhq/steward/internal/domain"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.Operator{},
		&domain.Role{},
		&domain.RoleGrant{},
		&domain.ACLGrant{},
		&domain.OAuthAccount{},
		&domain.LocalCredential{},
		&domain.Session{},
		&domain.Revision{},
		&domain.Product{},
		&domain.IdempotencyRecord{},
	)
}
