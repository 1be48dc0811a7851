package repository

import (
	"strings"
	"time"

	"github.com/stewardhq/steward/internal/domain"

	"gorm.io/gorm"
)

type LocalCredentialRepository interface {
	Create(credential *domain.LocalCredential) error
	FindByOperatorID(operatorID uint) (*domain.LocalCredential, error)
	FindByEmail(email string) (*domain.LocalCredential, error)
	UpdatePassword(operatorID uint, newHash string) error
}

type GormLocalCredentialRepository struct {
	db *gorm.DB
}

func NewLocalCredentialRepository(db *gorm.DB) LocalCredentialRepository {
	return &GormLocalCredentialRepository{db: db}
}

func (r *GormLocalCredentialRepository) Create(credential *domain.LocalCredential) error {
	return r.db.Create(credential).Error
}

func (r *GormLocalCredentialRepository) FindByOperatorID(operatorID uint) (*domain.LocalCredential, error) {
	var c domain.LocalCredential
	if err := r.db.Where("operator_id = ?", operatorID).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *GormLocalCredentialRepository) FindByEmail(email string) (*domain.LocalCredential, error) {
	var c domain.LocalCredential
	normalized := strings.TrimSpace(strings.ToLower(email))
	err := r.db.
		Joins("JOIN operators ON operators.id = local_credentials.operator_id").
		Where("operators.email = ?", normalized).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *GormLocalCredentialRepository) UpdatePassword(operatorID uint, newHash string) error {
	return r.db.Model(&domain.LocalCredential{}).Where("operator_id = ?", operatorID).
		Updates(map[string]any{"password_hash": newHash, "updated_at": time.Now().UTC()}).Error
}
