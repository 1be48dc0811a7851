package repository

import (
	"errors"

	"github.com/stewardhq/steward/internal/domain"

	"gorm.io/gorm"
)

var ErrRoleNotFound = errors.New("role not found")

type RoleRepository interface {
	FindByID(id uint) (*domain.Role, error)
	FindByName(name string) (*domain.Role, error)
	FindByNames(names []string) ([]domain.Role, error)
	List() ([]domain.Role, error)
	Create(role *domain.Role, grants []domain.RoleGrant) error
	ReplaceGrants(roleID uint, grants []domain.RoleGrant) error
}

type GormRoleRepository struct{ db *gorm.DB }

func NewRoleRepository(db *gorm.DB) RoleRepository { return &GormRoleRepository{db: db} }

func (r *GormRoleRepository) FindByID(id uint) (*domain.Role, error) {
	var role domain.Role
	if err := r.db.Preload("Grants").First(&role, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoleNotFound
		}
		return nil, err
	}
	return &role, nil
}

func (r *GormRoleRepository) FindByName(name string) (*domain.Role, error) {
	var role domain.Role
	err := r.db.Preload("Grants").Where("name = ?", name).First(&role).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoleNotFound
		}
		return nil, err
	}
	return &role, nil
}

func (r *GormRoleRepository) FindByNames(names []string) ([]domain.Role, error) {
	if len(names) == 0 {
		return nil, nil
	}
	var roles []domain.Role
	err := r.db.Preload("Grants").Where("name IN ?", names).Find(&roles).Error
	return roles, err
}

func (r *GormRoleRepository) List() ([]domain.Role, error) {
	var roles []domain.Role
	err := r.db.Preload("Grants").Order("name asc").Find(&roles).Error
	return roles, err
}

func (r *GormRoleRepository) Create(role *domain.Role, grants []domain.RoleGrant) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(role).Error; err != nil {
			return err
		}
		if len(grants) == 0 {
			return nil
		}
		for i := range grants {
			grants[i].RoleID = role.ID
		}
		return tx.Create(&grants).Error
	})
}

func (r *GormRoleRepository) ReplaceGrants(roleID uint, grants []domain.RoleGrant) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("role_id = ?", roleID).Delete(&domain.RoleGrant{}).Error; err != nil {
			return err
		}
		if len(grants) == 0 {
			return nil
		}
		for i := range grants {
			grants[i].RoleID = roleID
		}
		return tx.Create(&grants).Error
	})
}
