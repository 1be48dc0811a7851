package repository

import (
	"errors"

	"github.com/stewardhq/steward/internal/domain"

	"gorm.io/gorm"
)

var ErrOperatorNotFound = errors.New("operator not found")

type OperatorRepository interface {
	FindByID(id uint) (*domain.Operator, error)
	FindByEmail(email string) (*domain.Operator, error)
	Create(op *domain.Operator) error
	Update(op *domain.Operator) error
	List() ([]domain.Operator, error)
	SetRoles(operatorID uint, roleIDs []uint) error
	AddRole(operatorID, roleID uint) error
}

type GormOperatorRepository struct{ db *gorm.DB }

func NewOperatorRepository(db *gorm.DB) OperatorRepository { return &GormOperatorRepository{db: db} }

func (r *GormOperatorRepository) FindByID(id uint) (*domain.Operator, error) {
	var op domain.Operator
	err := r.db.Preload("Roles.Grants").First(&op, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOperatorNotFound
		}
		return nil, err
	}
	return &op, nil
}

func (r *GormOperatorRepository) FindByEmail(email string) (*domain.Operator, error) {
	var op domain.Operator
	err := r.db.Preload("Roles.Grants").Where("email = ?", email).First(&op).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOperatorNotFound
		}
		return nil, err
	}
	return &op, nil
}

func (r *GormOperatorRepository) Create(op *domain.Operator) error { return r.db.Create(op).Error }
func (r *GormOperatorRepository) Update(op *domain.Operator) error { return r.db.Save(op).Error }

func (r *GormOperatorRepository) List() ([]domain.Operator, error) {
	var ops []domain.Operator
	err := r.db.Preload("Roles").Find(&ops).Error
	return ops, err
}

func (r *GormOperatorRepository) SetRoles(operatorID uint, roleIDs []uint) error {
	var roles []domain.Role
	if len(roleIDs) > 0 {
		if err := r.db.Where("id IN ?", roleIDs).Find(&roles).Error; err != nil {
			return err
		}
	}
	op := domain.Operator{ID: operatorID}
	return r.db.Model(&op).Association("Roles").Replace(roles)
}

func (r *GormOperatorRepository) AddRole(operatorID, roleID uint) error {
	op := domain.Operator{ID: operatorID}
	role := domain.Role{ID: roleID}
	return r.db.Model(&op).Association("Roles").Append(&role)
}
