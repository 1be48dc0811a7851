package service

import (
	"github.com/stewardhq/steward/internal/domain"
	"github.com/stewardhq/steward/internal/repository"
)

type OperatorService struct {
	operatorRepo repository.OperatorRepository
	caps         *CapabilityService
}

func NewOperatorService(operatorRepo repository.OperatorRepository, caps *CapabilityService) *OperatorService {
	return &OperatorService{operatorRepo: operatorRepo, caps: caps}
}

func (s *OperatorService) GetByID(id uint) (*domain.Operator, *OperatorGrants, error) {
	op, err := s.operatorRepo.FindByID(id)
	if err != nil {
		return nil, nil, err
	}
	return op, s.caps.GrantsFromRoles(op.Roles), nil
}

func (s *OperatorService) List() ([]domain.Operator, error) {
	return s.operatorRepo.List()
}

func (s *OperatorService) SetRoles(operatorID uint, roleIDs []uint) error {
	return s.operatorRepo.SetRoles(operatorID, roleIDs)
}

func (s *OperatorService) AddRole(operatorID, roleID uint) error {
	return s.operatorRepo.AddRole(operatorID, roleID)
}
