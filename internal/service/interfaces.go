package service

import "github.com/stewardhq/steward/internal/domain"

type AuthServiceInterface interface {
	GoogleLoginURL(state string) string
	LoginWithGoogleCode(code, ua, ip string) (*LoginResult, error)
	LoginWithLocalPassword(email, password, ua, ip string) (*LoginResult, error)
	ChangeLocalPassword(operatorID uint, currentPassword, newPassword string) error
	Refresh(refreshToken, ua, ip string) (*LoginResult, error)
	Logout(operatorID uint) error
	ParseOperatorID(subject string) (uint, error)
}

type OperatorServiceInterface interface {
	GetByID(id uint) (*domain.Operator, *OperatorGrants, error)
	List() ([]domain.Operator, error)
	SetRoles(operatorID uint, roleIDs []uint) error
}
