package repository

import (
	"errors"
	"time"

	"github.com/stewardhq/steward/internal/domain"

	"gorm.io/gorm"
)

var ErrSessionNotFound = errors.New("session not found")

//go:generate mockgen -source=session_repository.go -destination=gomock/session_repository.go -package=gomock

type SessionRepository interface {
	Create(s *domain.Session) error
	FindValidByHash(hash string) (*domain.Session, error)
	FindByHash(hash string) (*domain.Session, error)
	FindActiveByTokenIDForOperator(operatorID uint, tokenID string) (*domain.Session, error)
	ListActiveByOperatorID(operatorID uint) ([]domain.Session, error)
	RevokeByHash(hash, reason string) error
	RevokeByOperatorID(operatorID uint, reason string) error
	RevokeByIDForOperator(operatorID, sessionID uint, reason string) (bool, error)
	RevokeOthersByOperator(operatorID, keepSessionID uint, reason string) (int64, error)
	CleanupExpired() (int64, error)
}

type GormSessionRepository struct{ db *gorm.DB }

func NewSessionRepository(db *gorm.DB) SessionRepository { return &GormSessionRepository{db: db} }

func (r *GormSessionRepository) Create(s *domain.Session) error { return r.db.Create(s).Error }

func (r *GormSessionRepository) FindValidByHash(hash string) (*domain.Session, error) {
	var s domain.Session
	err := r.db.Where("refresh_token_hash = ? AND revoked_at IS NULL AND expires_at > ?", hash, time.Now()).First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *GormSessionRepository) FindByHash(hash string) (*domain.Session, error) {
	var s domain.Session
	err := r.db.Where("refresh_token_hash = ?", hash).First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *GormSessionRepository) FindActiveByTokenIDForOperator(operatorID uint, tokenID string) (*domain.Session, error) {
	var s domain.Session
	err := r.db.Where("operator_id = ? AND access_token_id = ? AND revoked_at IS NULL AND expires_at > ?", operatorID, tokenID, time.Now()).First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *GormSessionRepository) ListActiveByOperatorID(operatorID uint) ([]domain.Session, error) {
	var out []domain.Session
	err := r.db.
		Where("operator_id = ? AND revoked_at IS NULL AND expires_at > ?", operatorID, time.Now()).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

func (r *GormSessionRepository) RevokeByHash(hash, reason string) error {
	return r.db.Model(&domain.Session{}).
		Where("refresh_token_hash = ? AND revoked_at IS NULL", hash).
		Updates(map[string]any{"revoked_at": time.Now(), "revoked_reason": reason}).Error
}

func (r *GormSessionRepository) RevokeByOperatorID(operatorID uint, reason string) error {
	return r.db.Model(&domain.Session{}).
		Where("operator_id = ? AND revoked_at IS NULL", operatorID).
		Updates(map[string]any{"revoked_at": time.Now(), "revoked_reason": reason}).Error
}

func (r *GormSessionRepository) RevokeByIDForOperator(operatorID, sessionID uint, reason string) (bool, error) {
	res := r.db.Model(&domain.Session{}).
		Where("id = ? AND operator_id = ? AND revoked_at IS NULL", sessionID, operatorID).
		Updates(map[string]any{"revoked_at": time.Now(), "revoked_reason": reason})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *GormSessionRepository) RevokeOthersByOperator(operatorID, keepSessionID uint, reason string) (int64, error) {
	res := r.db.Model(&domain.Session{}).
		Where("operator_id = ? AND id <> ? AND revoked_at IS NULL", operatorID, keepSessionID).
		Updates(map[string]any{"revoked_at": time.Now(), "revoked_reason": reason})
	return res.RowsAffected, res.Error
}

func (r *GormSessionRepository) CleanupExpired() (int64, error) {
	res := r.db.Where("expires_at <= ?", time.Now()).Delete(&domain.Session{})
	return res.RowsAffected, res.Error
}
