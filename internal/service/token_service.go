package service

import (
	"fmt"
	"strconv"
	"time"

	"github.com/stewardhq/steward/internal/domain"
	"github.com/stewardhq/steward/internal/repository"
	"github.com/stewardhq/steward/internal/security"
)

type TokenService struct {
	jwtMgr      *security.JWTManager
	sessionRepo repository.SessionRepository
	pepper      string
	accessTTL   time.Duration
	refreshTTL  time.Duration
}

func NewTokenService(jwtMgr *security.JWTManager, sessionRepo repository.SessionRepository, pepper string, accessTTL, refreshTTL time.Duration) *TokenService {
	return &TokenService{jwtMgr: jwtMgr, sessionRepo: sessionRepo, pepper: pepper, accessTTL: accessTTL, refreshTTL: refreshTTL}
}

func (s *TokenService) Issue(op *domain.Operator, ua, ip string) (access string, refresh string, csrf string, err error) {
	roles := make([]string, 0, len(op.Roles))
	for _, r := range op.Roles {
		roles = append(roles, r.Name)
	}
	access, tokenID, err := s.jwtMgr.SignAccessToken(op.ID, op.Email, roles, s.accessTTL)
	if err != nil {
		return "", "", "", err
	}
	refresh, err = s.jwtMgr.SignRefreshToken(op.ID, s.refreshTTL)
	if err != nil {
		return "", "", "", err
	}
	hash := security.HashRefreshToken(refresh, s.pepper)
	if err := s.sessionRepo.Create(&domain.Session{OperatorID: op.ID, RefreshTokenHash: hash, AccessTokenID: tokenID, UserAgent: ua, IP: ip, ExpiresAt: time.Now().Add(s.refreshTTL)}); err != nil {
		return "", "", "", err
	}
	csrf, err = security.NewCSRFToken()
	if err != nil {
		return "", "", "", err
	}
	return access, refresh, csrf, nil
}

func (s *TokenService) Rotate(refreshToken string, operatorFetcher func(id uint) (*domain.Operator, *OperatorGrants, error), ua, ip string) (access string, newRefresh string, csrf string, operatorID uint, err error) {
	claims, err := s.jwtMgr.ParseRefreshToken(refreshToken)
	if err != nil {
		return "", "", "", 0, err
	}
	hash := security.HashRefreshToken(refreshToken, s.pepper)
	session, err := s.sessionRepo.FindValidByHash(hash)
	if err != nil {
		return "", "", "", 0, err
	}
	if err := s.sessionRepo.RevokeByHash(hash, "rotated"); err != nil {
		return "", "", "", 0, err
	}
	id64, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return "", "", "", 0, fmt.Errorf("invalid subject")
	}
	operatorID = uint(id64)
	if session.OperatorID != operatorID {
		return "", "", "", 0, fmt.Errorf("session mismatch")
	}
	op, _, err := operatorFetcher(operatorID)
	if err != nil {
		return "", "", "", 0, err
	}
	access, newRefresh, csrf, err = s.Issue(op, ua, ip)
	if err != nil {
		return "", "", "", 0, err
	}
	return access, newRefresh, csrf, operatorID, nil
}

func (s *TokenService) RevokeAll(operatorID uint, reason string) error {
	return s.sessionRepo.RevokeByOperatorID(operatorID, reason)
}
