package service

import (
	"errors"
	"net/http"
	"time"

	"github.com/stewardhq/steward/internal/repository"
	"github.com/stewardhq/steward/internal/security"
)

// SessionView is the operator-facing projection of a session row.
type SessionView struct {
	ID        uint       `json:"id"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt time.Time  `json:"expires_at"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
	UserAgent string     `json:"user_agent"`
	IP        string     `json:"ip"`
	IsCurrent bool       `json:"is_current"`
}

// SessionService lets an operator inspect and revoke their own sign-ins.
type SessionService struct {
	repo   repository.SessionRepository
	pepper string
}

func NewSessionService(repo repository.SessionRepository, pepper string) *SessionService {
	return &SessionService{repo: repo, pepper: pepper}
}

func (s *SessionService) ListActiveSessions(operatorID, currentSessionID uint) ([]SessionView, error) {
	sessions, err := s.repo.ListActiveByOperatorID(operatorID)
	if err != nil {
		return nil, err
	}
	views := make([]SessionView, 0, len(sessions))
	for _, sess := range sessions {
		views = append(views, SessionView{
			ID:        sess.ID,
			CreatedAt: sess.CreatedAt,
			ExpiresAt: sess.ExpiresAt,
			RevokedAt: sess.RevokedAt,
			UserAgent: sess.UserAgent,
			IP:        sess.IP,
			IsCurrent: sess.ID == currentSessionID,
		})
	}
	return views, nil
}

// ResolveCurrentSessionID finds the session behind the request: first by the
// access token's jti, then by the refresh cookie hash. The fallback covers
// sessions created before jti tracking and requests right after a rotation.
func (s *SessionService) ResolveCurrentSessionID(r *http.Request, claims *security.Claims, operatorID uint) (uint, error) {
	if claims != nil && claims.ID != "" {
		sess, err := s.repo.FindActiveByTokenIDForOperator(operatorID, claims.ID)
		if err == nil {
			return sess.ID, nil
		}
		if !errors.Is(err, repository.ErrSessionNotFound) {
			return 0, err
		}
	}

	refresh := security.GetCookie(r, security.RefreshTokenCookie)
	if refresh == "" {
		return 0, repository.ErrSessionNotFound
	}
	hash := security.HashRefreshToken(refresh, s.pepper)
	sess, err := s.repo.FindByHash(hash)
	if err != nil {
		return 0, err
	}
	if sess.OperatorID != operatorID || sess.RevokedAt != nil || !sess.ExpiresAt.After(time.Now()) {
		return 0, repository.ErrSessionNotFound
	}
	return sess.ID, nil
}

func (s *SessionService) RevokeSession(operatorID, sessionID uint) (string, error) {
	revoked, err := s.repo.RevokeByIDForOperator(operatorID, sessionID, "operator_session_revoked")
	if err != nil {
		return "", err
	}
	if !revoked {
		return "already_revoked", nil
	}
	return "revoked", nil
}

func (s *SessionService) RevokeOtherSessions(operatorID, currentSessionID uint) (int64, error) {
	return s.repo.RevokeOthersByOperator(operatorID, currentSessionID, "operator_revoke_others")
}
