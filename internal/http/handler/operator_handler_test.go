package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/stewardhq/steward/internal/domain"
	"github.com/stewardhq/steward/internal/repository"
	"github.com/stewardhq/steward/internal/service"
)

type stubOperatorService struct {
	getByIDFn func(id uint) (*domain.Operator, *service.OperatorGrants, error)
}

func (s *stubOperatorService) GetByID(id uint) (*domain.Operator, *service.OperatorGrants, error) {
	return s.getByIDFn(id)
}
func (s *stubOperatorService) List() ([]domain.Operator, error)    { return nil, nil }
func (s *stubOperatorService) SetRoles(uint, []uint) error         { return nil }

type stubSessionRepo struct {
	sessions []domain.Session
	revoked  []uint
}

func (s *stubSessionRepo) Create(*domain.Session) error { return nil }
func (s *stubSessionRepo) FindValidByHash(string) (*domain.Session, error) {
	return nil, repository.ErrSessionNotFound
}
func (s *stubSessionRepo) FindByHash(string) (*domain.Session, error) {
	return nil, repository.ErrSessionNotFound
}
func (s *stubSessionRepo) FindActiveByTokenIDForOperator(operatorID uint, tokenID string) (*domain.Session, error) {
	for i := range s.sessions {
		if s.sessions[i].OperatorID == operatorID && s.sessions[i].AccessTokenID == tokenID {
			return &s.sessions[i], nil
		}
	}
	return nil, repository.ErrSessionNotFound
}
func (s *stubSessionRepo) ListActiveByOperatorID(operatorID uint) ([]domain.Session, error) {
	var out []domain.Session
	for _, sess := range s.sessions {
		if sess.OperatorID == operatorID && sess.RevokedAt == nil {
			out = append(out, sess)
		}
	}
	return out, nil
}
func (s *stubSessionRepo) RevokeByHash(string, string) error       { return nil }
func (s *stubSessionRepo) RevokeByOperatorID(uint, string) error   { return nil }
func (s *stubSessionRepo) RevokeByIDForOperator(operatorID, sessionID uint, _ string) (bool, error) {
	for _, sess := range s.sessions {
		if sess.OperatorID == operatorID && sess.ID == sessionID {
			s.revoked = append(s.revoked, sessionID)
			return true, nil
		}
	}
	return false, repository.ErrSessionNotFound
}
func (s *stubSessionRepo) RevokeOthersByOperator(operatorID, keepSessionID uint, _ string) (int64, error) {
	var n int64
	for _, sess := range s.sessions {
		if sess.OperatorID == operatorID && sess.ID != keepSessionID {
			s.revoked = append(s.revoked, sess.ID)
			n++
		}
	}
	return n, nil
}
func (s *stubSessionRepo) CleanupExpired() (int64, error) { return 0, nil }

func TestMeReturnsOperatorWithGrants(t *testing.T) {
	opSvc := &stubOperatorService{
		getByIDFn: func(id uint) (*domain.Operator, *service.OperatorGrants, error) {
			return &domain.Operator{ID: id, Email: "op@example.com"},
				&service.OperatorGrants{Grants: map[string]int64{"product": 1}}, nil
		},
	}
	h := NewOperatorHandler(opSvc, service.NewSessionService(&stubSessionRepo{}, "pepper"))

	r := withClaims(httptest.NewRequest(http.MethodGet, "/api/v1/me", nil), "7")
	w := httptest.NewRecorder()

	h.Me(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "op@example.com") {
		t.Fatalf("expected operator email in body: %s", w.Body.String())
	}
}

func TestMeWithoutClaimsIsUnauthorized(t *testing.T) {
	h := NewOperatorHandler(&stubOperatorService{}, service.NewSessionService(&stubSessionRepo{}, "pepper"))

	r := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	w := httptest.NewRecorder()

	h.Me(w, r)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestListSessionsMarksCurrent(t *testing.T) {
	repo := &stubSessionRepo{sessions: []domain.Session{
		{ID: 1, OperatorID: 7, AccessTokenID: "sess-a", ExpiresAt: time.Now().Add(time.Hour)},
		{ID: 2, OperatorID: 7, AccessTokenID: "sess-b", ExpiresAt: time.Now().Add(time.Hour)},
	}}
	h := NewOperatorHandler(&stubOperatorService{}, service.NewSessionService(repo, "pepper"))

	r := withClaimsAndSession(httptest.NewRequest(http.MethodGet, "/api/v1/me/sessions", nil), "7", "sess-a")
	w := httptest.NewRecorder()

	h.ListSessions(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var payload struct {
		Sessions []struct {
			ID        uint `json:"id"`
			IsCurrent bool `json:"is_current"`
		} `json:"sessions"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(payload.Sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(payload.Sessions))
	}
	for _, s := range payload.Sessions {
		if s.ID == 1 && !s.IsCurrent {
			t.Fatal("expected session 1 to be marked current")
		}
		if s.ID == 2 && s.IsCurrent {
			t.Fatal("session 2 must not be current")
		}
	}
}

func TestRevokeSessionForDifferentOperatorIsNotFound(t *testing.T) {
	repo := &stubSessionRepo{sessions: []domain.Session{
		{ID: 3, OperatorID: 99, ExpiresAt: time.Now().Add(time.Hour)},
	}}
	h := NewOperatorHandler(&stubOperatorService{}, service.NewSessionService(repo, "pepper"))

	r := withClaims(httptest.NewRequest(http.MethodDelete, "/api/v1/me/sessions/3", nil), "7")
	r = withURLParam(r, "sessionID", "3")
	w := httptest.NewRecorder()

	h.RevokeSession(w, r)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for another operator's session, got %d", w.Code)
	}
	if len(repo.revoked) != 0 {
		t.Fatalf("nothing should be revoked, got %v", repo.revoked)
	}
}

func TestRevokeOtherSessionsKeepsCurrent(t *testing.T) {
	repo := &stubSessionRepo{sessions: []domain.Session{
		{ID: 1, OperatorID: 7, AccessTokenID: "sess-a", ExpiresAt: time.Now().Add(time.Hour)},
		{ID: 2, OperatorID: 7, AccessTokenID: "sess-b", ExpiresAt: time.Now().Add(time.Hour)},
		{ID: 3, OperatorID: 7, AccessTokenID: "sess-c", ExpiresAt: time.Now().Add(time.Hour)},
	}}
	h := NewOperatorHandler(&stubOperatorService{}, service.NewSessionService(repo, "pepper"))

	r := withClaimsAndSession(httptest.NewRequest(http.MethodPost, "/api/v1/me/sessions/revoke-others", nil), "7", "sess-a")
	w := httptest.NewRecorder()

	h.RevokeOtherSessions(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if len(repo.revoked) != 2 {
		t.Fatalf("expected 2 revoked sessions, got %v", repo.revoked)
	}
	for _, id := range repo.revoked {
		if id == 1 {
			t.Fatal("current session must survive revoke-others")
		}
	}
}
