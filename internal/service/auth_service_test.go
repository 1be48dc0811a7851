package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/mock/gomock"
	"golang.org/x/oauth2"
	"gorm.io/gorm"

	"github.com/stewardhq/steward/internal/config"
	"github.com/stewardhq/steward/internal/domain"
	"github.com/stewardhq/steward/internal/security"
)

func TestAuthServiceRegisterLocalMatrix(t *testing.T) {
	t.Run("local auth disabled", func(t *testing.T) {
		fx := newAuthServiceFixture()
		fx.cfg.AuthLocalEnabled = false

		_, err := fx.auth.RegisterLocal("user@example.com", "User", "StrongPass123!")
		if !errors.Is(err, ErrLocalAuthDisabled) {
			t.Fatalf("expected ErrLocalAuthDisabled, got %v", err)
		}
	})

	t.Run("invalid email", func(t *testing.T) {
		fx := newAuthServiceFixture()
		_, err := fx.auth.RegisterLocal("bad-email", "User", "StrongPass123!")
		if err == nil || !strings.Contains(err.Error(), "invalid email") {
			t.Fatalf("expected invalid email error, got %v", err)
		}
	})

	t.Run("missing name", func(t *testing.T) {
		fx := newAuthServiceFixture()
		_, err := fx.auth.RegisterLocal("user@example.com", "   ", "StrongPass123!")
		if err == nil || !strings.Contains(err.Error(), "name is required") {
			t.Fatalf("expected name required error, got %v", err)
		}
	})

	t.Run("weak password", func(t *testing.T) {
		fx := newAuthServiceFixture()
		_, err := fx.auth.RegisterLocal("user@example.com", "User", "weak")
		if !errors.Is(err, ErrWeakPassword) {
			t.Fatalf("expected ErrWeakPassword, got %v", err)
		}
	})

	t.Run("duplicate email", func(t *testing.T) {
		fx := newAuthServiceFixture()
		fx.seedOperator("dupe@example.com", "Dupe")

		_, err := fx.auth.RegisterLocal("dupe@example.com", "User", "StrongPass123!")
		if err == nil || !strings.Contains(err.Error(), "email already registered") {
			t.Fatalf("expected duplicate email error, got %v", err)
		}
	})

	t.Run("success creates operator and credential", func(t *testing.T) {
		fx := newAuthServiceFixture()

		op, err := fx.auth.RegisterLocal("new@example.com", "New Operator", "StrongPass123!")
		if err != nil {
			t.Fatalf("register: %v", err)
		}
		if op.ID == 0 || op.Email != "new@example.com" {
			t.Fatalf("unexpected operator: %+v", op)
		}
		if _, err := fx.localRepo.FindByOperatorID(op.ID); err != nil {
			t.Fatalf("expected stored credential, got %v", err)
		}
	})

	t.Run("bootstrap master assignment success", func(t *testing.T) {
		fx := newAuthServiceFixture()
		fx.cfg.BootstrapMasterEmail = "boss@example.com"
		fx.roleRepo.byName["master"] = &domain.Role{ID: 99, Name: "master"}

		_, err := fx.auth.RegisterLocal("boss@example.com", "Boss", "StrongPass123!")
		if err != nil {
			t.Fatalf("register: %v", err)
		}
		if !fx.operatorRepo.hasRoleID("boss@example.com", 99) {
			t.Fatal("expected bootstrap master role assignment")
		}
	})

	t.Run("bootstrap master assignment error", func(t *testing.T) {
		fx := newAuthServiceFixture()
		fx.cfg.BootstrapMasterEmail = "boss@example.com"
		fx.roleRepo.findByNameErr["master"] = errors.New("master role lookup failed")

		_, err := fx.auth.RegisterLocal("boss@example.com", "Boss", "StrongPass123!")
		if err == nil || !strings.Contains(err.Error(), "master role lookup failed") {
			t.Fatalf("expected bootstrap role lookup error, got %v", err)
		}
	})
}

func TestAuthServiceLoginWithLocalPasswordMatrix(t *testing.T) {
	t.Run("local auth disabled", func(t *testing.T) {
		fx := newAuthServiceFixture()
		fx.cfg.AuthLocalEnabled = false

		_, err := fx.auth.LoginWithLocalPassword("user@example.com", "StrongPass123!", "ua", "127.0.0.1")
		if !errors.Is(err, ErrLocalAuthDisabled) {
			t.Fatalf("expected ErrLocalAuthDisabled, got %v", err)
		}
	})

	t.Run("unknown email", func(t *testing.T) {
		fx := newAuthServiceFixture()
		_, err := fx.auth.LoginWithLocalPassword("nobody@example.com", "StrongPass123!", "ua", "127.0.0.1")
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		fx := newAuthServiceFixture()
		fx.seedLocalOperator("user@example.com", "User", "StrongPass123!")

		_, err := fx.auth.LoginWithLocalPassword("user@example.com", "WrongPass123!", "ua", "127.0.0.1")
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("disabled operator", func(t *testing.T) {
		fx := newAuthServiceFixture()
		oid := fx.seedLocalOperator("off@example.com", "Off", "StrongPass123!")
		fx.operatorRepo.byID[oid].Status = domain.OperatorStatusDisabled

		_, err := fx.auth.LoginWithLocalPassword("off@example.com", "StrongPass123!", "ua", "127.0.0.1")
		if !errors.Is(err, ErrOperatorDisabled) {
			t.Fatalf("expected ErrOperatorDisabled, got %v", err)
		}
	})

	t.Run("success issues tokens", func(t *testing.T) {
		fx := newAuthServiceFixture()
		fx.seedLocalOperator("user@example.com", "User", "StrongPass123!")

		res, err := fx.auth.LoginWithLocalPassword("user@example.com", "StrongPass123!", "ua", "127.0.0.1")
		if err != nil {
			t.Fatalf("login: %v", err)
		}
		if res.AccessToken == "" || res.RefreshToken == "" || res.CSRFToken == "" {
			t.Fatal("expected non-empty issued tokens")
		}
		if fx.sessions.activeCount(res.Operator.ID) != 1 {
			t.Fatalf("expected one active session, got %d", fx.sessions.activeCount(res.Operator.ID))
		}
	})
}

func TestAuthServiceChangeLocalPasswordMatrix(t *testing.T) {
	t.Run("local auth disabled", func(t *testing.T) {
		fx := newAuthServiceFixture()
		fx.cfg.AuthLocalEnabled = false

		err := fx.auth.ChangeLocalPassword(1, "StrongPass123!", "NewStrongPass123!")
		if !errors.Is(err, ErrLocalAuthDisabled) {
			t.Fatalf("expected ErrLocalAuthDisabled, got %v", err)
		}
	})

	t.Run("weak new password", func(t *testing.T) {
		fx := newAuthServiceFixture()
		oid := fx.seedLocalOperator("user@example.com", "User", "StrongPass123!")

		err := fx.auth.ChangeLocalPassword(oid, "StrongPass123!", "weak")
		if !errors.Is(err, ErrWeakPassword) {
			t.Fatalf("expected ErrWeakPassword, got %v", err)
		}
	})

	t.Run("wrong current password", func(t *testing.T) {
		fx := newAuthServiceFixture()
		oid := fx.seedLocalOperator("user@example.com", "User", "StrongPass123!")

		err := fx.auth.ChangeLocalPassword(oid, "WrongPass123!", "NewStrongPass123!")
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("same password rejected", func(t *testing.T) {
		fx := newAuthServiceFixture()
		oid := fx.seedLocalOperator("user@example.com", "User", "StrongPass123!")

		err := fx.auth.ChangeLocalPassword(oid, "StrongPass123!", "StrongPass123!")
		if err == nil || !strings.Contains(err.Error(), "must differ") {
			t.Fatalf("expected same-password rejection, got %v", err)
		}
	})

	t.Run("success revokes sessions", func(t *testing.T) {
		fx := newAuthServiceFixture()
		oid := fx.seedLocalOperator("user@example.com", "User", "StrongPass123!")
		if _, err := fx.auth.LoginWithLocalPassword("user@example.com", "StrongPass123!", "ua", "127.0.0.1"); err != nil {
			t.Fatalf("login: %v", err)
		}

		if err := fx.auth.ChangeLocalPassword(oid, "StrongPass123!", "NewStrongPass123!"); err != nil {
			t.Fatalf("change password: %v", err)
		}
		if fx.sessions.activeCount(oid) != 0 {
			t.Fatal("expected all sessions revoked after password change")
		}
		if !fx.sessions.hasRevokedReason(oid, "password_changed") {
			t.Fatal("expected password_changed revocation reason")
		}

		if _, err := fx.auth.LoginWithLocalPassword("user@example.com", "NewStrongPass123!", "ua", "127.0.0.1"); err != nil {
			t.Fatalf("login with new password: %v", err)
		}
	})
}

func TestAuthServiceRefreshRotatesSession(t *testing.T) {
	fx := newAuthServiceFixture()
	fx.seedLocalOperator("user@example.com", "User", "StrongPass123!")

	first, err := fx.auth.LoginWithLocalPassword("user@example.com", "StrongPass123!", "ua", "127.0.0.1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	second, err := fx.auth.Refresh(first.RefreshToken, "ua", "127.0.0.1")
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if second.RefreshToken == first.RefreshToken {
		t.Fatal("expected a rotated refresh token")
	}
	if second.AccessToken == "" || second.CSRFToken == "" {
		t.Fatal("expected fresh access and csrf tokens")
	}

	if _, err := fx.auth.Refresh(first.RefreshToken, "ua", "127.0.0.1"); err == nil {
		t.Fatal("expected reuse of a rotated refresh token to fail")
	}
}

func TestAuthServiceLogoutRevokesAllSessions(t *testing.T) {
	fx := newAuthServiceFixture()
	oid := fx.seedLocalOperator("user@example.com", "User", "StrongPass123!")

	for i := 0; i < 2; i++ {
		if _, err := fx.auth.LoginWithLocalPassword("user@example.com", "StrongPass123!", "ua", "127.0.0.1"); err != nil {
			t.Fatalf("login %d: %v", i, err)
		}
	}
	if fx.sessions.activeCount(oid) != 2 {
		t.Fatalf("expected two active sessions, got %d", fx.sessions.activeCount(oid))
	}

	if err := fx.auth.Logout(oid); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if fx.sessions.activeCount(oid) != 0 {
		t.Fatal("expected all sessions revoked on logout")
	}
	if !fx.sessions.hasRevokedReason(oid, "logout") {
		t.Fatal("expected logout revocation reason")
	}
}

func TestAuthServiceGoogleLoginMatrix(t *testing.T) {
	t.Run("google auth disabled", func(t *testing.T) {
		fx := newAuthServiceFixture()
		fx.cfg.AuthGoogleEnabled = false

		if url := fx.auth.GoogleLoginURL("state"); url != "" {
			t.Fatalf("expected empty login url, got %q", url)
		}
		_, err := fx.auth.LoginWithGoogleCode("code", "ua", "127.0.0.1")
		if !errors.Is(err, ErrGoogleAuthDisabled) {
			t.Fatalf("expected ErrGoogleAuthDisabled, got %v", err)
		}
	})

	t.Run("first sign-in creates operator with viewer role", func(t *testing.T) {
		fx := newAuthServiceFixture()

		res, err := fx.auth.LoginWithGoogleCode("code", "ua", "127.0.0.1")
		if err != nil {
			t.Fatalf("google login: %v", err)
		}
		if res.Operator.Email != "google@example.com" {
			t.Fatalf("unexpected operator email %q", res.Operator.Email)
		}
		if !fx.operatorRepo.hasRoleID("google@example.com", 1) {
			t.Fatal("expected default viewer role on first sign-in")
		}
		if _, err := fx.oauthRepo.FindByProvider("google", "provider-id"); err != nil {
			t.Fatalf("expected linked oauth account, got %v", err)
		}
		if res.AccessToken == "" || res.RefreshToken == "" {
			t.Fatal("expected issued tokens")
		}
	})

	t.Run("existing email links account", func(t *testing.T) {
		fx := newAuthServiceFixture()
		fx.seedOperator("google@example.com", "Existing")

		res, err := fx.auth.LoginWithGoogleCode("code", "ua", "127.0.0.1")
		if err != nil {
			t.Fatalf("google login: %v", err)
		}
		if fx.operatorRepo.count() != 1 {
			t.Fatalf("expected no new operator, have %d", fx.operatorRepo.count())
		}
		if _, err := fx.oauthRepo.FindByProvider("google", "provider-id"); err != nil {
			t.Fatalf("expected linked oauth account, got %v", err)
		}
		if res.Operator.Name != "Google Operator" {
			t.Fatalf("expected profile sync from userinfo, got %q", res.Operator.Name)
		}
	})

	t.Run("disabled operator rejected", func(t *testing.T) {
		fx := newAuthServiceFixture()
		oid := fx.seedOperator("google@example.com", "Disabled")
		fx.operatorRepo.byID[oid].Status = domain.OperatorStatusDisabled

		_, err := fx.auth.LoginWithGoogleCode("code", "ua", "127.0.0.1")
		if !errors.Is(err, ErrOperatorDisabled) {
			t.Fatalf("expected ErrOperatorDisabled, got %v", err)
		}
	})

	t.Run("bootstrap master assigned on google sign-in", func(t *testing.T) {
		fx := newAuthServiceFixture()
		fx.cfg.BootstrapMasterEmail = "google@example.com"
		fx.roleRepo.byName["master"] = &domain.Role{ID: 99, Name: "master"}

		if _, err := fx.auth.LoginWithGoogleCode("code", "ua", "127.0.0.1"); err != nil {
			t.Fatalf("google login: %v", err)
		}
		if !fx.operatorRepo.hasRoleID("google@example.com", 99) {
			t.Fatal("expected bootstrap master role assignment")
		}
	})
}

func TestAuthServiceParseOperatorID(t *testing.T) {
	fx := newAuthServiceFixture()

	id, err := fx.auth.ParseOperatorID("42")
	if err != nil || id != 42 {
		t.Fatalf("expected 42, got %d err=%v", id, err)
	}
	if _, err := fx.auth.ParseOperatorID("not-a-number"); err == nil {
		t.Fatal("expected error for invalid subject")
	}
}

func TestAuthServiceLoginThrottledAfterRepeatedFailures(t *testing.T) {
	fx := newAuthServiceFixture()
	fx.seedLocalOperator("op@example.com", "Op", "Sup3r$ecretPass1")
	fx.auth.abuseGuard = NewInMemoryAuthAbuseGuard(AuthAbusePolicy{
		FreeAttempts: 1,
		BaseDelay:    time.Second,
		Multiplier:   2,
		MaxDelay:     time.Minute,
		ResetWindow:  time.Hour,
	})

	for i := 0; i < 2; i++ {
		if _, err := fx.auth.LoginWithLocalPassword("op@example.com", "wrong", "ua", "1.2.3.4"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d: expected ErrInvalidCredentials, got %v", i, err)
		}
	}

	_, err := fx.auth.LoginWithLocalPassword("op@example.com", "Sup3r$ecretPass1", "ua", "1.2.3.4")
	var throttled *LoginThrottledError
	if !errors.As(err, &throttled) {
		t.Fatalf("expected LoginThrottledError, got %v", err)
	}
	if throttled.RetryAfter <= 0 {
		t.Fatalf("expected positive cooldown, got %s", throttled.RetryAfter)
	}

	// A different account from a different address is unaffected.
	fx.seedLocalOperator("other@example.com", "Other", "Sup3r$ecretPass1")
	if _, err := fx.auth.LoginWithLocalPassword("other@example.com", "Sup3r$ecretPass1", "ua", "5.6.7.8"); err != nil {
		t.Fatalf("unrelated login should succeed, got %v", err)
	}
}

type authServiceFixture struct {
	cfg          *config.Config
	auth         *AuthService
	operatorRepo *operatorRepoState
	roleRepo     *roleRepoState
	localRepo    *localCredentialState
	oauthRepo    *oauthRepoState
	sessions     *inMemorySessionRepo
}

func newAuthServiceFixture() *authServiceFixture {
	cfg := &config.Config{
		AuthLocalEnabled:  true,
		AuthGoogleEnabled: true,
		JWTAccessTTL:      15 * time.Minute,
	}

	operatorRepo := newOperatorRepoState()
	roleRepo := newRoleRepoState()
	roleRepo.byName["viewer"] = &domain.Role{ID: 1, Name: "viewer"}
	localRepo := newLocalCredentialState(operatorRepo)
	oauthRepo := newOAuthRepoState()
	sessions := newInMemorySessionRepo()

	ctrl := gomock.NewController(tNop{})
	provider := NewMockOAuthProvider(ctrl)
	provider.EXPECT().AuthCodeURL(gomock.Any()).AnyTimes().Return("https://accounts.google.com/o/oauth2/auth?state=test")
	provider.EXPECT().Exchange(gomock.Any(), gomock.Any()).AnyTimes().Return(&oauth2.Token{AccessToken: "token"}, nil)
	provider.EXPECT().FetchUserInfo(gomock.Any(), gomock.Any()).AnyTimes().Return(&OAuthUserInfo{
		ProviderUserID: "provider-id",
		Email:          "google@example.com",
		Name:           "Google Operator",
		EmailVerified:  true,
	}, nil)

	caps := NewCapabilityService()
	operatorSvc := NewOperatorService(operatorRepo, caps)
	resolver := NewCachedCapabilityResolver(NewInMemoryCapabilityCacheStore(), operatorSvc, time.Minute)
	oauthSvc := NewOAuthService(provider, operatorRepo, oauthRepo, roleRepo)
	tokenSvc := newTestTokenService(sessions)

	auth := NewAuthService(cfg, oauthSvc, tokenSvc, operatorSvc, operatorRepo, roleRepo, localRepo, resolver, NewNoopAuthAbuseGuard())

	return &authServiceFixture{
		cfg:          cfg,
		auth:         auth,
		operatorRepo: operatorRepo,
		roleRepo:     roleRepo,
		localRepo:    localRepo,
		oauthRepo:    oauthRepo,
		sessions:     sessions,
	}
}

func newTestTokenService(sessions *inMemorySessionRepo) *TokenService {
	jwtMgr := security.NewJWTManager("steward", "steward-admin", "unit-access-secret", "unit-refresh-secret")
	return NewTokenService(jwtMgr, sessions, "unit-pepper", 15*time.Minute, 24*time.Hour)
}

type tNop struct{}

func (tNop) Errorf(string, ...any) {}
func (tNop) Fatalf(string, ...any) {}
func (tNop) Helper()               {}

func (fx *authServiceFixture) seedOperator(email, name string) uint {
	op := &domain.Operator{Email: strings.ToLower(strings.TrimSpace(email)), Name: name, Status: domain.OperatorStatusActive}
	if err := fx.operatorRepo.Create(op); err != nil {
		panic(err)
	}
	return op.ID
}

func (fx *authServiceFixture) seedLocalOperator(email, name, password string) uint {
	oid := fx.seedOperator(email, name)
	hash, err := security.HashPassword(password)
	if err != nil {
		panic(err)
	}
	if err := fx.localRepo.Create(&domain.LocalCredential{OperatorID: oid, PasswordHash: hash}); err != nil {
		panic(err)
	}
	return oid
}

type operatorRepoState struct {
	nextID uint
	byID   map[uint]*domain.Operator
	byMail map[string]uint

	createErr error
	updateErr error
}

func newOperatorRepoState() *operatorRepoState {
	return &operatorRepoState{
		nextID: 1,
		byID:   map[uint]*domain.Operator{},
		byMail: map[string]uint{},
	}
}

func (r *operatorRepoState) FindByID(id uint) (*domain.Operator, error) {
	op, ok := r.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *op
	copied.Roles = append([]domain.Role(nil), op.Roles...)
	return &copied, nil
}

func (r *operatorRepoState) FindByEmail(email string) (*domain.Operator, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))
	id, ok := r.byMail[normalized]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return r.FindByID(id)
}

func (r *operatorRepoState) Create(op *domain.Operator) error {
	if r.createErr != nil {
		return r.createErr
	}
	id := r.nextID
	r.nextID++
	copied := *op
	copied.ID = id
	copied.Email = strings.ToLower(strings.TrimSpace(copied.Email))
	r.byID[id] = &copied
	r.byMail[copied.Email] = id
	op.ID = id
	op.Email = copied.Email
	return nil
}

func (r *operatorRepoState) Update(op *domain.Operator) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	current, ok := r.byID[op.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	copied := *op
	copied.Roles = append([]domain.Role(nil), current.Roles...)
	r.byID[op.ID] = &copied
	r.byMail[copied.Email] = copied.ID
	return nil
}

func (r *operatorRepoState) List() ([]domain.Operator, error) {
	out := make([]domain.Operator, 0, len(r.byID))
	for _, op := range r.byID {
		copied := *op
		copied.Roles = append([]domain.Role(nil), op.Roles...)
		out = append(out, copied)
	}
	return out, nil
}

func (r *operatorRepoState) SetRoles(operatorID uint, roleIDs []uint) error {
	op, ok := r.byID[operatorID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	roles := make([]domain.Role, 0, len(roleIDs))
	for _, id := range roleIDs {
		roles = append(roles, domain.Role{ID: id})
	}
	op.Roles = roles
	return nil
}

func (r *operatorRepoState) AddRole(operatorID, roleID uint) error {
	op, ok := r.byID[operatorID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for _, role := range op.Roles {
		if role.ID == roleID {
			return nil
		}
	}
	op.Roles = append(op.Roles, domain.Role{ID: roleID})
	return nil
}

func (r *operatorRepoState) hasRoleID(email string, roleID uint) bool {
	op, err := r.FindByEmail(email)
	if err != nil {
		return false
	}
	for _, role := range op.Roles {
		if role.ID == roleID {
			return true
		}
	}
	return false
}

func (r *operatorRepoState) count() int { return len(r.byID) }

type roleRepoState struct {
	byName        map[string]*domain.Role
	byID          map[uint]*domain.Role
	findByNameErr map[string]error
}

func newRoleRepoState() *roleRepoState {
	return &roleRepoState{
		byName:        map[string]*domain.Role{},
		byID:          map[uint]*domain.Role{},
		findByNameErr: map[string]error{},
	}
}

func (r *roleRepoState) FindByID(id uint) (*domain.Role, error) {
	role, ok := r.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *role
	return &copied, nil
}

func (r *roleRepoState) FindByName(name string) (*domain.Role, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	if err, ok := r.findByNameErr[normalized]; ok {
		return nil, err
	}
	role, ok := r.byName[normalized]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *role
	return &copied, nil
}

func (r *roleRepoState) FindByNames(names []string) ([]domain.Role, error) {
	out := make([]domain.Role, 0, len(names))
	for _, name := range names {
		role, err := r.FindByName(name)
		if err != nil {
			continue
		}
		out = append(out, *role)
	}
	return out, nil
}

func (r *roleRepoState) List() ([]domain.Role, error) {
	out := make([]domain.Role, 0, len(r.byName))
	for _, role := range r.byName {
		out = append(out, *role)
	}
	return out, nil
}

func (r *roleRepoState) Create(role *domain.Role, grants []domain.RoleGrant) error {
	role.Grants = grants
	r.byName[strings.ToLower(role.Name)] = role
	r.byID[role.ID] = role
	return nil
}

func (r *roleRepoState) ReplaceGrants(roleID uint, grants []domain.RoleGrant) error {
	role, ok := r.byID[roleID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	role.Grants = grants
	return nil
}

type localCredentialState struct {
	operatorRepo *operatorRepoState
	byOperatorID map[uint]*domain.LocalCredential
}

func newLocalCredentialState(operatorRepo *operatorRepoState) *localCredentialState {
	return &localCredentialState{operatorRepo: operatorRepo, byOperatorID: map[uint]*domain.LocalCredential{}}
}

func (r *localCredentialState) Create(credential *domain.LocalCredential) error {
	copied := *credential
	r.byOperatorID[credential.OperatorID] = &copied
	return nil
}

func (r *localCredentialState) FindByOperatorID(operatorID uint) (*domain.LocalCredential, error) {
	c, ok := r.byOperatorID[operatorID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *c
	return &copied, nil
}

func (r *localCredentialState) FindByEmail(email string) (*domain.LocalCredential, error) {
	op, err := r.operatorRepo.FindByEmail(email)
	if err != nil {
		return nil, err
	}
	return r.FindByOperatorID(op.ID)
}

func (r *localCredentialState) UpdatePassword(operatorID uint, newHash string) error {
	c, ok := r.byOperatorID[operatorID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	c.PasswordHash = newHash
	return nil
}

type oauthRepoState struct {
	accounts map[string]*domain.OAuthAccount
}

func newOAuthRepoState() *oauthRepoState {
	return &oauthRepoState{accounts: map[string]*domain.OAuthAccount{}}
}

func (r *oauthRepoState) FindByProvider(provider, providerUserID string) (*domain.OAuthAccount, error) {
	a, ok := r.accounts[provider+"/"+providerUserID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *a
	return &copied, nil
}

func (r *oauthRepoState) Create(account *domain.OAuthAccount) error {
	copied := *account
	r.accounts[account.Provider+"/"+account.ProviderUserID] = &copied
	return nil
}

type inMemorySessionRepo struct {
	nextID   uint
	sessions map[uint]*domain.Session
}

func newInMemorySessionRepo() *inMemorySessionRepo {
	return &inMemorySessionRepo{nextID: 1, sessions: map[uint]*domain.Session{}}
}

func (r *inMemorySessionRepo) Create(s *domain.Session) error {
	id := r.nextID
	r.nextID++
	copied := *s
	copied.ID = id
	copied.CreatedAt = time.Now().UTC()
	r.sessions[id] = &copied
	s.ID = id
	return nil
}

func (r *inMemorySessionRepo) FindValidByHash(hash string) (*domain.Session, error) {
	for _, s := range r.sessions {
		if s.RefreshTokenHash == hash && s.RevokedAt == nil && s.ExpiresAt.After(time.Now()) {
			copied := *s
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *inMemorySessionRepo) FindByHash(hash string) (*domain.Session, error) {
	for _, s := range r.sessions {
		if s.RefreshTokenHash == hash {
			copied := *s
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *inMemorySessionRepo) FindActiveByTokenIDForOperator(operatorID uint, tokenID string) (*domain.Session, error) {
	for _, s := range r.sessions {
		if s.OperatorID == operatorID && s.AccessTokenID == tokenID && s.RevokedAt == nil && s.ExpiresAt.After(time.Now()) {
			copied := *s
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *inMemorySessionRepo) ListActiveByOperatorID(operatorID uint) ([]domain.Session, error) {
	var out []domain.Session
	for _, s := range r.sessions {
		if s.OperatorID == operatorID && s.RevokedAt == nil && s.ExpiresAt.After(time.Now()) {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *inMemorySessionRepo) RevokeByHash(hash, reason string) error {
	now := time.Now()
	for _, s := range r.sessions {
		if s.RefreshTokenHash == hash && s.RevokedAt == nil {
			s.RevokedAt = &now
			s.RevokedReason = reason
		}
	}
	return nil
}

func (r *inMemorySessionRepo) RevokeByOperatorID(operatorID uint, reason string) error {
	now := time.Now()
	for _, s := range r.sessions {
		if s.OperatorID == operatorID && s.RevokedAt == nil {
			s.RevokedAt = &now
			s.RevokedReason = reason
		}
	}
	return nil
}

func (r *inMemorySessionRepo) RevokeByIDForOperator(operatorID, sessionID uint, reason string) (bool, error) {
	s, ok := r.sessions[sessionID]
	if !ok || s.OperatorID != operatorID || s.RevokedAt != nil {
		return false, nil
	}
	now := time.Now()
	s.RevokedAt = &now
	s.RevokedReason = reason
	return true, nil
}

func (r *inMemorySessionRepo) RevokeOthersByOperator(operatorID, keepSessionID uint, reason string) (int64, error) {
	now := time.Now()
	var n int64
	for _, s := range r.sessions {
		if s.OperatorID == operatorID && s.ID != keepSessionID && s.RevokedAt == nil {
			s.RevokedAt = &now
			s.RevokedReason = reason
			n++
		}
	}
	return n, nil
}

func (r *inMemorySessionRepo) CleanupExpired() (int64, error) {
	var n int64
	for id, s := range r.sessions {
		if !s.ExpiresAt.After(time.Now()) {
			delete(r.sessions, id)
			n++
		}
	}
	return n, nil
}

func (r *inMemorySessionRepo) activeCount(operatorID uint) int {
	n := 0
	for _, s := range r.sessions {
		if s.OperatorID == operatorID && s.RevokedAt == nil {
			n++
		}
	}
	return n
}

func (r *inMemorySessionRepo) hasRevokedReason(operatorID uint, reason string) bool {
	for _, s := range r.sessions {
		if s.OperatorID == operatorID && s.RevokedAt != nil && s.RevokedReason == reason {
			return true
		}
	}
	return false
}
