package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/stewardhq/steward/internal/config"
	"github.com/stewardhq/steward/internal/domain"
	"github.com/stewardhq/steward/internal/repository"
	"github.com/stewardhq/steward/internal/security"

	"gorm.io/gorm"
)

type AuthService struct {
	cfg            *config.Config
	oauthSvc       *OAuthService
	tokenSvc       *TokenService
	operatorSvc    *OperatorService
	operatorRepo   repository.OperatorRepository
	roleRepo       repository.RoleRepository
	localCredsRepo repository.LocalCredentialRepository
	resolver       *CachedCapabilityResolver
	abuseGuard     AuthAbuseGuard
}

type LoginResult struct {
	Operator     *domain.Operator `json:"operator"`
	AccessToken  string           `json:"-"`
	RefreshToken string           `json:"-"`
	CSRFToken    string           `json:"csrf_token,omitempty"`
	ExpiresAt    time.Time        `json:"expires_at,omitempty"`
}

var (
	ErrGoogleAuthDisabled = errors.New("google auth is disabled")
	ErrLocalAuthDisabled  = errors.New("local auth is disabled")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrOperatorDisabled   = errors.New("operator account is disabled")
	ErrWeakPassword       = errors.New("password does not meet policy requirements")
)

// LoginThrottledError reports the remaining cooldown after repeated failed
// sign-in attempts for the same identity or address.
type LoginThrottledError struct {
	RetryAfter time.Duration
}

func (e *LoginThrottledError) Error() string {
	return fmt.Sprintf("too many failed login attempts, retry in %s", e.RetryAfter.Round(time.Second))
}

var (
	uppercaseRe = regexp.MustCompile(`[A-Z]`)
	lowercaseRe = regexp.MustCompile(`[a-z]`)
	digitRe     = regexp.MustCompile(`[0-9]`)
	specialRe   = regexp.MustCompile(`[^A-Za-z0-9]`)
)

func NewAuthService(
	cfg *config.Config,
	oauthSvc *OAuthService,
	tokenSvc *TokenService,
	operatorSvc *OperatorService,
	operatorRepo repository.OperatorRepository,
	roleRepo repository.RoleRepository,
	localCredsRepo repository.LocalCredentialRepository,
	resolver *CachedCapabilityResolver,
	abuseGuard AuthAbuseGuard,
) *AuthService {
	if abuseGuard == nil {
		abuseGuard = NewNoopAuthAbuseGuard()
	}
	return &AuthService{
		cfg:            cfg,
		oauthSvc:       oauthSvc,
		tokenSvc:       tokenSvc,
		operatorSvc:    operatorSvc,
		operatorRepo:   operatorRepo,
		roleRepo:       roleRepo,
		localCredsRepo: localCredsRepo,
		resolver:       resolver,
		abuseGuard:     abuseGuard,
	}
}

func (s *AuthService) GoogleLoginURL(state string) string {
	if !s.cfg.AuthGoogleEnabled {
		return ""
	}
	return s.oauthSvc.LoginURL(state)
}

func (s *AuthService) LoginWithGoogleCode(code, ua, ip string) (*LoginResult, error) {
	if !s.cfg.AuthGoogleEnabled {
		return nil, ErrGoogleAuthDisabled
	}
	op, err := s.oauthSvc.HandleGoogleCallback(context.Background(), code)
	if err != nil {
		return nil, err
	}
	if err := s.assignBootstrapMasterIfNeeded(op); err != nil {
		return nil, err
	}
	return s.issueFor(op.ID, ua, ip)
}

func (s *AuthService) RegisterLocal(email, name, password string) (*domain.Operator, error) {
	if !s.cfg.AuthLocalEnabled {
		return nil, ErrLocalAuthDisabled
	}
	email = strings.TrimSpace(strings.ToLower(email))
	name = strings.TrimSpace(name)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, fmt.Errorf("name is required")
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	if _, err := s.operatorRepo.FindByEmail(email); err == nil {
		return nil, fmt.Errorf("email already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	op := &domain.Operator{Email: email, Name: name, Status: domain.OperatorStatusActive}
	if err := s.operatorRepo.Create(op); err != nil {
		return nil, err
	}
	hash, err := security.HashPassword(password)
	if err != nil {
		return nil, err
	}
	if err := s.localCredsRepo.Create(&domain.LocalCredential{OperatorID: op.ID, PasswordHash: hash}); err != nil {
		return nil, err
	}
	if err := s.assignBootstrapMasterIfNeeded(op); err != nil {
		return nil, err
	}
	return s.operatorRepo.FindByID(op.ID)
}

func (s *AuthService) LoginWithLocalPassword(email, password, ua, ip string) (*LoginResult, error) {
	if !s.cfg.AuthLocalEnabled {
		return nil, ErrLocalAuthDisabled
	}
	email = strings.TrimSpace(strings.ToLower(email))
	ctx := context.Background()
	if wait, guardErr := s.abuseGuard.Check(ctx, AuthAbuseScopeLogin, email, ip); guardErr == nil && wait > 0 {
		return nil, &LoginThrottledError{RetryAfter: wait}
	}
	cred, err := s.localCredsRepo.FindByEmail(email)
	if err != nil {
		_, _ = s.abuseGuard.RegisterFailure(ctx, AuthAbuseScopeLogin, email, ip)
		return nil, ErrInvalidCredentials
	}
	ok, err := security.VerifyPassword(cred.PasswordHash, password)
	if err != nil {
		return nil, err
	}
	if !ok {
		_, _ = s.abuseGuard.RegisterFailure(ctx, AuthAbuseScopeLogin, email, ip)
		return nil, ErrInvalidCredentials
	}
	_ = s.abuseGuard.Reset(ctx, AuthAbuseScopeLogin, email, ip)
	return s.issueFor(cred.OperatorID, ua, ip)
}

func (s *AuthService) ChangeLocalPassword(operatorID uint, currentPassword, newPassword string) error {
	if !s.cfg.AuthLocalEnabled {
		return ErrLocalAuthDisabled
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	cred, err := s.localCredsRepo.FindByOperatorID(operatorID)
	if err != nil {
		return ErrInvalidCredentials
	}
	ok, err := security.VerifyPassword(cred.PasswordHash, currentPassword)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidCredentials
	}
	if currentPassword == newPassword {
		return fmt.Errorf("new password must differ from current password")
	}
	newHash, err := security.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.localCredsRepo.UpdatePassword(operatorID, newHash); err != nil {
		return err
	}
	return s.tokenSvc.RevokeAll(operatorID, "password_changed")
}

func (s *AuthService) Refresh(refreshToken, ua, ip string) (*LoginResult, error) {
	access, newRefresh, csrf, oid, err := s.tokenSvc.Rotate(refreshToken, s.operatorSvc.GetByID, ua, ip)
	if err != nil {
		return nil, err
	}
	op, _, err := s.operatorSvc.GetByID(oid)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Operator: op, AccessToken: access, RefreshToken: newRefresh, CSRFToken: csrf, ExpiresAt: time.Now().Add(s.cfg.JWTAccessTTL)}, nil
}

func (s *AuthService) Logout(operatorID uint) error {
	if s.resolver != nil {
		_ = s.resolver.InvalidateOperator(context.Background(), operatorID)
	}
	return s.tokenSvc.RevokeAll(operatorID, "logout")
}

func (s *AuthService) ParseOperatorID(subject string) (uint, error) {
	id, err := strconv.ParseUint(subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid operator subject")
	}
	return uint(id), nil
}

func (s *AuthService) issueFor(operatorID uint, ua, ip string) (*LoginResult, error) {
	op, _, err := s.operatorSvc.GetByID(operatorID)
	if err != nil {
		return nil, err
	}
	if op.Status != domain.OperatorStatusActive {
		return nil, ErrOperatorDisabled
	}
	access, refresh, csrf, err := s.tokenSvc.Issue(op, ua, ip)
	if err != nil {
		return nil, err
	}
	op.LastLoginAt = time.Now().UTC()
	_ = s.operatorRepo.Update(op)
	return &LoginResult{Operator: op, AccessToken: access, RefreshToken: refresh, CSRFToken: csrf, ExpiresAt: time.Now().Add(s.cfg.JWTAccessTTL)}, nil
}

// assignBootstrapMasterIfNeeded gives the configured bootstrap email the
// master role on first sign-in so a fresh deployment is never locked out.
func (s *AuthService) assignBootstrapMasterIfNeeded(op *domain.Operator) error {
	target := strings.TrimSpace(strings.ToLower(s.cfg.BootstrapMasterEmail))
	if target == "" || strings.ToLower(op.Email) != target {
		return nil
	}
	master, err := s.roleRepo.FindByName("master")
	if err != nil {
		return err
	}
	return s.operatorSvc.AddRole(op.ID, master.ID)
}

func validateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("invalid email")
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < 12 || !uppercaseRe.MatchString(password) ||
		!lowercaseRe.MatchString(password) || !digitRe.MatchString(password) || !specialRe.MatchString(password) {
		return ErrWeakPassword
	}
	return nil
}
