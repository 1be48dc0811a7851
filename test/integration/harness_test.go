package integration

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/oauth2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/stewardhq/steward/internal/admins"
	"github.com/stewardhq/steward/internal/config"
	"github.com/stewardhq/steward/internal/database"
	"github.com/stewardhq/steward/internal/domain"
	"github.com/stewardhq/steward/internal/events"
	"github.com/stewardhq/steward/internal/http/handler"
	"github.com/stewardhq/steward/internal/http/render"
	"github.com/stewardhq/steward/internal/http/router"
	"github.com/stewardhq/steward/internal/repository"
	"github.com/stewardhq/steward/internal/security"
	"github.com/stewardhq/steward/internal/service"
)

type oauthProviderStub struct{}

func (oauthProviderStub) AuthCodeURL(string) string { return "" }
func (oauthProviderStub) Exchange(context.Context, string) (*oauth2.Token, error) {
	return nil, errors.New("not implemented")
}
func (oauthProviderStub) FetchUserInfo(context.Context, *oauth2.Token) (*service.OAuthUserInfo, error) {
	return nil, errors.New("not implemented")
}

// apiError mirrors the shared JSON error envelope.
type apiError struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type testServerOptions struct {
	cfgOverride   func(cfg *config.Config)
	listCache     service.AdminListCacheStore
	exportStorage service.ExportStorage
	publisher     events.Publisher
	routePolicies router.RouteRateLimitPolicies
}

type testServer struct {
	baseURL string
	client  *http.Client
	db      *gorm.DB

	authSvc     *service.AuthService
	operatorSvc *service.OperatorService
	roleRepo    repository.RoleRepository
}

func newTestServer(t *testing.T) (*testServer, func()) {
	return newTestServerWithOptions(t, testServerOptions{})
}

func newTestServerWithOptions(t *testing.T, opts testServerOptions) (*testServer, func()) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := database.Seed(db, ""); err != nil {
		t.Fatalf("seed: %v", err)
	}

	cfg := &config.Config{
		AuthLocalEnabled:      true,
		AuthGoogleEnabled:     false,
		JWTAccessTTL:          15 * time.Minute,
		JWTRefreshTTL:         24 * time.Hour,
		AdminListCacheEnabled: true,
		AdminListCacheTTL:     time.Minute,
		ExportArchiveRowLimit: 0,
		AuthAbuseFreeAttempts: 100,
		AuthAbuseBaseDelay:    time.Second,
		AuthAbuseMaxDelay:     time.Minute,
		AuthAbuseResetWindow:  time.Hour,
	}
	if opts.cfgOverride != nil {
		opts.cfgOverride(cfg)
	}

	operatorRepo := repository.NewOperatorRepository(db)
	roleRepo := repository.NewRoleRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	oauthRepo := repository.NewOAuthRepository(db)
	localCredRepo := repository.NewLocalCredentialRepository(db)
	productRepo := repository.NewProductRepository(db)
	revisionRepo := repository.NewRevisionRepository(db)
	aclRepo := repository.NewACLGrantRepository(db)

	caps := service.NewCapabilityService()
	operatorSvc := service.NewOperatorService(operatorRepo, caps)
	resolver := service.NewCachedCapabilityResolver(service.NewInMemoryCapabilityCacheStore(), operatorSvc, 5*time.Minute)
	authz := service.NewCapabilityAuthorizer(resolver, caps, aclRepo)

	jwtMgr := security.NewJWTManager(
		"iss",
		"aud",
		"abcdefghijklmnopqrstuvwxyz123456",
		"abcdefghijklmnopqrstuvwxyz654321",
	)
	tokenSvc := service.NewTokenService(jwtMgr, sessionRepo, "pepper-1234567890", cfg.JWTAccessTTL, cfg.JWTRefreshTTL)
	sessionSvc := service.NewSessionService(sessionRepo, "pepper-1234567890")
	oauthSvc := service.NewOAuthService(oauthProviderStub{}, operatorRepo, oauthRepo, roleRepo)
	abuseGuard := service.NewInMemoryAuthAbuseGuard(service.AuthAbusePolicy{
		FreeAttempts: cfg.AuthAbuseFreeAttempts,
		BaseDelay:    cfg.AuthAbuseBaseDelay,
		Multiplier:   2,
		MaxDelay:     cfg.AuthAbuseMaxDelay,
		ResetWindow:  cfg.AuthAbuseResetWindow,
	})
	authSvc := service.NewAuthService(cfg, oauthSvc, tokenSvc, operatorSvc, operatorRepo, roleRepo, localCredRepo, resolver, abuseGuard)
	cookieMgr := security.NewCookieManager("", false, "lax")

	registry, err := admins.BuildRegistry(db, "")
	if err != nil {
		t.Fatalf("build registry: %v", err)
	}
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	renderer, err := render.New(quiet, false)
	if err != nil {
		t.Fatalf("renderer: %v", err)
	}

	listCache := opts.listCache
	if listCache == nil {
		listCache = service.NewNoopAdminListCacheStore()
	}
	publisher := opts.publisher
	if publisher == nil {
		publisher = events.NewNoopPublisher()
	}

	crudHandler := handler.NewCRUDHandler(handler.CRUDHandlerConfig{
		Registry:        registry,
		Authorizer:      authz,
		Renderer:        renderer,
		Revisions:       service.NewRevisionService(revisionRepo),
		ACL:             service.NewACLService(aclRepo),
		Exporter:        service.NewExporter(),
		ExportStorage:   opts.exportStorage,
		ListCache:       listCache,
		Publisher:       publisher,
		OperatorRepo:    operatorRepo,
		RoleRepo:        roleRepo,
		Logger:          quiet,
		ListCacheTTL:    cfg.AdminListCacheTTL,
		ArchiveRowLimit: cfg.ExportArchiveRowLimit,
	})

	r := router.NewRouter(router.Dependencies{
		LoginHandler:           handler.NewLoginHandler(authSvc, cookieMgr, renderer, cfg.JWTRefreshTTL, cfg.AuthLocalEnabled, cfg.AuthGoogleEnabled),
		AuthHandler:            handler.NewAuthHandler(authSvc, cookieMgr, "0123456789abcdef0123456789abcdef", cfg.JWTRefreshTTL),
		OperatorHandler:        handler.NewOperatorHandler(operatorSvc, sessionSvc),
		RoleHandler:            handler.NewRoleHandler(roleRepo, operatorRepo, registry),
		ProductHandler:         handler.NewProductHandler(service.NewCatalogService(productRepo)),
		CRUDHandler:            crudHandler,
		JWTManager:             jwtMgr,
		Authorizer:             authz,
		CORSOrigins:            []string{"http://localhost"},
		AuthRateLimitRPM:       1000,
		APIRateLimitRPM:        1000,
		AdminRateLimitRPM:      1000,
		RouteRateLimitPolicies: opts.routePolicies,
		EnableOTelHTTP:         false,
	})

	srv := httptest.NewServer(r)
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	client := srv.Client()
	client.Jar = jar

	ts := &testServer{
		baseURL:     srv.URL,
		client:      client,
		db:          db,
		authSvc:     authSvc,
		operatorSvc: operatorSvc,
		roleRepo:    roleRepo,
	}
	return ts, srv.Close
}

// provisionOperator creates an active operator with a local credential and
// optionally binds one of the seeded roles (master, editor, viewer).
func (ts *testServer) provisionOperator(t *testing.T, email, password, roleName string) *domain.Operator {
	t.Helper()
	op, err := ts.authSvc.RegisterLocal(email, "Test Operator", password)
	if err != nil {
		t.Fatalf("provision operator %s: %v", email, err)
	}
	if roleName != "" {
		role, err := ts.roleRepo.FindByName(roleName)
		if err != nil {
			t.Fatalf("find role %s: %v", roleName, err)
		}
		if err := ts.operatorSvc.SetRoles(op.ID, []uint{role.ID}); err != nil {
			t.Fatalf("assign role %s: %v", roleName, err)
		}
	}
	return op
}

func (ts *testServer) login(t *testing.T, email, password string) {
	t.Helper()
	resp, _ := doJSON(t, ts.client, http.MethodPost, ts.baseURL+"/api/v1/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login %s failed: status=%d", email, resp.StatusCode)
	}
}

func (ts *testServer) csrf(t *testing.T) string {
	t.Helper()
	return cookieValue(t, ts.client, ts.baseURL, security.CSRFTokenCookie)
}

// postAdminForm submits an admin console form with the CSRF field filled in.
// Redirects are not followed so callers can assert on the raw response.
func (ts *testServer) postAdminForm(t *testing.T, path string, fields url.Values) *http.Response {
	t.Helper()
	fields.Set("_csrf_token", ts.csrf(t))
	req, err := http.NewRequest(http.MethodPost, ts.baseURL+path, strings.NewReader(fields.Encode()))
	if err != nil {
		t.Fatalf("new form request: %v", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	noRedirect := &http.Client{
		Jar: ts.client.Jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	resp, err := noRedirect.Do(req)
	if err != nil {
		t.Fatalf("post form: %v", err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func (ts *testServer) get(t *testing.T, path string) (*http.Response, string) {
	t.Helper()
	return doRawText(t, ts.client, http.MethodGet, ts.baseURL+path, nil, nil, nil)
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any, headers map[string]string) (*http.Response, apiError) {
	t.Helper()
	resp, raw := doRawText(t, client, method, url, body, headers, nil)
	var env apiError
	if len(raw) > 0 {
		_ = json.Unmarshal([]byte(raw), &env)
	}
	return resp, env
}

func doRaw(t *testing.T, client *http.Client, method, url string, body any, headers map[string]string, cookies []*http.Cookie) (*http.Response, apiError) {
	t.Helper()
	resp, raw := doRawText(t, client, method, url, body, headers, cookies)
	var env apiError
	if len(raw) > 0 {
		_ = json.Unmarshal([]byte(raw), &env)
	}
	return resp, env
}

func doRawText(t *testing.T, client *http.Client, method, url string, body any, headers map[string]string, cookies []*http.Cookie) (*http.Response, string) {
	t.Helper()
	var payload []byte
	var err error
	if body != nil {
		payload, err = json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	buf := new(bytes.Buffer)
	_, _ = buf.ReadFrom(resp.Body)
	return resp, buf.String()
}

func cookieValue(t *testing.T, client *http.Client, baseURL, name string) string {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, baseURL+"/api/v1/auth/refresh", nil)
	if err != nil {
		t.Fatalf("new request for cookie lookup: %v", err)
	}
	for _, c := range client.Jar.Cookies(req.URL) {
		if c.Name == name {
			return c.Value
		}
	}
	t.Fatalf("cookie %q not found", name)
	return ""
}

func assertCookieProps(t *testing.T, resp *http.Response, name, path string, httpOnly bool) {
	t.Helper()
	for _, c := range resp.Cookies() {
		if c.Name != name {
			continue
		}
		if c.Path != path {
			t.Fatalf("cookie %s path mismatch: got %q want %q", name, c.Path, path)
		}
		if c.HttpOnly != httpOnly {
			t.Fatalf("cookie %s HttpOnly mismatch: got %v want %v", name, c.HttpOnly, httpOnly)
		}
		return
	}
	t.Fatalf("cookie %s not found in response", name)
}

func assertClearingCookie(t *testing.T, resp *http.Response, name string) {
	t.Helper()
	for _, c := range resp.Cookies() {
		if c.Name == name && c.MaxAge < 0 {
			return
		}
	}
	t.Fatalf("expected clearing cookie for %s", name)
}
