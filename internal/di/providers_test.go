package di

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stewardhq/steward/internal/config"
	"github.com/stewardhq/steward/internal/events"
	"github.com/stewardhq/steward/internal/observability"
	"github.com/stewardhq/steward/internal/security"
	"github.com/stewardhq/steward/internal/service"
)

func TestProvideHTTPServer(t *testing.T) {
	cfg := &config.Config{HTTPPort: "9999"}
	srv := provideHTTPServer(cfg, nil)
	if srv.Addr != ":9999" {
		t.Fatalf("unexpected addr: %s", srv.Addr)
	}
	if srv.ReadTimeout.Seconds() != 10 {
		t.Fatalf("unexpected read timeout: %v", srv.ReadTimeout)
	}
}

func TestProvideRouterDependencies(t *testing.T) {
	cfg := &config.Config{
		CORSAllowedOrigins:   []string{"http://localhost:3000"},
		AuthRateLimitPerMin:  10,
		AdminRateLimitPerMin: 60,
		APIRateLimitPerMin:   100,
		OTELMetricsEnabled:   true,
	}
	dep := provideRouterDependencies(nil, nil, nil, nil, nil, nil, nil, nil, nil, nil, nil, nil, nil, cfg)
	if dep.AuthRateLimitRPM != 10 || dep.APIRateLimitRPM != 100 || dep.AdminRateLimitRPM != 60 {
		t.Fatalf("unexpected rate limits: %+v", dep)
	}
	if !dep.EnableOTelHTTP {
		t.Fatal("expected otel http enabled")
	}
	if len(dep.CORSOrigins) != 1 || dep.CORSOrigins[0] != "http://localhost:3000" {
		t.Fatalf("unexpected cors origins: %+v", dep.CORSOrigins)
	}
}

func TestProvideGlobalRateLimiterFallbackEnforcesLimit(t *testing.T) {
	cfg := &config.Config{
		RateLimitRedisEnabled: false,
		APIRateLimitPerMin:    1,
	}
	mw := provideGlobalRateLimiter(cfg, nil)
	if mw == nil {
		t.Fatal("expected global limiter")
	}
	h := mw(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req1 := httptest.NewRequest(http.MethodGet, "/x", nil)
	req1.RemoteAddr = "10.0.0.1:1111"
	rr1 := httptest.NewRecorder()
	h.ServeHTTP(rr1, req1)
	if rr1.Code != http.StatusOK {
		t.Fatalf("expected first request 200, got %d", rr1.Code)
	}

	req2 := httptest.NewRequest(http.MethodGet, "/x", nil)
	req2.RemoteAddr = "10.0.0.1:2222"
	rr2 := httptest.NewRecorder()
	h.ServeHTTP(rr2, req2)
	if rr2.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second request 429, got %d", rr2.Code)
	}
}

func TestProvideAdminRateLimiterKeysBySubject(t *testing.T) {
	cfg := &config.Config{
		RateLimitRedisEnabled: false,
		AdminRateLimitPerMin:  1,
	}
	jwt := security.NewJWTManager(
		"iss",
		"aud",
		"abcdefghijklmnopqrstuvwxyz123456",
		"abcdefghijklmnopqrstuvwxyz654321",
	)
	token1, _, err := jwt.SignAccessToken(101, "one@example.com", nil, 15*time.Minute)
	if err != nil {
		t.Fatalf("sign token1: %v", err)
	}
	token2, _, err := jwt.SignAccessToken(202, "two@example.com", nil, 15*time.Minute)
	if err != nil {
		t.Fatalf("sign token2: %v", err)
	}
	mw := provideAdminRateLimiter(cfg, nil, jwt)
	h := mw(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req1 := httptest.NewRequest(http.MethodGet, "/admin/product", nil)
	req1.RemoteAddr = "10.0.0.1:1234"
	req1.Header.Set("Authorization", "Bearer "+token1)
	rr1 := httptest.NewRecorder()
	h.ServeHTTP(rr1, req1)
	if rr1.Code != http.StatusOK {
		t.Fatalf("expected first request to pass, got %d", rr1.Code)
	}

	// Same subject from a different address shares the quota.
	req2 := httptest.NewRequest(http.MethodGet, "/admin/product", nil)
	req2.RemoteAddr = "10.0.0.2:1234"
	req2.Header.Set("Authorization", "Bearer "+token1)
	rr2 := httptest.NewRecorder()
	h.ServeHTTP(rr2, req2)
	if rr2.Code != http.StatusTooManyRequests {
		t.Fatalf("expected same subject to be limited across IPs, got %d", rr2.Code)
	}

	req3 := httptest.NewRequest(http.MethodGet, "/admin/product", nil)
	req3.RemoteAddr = "10.0.0.1:1234"
	req3.Header.Set("Authorization", "Bearer "+token2)
	rr3 := httptest.NewRecorder()
	h.ServeHTTP(rr3, req3)
	if rr3.Code != http.StatusOK {
		t.Fatalf("expected different subject to have its own quota, got %d", rr3.Code)
	}
}

func TestProvideAuthAbuseGuard(t *testing.T) {
	cfg := &config.Config{
		AuthAbuseFreeAttempts: 3,
		AuthAbuseBaseDelay:    time.Second,
		AuthAbuseMaxDelay:     5 * time.Minute,
		AuthAbuseResetWindow:  30 * time.Minute,
	}
	guard := provideAuthAbuseGuard(cfg, nil)
	if _, ok := guard.(*service.InMemoryAuthAbuseGuard); !ok {
		t.Fatalf("expected in-memory auth abuse guard without redis, got %T", guard)
	}
}

func TestProvideListCacheStore(t *testing.T) {
	cfg := &config.Config{AdminListCacheEnabled: false}
	store := provideListCacheStore(cfg, nil)
	if _, ok := store.(*service.NoopAdminListCacheStore); !ok {
		t.Fatalf("expected noop store when list cache disabled, got %T", store)
	}

	cfg.AdminListCacheEnabled = true
	store = provideListCacheStore(cfg, nil)
	if _, ok := store.(*service.InMemoryAdminListCacheStore); !ok {
		t.Fatalf("expected in-memory store without redis, got %T", store)
	}
}

func TestProvideRedisClientDisabled(t *testing.T) {
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &config.Config{RateLimitRedisEnabled: false, AdminListCacheEnabled: false}
	if client := provideRedisClient(cfg, quiet); client != nil {
		t.Fatal("expected nil redis client when every redis-backed feature is disabled")
	}

	cfg.AdminListCacheEnabled = true
	cfg.RedisAddr = "localhost:6379"
	if client := provideRedisClient(cfg, quiet); client == nil {
		t.Fatal("expected redis client when admin list cache is enabled")
	}
}

func TestProvideExportStorageDisabledWithoutEndpoint(t *testing.T) {
	cfg := &config.Config{ExportArchiveMode: false}
	storage, err := provideExportStorage(cfg)
	if err != nil {
		t.Fatalf("provideExportStorage: %v", err)
	}
	if storage != nil {
		t.Fatalf("expected nil export storage without MinIO endpoint, got %T", storage)
	}
}

func TestProvidePublisherNoopWhenKafkaDisabled(t *testing.T) {
	cfg := &config.Config{KafkaEnabled: false}
	pub := providePublisher(cfg, slog.Default())
	if _, ok := pub.(*events.NoopPublisher); !ok {
		t.Fatalf("expected noop publisher, got %T", pub)
	}
}

func TestProvideApp(t *testing.T) {
	cfg := &config.Config{HTTPPort: "8080"}
	logger := slog.Default()
	srv := &http.Server{Addr: ":8080", ReadHeaderTimeout: time.Second}
	runtime := &observability.Runtime{}

	a := provideApp(cfg, logger, srv, runtime, nil, nil, nil, nil, nil)
	if a == nil {
		t.Fatal("expected app")
	}
	if a.Config != cfg || a.Logger != logger || a.Server != srv || a.Observability != runtime {
		t.Fatal("app dependencies not wired as expected")
	}
	if a.ShutdownTimeout <= 0 {
		t.Fatal("expected a default shutdown timeout")
	}
}
