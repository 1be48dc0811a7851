package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stewardhq/steward/internal/security"
)

func newTestDependencies() Dependencies {
	return Dependencies{
		JWTManager:        security.NewJWTManager("steward", "steward-console", "access-secret", "refresh-secret"),
		AuthRateLimitRPM:  1000,
		APIRateLimitRPM:   1000,
		AdminRateLimitRPM: 1000,
	}
}

func TestHealthLive(t *testing.T) {
	h := NewRouter(newTestDependencies())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestHealthReadyWithoutProbes(t *testing.T) {
	h := NewRouter(newTestDependencies())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestConsolePagesRedirectAnonymousBrowsers(t *testing.T) {
	h := NewRouter(newTestDependencies())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Accept", "text/html")
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/admin/login" {
		t.Fatalf("Location = %q, want /admin/login", loc)
	}
}

func TestRoleAPIRequiresAuthentication(t *testing.T) {
	h := NewRouter(newTestDependencies())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/roles", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestGlobalRateLimitDeniesWhenExhausted(t *testing.T) {
	dep := newTestDependencies()
	dep.APIRateLimitRPM = 1
	h := NewRouter(dep)

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
		if i == 0 && rec.Code != http.StatusOK {
			t.Fatalf("first request status = %d, want 200", rec.Code)
		}
		if i == 1 {
			if rec.Code != http.StatusTooManyRequests {
				t.Fatalf("second request status = %d, want 429", rec.Code)
			}
			if rec.Header().Get("Retry-After") == "" {
				t.Fatal("Retry-After header missing on denied request")
			}
		}
	}
}

func TestRoutePolicyOverridesFallback(t *testing.T) {
	var hits int
	dep := newTestDependencies()
	dep.RouteRateLimitPolicies = RouteRateLimitPolicies{
		RoutePolicyLogin: func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				hits++
				w.WriteHeader(http.StatusTeapot)
			})
		},
	}
	h := NewRouter(dep)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil))

	if rec.Code != http.StatusTeapot {
		t.Fatalf("status = %d, want policy middleware to short-circuit with 418", rec.Code)
	}
	if hits != 1 {
		t.Fatalf("policy middleware invoked %d times, want 1", hits)
	}
}
