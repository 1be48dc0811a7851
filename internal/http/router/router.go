package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/stewardhq/steward/internal/admin"
	"github.com/stewardhq/steward/internal/domain"
	"github.com/stewardhq/steward/internal/health"
	"github.com/stewardhq/steward/internal/http/handler"
	"github.com/stewardhq/steward/internal/http/middleware"
	"github.com/stewardhq/steward/internal/http/render"
	"github.com/stewardhq/steward/internal/http/response"
	"github.com/stewardhq/steward/internal/security"
)

type Dependencies struct {
	LoginHandler      *handler.LoginHandler
	AuthHandler       *handler.AuthHandler
	OperatorHandler   *handler.OperatorHandler
	RoleHandler       *handler.RoleHandler
	ProductHandler    *handler.ProductHandler
	CRUDHandler       *handler.CRUDHandler
	JWTManager        *security.JWTManager
	Authorizer        admin.Authorizer
	CORSOrigins       []string
	AuthRateLimitRPM  int
	APIRateLimitRPM   int
	AdminRateLimitRPM int

	GlobalRateLimiter      GlobalRateLimiterFunc
	AuthRateLimiter        AuthRateLimiterFunc
	AdminRateLimiter       AdminRateLimiterFunc
	RouteRateLimitPolicies RouteRateLimitPolicies
	Idempotency            IdempotencyMiddlewareFactory
	Readiness              *health.ProbeRunner
	EnableOTelHTTP         bool
}

type GlobalRateLimiterFunc func(http.Handler) http.Handler
type AuthRateLimiterFunc func(http.Handler) http.Handler
type AdminRateLimiterFunc func(http.Handler) http.Handler
type IdempotencyMiddlewareFactory func(scope string) func(http.Handler) http.Handler
type RouteRateLimitPolicies map[string]func(http.Handler) http.Handler

const (
	RoutePolicyLogin     = "login"
	RoutePolicyRefresh   = "refresh"
	RoutePolicyRoleWrite = "role_write"
	RoutePolicyBatch     = "batch"
	RoutePolicyExport    = "export"
)

func NewRouter(dep Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.StructuredRequestLogger)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(dep.CORSOrigins))
	r.Use(middleware.BodyLimit(1 << 20))
	if dep.GlobalRateLimiter != nil {
		r.Use(dep.GlobalRateLimiter)
	} else {
		r.Use(middleware.NewRateLimiter(dep.APIRateLimitRPM, time.Minute).Middleware())
	}

	authLimiter := dep.AuthRateLimiter
	if authLimiter == nil {
		authLimiter = middleware.NewRateLimiter(dep.AuthRateLimitRPM, time.Minute).Middleware()
	}
	adminLimiter := dep.AdminRateLimiter
	if adminLimiter == nil {
		adminLimiter = middleware.NewRateLimiter(dep.AdminRateLimitRPM, time.Minute).Middleware()
	}
	routePolicy := func(name string, fallback func(http.Handler) http.Handler) func(http.Handler) http.Handler {
		if dep.RouteRateLimitPolicies != nil {
			if mw, ok := dep.RouteRateLimitPolicies[name]; ok && mw != nil {
				return mw
			}
		}
		if fallback == nil {
			return func(next http.Handler) http.Handler { return next }
		}
		return fallback
	}
	idempotent := func(scope string) func(http.Handler) http.Handler {
		if dep.Idempotency == nil {
			return func(next http.Handler) http.Handler { return next }
		}
		return dep.Idempotency(scope)
	}

	r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		if dep.Readiness == nil {
			response.JSON(w, r, http.StatusOK, map[string]any{"status": "ready", "checks": []any{}})
			return
		}
		ready, results := dep.Readiness.Ready(r.Context())
		if ready {
			response.JSON(w, r, http.StatusOK, map[string]any{"status": "ready", "checks": results})
			return
		}
		response.Error(w, r, http.StatusServiceUnavailable, "DEPENDENCY_UNREADY", "dependencies are not ready", map[string]any{"checks": results})
	})

	r.Handle("/static/*", render.StaticHandler())

	r.Route("/admin", func(r chi.Router) {
		r.Get("/login", dep.LoginHandler.Page)
		r.With(routePolicy(RoutePolicyLogin, authLimiter)).Post("/login", dep.LoginHandler.Submit)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireOperatorPage(dep.JWTManager))
			r.Use(adminLimiter)
			r.Get("/", dep.CRUDHandler.Dashboard)
			r.Route("/{adminCode}", func(r chi.Router) {
				r.Get("/", dep.CRUDHandler.List)
				// Create/Edit/Delete/ACL dispatch on method internally:
				// GET renders the form, POST submits it.
				r.Get("/create", dep.CRUDHandler.Create)
				r.Post("/create", dep.CRUDHandler.Create)
				r.Get("/{id}/edit", dep.CRUDHandler.Edit)
				r.Post("/{id}/edit", dep.CRUDHandler.Edit)
				r.Get("/{id}/delete", dep.CRUDHandler.Delete)
				r.Post("/{id}/delete", dep.CRUDHandler.Delete)
				r.Delete("/{id}/delete", dep.CRUDHandler.Delete)
				r.Get("/{id}/show", dep.CRUDHandler.Show)
				r.Get("/{id}/history", dep.CRUDHandler.History)
				r.Get("/{id}/history/{revision}", dep.CRUDHandler.HistoryViewRevision)
				r.Get("/{id}/history-compare/{baseRevision}/{compareRevision}", dep.CRUDHandler.HistoryCompareRevisions)
				r.Get("/{id}/acl", dep.CRUDHandler.ACL)
				r.Post("/{id}/acl", dep.CRUDHandler.ACL)
				r.With(routePolicy(RoutePolicyExport, nil)).Get("/export", dep.CRUDHandler.Export)
				// Batch rejects non-POST itself so _method overrides still
				// reach it with a useful error.
				r.With(routePolicy(RoutePolicyBatch, nil), idempotent("admin.batch")).HandleFunc("/batch", dep.CRUDHandler.Batch)
			})
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(authLimiter).Get("/google/login", dep.AuthHandler.GoogleLogin)
			r.With(authLimiter).Get("/google/callback", dep.AuthHandler.GoogleCallback)
			r.With(routePolicy(RoutePolicyLogin, authLimiter)).Post("/login", dep.AuthHandler.LocalLogin)
			r.Group(func(r chi.Router) {
				r.Use(middleware.CSRFMiddleware)
				r.With(routePolicy(RoutePolicyRefresh, authLimiter)).Post("/refresh", dep.AuthHandler.Refresh)
				r.With(middleware.AuthMiddleware(dep.JWTManager)).Post("/logout", dep.AuthHandler.Logout)
				r.With(middleware.AuthMiddleware(dep.JWTManager), authLimiter).Post("/password/change", dep.AuthHandler.ChangePassword)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(dep.JWTManager))
			r.Get("/me", dep.OperatorHandler.Me)
			r.Get("/me/sessions", dep.OperatorHandler.ListSessions)
			r.Group(func(r chi.Router) {
				r.Use(middleware.CSRFMiddleware)
				r.Delete("/me/sessions/{session_id}", dep.OperatorHandler.RevokeSession)
				r.Post("/me/sessions/revoke-others", dep.OperatorHandler.RevokeOtherSessions)
			})
		})

		// Role and grant administration is console-wide, so it sits behind
		// the MASTER capability rather than a per-admin grant.
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(dep.JWTManager))
			r.Use(middleware.RequireCapability(dep.Authorizer, domain.GrantAllAdmins, admin.CapMaster))
			r.Get("/roles", dep.RoleHandler.ListRoles)
			r.Get("/roles/{id}", dep.RoleHandler.GetRole)
			r.Get("/operators", dep.RoleHandler.ListOperators)
			r.Group(func(r chi.Router) {
				r.Use(middleware.CSRFMiddleware)
				r.Use(routePolicy(RoutePolicyRoleWrite, nil))
				r.With(idempotent("admin.roles.create")).Post("/roles", dep.RoleHandler.CreateRole)
				r.Put("/roles/{id}/grants", dep.RoleHandler.ReplaceGrants)
				r.With(idempotent("admin.operators.roles.put")).Put("/operators/{id}/roles", dep.RoleHandler.SetOperatorRoles)
			})
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", dep.ProductHandler.List)
			r.Get("/sku/{sku}", dep.ProductHandler.GetBySKU)
			r.Get("/{id}", dep.ProductHandler.GetByID)
		})
	})

	var h http.Handler = r
	if dep.EnableOTelHTTP {
		h = otelhttp.NewHandler(r, "http.server")
	}
	return h
}
