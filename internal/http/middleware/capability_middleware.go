package middleware

import (
	"net/http"

	"github.com/stewardhq/steward/internal/admin"
	"github.com/stewardhq/steward/internal/http/response"
)

// RequireCapability gates a route group on one capability for one admin code.
// Use domain.GrantAllAdmins as the code for console-wide gates such as the
// role management API.
func RequireCapability(authz admin.Authorizer, adminCode string, c admin.Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := ActorFromContext(r.Context())
			if !ok {
				response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing auth context", nil)
				return
			}
			granted, err := authz.Granted(r.Context(), actor, adminCode, c, "")
			if err != nil {
				response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "capability check failed", nil)
				return
			}
			if !granted {
				response.Error(w, r, http.StatusForbidden, "FORBIDDEN", "insufficient capability", map[string]string{"required": c.String()})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
