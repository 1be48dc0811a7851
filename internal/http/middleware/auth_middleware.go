package middleware

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/stewardhq/steward/internal/admin"
	"github.com/stewardhq/steward/internal/http/response"
	"github.com/stewardhq/steward/internal/security"
)

type contextKey string

const (
	ClaimsContextKey contextKey = "claims"
)

// AuthMiddleware authenticates API requests from the access-token cookie or
// a bearer header. Unauthenticated requests get a JSON 401.
func AuthMiddleware(jwtMgr *security.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := parseRequestToken(jwtMgr, r)
			if err != nil {
				response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", err.Error(), nil)
				return
			}
			next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
		})
	}
}

// RequireOperatorPage guards the HTML admin pages: browsers without a valid
// access token are sent to the login page instead of receiving a JSON 401.
// XHR callers still get the JSON envelope.
func RequireOperatorPage(jwtMgr *security.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := parseRequestToken(jwtMgr, r)
			if err != nil {
				if admin.IsXMLHTTPRequest(r) {
					response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", err.Error(), nil)
					return
				}
				http.Redirect(w, r, "/admin/login", http.StatusFound)
				return
			}
			next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
		})
	}
}

func parseRequestToken(jwtMgr *security.JWTManager, r *http.Request) (*security.Claims, error) {
	raw := security.GetCookie(r, security.AccessTokenCookie)
	if raw == "" {
		auth := r.Header.Get("Authorization")
		if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
			raw = strings.TrimSpace(auth[7:])
		}
	}
	if raw == "" {
		return nil, errors.New("missing access token")
	}
	claims, err := jwtMgr.ParseAccessToken(raw)
	if err != nil {
		return nil, errors.New("invalid access token")
	}
	return claims, nil
}

func withClaims(ctx context.Context, claims *security.Claims) context.Context {
	return context.WithValue(ctx, ClaimsContextKey, claims)
}

func ClaimsFromContext(ctx context.Context) (*security.Claims, bool) {
	c, ok := ctx.Value(ClaimsContextKey).(*security.Claims)
	return c, ok
}

// ActorFromContext folds the authenticated claims into the actor consumed by
// capability checks and revision records.
func ActorFromContext(ctx context.Context) (admin.Actor, bool) {
	claims, ok := ClaimsFromContext(ctx)
	if !ok {
		return admin.Actor{}, false
	}
	id64, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return admin.Actor{}, false
	}
	return admin.Actor{
		OperatorID: uint(id64),
		Email:      claims.Email,
		SessionID:  claims.ID,
		Roles:      claims.Roles,
	}, true
}
