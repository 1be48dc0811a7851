package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stewardhq/steward/internal/http/middleware"
	"github.com/stewardhq/steward/internal/security"
)

func withClaims(r *http.Request, sub string) *http.Request {
	claims := &security.Claims{}
	claims.Subject = sub
	ctx := context.WithValue(r.Context(), middleware.ClaimsContextKey, claims)
	return r.WithContext(ctx)
}

func withClaimsAndSession(r *http.Request, sub, sessionID string) *http.Request {
	claims := &security.Claims{}
	claims.Subject = sub
	claims.ID = sessionID
	ctx := context.WithValue(r.Context(), middleware.ClaimsContextKey, claims)
	return r.WithContext(ctx)
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}
