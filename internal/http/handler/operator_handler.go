package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/stewardhq/steward/internal/http/middleware"
	"github.com/stewardhq/steward/internal/http/response"
	"github.com/stewardhq/steward/internal/observability"
	"github.com/stewardhq/steward/internal/repository"
	"github.com/stewardhq/steward/internal/security"
	"github.com/stewardhq/steward/internal/service"
)

// OperatorHandler serves the signed-in operator's own profile and sessions.
type OperatorHandler struct {
	operatorSvc service.OperatorServiceInterface
	sessionSvc  *service.SessionService
}

func NewOperatorHandler(operatorSvc service.OperatorServiceInterface, sessionSvc *service.SessionService) *OperatorHandler {
	return &OperatorHandler{operatorSvc: operatorSvc, sessionSvc: sessionSvc}
}

func (h *OperatorHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing auth context", nil)
		return
	}
	id64, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "invalid operator", nil)
		return
	}
	op, grants, err := h.operatorSvc.GetByID(uint(id64))
	if err != nil {
		response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "operator not found", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"operator": op, "grants": grants})
}

func (h *OperatorHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	operatorID, claims, ok := h.requireOperator(w, r)
	if !ok {
		return
	}
	currentID, err := h.sessionSvc.ResolveCurrentSessionID(r, claims, operatorID)
	if err != nil && !errors.Is(err, repository.ErrSessionNotFound) {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to resolve current session", nil)
		return
	}
	sessions, err := h.sessionSvc.ListActiveSessions(operatorID, currentID)
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to list sessions", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"sessions": sessions})
}

func (h *OperatorHandler) RevokeSession(w http.ResponseWriter, r *http.Request) {
	operatorID, _, ok := h.requireOperator(w, r)
	if !ok {
		return
	}
	sid64, err := strconv.ParseUint(chi.URLParam(r, "sessionID"), 10, 64)
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid session id", nil)
		return
	}
	outcome, err := h.sessionSvc.RevokeSession(operatorID, uint(sid64))
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "session not found", nil)
			return
		}
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to revoke session", nil)
		return
	}
	observability.Audit(r, "session.revoke", "operator_id", operatorID, "session_id", sid64, "outcome", outcome)
	response.JSON(w, r, http.StatusOK, map[string]string{"status": outcome})
}

func (h *OperatorHandler) RevokeOtherSessions(w http.ResponseWriter, r *http.Request) {
	operatorID, claims, ok := h.requireOperator(w, r)
	if !ok {
		return
	}
	currentID, err := h.sessionSvc.ResolveCurrentSessionID(r, claims, operatorID)
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "current session unknown", nil)
		return
	}
	revoked, err := h.sessionSvc.RevokeOtherSessions(operatorID, currentID)
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to revoke sessions", nil)
		return
	}
	observability.Audit(r, "session.revoke_others", "operator_id", operatorID, "revoked", revoked)
	response.JSON(w, r, http.StatusOK, map[string]any{"status": "revoked", "count": revoked})
}

func (h *OperatorHandler) requireOperator(w http.ResponseWriter, r *http.Request) (uint, *security.Claims, bool) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing auth context", nil)
		return 0, nil, false
	}
	id64, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "invalid operator", nil)
		return 0, nil, false
	}
	return uint(id64), claims, true
}
