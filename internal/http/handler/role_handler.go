package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/stewardhq/steward/internal/admin"
	"github.com/stewardhq/steward/internal/domain"
	"github.com/stewardhq/steward/internal/http/response"
	"github.com/stewardhq/steward/internal/observability"
	"github.com/stewardhq/steward/internal/repository"
)

// roleMaster is the bootstrap role whose grants can never be edited away.
const roleMaster = "master"

// RoleHandler is the JSON management API for roles, their capability grants,
// and operator role assignment. It sits behind the MASTER capability.
type RoleHandler struct {
	roleRepo     repository.RoleRepository
	operatorRepo repository.OperatorRepository
	registry     *admin.Registry
}

func NewRoleHandler(roleRepo repository.RoleRepository, operatorRepo repository.OperatorRepository, registry *admin.Registry) *RoleHandler {
	return &RoleHandler{roleRepo: roleRepo, operatorRepo: operatorRepo, registry: registry}
}

type grantPayload struct {
	AdminCode    string   `json:"admin_code"`
	Capabilities []string `json:"capabilities"`
}

type roleView struct {
	ID          uint           `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Grants      []grantPayload `json:"grants"`
}

func newRoleView(role *domain.Role) roleView {
	view := roleView{ID: role.ID, Name: role.Name, Description: role.Description, Grants: make([]grantPayload, 0, len(role.Grants))}
	for _, g := range role.Grants {
		view.Grants = append(view.Grants, grantPayload{
			AdminCode:    g.AdminCode,
			Capabilities: admin.Capabilities(g.Capabilities).Names(),
		})
	}
	return view
}

func (h *RoleHandler) ListRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.roleRepo.List()
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to list roles", nil)
		return
	}
	views := make([]roleView, 0, len(roles))
	for i := range roles {
		views = append(views, newRoleView(&roles[i]))
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"roles": views})
}

func (h *RoleHandler) GetRole(w http.ResponseWriter, r *http.Request) {
	roleID, err := parsePathID(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid role id", nil)
		return
	}
	role, err := h.roleRepo.FindByID(roleID)
	if err != nil {
		if errors.Is(err, repository.ErrRoleNotFound) {
			response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "role not found", nil)
			return
		}
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to load role", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, newRoleView(role))
}

func (h *RoleHandler) CreateRole(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name        string         `json:"name"`
		Description string         `json:"description"`
		Grants      []grantPayload `json:"grants"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "role name is required", nil)
		return
	}
	grants, err := h.parseGrants(body.Grants)
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	role := &domain.Role{Name: name, Description: strings.TrimSpace(body.Description)}
	if err := h.roleRepo.Create(role, grants); err != nil {
		if isConflictError(err) {
			observability.RecordAccountMutation(r.Context(), "role", "create", "rejected")
			response.Error(w, r, http.StatusConflict, "CONFLICT", "role already exists", nil)
			return
		}
		observability.RecordAccountMutation(r.Context(), "role", "create", "error")
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to create role", nil)
		return
	}
	observability.Audit(r, "admin.role.created", "role_id", role.ID, "role_name", role.Name)
	observability.RecordAccountMutation(r.Context(), "role", "create", "success")
	created, err := h.roleRepo.FindByID(role.ID)
	if err != nil {
		response.JSON(w, r, http.StatusCreated, newRoleView(role))
		return
	}
	response.JSON(w, r, http.StatusCreated, newRoleView(created))
}

func (h *RoleHandler) ReplaceGrants(w http.ResponseWriter, r *http.Request) {
	roleID, err := parsePathID(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid role id", nil)
		return
	}
	role, err := h.roleRepo.FindByID(roleID)
	if err != nil {
		if errors.Is(err, repository.ErrRoleNotFound) {
			response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "role not found", nil)
			return
		}
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to load role", nil)
		return
	}
	if strings.EqualFold(role.Name, roleMaster) {
		observability.RecordAccountMutation(r.Context(), "role", "replace_grants", "rejected")
		response.Error(w, r, http.StatusForbidden, "FORBIDDEN", "master role grants cannot be modified", nil)
		return
	}
	var body struct {
		Grants []grantPayload `json:"grants"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	grants, err := h.parseGrants(body.Grants)
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	if err := h.roleRepo.ReplaceGrants(roleID, grants); err != nil {
		observability.RecordAccountMutation(r.Context(), "role", "replace_grants", "error")
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to replace grants", nil)
		return
	}
	observability.Audit(r, "admin.role.grants.replaced", "role_id", roleID, "role_name", role.Name, "grant_count", len(grants))
	observability.RecordAccountMutation(r.Context(), "role", "replace_grants", "success")
	updated, err := h.roleRepo.FindByID(roleID)
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to load role", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, newRoleView(updated))
}

func (h *RoleHandler) ListOperators(w http.ResponseWriter, r *http.Request) {
	operators, err := h.operatorRepo.List()
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to list operators", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"operators": operators})
}

func (h *RoleHandler) SetOperatorRoles(w http.ResponseWriter, r *http.Request) {
	operatorID, err := parsePathID(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid operator id", nil)
		return
	}
	actorID, err := actorIDFromRequest(r)
	if err != nil {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "invalid actor", nil)
		return
	}
	// Self-demotion lockout guard: a master that strips their own roles would
	// leave the deployment without anyone able to restore them.
	if actorID == operatorID {
		observability.RecordAccountMutation(r.Context(), "operator_role", "set_roles", "rejected")
		response.Error(w, r, http.StatusForbidden, "FORBIDDEN", "cannot modify own role assignment", nil)
		return
	}
	if _, err := h.operatorRepo.FindByID(operatorID); err != nil {
		if errors.Is(err, repository.ErrOperatorNotFound) {
			response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "operator not found", nil)
			return
		}
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to load operator", nil)
		return
	}
	var body struct {
		RoleIDs []uint `json:"role_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	for _, roleID := range body.RoleIDs {
		if _, err := h.roleRepo.FindByID(roleID); err != nil {
			if errors.Is(err, repository.ErrRoleNotFound) {
				response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "one or more roles do not exist", nil)
				return
			}
			response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to load role", nil)
			return
		}
	}
	if err := h.operatorRepo.SetRoles(operatorID, body.RoleIDs); err != nil {
		observability.RecordAccountMutation(r.Context(), "operator_role", "set_roles", "error")
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to set roles", nil)
		return
	}
	observability.Audit(r, "admin.operator.roles.updated", "target_operator_id", operatorID, "role_ids", body.RoleIDs)
	observability.RecordAccountMutation(r.Context(), "operator_role", "set_roles", "success")
	response.JSON(w, r, http.StatusOK, map[string]any{"operator_id": operatorID, "role_ids": body.RoleIDs})
}

// parseGrants validates admin codes against the registry and folds capability
// verb names into masks. The wildcard code applies a grant to every admin.
func (h *RoleHandler) parseGrants(payload []grantPayload) ([]domain.RoleGrant, error) {
	grants := make([]domain.RoleGrant, 0, len(payload))
	seen := make(map[string]struct{}, len(payload))
	for _, g := range payload {
		code := strings.TrimSpace(g.AdminCode)
		if code != domain.GrantAllAdmins {
			if _, err := h.registry.Get(code); err != nil {
				return nil, errors.New("unknown admin code " + code)
			}
		}
		if _, dup := seen[code]; dup {
			return nil, errors.New("duplicate grant for admin code " + code)
		}
		seen[code] = struct{}{}
		caps, err := admin.ParseCapabilities(g.Capabilities)
		if err != nil {
			return nil, err
		}
		grants = append(grants, domain.RoleGrant{AdminCode: code, Capabilities: int64(caps)})
	}
	return grants, nil
}
