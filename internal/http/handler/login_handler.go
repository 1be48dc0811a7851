package handler

import (
	"net/http"
	"time"

	"github.com/stewardhq/steward/internal/http/render"
	"github.com/stewardhq/steward/internal/observability"
	"github.com/stewardhq/steward/internal/security"
	"github.com/stewardhq/steward/internal/service"
)

// LoginHandler serves the HTML sign-in page for the console. JSON clients
// use the /api/v1/auth endpoints instead.
type LoginHandler struct {
	authSvc       service.AuthServiceInterface
	cookieMgr     *security.CookieManager
	renderer      *render.Renderer
	refreshTTL    time.Duration
	localEnabled  bool
	googleEnabled bool
}

func NewLoginHandler(authSvc service.AuthServiceInterface, cookieMgr *security.CookieManager, renderer *render.Renderer, refreshTTL time.Duration, localEnabled, googleEnabled bool) *LoginHandler {
	return &LoginHandler{
		authSvc:       authSvc,
		cookieMgr:     cookieMgr,
		renderer:      renderer,
		refreshTTL:    refreshTTL,
		localEnabled:  localEnabled,
		googleEnabled: googleEnabled,
	}
}

func (h *LoginHandler) Page(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "")
}

func (h *LoginHandler) Submit(w http.ResponseWriter, r *http.Request) {
	if !h.localEnabled {
		h.render(w, r, http.StatusForbidden, "Password sign-in is disabled.")
		return
	}
	if err := r.ParseForm(); err != nil {
		h.render(w, r, http.StatusBadRequest, "Invalid form submission.")
		return
	}
	email := r.PostFormValue("email")
	password := r.PostFormValue("password")
	result, err := h.authSvc.LoginWithLocalPassword(email, password, r.UserAgent(), clientIP(r))
	if err != nil {
		observability.Audit(r, "auth.local.login.failed", "email", email)
		observability.RecordAuthLogin(r.Context(), "local", "failure")
		h.render(w, r, http.StatusUnauthorized, "Invalid email or password.")
		return
	}
	h.cookieMgr.SetTokenCookies(w, result.AccessToken, result.RefreshToken, result.CSRFToken, h.refreshTTL)
	observability.Audit(r, "auth.login.success", "operator_id", result.Operator.ID, "provider", "local")
	observability.RecordAuthLogin(r.Context(), "local", "success")
	http.Redirect(w, r, "/admin", http.StatusFound)
}

func (h *LoginHandler) render(w http.ResponseWriter, r *http.Request, status int, errMsg string) {
	h.renderer.Render(w, r, status, "admin/login", map[string]any{
		"LocalEnabled":  h.localEnabled,
		"GoogleEnabled": h.googleEnabled,
		"Error":         errMsg,
	})
}
