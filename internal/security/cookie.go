package security

import (
	"net/http"
	"strings"
	"time"
)

const (
	AccessTokenCookie  = "access_token"
	RefreshTokenCookie = "refresh_token"
	CSRFTokenCookie    = "csrf_token"
	OAuthStateCookie   = "oauth_state"

	refreshCookiePath    = "/api/v1/auth"
	oauthStateCookiePath = "/api/v1/auth/google"
)

var accessCookieMaxAge = int((15 * time.Minute).Seconds())

type CookieManager struct {
	Domain   string
	Secure   bool
	SameSite http.SameSite
}

func NewCookieManager(domain string, secure bool, sameSite string) *CookieManager {
	mode := http.SameSiteLaxMode
	switch strings.ToLower(sameSite) {
	case "strict":
		mode = http.SameSiteStrictMode
	case "none":
		mode = http.SameSiteNoneMode
	}
	return &CookieManager{Domain: domain, Secure: secure, SameSite: mode}
}

// SetTokenCookies installs the token triple. The CSRF cookie stays readable
// by scripts so browser forms can echo it back as a field or header.
func (m *CookieManager) SetTokenCookies(w http.ResponseWriter, access, refresh, csrf string, refreshTTL time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name: AccessTokenCookie, Value: access,
		Path: "/", Domain: m.Domain,
		HttpOnly: true, Secure: m.Secure, SameSite: m.SameSite,
		MaxAge: accessCookieMaxAge,
	})
	http.SetCookie(w, &http.Cookie{
		Name: RefreshTokenCookie, Value: refresh,
		Path: refreshCookiePath, Domain: m.Domain,
		HttpOnly: true, Secure: m.Secure, SameSite: m.SameSite,
		MaxAge: int(refreshTTL.Seconds()),
	})
	http.SetCookie(w, &http.Cookie{
		Name: CSRFTokenCookie, Value: csrf,
		Path: "/", Domain: m.Domain,
		HttpOnly: false, Secure: m.Secure, SameSite: m.SameSite,
		MaxAge: int(refreshTTL.Seconds()),
	})
}

func (m *CookieManager) ClearTokenCookies(w http.ResponseWriter) {
	clear := func(name, path string, httpOnly bool) {
		http.SetCookie(w, &http.Cookie{
			Name: name, Value: "",
			Path: path, Domain: m.Domain,
			HttpOnly: httpOnly, Secure: m.Secure, SameSite: m.SameSite,
			MaxAge: -1,
		})
	}
	clear(AccessTokenCookie, "/", true)
	clear(RefreshTokenCookie, refreshCookiePath, true)
	clear(CSRFTokenCookie, "/", false)
	clear(OAuthStateCookie, oauthStateCookiePath, true)
}

func GetCookie(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}
