package response

import (
	"encoding/base64"
	"net/http"

	"github.com/goccy/go-json"
)

// Flash levels understood by the admin templates.
const (
	FlashSuccess = "success"
	FlashError   = "error"
	FlashInfo    = "info"
)

// Flash is one deferred notification, written before a redirect and shown
// exactly once on the next rendered page.
type Flash struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

const flashCookie = "steward_flash"

// AddFlash appends a flash to the cookie store. Values are JSON inside
// URL-safe base64 so messages survive cookie encoding rules.
func AddFlash(w http.ResponseWriter, r *http.Request, level, message string) {
	flashes := append(peekFlashes(r), Flash{Level: level, Message: message})
	raw, err := json.Marshal(flashes)
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    base64.RawURLEncoding.EncodeToString(raw),
		Path:     "/admin",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   300,
	})
}

// TakeFlashes drains pending flashes: returns them and clears the cookie so
// a refresh does not replay the message.
func TakeFlashes(w http.ResponseWriter, r *http.Request) []Flash {
	flashes := peekFlashes(r)
	if len(flashes) == 0 {
		return nil
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    "",
		Path:     "/admin",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
	return flashes
}

func peekFlashes(r *http.Request) []Flash {
	c, err := r.Cookie(flashCookie)
	if err != nil || c.Value == "" {
		return nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(c.Value)
	if err != nil {
		return nil
	}
	var flashes []Flash
	if err := json.Unmarshal(raw, &flashes); err != nil {
		return nil
	}
	return flashes
}
