package session

import (
	"net/http"
	"strings"
)

// CookieName carries the session token.
const CookieName = "poetAuth"

// SetCookie stores token in an HttpOnly, SameSite=Lax cookie. Lax keeps the
// cookie on top-level navigations, which mobile browsers need after redirects.
func (m *Manager) SetCookie(w http.ResponseWriter, r *http.Request, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure(r),
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie expires the session cookie. It is the whole of logout.
func (m *Manager) ClearCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure(r),
		SameSite: http.SameSiteLaxMode,
	})
}

func (m *Manager) secure(r *http.Request) bool {
	return m.secureCookie || (r != nil && r.TLS != nil)
}

// TokenFromRequest returns the session token from the cookie, falling back to
// an "Authorization: Bearer" header for non-browser clients.
func TokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
		return c.Value
	}
	auth := r.Header.Get("Authorization")
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
