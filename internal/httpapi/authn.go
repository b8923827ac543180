package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/HossanaWebsite/hcsem-v-2.0-sub001/internal/auth"
)

const (
	sessionCookie = "auth_token"
	authHeader    = "Authorization"
	bearer        = "Bearer "
)

// withAuth resolves the session token into a principal on the request
// context. Resolution failures are not fatal here: the request proceeds
// anonymously and the per-route permission checks reject it if needed.
func (a *API) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}
		token := sessionToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}
		principal, err := a.svc.Resolve(r.Context(), token)
		if err != nil {
			writeError(w, r, http.StatusInternalServerError, "authentication error")
			return
		}
		if principal == nil {
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.ContextWithPrincipal(r.Context(), principal)))
	})
}

// sessionToken pulls the token from the session cookie, falling back to an
// Authorization bearer header for non-browser clients.
func sessionToken(r *http.Request) string {
	if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	header := strings.TrimSpace(r.Header.Get(authHeader))
	if header == "" {
		return ""
	}
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
		return ""
	}
	return strings.TrimSpace(header[len(bearer):])
}

// ensurePermission authorizes the request for any of the given permissions
// and writes the failure response itself. Returns the principal when allowed.
func (a *API) ensurePermission(w http.ResponseWriter, r *http.Request, perms ...string) (*auth.Principal, bool) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "unauthorized")
		return nil, false
	}
	if err := auth.AuthorizeAny(principal, perms...); err != nil {
		handleAuthError(w, r, err)
		return nil, false
	}
	return principal, true
}

// setSessionCookie derives MaxAge from the configured session lifetime, not
// from the token's expiry timestamp: the token clock is injectable and need
// not agree with the wall clock this arithmetic would use.
func (a *API) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(a.svc.SessionTTL() / time.Second),
		HttpOnly: true,
		Secure:   a.cfg.SecureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}

func (a *API) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   a.cfg.SecureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}
