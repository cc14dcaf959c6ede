package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/jmcleod/gatehouse/auth"
	"github.com/jmcleod/gatehouse/store"
)

type contextKey int

const userKey contextKey = iota

// AuthMiddleware runs the access decision for each request and stores the
// resolved user on the request context. Excluded paths and requests with
// no authenticator configured pass through with no identity attached.
func (a *API) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		decision := a.guard.Authenticate(guardRequest(r))
		switch decision.Status {
		case auth.Unauthorized:
			a.audit.logFailure(AuditAccessDenied, r, "missing credentials")
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		case auth.Forbidden:
			a.audit.logFailure(AuditAccessDenied, r, "invalid credentials")
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}
		if decision.User != nil {
			ctx := context.WithValue(r.Context(), userKey, decision.User)
			r = r.WithContext(ctx)
		}
		next.ServeHTTP(w, r)
	})
}

// guardRequest projects an http.Request onto the transport-neutral shape
// the guard consumes.
func guardRequest(r *http.Request) auth.Request {
	cookies := make(map[string]string)
	for _, c := range r.Cookies() {
		cookies[c.Name] = c.Value
	}
	return auth.Request{
		Path:    r.URL.Path,
		Header:  r.Header,
		Cookies: cookies,
	}
}

func userFromContext(ctx context.Context) *store.User {
	user, _ := ctx.Value(userKey).(*store.User)
	return user
}

func (a *API) sessionToken(r *http.Request) string {
	if a.cookieName == "" {
		return ""
	}
	cookie, err := r.Cookie(a.cookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func (a *API) writeSessionCookie(w http.ResponseWriter, r *http.Request, token string) {
	cookie := &http.Cookie{
		Name:     a.cookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   requestIsSecure(r),
		SameSite: http.SameSiteLaxMode,
	}
	if a.sessionTTL > 0 {
		cookie.Expires = time.Now().Add(a.sessionTTL)
	}
	http.SetCookie(w, cookie)
}

func (a *API) clearSessionCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     a.cookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   requestIsSecure(r),
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
	})
}

func requestIsSecure(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	if strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
		return true
	}
	return strings.Contains(strings.ToLower(r.Header.Get("Forwarded")), "proto=https")
}
