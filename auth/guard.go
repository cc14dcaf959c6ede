package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/jmcleod/gatehouse/session"
	"github.com/jmcleod/gatehouse/store"
)

// Status is the outcome of an access decision.
type Status int

const (
	// Allow admits the request, with or without an attached identity.
	Allow Status = iota
	// Unauthorized means no credential was presented (401).
	Unauthorized
	// Forbidden means a credential was presented but resolved to no
	// identity (403).
	Forbidden
)

func (s Status) String() string {
	switch s {
	case Allow:
		return "allow"
	case Unauthorized:
		return "unauthorized"
	case Forbidden:
		return "forbidden"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Decision is the result of Guard.Authenticate. User is non-nil only for
// Allow on a protected path.
type Decision struct {
	Status Status
	User   *store.User
}

// Request carries the pieces of an inbound request the access decision
// needs. The HTTP framework stays outside this package; it only supplies
// the path, header set, and cookie set.
type Request struct {
	Path    string
	Header  http.Header
	Cookies map[string]string
}

// Guard decides, per request, whether the caller is authenticated and for
// whom. Credential strategies are fixed at construction: basic auth,
// session-cookie auth, both, or neither (no authenticator configured —
// every request is allowed through).
type Guard struct {
	users      store.UserStore
	hasher     *Hasher
	sessions   session.Registry
	cookieName string
	excluded   []string
}

// GuardOption configures a Guard.
type GuardOption func(*Guard)

// WithBasicAuth enables Authorization-header credential checks against
// the given user store.
func WithBasicAuth(users store.UserStore, hasher *Hasher) GuardOption {
	return func(g *Guard) {
		g.users = users
		g.hasher = hasher
	}
}

// WithSessionAuth enables session-cookie checks. cookieName must be set
// for cookie extraction to function; there is no default.
func WithSessionAuth(registry session.Registry, users store.UserStore, cookieName string) GuardOption {
	return func(g *Guard) {
		g.sessions = registry
		g.users = users
		g.cookieName = cookieName
	}
}

// NewGuard creates a Guard exempting the given paths. With no options the
// guard has no authenticator configured and admits everything.
func NewGuard(excludedPaths []string, opts ...GuardOption) *Guard {
	g := &Guard{excluded: excludedPaths}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// RequireAuth reports whether path is subject to authentication. A path is
// exempt only if it matches one of the excluded rules, either exactly
// (insensitive to a single trailing slash) or by a "<prefix>*" wildcard.
// Empty rule sets and empty paths fail secure: auth required.
func RequireAuth(path string, excludedPaths []string) bool {
	if path == "" || len(excludedPaths) == 0 {
		return true
	}
	normalized := strings.TrimSuffix(path, "/")
	for _, rule := range excludedPaths {
		if strings.HasSuffix(rule, "*") {
			if strings.HasPrefix(normalized, rule[:len(rule)-1]) {
				return false
			}
		} else if normalized == strings.TrimSuffix(rule, "/") {
			return false
		}
	}
	return true
}

// Authenticate runs the access decision for one request.
func (g *Guard) Authenticate(req Request) Decision {
	if !g.basicEnabled() && !g.sessionEnabled() {
		return Decision{Status: Allow}
	}
	if !RequireAuth(req.Path, g.excluded) {
		return Decision{Status: Allow}
	}

	// The Authorization header wins over the session cookie when both
	// are present; only enabled credential sources are considered.
	if g.basicEnabled() {
		if header := req.Header.Get("Authorization"); header != "" {
			if user := g.resolveBasic(header); user != nil {
				return Decision{Status: Allow, User: user}
			}
			return Decision{Status: Forbidden}
		}
	}
	if g.sessionEnabled() {
		if token := req.Cookies[g.cookieName]; token != "" {
			if user := g.resolveSession(token); user != nil {
				return Decision{Status: Allow, User: user}
			}
			return Decision{Status: Forbidden}
		}
	}
	return Decision{Status: Unauthorized}
}

func (g *Guard) basicEnabled() bool   { return g.hasher != nil && g.users != nil }
func (g *Guard) sessionEnabled() bool { return g.sessions != nil && g.cookieName != "" }

// resolveBasic validates an Authorization header against the user store.
// Any failure — bad format, unknown email, wrong password — yields nil.
func (g *Guard) resolveBasic(header string) *store.User {
	email, password, ok := decodeBasicHeader(header)
	if !ok {
		return nil
	}
	user, err := g.users.FindBy(store.AttrEmail, email)
	if err != nil {
		return nil
	}
	if !g.hasher.Verify(user.HashedPassword, password) {
		return nil
	}
	return user
}

// resolveSession resolves a session token to its owning user record.
func (g *Guard) resolveSession(token string) *store.User {
	userID, ok := g.sessions.UserID(token)
	if !ok {
		return nil
	}
	user, err := g.users.FindBy(store.AttrID, userID)
	if err != nil {
		return nil
	}
	return user
}
