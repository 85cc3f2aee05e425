package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// RoleAdmin is the role claim required for the admin dashboard.
const RoleAdmin = "admin"

// Principal is the decoded payload of a valid credential.
type Principal struct {
	ID        string
	Name      string
	Email     string
	Role      string
	ExpiresAt time.Time
}

// Decision is the outcome of a route authorization check.
type Decision int

const (
	// Allow admits the navigation target.
	Allow Decision = iota
	// RedirectLogin means no valid session exists.
	RedirectLogin
	// RedirectHome means the session is valid but lacks the required role.
	RedirectHome
)

// Guard gates navigation on credential validity and role. The token is
// decoded without signature verification: the backend owns the signing key,
// and the client only needs the payload's expiry and role claims. Every
// check reads the store fresh; a failed check is final for that navigation
// attempt only.
type Guard struct {
	store *Store
}

// NewGuard creates a Guard backed by the given credential store.
func NewGuard(store *Store) *Guard {
	return &Guard{store: store}
}

// CurrentUser returns the decoded principal when a usable credential is
// stored. It is the single validity authority: missing token, undecodable
// payload, missing expiry, and elapsed expiry all report false, and every
// invalid outcome clears the store so later checks stay cheap and
// consistent. A storage failure reads the same as a missing token.
func (g *Guard) CurrentUser() (Principal, bool) {
	user, _, ok := g.current()
	return user, ok
}

// current is the one decode-and-check path. It reads the store exactly once
// and hands back the raw token with the principal so callers never re-read
// a credential that validity was decided on.
func (g *Guard) current() (Principal, string, bool) {
	token, err := g.store.Get()
	if err != nil || token == "" {
		return Principal{}, "", false
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		g.invalidate()
		return Principal{}, "", false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		g.invalidate()
		return Principal{}, "", false
	}

	// Expiry is epoch seconds; the credential is valid only while it is
	// strictly in the future.
	if exp.UnixMilli() < time.Now().UnixMilli() {
		g.invalidate()
		return Principal{}, "", false
	}

	return Principal{
		ID:        stringClaim(claims, "user_id"),
		Name:      stringClaim(claims, "name"),
		Email:     stringClaim(claims, "email"),
		Role:      stringClaim(claims, "role"),
		ExpiresAt: exp.Time,
	}, token, true
}

// IsValid reports whether a usable credential is currently stored.
func (g *Guard) IsValid() bool {
	_, ok := g.CurrentUser()
	return ok
}

// Token returns the raw credential for the Authorization header, but only
// while the guard considers it valid. Callers seeing ok=false must omit the
// header and let the backend reject the request.
func (g *Guard) Token() (string, bool) {
	_, token, ok := g.current()
	return token, ok
}

// AuthorizeRoute decides whether a navigation target is reachable. An empty
// requiredRole admits any valid session.
func (g *Guard) AuthorizeRoute(requiredRole string) Decision {
	user, ok := g.CurrentUser()
	if !ok {
		return RedirectLogin
	}
	if requiredRole != "" && user.Role != requiredRole {
		return RedirectHome
	}
	return Allow
}

func (g *Guard) invalidate() {
	// Best effort; a failed delete just means the next check repeats the work.
	_ = g.store.Clear()
}

func stringClaim(claims jwt.MapClaims, key string) string {
	if v, ok := claims[key].(string); ok {
		return v
	}
	return ""
}
