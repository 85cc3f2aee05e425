package session_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/arjunm/healthmate-web-ui/internal/session"
	"github.com/golang-jwt/jwt/v5"
)

func newStore(t *testing.T) *session.Store {
	t.Helper()

	store, err := session.NewStore(filepath.Join(t.TempDir(), "session.db"))
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
	return store
}

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("SignedString() error = %v", err)
	}
	return token
}

func storedToken(t *testing.T, store *session.Store) string {
	t.Helper()

	token, err := store.Get()
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	return token
}

func TestCurrentUserValidToken(t *testing.T) {
	store := newStore(t)
	token := signToken(t, jwt.MapClaims{
		"exp":     time.Now().Add(time.Hour).Unix(),
		"role":    "user",
		"user_id": "u1",
		"email":   "pat@example.com",
		"name":    "Pat",
	})
	if err := store.Set(token); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	guard := session.NewGuard(store)

	user, ok := guard.CurrentUser()
	if !ok {
		t.Fatal("CurrentUser() ok = false, want true")
	}
	if user.Role != "user" {
		t.Errorf("Role = %q, want %q", user.Role, "user")
	}
	if user.ID != "u1" {
		t.Errorf("ID = %q, want %q", user.ID, "u1")
	}
	if user.Email != "pat@example.com" {
		t.Errorf("Email = %q, want %q", user.Email, "pat@example.com")
	}

	if !guard.IsValid() {
		t.Error("IsValid() = false, want true")
	}
	if got := storedToken(t, store); got != token {
		t.Error("valid credential should remain stored")
	}
}

func TestInvalidCredentialsClearStorage(t *testing.T) {
	tests := []struct {
		name  string
		token func(t *testing.T) string
	}{
		{
			name: "Expired token",
			token: func(t *testing.T) string {
				return signToken(t, jwt.MapClaims{
					"exp":  time.Now().Add(-time.Hour).Unix(),
					"role": "admin",
				})
			},
		},
		{
			name: "Missing expiry",
			token: func(t *testing.T) string {
				return signToken(t, jwt.MapClaims{"role": "user"})
			},
		},
		{
			name: "Unparseable expiry",
			token: func(t *testing.T) string {
				return signToken(t, jwt.MapClaims{"exp": "soon", "role": "user"})
			},
		},
		{
			name: "Malformed token",
			token: func(*testing.T) string {
				return "not-a-jwt"
			},
		},
		{
			name: "Garbage payload",
			token: func(*testing.T) string {
				return "aGVhZGVy.bm90LWpzb24.c2ln"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newStore(t)
			if err := store.Set(tt.token(t)); err != nil {
				t.Fatalf("Set() error = %v", err)
			}

			guard := session.NewGuard(store)

			if guard.IsValid() {
				t.Error("IsValid() = true, want false")
			}
			if _, ok := guard.CurrentUser(); ok {
				t.Error("CurrentUser() ok = true, want false")
			}
			if got := storedToken(t, store); got != "" {
				t.Errorf("credential not cleared, still stored: %q", got)
			}
		})
	}
}

func TestMissingToken(t *testing.T) {
	guard := session.NewGuard(newStore(t))

	if guard.IsValid() {
		t.Error("IsValid() = true, want false")
	}
	if _, ok := guard.CurrentUser(); ok {
		t.Error("CurrentUser() ok = true, want false")
	}
	if _, ok := guard.Token(); ok {
		t.Error("Token() ok = true, want false")
	}
}

func TestTokenOnlyWhileValid(t *testing.T) {
	store := newStore(t)
	valid := signToken(t, jwt.MapClaims{
		"exp":  time.Now().Add(time.Hour).Unix(),
		"role": "user",
	})
	if err := store.Set(valid); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	guard := session.NewGuard(store)

	token, ok := guard.Token()
	if !ok || token != valid {
		t.Fatalf("Token() = %q, %v, want stored token, true", token, ok)
	}

	expired := signToken(t, jwt.MapClaims{
		"exp":  time.Now().Add(-time.Minute).Unix(),
		"role": "user",
	})
	if err := store.Set(expired); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	if _, ok := guard.Token(); ok {
		t.Error("Token() ok = true for expired credential, want false")
	}
	if got := storedToken(t, store); got != "" {
		t.Error("expired credential should be cleared")
	}
}

func TestAuthorizeRoute(t *testing.T) {
	futureExp := time.Now().Add(time.Hour).Unix()

	tests := []struct {
		name         string
		token        string
		requiredRole string
		want         session.Decision
	}{
		{
			name:         "No session requires login",
			token:        "",
			requiredRole: "",
			want:         session.RedirectLogin,
		},
		{
			name:         "Valid session allowed",
			token:        "user",
			requiredRole: "",
			want:         session.Allow,
		},
		{
			name:         "Non-admin sent home",
			token:        "user",
			requiredRole: session.RoleAdmin,
			want:         session.RedirectHome,
		},
		{
			name:         "Admin allowed",
			token:        "admin",
			requiredRole: session.RoleAdmin,
			want:         session.Allow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newStore(t)
			if tt.token != "" {
				token := signToken(t, jwt.MapClaims{"exp": futureExp, "role": tt.token})
				if err := store.Set(token); err != nil {
					t.Fatalf("Set() error = %v", err)
				}
			}

			guard := session.NewGuard(store)
			if got := guard.AuthorizeRoute(tt.requiredRole); got != tt.want {
				t.Errorf("AuthorizeRoute(%q) = %v, want %v", tt.requiredRole, got, tt.want)
			}
		})
	}
}

func TestExpiredSessionRedirectsLogin(t *testing.T) {
	store := newStore(t)
	token := signToken(t, jwt.MapClaims{
		"exp":  time.Now().Add(-time.Hour).Unix(),
		"role": session.RoleAdmin,
	})
	if err := store.Set(token); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	guard := session.NewGuard(store)
	if got := guard.AuthorizeRoute(session.RoleAdmin); got != session.RedirectLogin {
		t.Errorf("AuthorizeRoute() = %v, want RedirectLogin", got)
	}
}
