package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

// SessionCookieName is the cookie carrying the admin session token.
const SessionCookieName = "admin_session"

type contextKey string

const authContextKey contextKey = "auth"

// AuthContext is the per-request authentication state.
type AuthContext struct {
	Admin bool
	Email string
}

// TokenParser verifies a session token and returns the admin email.
type TokenParser interface {
	ParseToken(token string) (string, error)
}

func WithAuthContext(ctx context.Context, auth AuthContext) context.Context {
	return context.WithValue(ctx, authContextKey, auth)
}

// GetAuthContext returns the request's AuthContext; anonymous when none was
// set.
func GetAuthContext(ctx context.Context) AuthContext {
	auth, _ := ctx.Value(authContextKey).(AuthContext)
	return auth
}

// TokenFromRequest reads the session token from the cookie, falling back to
// an Authorization: Bearer header.
func TokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(SessionCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	authz := r.Header.Get("Authorization")
	if len(authz) > len("bearer ") && strings.EqualFold(authz[:len("bearer ")], "bearer ") {
		return strings.TrimSpace(authz[len("bearer "):])
	}
	return ""
}

// Authenticate derives the AuthContext of every request. An invalid or
// expired token leaves the request anonymous; it never rejects on its own.
func Authenticate(parser TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := AuthContext{}
			if token := TokenFromRequest(r); token != "" {
				if email, err := parser.ParseToken(token); err == nil {
					auth = AuthContext{Admin: true, Email: email}
				}
			}
			next.ServeHTTP(w, r.WithContext(WithAuthContext(r.Context(), auth)))
		})
	}
}

// RequireAdmin rejects non-admin requests with 401 before the handler runs.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !GetAuthContext(r.Context()).Admin {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"success": false,
				"message": "Unauthorized",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}
