package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

// Identity is the authenticated caller attached to the request context.
type Identity struct {
	UserID  int64
	RoleID  int64
	StoreID *int64
}

type ctxKey int

const identityKey ctxKey = 0

func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}

// WithIdentity is used by tests to inject a caller without a token.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// Middleware validates the Authorization bearer token and attaches the
// caller identity. Requests without a valid token never reach the handler.
func Middleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				deny(w, "missing token")
				return
			}
			tokenStr, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || tokenStr == "" {
				deny(w, "malformed authorization header")
				return
			}
			claims, err := ParseToken(secret, tokenStr)
			if err != nil {
				deny(w, "invalid token")
				return
			}
			id := Identity{UserID: claims.UserID, RoleID: claims.RoleID, StoreID: claims.StoreID}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// RequireRole gates a route subtree to the given roles. Must run after
// Middleware.
func RequireRole(roles ...int64) func(http.Handler) http.Handler {
	allowed := make(map[int64]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := FromContext(r.Context())
			if !ok {
				deny(w, "missing token")
				return
			}
			if !allowed[id.RoleID] {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": "forbidden"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func deny(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
