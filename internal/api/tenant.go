package api

import (
	"context"
	"net/http"
	"os"

	"github.com/cleanbid/backend/internal/auth"
)

type tenantKey struct{}
type userKey struct{}

// TenantContext resolves the tenant and user for each request from the
// auth session and stores them on the request context. In dev mode an
// X-Tenant-ID header substitutes for a session.
func TenantContext(am *auth.AuthManager) func(http.Handler) http.Handler {
	devMode := os.Getenv("DEV_MODE") == "true" || os.Getenv("ENVIRONMENT") == "development"

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var tenantID, userID string

			if am != nil {
				if s := am.GetSession(r); s != nil {
					tenantID, userID = s.TenantID, s.Email
				}
			}
			if tenantID == "" && devMode {
				tenantID = r.Header.Get("X-Tenant-ID")
				userID = r.Header.Get("X-User-ID")
			}

			if tenantID == "" {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"unauthorized"}`))
				return
			}

			ctx := context.WithValue(r.Context(), tenantKey{}, tenantID)
			ctx = context.WithValue(ctx, userKey{}, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// TenantID returns the tenant bound to the request. Empty outside the
// TenantContext middleware.
func TenantID(r *http.Request) string {
	v, _ := r.Context().Value(tenantKey{}).(string)
	return v
}

// UserID returns the acting user bound to the request.
func UserID(r *http.Request) string {
	v, _ := r.Context().Value(userKey{}).(string)
	return v
}
