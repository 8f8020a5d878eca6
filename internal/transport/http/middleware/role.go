package middleware

import (
	"log/slog"
	"net/http"
	"slices"
)

// RequireRole returns middleware that admits only callers whose JWT role is
// one of allowedRoles (e.g. domain.RoleAdmin). Refusals are logged.
func RequireRole(allowedRoles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				writeJSONError(w, r, http.StatusUnauthorized, "unauthorized")
				return
			}
			if !slices.Contains(allowedRoles, claims.Role) {
				slog.Warn("role refused", "user_id", claims.UserID, "role", claims.Role, "path", r.URL.Path)
				writeJSONError(w, r, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
