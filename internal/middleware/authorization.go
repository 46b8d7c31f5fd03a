package middleware

import (
	"net/http"

	"go.uber.org/zap"

	"afrimart/internal/domain"
)

// RequireAdmin rejects requests whose authenticated user is not an admin.
// It must run after AuthMiddleware so the role is present in the context.
func RequireAdmin(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := GetUserRole(r.Context())
			if !ok || role != domain.RoleAdmin {
				logger.Warn("Admin endpoint denied",
					zap.String("role", role),
					zap.String("path", r.URL.Path),
				)
				respondWithError(w, http.StatusForbidden, "insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
