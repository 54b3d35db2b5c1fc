package middleware

import (
	"net/http"
	"slices"

	"github.com/clinicdesk/clinicdesk/internal/handlers/render"
	"github.com/clinicdesk/clinicdesk/internal/handlers/userctx"
	"github.com/clinicdesk/clinicdesk/internal/models"
)

// RequireRoles passes the request through only if the authenticated user's
// role is in the allow-list. Empty list means any authenticated identity.
// Fails closed: no identity on the context answers 401 (the Auth middleware
// did not run or did not succeed), a role mismatch answers 403.
func RequireRoles(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := userctx.FromContext(r.Context())
			if !ok {
				render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			if len(roles) > 0 && !slices.Contains(roles, user.Role) {
				render.ServiceError(w, "Forbidden", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
