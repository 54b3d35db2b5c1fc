package middleware

import (
	"context"
	"net/http"

	"github.com/clinicdesk/clinicdesk/internal/handlers/render"
	"github.com/clinicdesk/clinicdesk/internal/handlers/userctx"
	"github.com/clinicdesk/clinicdesk/internal/models"
)

type authService interface {
	Authenticate(ctx context.Context, r *http.Request) (models.User, error)
}

// Auth authenticates the request and attaches the resolved user to the
// request context. Every failure kind (missing credential, bad or expired
// token, deleted account) answers 401, the distinction is for logs only.
func Auth(as authService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := as.Authenticate(r.Context(), r)
			if err != nil {
				render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			ctx := userctx.New(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
