package handlers

import (
	"context"
	"net/http"

	"github.com/clinicdesk/clinicdesk/internal/handlers/middleware"
	"github.com/clinicdesk/clinicdesk/internal/logger"
	"github.com/clinicdesk/clinicdesk/internal/models"
	"github.com/clinicdesk/clinicdesk/internal/service/auth"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

func NewRouter(
	authService authService,
	userService userService,
	logger logger.Logger,
) http.Handler {
	withAuth := middleware.Auth(authService)
	adminOnly := middleware.RequireRoles(models.RoleAdmin)

	api := http.NewServeMux()

	api.Handle("POST /auth/register", handleRegister(authService, logger))
	api.Handle("POST /auth/login", handleLogin(authService, logger))
	api.Handle("POST /auth/refresh", handleTokenRefresh(authService, logger))
	api.Handle("POST /auth/logout", handleLogout(authService))

	api.Handle("GET /auth/me", chain(handleUserMe(), withAuth))
	api.Handle("GET /admin/users", chain(handleListUsers(userService), withAuth, adminOnly))

	root := http.NewServeMux()
	root.Handle("/api/", http.StripPrefix("/api", api))

	handler := chain(root,
		middleware.LoggerMiddleware(logger),
	)

	return handler
}

type authService interface {
	// Register user and log it in
	// Has to return apperrors.ErrUserAlreadyExists if email is taken
	Register(ctx context.Context, params auth.RegisterParams) (models.TokenPair, error)

	// Login user with email and password
	// Has to return apperrors.ErrInvalidCredentials on unknown email or wrong password
	Login(ctx context.Context, email string, password string) (models.TokenPair, error)

	// Rotate the pair using a refresh token
	// If token expired: has to return apperrors.ErrTokenExpired
	// Invalid, spent or orphaned tokens return their own apperrors kinds
	Refresh(ctx context.Context, refresh string) (models.TokenPair, error)

	// Revoke the refresh token, best effort
	Logout(ctx context.Context, refresh string)

	// Authenticate request and return the resolved user
	Authenticate(ctx context.Context, r *http.Request) (models.User, error)

	// Transport: pair to response, refresh token from request, cookie cleanup
	SetTokenPair(w http.ResponseWriter, pair models.TokenPair)
	ReadRefresh(r *http.Request) (string, error)
	ClearTokenPair(w http.ResponseWriter)
}

type userService interface {
	ListUsers(ctx context.Context) ([]models.User, error)
}
