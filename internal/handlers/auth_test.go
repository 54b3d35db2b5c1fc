package handlers

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/clinicdesk/clinicdesk/internal/logger"
	"github.com/clinicdesk/clinicdesk/internal/models"
	"github.com/clinicdesk/clinicdesk/internal/repository/postgres"
	"github.com/clinicdesk/clinicdesk/internal/service/auth"
	"github.com/clinicdesk/clinicdesk/internal/service/auth/tokencodec"
	"github.com/clinicdesk/clinicdesk/internal/testutil"
)

func Test_AuthHandlers(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	// Run http server with the full router attached
	// Production AuthService over a rolled back transaction
	withTx := func(dbpool *pgxpool.Pool, t *testing.T, fn func(url string, s *auth.AuthService)) {
		testutil.WithTx(dbpool, t, func(tx pgx.Tx) {
			storage := postgres.NewStorage(tx)

			codec, err := tokencodec.New(tokencodec.Config{
				AccessSecret:  "test-access-secret",
				RefreshSecret: "test-refresh-secret",
			})
			require.NoError(t, err, "codec should be created without errors")

			s, err := auth.NewService(auth.Config{}, codec, storage)
			require.NoError(t, err, "auth service starting error")

			srv := httptest.NewServer(NewRouter(s, storage.User(), logger.NewNoOpLogger()))
			defer srv.Close()

			fn(srv.URL, s)
		})
	}

	registerParams := func(email string) auth.RegisterParams {
		return auth.RegisterParams{
			Email:    email,
			FullName: "Pat Patient",
			Password: "StrongEnoughPassword",
			Role:     models.RolePatient,
		}
	}

	doJSON := func(t *testing.T, method string, url string, data string) (*http.Response, string) {
		t.Helper()
		var reqBody io.Reader
		if data != "" {
			reqBody = strings.NewReader(data)
		}
		req, err := http.NewRequest(method, url, reqBody)
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/json")

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()

		return resp, string(body)
	}

	t.Run("register ok", func(t *testing.T) {
		withTx(pg.Pool, t, func(url string, s *auth.AuthService) {
			data := `{"email": "pat@clinic.example", "full_name": "Pat Patient", "password": "StrongEnoughPassword", "role": "patient"}`

			resp, body := doJSON(t, "POST", url+"/api/auth/register", data)

			require.Equalf(t, http.StatusCreated, resp.StatusCode, "not expected code. Body: %s", body)
			require.JSONEq(t, `
				{
					"message": "User registered successfully"
				}`, body)

			require.Equal(t, 1, len(resp.Cookies()))
			cookie := resp.Cookies()[0]
			require.Equal(t, "refreshtoken", cookie.Name)
			require.Equal(t, cookie.HttpOnly, true, "refresh cookie should be HttpOnly")
			require.Equal(t, "/", cookie.Path, "refresh cookie should be available on / path")
			require.Equal(t, http.SameSiteStrictMode, cookie.SameSite, "refresh cookie should be SameSite Strict")
			require.InDelta(t, (7 * 24 * time.Hour).Seconds(), cookie.MaxAge, 1, "max age should be refresh TTL with 1 second delta")
			require.NotEmpty(t, cookie.Value, "refresh cookie should not be empty")

			require.Contains(t, resp.Header, "Authorization")
			header := resp.Header.Get("Authorization")
			require.Contains(t, header, "Bearer")
		})
	})

	t.Run("register existed user fails", func(t *testing.T) {
		withTx(pg.Pool, t, func(url string, s *auth.AuthService) {
			_, err := s.Register(t.Context(), registerParams("pat@clinic.example"))
			require.NoError(t, err)

			data := `{"email": "pat@clinic.example", "full_name": "Pat Patient", "password": "StrongEnoughPassword", "role": "patient"}`
			resp, body := doJSON(t, "POST", url+"/api/auth/register", data)

			require.Equalf(t, http.StatusConflict, resp.StatusCode, "not expected code. Body: %s", body)
			require.JSONEq(t, `
				{
					"error": "service_error",
					"message": "User already exists"
				}`, body)

			require.Equal(t, 0, len(resp.Cookies()))
			require.NotContains(t, resp.Header, "Authorization", "Authorization header should not be set for failed register")
		})
	})

	t.Run("register admin role rejected", func(t *testing.T) {
		withTx(pg.Pool, t, func(url string, s *auth.AuthService) {
			data := `{"email": "boss@clinic.example", "full_name": "Big Boss", "password": "StrongEnoughPassword", "role": "admin"}`

			resp, body := doJSON(t, "POST", url+"/api/auth/register", data)

			require.Equalf(t, http.StatusBadRequest, resp.StatusCode, "admin is not self service. Body: %s", body)
		})
	})

	t.Run("login ok", func(t *testing.T) {
		withTx(pg.Pool, t, func(url string, s *auth.AuthService) {
			_, err := s.Register(t.Context(), registerParams("pat@clinic.example"))
			require.NoError(t, err)

			data := `{"email": "pat@clinic.example", "password": "StrongEnoughPassword"}`
			resp, body := doJSON(t, "POST", url+"/api/auth/login", data)

			require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", body)
			require.JSONEq(t, `
				{
					"message": "User logged in successfully"
				}`, body)

			require.Equal(t, 1, len(resp.Cookies()))
			cookie := resp.Cookies()[0]
			require.Equal(t, "refreshtoken", cookie.Name)
			require.Equal(t, cookie.HttpOnly, true, "refresh cookie should be HttpOnly")
			require.NotEmpty(t, cookie.Value, "refresh cookie should not be empty")

			require.Contains(t, resp.Header, "Authorization")
			require.Contains(t, resp.Header.Get("Authorization"), "Bearer")
		})
	})

	t.Run("login failed", func(t *testing.T) {
		withTx(pg.Pool, t, func(url string, s *auth.AuthService) {
			data := `{"email": "pat@clinic.example", "password": "WrongPassword"}`

			resp, body := doJSON(t, "POST", url+"/api/auth/login", data)

			require.Equalf(t, http.StatusUnauthorized, resp.StatusCode, "not expected code. Body: %s", body)
			require.JSONEq(t, `
				{
					"error": "service_error",
					"message": "Invalid email or password"
				}`, body)

			require.Equal(t, 0, len(resp.Cookies()), "no cookies should be set on login error")
			require.NotContains(t, resp.Header, "Authorization", "Authorization header should not be set")
		})
	})

	t.Run("refresh token ok", func(t *testing.T) {
		withTx(pg.Pool, t, func(url string, s *auth.AuthService) {
			_, err := s.Register(t.Context(), registerParams("pat@clinic.example"))
			require.NoError(t, err)

			// Login and get refresh cookie
			data := `{"email": "pat@clinic.example", "password": "StrongEnoughPassword"}`
			resp, body := doJSON(t, "POST", url+"/api/auth/login", data)
			require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", body)
			require.Equal(t, 1, len(resp.Cookies()))

			firstRefresh := resp.Cookies()[0]
			firstAccess := resp.Header.Get("Authorization")

			// Send refresh request
			req, err := http.NewRequest("POST", url+"/api/auth/refresh", nil)
			require.NoError(t, err)
			req.AddCookie(&http.Cookie{
				Name:  firstRefresh.Name,
				Value: firstRefresh.Value,
			})
			resp, err = http.DefaultClient.Do(req)
			require.NoError(t, err)
			rawBody, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", string(rawBody))
			require.JSONEq(t, `
				{
					"message": "Tokens refreshed successfully"
				}`, string(rawBody))

			require.Equal(t, 1, len(resp.Cookies()))

			secondRefresh := resp.Cookies()[0]
			secondAccess := resp.Header.Get("Authorization")
			require.NotEqual(t, firstRefresh.Value, secondRefresh.Value, "refresh token should be changed after refresh")
			require.NotEqual(t, firstAccess, secondAccess, "access token should be changed after refresh")
		})
	})

	t.Run("refresh twice fail", func(t *testing.T) {
		withTx(pg.Pool, t, func(url string, s *auth.AuthService) {
			pair, err := s.Register(t.Context(), registerParams("pat@clinic.example"))
			require.NoError(t, err)

			refresh := func() (*http.Response, string) {
				req, err := http.NewRequest("POST", url+"/api/auth/refresh", nil)
				require.NoError(t, err)
				req.AddCookie(&http.Cookie{Name: "refreshtoken", Value: pair.Refresh.Value})

				resp, err := http.DefaultClient.Do(req)
				require.NoError(t, err)
				body, err := io.ReadAll(resp.Body)
				require.NoError(t, err)
				defer func() { _ = resp.Body.Close() }()
				return resp, string(body)
			}

			resp, body := refresh()
			require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", body)

			// Try to refresh with the same token second time
			resp, body = refresh()
			require.Equalf(t, http.StatusUnauthorized, resp.StatusCode, "not expected code. Body: %s", body)
			require.JSONEq(t, `
				{
					"error": "service_error",
					"message": "Refresh token not found"
				}`, body)
		})
	})

	t.Run("refresh without cookie fail", func(t *testing.T) {
		withTx(pg.Pool, t, func(url string, s *auth.AuthService) {
			resp, body := doJSON(t, "POST", url+"/api/auth/refresh", "")

			require.Equalf(t, http.StatusUnauthorized, resp.StatusCode, "not expected code. Body: %s", body)
			require.JSONEq(t, `
				{
					"error": "service_error",
					"message": "Refresh token not found"
				}`, body)
		})
	})

	t.Run("logout revokes and clears cookie", func(t *testing.T) {
		withTx(pg.Pool, t, func(url string, s *auth.AuthService) {
			pair, err := s.Register(t.Context(), registerParams("pat@clinic.example"))
			require.NoError(t, err)

			req, err := http.NewRequest("POST", url+"/api/auth/logout", nil)
			require.NoError(t, err)
			req.AddCookie(&http.Cookie{Name: "refreshtoken", Value: pair.Refresh.Value})

			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", string(body))
			require.JSONEq(t, `
				{
					"message": "User logged out"
				}`, string(body))

			require.Equal(t, 1, len(resp.Cookies()))
			cookie := resp.Cookies()[0]
			require.Equal(t, "refreshtoken", cookie.Name)
			require.Empty(t, cookie.Value, "cookie should be cleared")
			require.Negative(t, cookie.MaxAge, "cookie should be expired")

			// The revoked token must not refresh anymore
			_, err = s.Refresh(t.Context(), pair.Refresh.Value)
			require.Error(t, err, "revoked refresh token should not rotate")
		})
	})

	t.Run("logout without cookie still ok", func(t *testing.T) {
		withTx(pg.Pool, t, func(url string, s *auth.AuthService) {
			resp, body := doJSON(t, "POST", url+"/api/auth/logout", "")

			require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", body)
		})
	})
}
