package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/clinicdesk/clinicdesk/internal/apperrors"
	"github.com/clinicdesk/clinicdesk/internal/models"
)

// SetTokenPair writes the pair to a response: access token in the auth
// header, refresh token in a HttpOnly cookie the browser controls
func (s *AuthService) SetTokenPair(w http.ResponseWriter, pair models.TokenPair) {
	w.Header().Set(s.accessHeaderName, s.accessAuthScheme+" "+pair.Access.Value)
	http.SetCookie(w, s.refreshCookie(pair.Refresh))
}

// SetTokenPairToRequest mirrors SetTokenPair for outgoing requests,
// used by tests and clients
func (s *AuthService) SetTokenPairToRequest(r *http.Request, pair models.TokenPair) {
	r.Header.Set(s.accessHeaderName, s.accessAuthScheme+" "+pair.Access.Value)
	r.AddCookie(s.refreshCookie(pair.Refresh))
}

// ClearTokenPair expires the refresh cookie, the access token lives only in
// client memory and needs no server side action
func (s *AuthService) ClearTokenPair(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.refreshCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

// ReadRefresh returns the refresh token from the request cookie
func (s *AuthService) ReadRefresh(r *http.Request) (string, error) {
	cookie, err := r.Cookie(s.refreshCookieName)
	switch {
	case errors.Is(err, http.ErrNoCookie):
		return "", apperrors.ErrMissingCredential
	case err != nil:
		return "", err
	}

	return cookie.Value, nil
}

// readAccess extracts the bearer token from the auth header
func (s *AuthService) readAccess(r *http.Request) (string, error) {
	header := r.Header.Get(s.accessHeaderName)
	if header == "" {
		return "", apperrors.ErrMissingCredential
	}

	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, s.accessAuthScheme) || token == "" {
		return "", apperrors.ErrMissingCredential
	}

	return token, nil
}

func (s *AuthService) refreshCookie(refresh models.IssuedToken) *http.Cookie {
	return &http.Cookie{
		Name:     s.refreshCookieName,
		Value:    refresh.Value,
		Path:     "/",
		MaxAge:   int(time.Until(refresh.ExpiresAt).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	}
}
