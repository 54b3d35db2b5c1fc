// Package client is the Go SDK for the clinicdesk auth API. It keeps the
// access token in memory and the refresh token in a cookie jar, renews the
// pair transparently on 401 responses and exposes the session state the
// way a frontend consumes it: current user, loading flag, last error.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// User role as reported by the server
type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
	RoleAdmin   Role = "admin"
)

// Authenticated user identity as reported by /api/auth/me
type User struct {
	ID       uuid.UUID `json:"id"`
	Email    string    `json:"email"`
	FullName string    `json:"full_name"`
	Role     Role      `json:"role"`
}

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthenticated    = errors.New("not authenticated")
)

// APIError is any non-auth failure the server reported
type APIError struct {
	StatusCode int
	Kind       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status %d, kind %q, message %q", e.StatusCode, e.Kind, e.Message)
}

type Client struct {
	baseURL string

	// authed goes through the renew-once transport, bare hits the auth
	// endpoints directly so renewal can not recurse
	authed *http.Client
	bare   *http.Client

	mu     sync.Mutex
	access string
}

func New(baseURL string) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("error while creating cookie jar. Err: %w", err)
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		bare:    &http.Client{Jar: jar},
	}
	c.authed = &http.Client{
		Jar:       jar,
		Transport: &renewTransport{base: http.DefaultTransport, client: c},
	}

	return c, nil
}

type RegisterParams struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Password string `json:"password"`
	Role     Role   `json:"role"`
}

func (c *Client) Register(ctx context.Context, params RegisterParams) error {
	resp, err := c.postJSON(ctx, "/api/auth/register", params)
	if err != nil {
		return err
	}
	defer resp.Body.Close() // nolint:errcheck

	if resp.StatusCode != http.StatusCreated {
		return c.apiError(resp)
	}

	c.setAccess(accessFromResponse(resp))
	return nil
}

func (c *Client) Login(ctx context.Context, email, password string) error {
	body := map[string]string{"email": email, "password": password}

	resp, err := c.postJSON(ctx, "/api/auth/login", body)
	if err != nil {
		return err
	}
	defer resp.Body.Close() // nolint:errcheck

	switch resp.StatusCode {
	case http.StatusOK:
		c.setAccess(accessFromResponse(resp))
		return nil
	case http.StatusUnauthorized:
		return ErrInvalidCredentials
	default:
		return c.apiError(resp)
	}
}

// Logout revokes the refresh token server side and drops the local pair.
// Local state is cleared even if the server call fails.
func (c *Client) Logout(ctx context.Context) error {
	defer c.setAccess("")

	resp, err := c.postJSON(ctx, "/api/auth/logout", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close() // nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return c.apiError(resp)
	}
	return nil
}

// Me returns the current user. Goes through the renewing transport, so an
// expired access token is rotated once before giving up.
func (c *Client) Me(ctx context.Context) (User, error) {
	var user User

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/auth/me", nil)
	if err != nil {
		return user, fmt.Errorf("error while creating request. Err: %w", err)
	}

	resp, err := c.authed.Do(req)
	if err != nil {
		return user, fmt.Errorf("error while requesting current user. Err: %w", err)
	}
	defer resp.Body.Close() // nolint:errcheck

	switch resp.StatusCode {
	case http.StatusOK:
		if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
			return user, fmt.Errorf("error while decoding current user. Err: %w", err)
		}
		return user, nil
	case http.StatusUnauthorized:
		return user, ErrUnauthenticated
	default:
		return user, c.apiError(resp)
	}
}

// Do sends an arbitrary API request through the authenticated transport
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.authed.Do(req)
}

// renew rotates the token pair using the refresh cookie. On any failure the
// stored access token is dropped: the session is over, do not retry.
func (c *Client) renew(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/auth/refresh", nil)
	if err != nil {
		return fmt.Errorf("error while creating refresh request. Err: %w", err)
	}

	resp, err := c.bare.Do(req)
	if err != nil {
		c.setAccess("")
		return fmt.Errorf("error while refreshing tokens. Err: %w", err)
	}
	defer resp.Body.Close() // nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		c.setAccess("")
		return ErrUnauthenticated
	}

	c.setAccess(accessFromResponse(resp))
	return nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload any) (*http.Response, error) {
	var body *bytes.Buffer = bytes.NewBuffer(nil)
	if payload != nil {
		if err := json.NewEncoder(body).Encode(payload); err != nil {
			return nil, fmt.Errorf("error while encoding request. Err: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("error while creating request. Err: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.bare.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error while sending request. Err: %w", err)
	}
	return resp, nil
}

func (c *Client) apiError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
		apiErr.Kind = body.Error
		apiErr.Message = body.Message
	}

	return apiErr
}

func (c *Client) setAccess(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.access = token
}

func (c *Client) accessToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.access
}

func accessFromResponse(resp *http.Response) string {
	_, token, _ := strings.Cut(resp.Header.Get("Authorization"), " ")
	return token
}
