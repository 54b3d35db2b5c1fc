package tokencodec

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/clinicdesk/clinicdesk/internal/apperrors"
	"github.com/clinicdesk/clinicdesk/internal/models"
)

// Token kind: access and refresh tokens are signed with different secrets
// and carry their kind inside the payload
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

const (
	defaultSigningMethod   = "HS256"
	defaultAccessTokenTTL  = 24 * time.Hour
	defaultRefreshTokenTTL = 7 * 24 * time.Hour
)

type tokenClaims struct {
	jwt.RegisteredClaims
	Email string      `json:"email"`
	Role  models.Role `json:"role"`
	Kind  Kind        `json:"kind"`
}

// Codec config with sensible defaults
type Config struct {
	// Secrets to sign tokens with
	// Both required and must differ from each other
	AccessSecret  string
	RefreshSecret string

	// JWT MAC (Message Authentication Code) algorithm
	// If not set then default is used
	Alg string

	// Access and refresh token lifetimes
	// If not set then default is used
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Codec issues and verifies both token kinds. It is pure: no storage, no
// clock state, safe for concurrent use.
type Codec struct {
	accessSecret  string
	refreshSecret string

	alg jwt.SigningMethod

	accessTTL  time.Duration
	refreshTTL time.Duration
}

func New(cfg Config) (*Codec, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, errors.New("access and refresh secrets must not be empty")
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, errors.New("access and refresh secrets must differ")
	}

	if cfg.Alg == "" {
		cfg.Alg = defaultSigningMethod
	}
	alg := jwt.GetSigningMethod(cfg.Alg)
	if alg == nil {
		return nil, fmt.Errorf("unknown signing method %q", cfg.Alg)
	}

	setDefaultDuration := func(field *time.Duration, def time.Duration) {
		if *field == 0 {
			*field = def
		}
	}
	setDefaultDuration(&cfg.AccessTTL, defaultAccessTokenTTL)
	setDefaultDuration(&cfg.RefreshTTL, defaultRefreshTokenTTL)

	return &Codec{
		accessSecret:  cfg.AccessSecret,
		refreshSecret: cfg.RefreshSecret,
		alg:           alg,
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
	}, nil
}

// Issue serializes claims into a signed token of the given kind
func (c *Codec) Issue(kind Kind, claims models.Claims) (models.IssuedToken, error) {
	var issued models.IssuedToken

	secret, ttl, err := c.kindParams(kind)
	if err != nil {
		return issued, err
	}

	now := time.Now().Truncate(time.Second)
	expiresAt := now.Add(ttl)
	tokenID := uuid.New()

	token := jwt.NewWithClaims(
		c.alg,
		tokenClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				ID:        tokenID.String(),
				Subject:   claims.UserID.String(),
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(expiresAt),
			},
			Email: claims.Email,
			Role:  claims.Role,
			Kind:  kind,
		},
	)
	value, err := token.SignedString([]byte(secret))
	if err != nil {
		return issued, fmt.Errorf("error while signing %s token. Err: %w", kind, err)
	}

	return models.IssuedToken{Value: value, ID: tokenID, IssuedAt: now, ExpiresAt: expiresAt}, nil
}

// Verify checks signature, expiry and kind, and returns the embedded claims
// together with the token id (jti). Expired tokens fail with
// apperrors.ErrTokenExpired, everything else with apperrors.ErrTokenInvalid,
// so callers can tell "log in again" from "refresh again".
func (c *Codec) Verify(kind Kind, raw string) (models.Claims, uuid.UUID, error) {
	var claims models.Claims

	secret, _, err := c.kindParams(kind)
	if err != nil {
		return claims, uuid.Nil, err
	}

	parsed := &tokenClaims{}
	_, err = jwt.ParseWithClaims(
		raw,
		parsed,
		func(t *jwt.Token) (any, error) { return []byte(secret), nil },
		jwt.WithValidMethods([]string{c.alg.Alg()}),
	)

	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		return claims, uuid.Nil, fmt.Errorf("%w: %w", apperrors.ErrTokenExpired, err)
	default:
		return claims, uuid.Nil, fmt.Errorf("%w: %w", apperrors.ErrTokenInvalid, err)
	}

	if parsed.Kind != kind {
		return claims, uuid.Nil, fmt.Errorf("%w: token kind %q, want %q", apperrors.ErrTokenInvalid, parsed.Kind, kind)
	}

	userID, err := uuid.Parse(parsed.Subject)
	if err != nil {
		return claims, uuid.Nil, fmt.Errorf("%w: bad subject: %w", apperrors.ErrTokenInvalid, err)
	}

	tokenID, err := uuid.Parse(parsed.ID)
	if err != nil {
		return claims, uuid.Nil, fmt.Errorf("%w: bad jti: %w", apperrors.ErrTokenInvalid, err)
	}

	claims = models.Claims{
		UserID: userID,
		Email:  parsed.Email,
		Role:   parsed.Role,
	}
	return claims, tokenID, nil
}

func (c *Codec) kindParams(kind Kind) (secret string, ttl time.Duration, err error) {
	switch kind {
	case KindAccess:
		return c.accessSecret, c.accessTTL, nil
	case KindRefresh:
		return c.refreshSecret, c.refreshTTL, nil
	default:
		return "", 0, fmt.Errorf("unknown token kind %q", kind)
	}
}
