package apperrors

import (
	"errors"
)

var (
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrUserNotFound      = errors.New("user not found")

	// Login failed: unknown email or wrong password, deliberately indistinguishable
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Request carries no bearer token at all
	ErrMissingCredential = errors.New("missing credential")

	// Token is malformed, signed with the wrong secret or carries the wrong kind
	ErrTokenInvalid = errors.New("token is invalid")

	// Token is well formed and correctly signed but past its expiry
	ErrTokenExpired = errors.New("token is expired")

	ErrRefreshTokenNotFound = errors.New("refresh token not found")
	ErrRefreshTokenUsed     = errors.New("refresh token is used")
)
