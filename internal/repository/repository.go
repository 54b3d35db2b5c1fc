package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinicdesk/internal/models"
)

type CreateUserParams struct {
	Email          string
	FullName       string
	Role           models.Role
	HashedPassword string
}

// User directory interface
type UserRepo interface {
	// Create user
	// If user with email exists already has to return error apperrors.ErrUserAlreadyExists
	CreateUser(ctx context.Context, params CreateUserParams) (models.User, error)

	// Get user by its id or email
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)

	// List all users ordered by creation time, newest first
	ListUsers(ctx context.Context) ([]models.User, error)
}

// Refresh token store: the pluggable revocation check behind token rotation.
// Validity by signature+expiry alone is not enough, a rotated-away token must
// stop working before its natural expiry.
type RefreshTokenRepo interface {
	// Save issued token record
	Save(ctx context.Context, token models.RefreshToken) error

	// Return the token by its id (jti) even if it expired or used already
	Get(ctx context.Context, tokenID uuid.UUID) (models.RefreshToken, error)

	// Return the token and mark it used in one step
	// If the token is unknown, must return apperrors.ErrRefreshTokenNotFound
	// If the token is used already, must return apperrors.ErrRefreshTokenUsed
	// and must not overwrite the existing used_at
	GetAndMarkUsed(ctx context.Context, tokenID uuid.UUID) (models.RefreshToken, error)

	// Delete tokens that expired, returns number of deleted rows
	DeleteExpired(ctx context.Context) (int64, error)
}

// Storage aggregates every repository over one connection or transaction
type Storage interface {
	User() UserRepo
	Refresh() RefreshTokenRepo

	// Run fn against a storage bound to one transaction, commit on nil,
	// rollback on error
	InTx(ctx context.Context, fn func(Storage) error) error
}
