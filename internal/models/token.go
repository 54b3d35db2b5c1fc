package models

import (
	"time"

	"github.com/google/uuid"
)

// Identity claim embedded in both token kinds.
// Role and email are trusted for the token lifetime; only the user id is
// re-checked against the directory on every request.
type Claims struct {
	UserID uuid.UUID
	Email  string
	Role   Role
}

// Refresh token record persisted for rotation and revocation
type RefreshToken struct {
	ID        uuid.UUID // jti of the signed token
	UserID    uuid.UUID
	CreatedAt time.Time
	ExpiresAt time.Time
	UsedAt    *time.Time // nil if token not used
}

type IssuedToken struct {
	Value     string
	ID        uuid.UUID
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Token pair issued together at login, register and every refresh
type TokenPair struct {
	Access  IssuedToken
	Refresh IssuedToken
}
