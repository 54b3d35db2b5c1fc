package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/clinicdesk/clinicdesk/internal/apperrors"
	"github.com/clinicdesk/clinicdesk/internal/models"
	"github.com/clinicdesk/clinicdesk/internal/repository"
	"github.com/clinicdesk/clinicdesk/internal/service/auth/tokencodec"
)

// Interface to create or compare user password hashes
type PasswordHasher interface {
	// Generate Hash from password
	Hash(password string) (string, error)

	// Compare known hashedPassword and user provided password
	// Must be protected against timing attacks
	Compare(hashedPassword string, password string) error
}

var DefaultHasher PasswordHasher = BcryptHasher{}

// Bcrypt hash of an unguessable value, compared against when the user does
// not exist so login takes the same time either way
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMye1J1xWb1uZMieaWBpkUrCDZPzCUvw3r2"

const (
	defaultAccessHeaderName  = "Authorization"
	defaultAccessAuthScheme  = "Bearer"
	defaultRefreshCookieName = "refreshtoken"
)

type Config struct {
	// Hasher to use during user registration or login process
	// Defaults to BcryptHasher
	Hasher PasswordHasher

	// Transport names, defaulted if empty
	AccessHeaderName  string
	AccessAuthScheme  string
	RefreshCookieName string
}

// AuthService issues session pairs and authenticates inbound requests.
// Stateless apart from the user directory and the refresh token store,
// safe for concurrent use.
type AuthService struct {
	codec  *tokencodec.Codec
	hasher PasswordHasher

	storage     repository.Storage
	userRepo    repository.UserRepo
	refreshRepo repository.RefreshTokenRepo

	accessHeaderName  string
	accessAuthScheme  string
	refreshCookieName string
}

func NewService(cfg Config, codec *tokencodec.Codec, storage repository.Storage) (*AuthService, error) {
	if codec == nil {
		return nil, errors.New("token codec must not be nil")
	}
	if storage == nil {
		return nil, errors.New("storage must not be nil")
	}

	hasher := cfg.Hasher
	if hasher == nil {
		hasher = DefaultHasher
	}

	setDefaultString := func(field *string, def string) {
		if *field == "" {
			*field = def
		}
	}
	setDefaultString(&cfg.AccessHeaderName, defaultAccessHeaderName)
	setDefaultString(&cfg.AccessAuthScheme, defaultAccessAuthScheme)
	setDefaultString(&cfg.RefreshCookieName, defaultRefreshCookieName)

	return &AuthService{
		codec:             codec,
		hasher:            hasher,
		storage:           storage,
		userRepo:          storage.User(),
		refreshRepo:       storage.Refresh(),
		accessHeaderName:  cfg.AccessHeaderName,
		accessAuthScheme:  cfg.AccessAuthScheme,
		refreshCookieName: cfg.RefreshCookieName,
	}, nil
}

type RegisterParams struct {
	Email    string
	FullName string
	Password string
	Role     models.Role
}

// Register creates an account and logs it in.
// Self registration is open to patients and doctors only, admin accounts
// are created out of band.
func (s *AuthService) Register(ctx context.Context, params RegisterParams) (models.TokenPair, error) {
	var pair models.TokenPair

	if params.Role != models.RolePatient && params.Role != models.RoleDoctor {
		return pair, fmt.Errorf("self registration with role %q is not allowed", params.Role)
	}

	hash, err := s.hasher.Hash(params.Password)
	if err != nil {
		return pair, fmt.Errorf("can't use this as password. Err: %w", err)
	}

	user, err := s.userRepo.CreateUser(ctx, repository.CreateUserParams{
		Email:          params.Email,
		FullName:       params.FullName,
		Role:           params.Role,
		HashedPassword: hash,
	})
	if err != nil {
		return pair, err
	}

	return s.issuePair(ctx, s.refreshRepo, user)
}

// Login checks credentials against the user directory and issues a fresh pair
func (s *AuthService) Login(ctx context.Context, email string, password string) (models.TokenPair, error) {
	var pair models.TokenPair

	user, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			// Burn the same bcrypt work as the happy path
			_ = s.hasher.Compare(dummyHash, password)
			return pair, apperrors.ErrInvalidCredentials
		}
		return pair, fmt.Errorf("login failed. Err: %w", err)
	}

	if err := s.hasher.Compare(user.HashedPassword, password); err != nil {
		return pair, apperrors.ErrInvalidCredentials
	}

	return s.issuePair(ctx, s.refreshRepo, user)
}

// Refresh rotates a session pair: the presented refresh token is spent and a
// brand new pair is issued against the directory's current user data, so role
// changes and deactivations since issuance take effect here.
// Spend, lookup and reissue run in one transaction: a failure mid-rotation
// must not burn the presented token without handing out a replacement.
func (s *AuthService) Refresh(ctx context.Context, refresh string) (models.TokenPair, error) {
	var pair models.TokenPair

	claims, tokenID, err := s.codec.Verify(tokencodec.KindRefresh, refresh)
	if err != nil {
		return pair, err
	}

	err = s.storage.InTx(ctx, func(storage repository.Storage) error {
		if _, err := storage.Refresh().GetAndMarkUsed(ctx, tokenID); err != nil {
			return err
		}

		user, err := storage.User().GetUserByID(ctx, claims.UserID)
		if err != nil {
			return err
		}

		pair, err = s.issuePair(ctx, storage.Refresh(), user)
		return err
	})
	if err != nil {
		return models.TokenPair{}, err
	}

	return pair, nil
}

// Logout revokes the presented refresh token so the pair can not be renewed.
// Best effort: unknown or already spent tokens are not an error, the caller
// is logging out either way.
func (s *AuthService) Logout(ctx context.Context, refresh string) {
	_, tokenID, err := s.codec.Verify(tokencodec.KindRefresh, refresh)
	if err != nil {
		return
	}

	_, _ = s.refreshRepo.GetAndMarkUsed(ctx, tokenID)
}

// Authenticate extracts the bearer access token from the request, verifies it
// and re-resolves the user by id, so deleted accounts with still valid tokens
// do not authenticate
func (s *AuthService) Authenticate(ctx context.Context, r *http.Request) (models.User, error) {
	var user models.User

	raw, err := s.readAccess(r)
	if err != nil {
		return user, err
	}

	claims, _, err := s.codec.Verify(tokencodec.KindAccess, raw)
	if err != nil {
		return user, err
	}

	user, err = s.userRepo.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return user, err
	}

	return user, nil
}

func (s *AuthService) issuePair(ctx context.Context, refreshRepo repository.RefreshTokenRepo, user models.User) (models.TokenPair, error) {
	var pair models.TokenPair

	claims := models.Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
	}

	access, err := s.codec.Issue(tokencodec.KindAccess, claims)
	if err != nil {
		return pair, err
	}

	refresh, err := s.codec.Issue(tokencodec.KindRefresh, claims)
	if err != nil {
		return pair, err
	}

	err = refreshRepo.Save(ctx, models.RefreshToken{
		ID:        refresh.ID,
		UserID:    user.ID,
		CreatedAt: refresh.IssuedAt,
		ExpiresAt: refresh.ExpiresAt,
		UsedAt:    nil,
	})
	if err != nil {
		return pair, fmt.Errorf("error while saving refresh token. Err: %w", err)
	}

	return models.TokenPair{Access: access, Refresh: refresh}, nil
}
