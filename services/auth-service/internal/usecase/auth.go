package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/vasapolrittideah/vivah-booking-api/services/auth-service/internal/config"
	"github.com/vasapolrittideah/vivah-booking-api/services/auth-service/internal/model"
	"github.com/vasapolrittideah/vivah-booking-api/services/auth-service/internal/repository"
	authtypes "github.com/vasapolrittideah/vivah-booking-api/services/auth-service/pkg/types"
	"github.com/vasapolrittideah/vivah-booking-api/shared/auth"
	"github.com/vasapolrittideah/vivah-booking-api/shared/security"
)

// AuthUsecase defines the interface for authentication-related use cases.
type AuthUsecase interface {
	Register(ctx context.Context, params RegisterParams) (*authtypes.Session, error)
	Login(ctx context.Context, params LoginParams) (*authtypes.Session, error)
	Logout(ctx context.Context, token string) error
	Validate(ctx context.Context, token string) (*authtypes.Identity, error)
	Me(ctx context.Context, identity *authtypes.Identity) (*model.User, error)
	SweepExpiredSessions(ctx context.Context) (int, error)
}

// LoginParams defines the parameters for user login.
type LoginParams struct {
	Email    string
	Password string
}

// RegisterParams defines the parameters for user registration.
type RegisterParams struct {
	Email    string
	Password string
}

var (
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrMalformedToken     = errors.New("malformed token")
	ErrTokenExpired       = errors.New("token expired")
	ErrSessionExpired     = errors.New("session expired or revoked")
)

// dummyPassword is hashed once and verified against when a login names an unknown email,
// so both failure paths pay for one argon2 verification.
const dummyPassword = "vivah-dummy-password-0"

// AuthOption customizes an AuthUsecase.
type AuthOption func(*authUsecase)

// WithClock replaces the wall clock used for token issuance, session expiry and token parsing.
func WithClock(now func() time.Time) AuthOption {
	return func(u *authUsecase) {
		u.now = now
		u.jwtAuth = u.jwtAuth.WithClock(now)
	}
}

type authUsecase struct {
	sessionRepo repository.SessionRepository
	userRepo    repository.UserRepository
	jwtAuth     auth.JWTAuthenticator
	hasher      *security.PasswordHasher
	tokenCfg    config.TokenConfig
	now         func() time.Time
	dummyHash   func() string
}

func NewAuthUsecase(
	sessionRepo repository.SessionRepository,
	userRepo repository.UserRepository,
	jwtAuth auth.JWTAuthenticator,
	hasher *security.PasswordHasher,
	tokenCfg config.TokenConfig,
	opts ...AuthOption,
) AuthUsecase {
	u := &authUsecase{
		sessionRepo: sessionRepo,
		userRepo:    userRepo,
		jwtAuth:     jwtAuth,
		hasher:      hasher,
		tokenCfg:    tokenCfg,
		now:         time.Now,
	}
	u.dummyHash = sync.OnceValue(func() string {
		hash, _ := hasher.HashPassword(dummyPassword)
		return hash
	})

	for _, opt := range opts {
		opt(u)
	}

	return u
}

func (u *authUsecase) Register(ctx context.Context, params RegisterParams) (*authtypes.Session, error) {
	passwordHash, err := u.hasher.HashPassword(params.Password)
	if err != nil {
		return nil, err
	}

	user, err := u.userRepo.CreateUser(ctx, &model.User{
		Email:        model.NormalizeEmail(params.Email),
		PasswordHash: passwordHash,
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrUserAlreadyExists
		}

		return nil, err
	}

	return u.createAuthSession(ctx, user)
}

func (u *authUsecase) Login(ctx context.Context, params LoginParams) (*authtypes.Session, error) {
	user, err := u.userRepo.GetUserByEmail(ctx, model.NormalizeEmail(params.Email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			_, _ = u.hasher.VerifyPassword(params.Password, u.dummyHash())
			return nil, ErrInvalidCredentials
		}

		return nil, err
	}

	ok, err := u.hasher.VerifyPassword(params.Password, user.PasswordHash)
	if err != nil || !ok {
		return nil, ErrInvalidCredentials
	}

	return u.createAuthSession(ctx, user)
}

func (u *authUsecase) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	_, err := u.sessionRepo.DeleteSessionByToken(ctx, token)
	return err
}

func (u *authUsecase) Validate(ctx context.Context, token string) (*authtypes.Identity, error) {
	claims := &authtypes.JWTClaims{}
	if _, err := u.jwtAuth.ValidateTokenWithClaims(token, u.tokenCfg.Secret, claims); err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			if _, err := u.sessionRepo.DeleteSessionByToken(ctx, token); err != nil {
				return nil, err
			}
			return nil, ErrTokenExpired
		}

		return nil, ErrMalformedToken
	}

	session, err := u.sessionRepo.GetSessionByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionExpired
		}

		return nil, err
	}

	if !session.ActiveAt(u.now()) || session.UserID != claims.UserID {
		if _, err := u.sessionRepo.DeleteSessionByToken(ctx, token); err != nil {
			return nil, err
		}
		return nil, ErrSessionExpired
	}

	user, err := u.userRepo.GetUser(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			if _, err := u.sessionRepo.DeleteSessionByToken(ctx, token); err != nil {
				return nil, err
			}
			return nil, ErrSessionExpired
		}

		return nil, err
	}

	return &authtypes.Identity{
		UserID:    user.ID,
		Email:     user.Email,
		SessionID: session.ID,
	}, nil
}

func (u *authUsecase) Me(ctx context.Context, identity *authtypes.Identity) (*model.User, error) {
	user, err := u.userRepo.GetUser(ctx, identity.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionExpired
		}

		return nil, err
	}

	return user, nil
}

func (u *authUsecase) SweepExpiredSessions(ctx context.Context) (int, error) {
	return u.sessionRepo.DeleteExpiredSessions(ctx, u.now())
}

func (u *authUsecase) createAuthSession(ctx context.Context, user *model.User) (*authtypes.Session, error) {
	now := u.now()
	expiresAt := now.Add(u.tokenCfg.TTL)
	sessionID := uuid.NewString()

	token, err := u.generateToken(user, sessionID, now, expiresAt)
	if err != nil {
		return nil, err
	}

	if _, err := u.sessionRepo.CreateSession(ctx, &model.Session{
		ID:        sessionID,
		Token:     token,
		UserID:    user.ID,
		CreatedAt: now.UTC(),
		ExpiresAt: expiresAt.UTC(),
	}); err != nil {
		return nil, err
	}

	return &authtypes.Session{
		Token:     token,
		UserID:    user.ID,
		Email:     user.Email,
		ExpiresAt: expiresAt.UTC(),
	}, nil
}

func (u *authUsecase) generateToken(user *model.User, sessionID string, now, expiresAt time.Time) (string, error) {
	claims := authtypes.JWTClaims{
		UserID:    user.ID,
		Email:     user.Email,
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    u.jwtAuth.Issuer(),
			Audience:  jwt.ClaimStrings{u.jwtAuth.Audience()},
		},
	}

	return u.jwtAuth.GenerateToken(claims, u.tokenCfg.Secret)
}
