package services

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"trailbook/internal/apperrors"
	"trailbook/internal/auth"
	"trailbook/internal/config"
	"trailbook/internal/models"
	"trailbook/internal/storage"
)

// AuthService handles registration, login and logout.
type AuthService interface {
	Register(ctx context.Context, username, email, password, nickname string) (*models.User, error)
	Login(ctx context.Context, username, password string) (string, *models.User, error)
	Logout(ctx context.Context, jti string, expiresAt time.Time) error
}

type authService struct {
	userRepo  storage.UserRepository
	blacklist auth.TokenBlacklist
	authCfg   config.AuthConfig
	logger    *logrus.Logger
}

func NewAuthService(userRepo storage.UserRepository, blacklist auth.TokenBlacklist, authCfg config.AuthConfig, logger *logrus.Logger) AuthService {
	return &authService{userRepo: userRepo, blacklist: blacklist, authCfg: authCfg, logger: logger}
}

func (s *authService) Register(ctx context.Context, username, email, password, nickname string) (*models.User, error) {
	if username == "" || password == "" {
		return nil, apperrors.InvalidArgument("username and password are required")
	}

	if _, err := s.userRepo.GetByUsername(ctx, username); err == nil {
		return nil, apperrors.Conflict("username is already taken")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Internal(err, "checking username availability")
	}
	if email != "" {
		if _, err := s.userRepo.GetByEmail(ctx, email); err == nil {
			return nil, apperrors.Conflict("email is already registered")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Internal(err, "checking email availability")
		}
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, apperrors.Internal(err, "hashing password")
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Nickname:     nickname,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if storage.IsUniqueViolation(err) {
			return nil, apperrors.Conflict("username or email is already taken")
		}
		return nil, apperrors.Internal(err, "creating user")
	}

	s.logger.WithField("userId", user.ID).Info("user registered")
	return user, nil
}

func (s *authService) Login(ctx context.Context, username, password string) (string, *models.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		// Same error for unknown user and wrong password.
		return "", nil, apperrors.InvalidArgument("invalid username or password")
	}
	if !auth.CheckPasswordHash(password, user.PasswordHash) {
		return "", nil, apperrors.InvalidArgument("invalid username or password")
	}

	token, err := auth.GenerateToken(user.ID, user.Username, s.authCfg)
	if err != nil {
		return "", nil, apperrors.Internal(err, "issuing token")
	}
	return token, user, nil
}

// Logout revokes the caller's token by blacklisting its JTI until the token
// would have expired anyway.
func (s *authService) Logout(ctx context.Context, jti string, expiresAt time.Time) error {
	if jti == "" {
		return apperrors.InvalidArgument("token has no JTI")
	}
	if err := s.blacklist.Add(ctx, jti, time.Until(expiresAt)); err != nil {
		return apperrors.Internal(err, "revoking token")
	}
	return nil
}
