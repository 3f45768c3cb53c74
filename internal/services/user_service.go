package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"trailbook/internal/apperrors"
	"trailbook/internal/models"
	"trailbook/internal/storage"
)

// UserService exposes profile reads and the small set of profile mutations
// the chat pipeline depends on.
type UserService interface {
	GetProfile(ctx context.Context, userID uint) (*models.User, error)
	GetBasicInfo(ctx context.Context, userID uint) (*models.UserBasicInfo, error)
	UpdateProfile(ctx context.Context, userID uint, nickname, avatarURL, bio string) (*models.User, error)
	SetPushToken(ctx context.Context, userID uint, token string) error
}

type userService struct {
	userRepo storage.UserRepository
}

func NewUserService(userRepo storage.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

func (s *userService) GetProfile(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("user not found")
		}
		return nil, apperrors.Internal(err, "loading user")
	}
	return user, nil
}

func (s *userService) GetBasicInfo(ctx context.Context, userID uint) (*models.UserBasicInfo, error) {
	info, err := s.userRepo.GetBasicInfoByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("user not found")
		}
		return nil, apperrors.Internal(err, "loading user")
	}
	return info, nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID uint, nickname, avatarURL, bio string) (*models.User, error) {
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if nickname != "" {
		user.Nickname = nickname
	}
	if avatarURL != "" {
		user.AvatarURL = avatarURL
	}
	if bio != "" {
		user.Bio = bio
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, apperrors.Internal(err, "updating user")
	}
	return user, nil
}

// SetPushToken registers the device token used by the notification consumer.
// An empty token unregisters the device.
func (s *userService) SetPushToken(ctx context.Context, userID uint, token string) error {
	if err := s.userRepo.SetPushToken(ctx, userID, token); err != nil {
		return apperrors.Internal(err, "storing push token")
	}
	return nil
}
