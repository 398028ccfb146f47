package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/caduhr/bolao-system/models"
	"github.com/caduhr/bolao-system/repositories"
	"github.com/caduhr/bolao-system/storage"
)

var allowedAvatarTypes = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
}

var ErrUnsupportedImageType = errors.New("unsupported image content type")

type UpdateProfileInput struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Username  *string `json:"username"`
}

type UserService interface {
	GetProfile(ctx context.Context, userID int) (*models.User, error)
	UpdateProfile(ctx context.Context, userID int, input UpdateProfileInput) (*models.User, error)
	UploadAvatar(ctx context.Context, userID int, contentType string, file io.Reader) (*models.User, error)
}

type userService struct {
	userRepo repositories.UserRepository
	uploader storage.FileUploader
}

// NewUserService accepts a nil uploader, avatar uploads are then disabled.
func NewUserService(userRepo repositories.UserRepository, uploader storage.FileUploader) UserService {
	return &userService{
		userRepo: userRepo,
		uploader: uploader,
	}
}

func (s *userService) GetProfile(ctx context.Context, userID int) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	user.PasswordHash = ""
	s.attachAvatarURL(user)
	return user, nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID int, input UpdateProfileInput) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if input.FirstName != nil {
		user.FirstName = strings.TrimSpace(*input.FirstName)
	}
	if input.LastName != nil {
		user.LastName = strings.TrimSpace(*input.LastName)
	}
	if input.Username != nil {
		username := strings.TrimSpace(*input.Username)
		if username == "" {
			return nil, ErrValidationFailed
		}
		user.Username = username
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrUserUsernameConflict) {
			return nil, ErrUserUsernameConflict
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	user.PasswordHash = ""
	s.attachAvatarURL(user)
	return user, nil
}

// UploadAvatar stores the image and swaps the user's avatar key. The old
// object is removed afterwards so the bucket does not accumulate orphans.
func (s *userService) UploadAvatar(ctx context.Context, userID int, contentType string, file io.Reader) (*models.User, error) {
	if s.uploader == nil {
		return nil, ErrForbiddenOperation
	}

	ext, ok := allowedAvatarTypes[contentType]
	if !ok {
		return nil, ErrUnsupportedImageType
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	key := fmt.Sprintf("avatars/%d/%s.%s", userID, uuid.NewString(), ext)
	result, err := s.uploader.Upload(ctx, key, contentType, file)
	if err != nil {
		return nil, fmt.Errorf("failed to upload avatar: %w", err)
	}

	oldKey := user.AvatarKey
	if err := s.userRepo.UpdateAvatarKey(ctx, userID, &result.Key); err != nil {
		return nil, fmt.Errorf("failed to store avatar key: %w", err)
	}
	if oldKey != nil {
		_ = s.uploader.Delete(ctx, *oldKey)
	}

	user.AvatarKey = &result.Key
	user.PasswordHash = ""
	s.attachAvatarURL(user)
	return user, nil
}

func (s *userService) attachAvatarURL(user *models.User) {
	if s.uploader == nil || user.AvatarKey == nil {
		return
	}
	url := s.uploader.GetPublicURL(*user.AvatarKey)
	user.AvatarURL = &url
}
