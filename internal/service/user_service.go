package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"surveyhub/internal/cache"
	"surveyhub/internal/captcha"
	"surveyhub/internal/errors"
	"surveyhub/internal/model"
	"surveyhub/internal/repository"
	"surveyhub/internal/storage"
)

// UpdateProfileInput is the editable part of a user.
type UpdateProfileInput struct {
	Name         string
	NRIC         string
	Phone        string
	CaptchaToken string
	RemoteIP     string
}

// UserService exposes user operations. It also resolves callers for the
// authorizer.
type UserService interface {
	Resolve(ctx context.Context, id string) (*model.User, error)
	CreateAnonymous(ctx context.Context) (*model.User, error)
	UpdateProfile(ctx context.Context, id string, in UpdateProfileInput) (*model.User, error)
	AvatarUpload(ctx context.Context, id, contentType string) (*storage.Upload, error)
}

type userService struct {
	repo      repository.UserRepository
	responses repository.ResponseRepository
	cache     *cache.Layer
	captcha   captcha.Verifier
	avatars   storage.AvatarStorage
	logger    *zap.Logger
}

// NewUserService builds a UserService. avatars may be nil when object
// storage is disabled.
func NewUserService(
	repo repository.UserRepository,
	responses repository.ResponseRepository,
	cache *cache.Layer,
	verifier captcha.Verifier,
	avatars storage.AvatarStorage,
	logger *zap.Logger,
) UserService {
	return &userService{
		repo:      repo,
		responses: responses,
		cache:     cache,
		captcha:   verifier,
		avatars:   avatars,
		logger:    logger,
	}
}

func (s *userService) Resolve(ctx context.Context, id string) (*model.User, error) {
	return s.cache.User(ctx, id, func(ctx context.Context) (*model.User, error) {
		user, err := s.repo.FindByID(ctx, id)
		if err != nil {
			if errors.IsNotFound(err) {
				return nil, errors.NotFound("user")
			}
			return nil, fmt.Errorf("find user: %w", err)
		}
		return user, nil
	})
}

func (s *userService) CreateAnonymous(ctx context.Context) (*model.User, error) {
	user := &model.User{}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create anonymous user: %w", err)
	}
	if err := s.cache.UserSaved(ctx, user, nil); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) UpdateProfile(ctx context.Context, id string, in UpdateProfileInput) (*model.User, error) {
	if err := s.captcha.Verify(ctx, in.CaptchaToken, in.RemoteIP); err != nil {
		return nil, err
	}

	user, err := s.repo.UpdateProfile(ctx, id, in.Name, in.NRIC, in.Phone)
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	if err := s.saved(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info("profile updated", zap.String("user_id", id))
	return user, nil
}

func (s *userService) AvatarUpload(ctx context.Context, id, contentType string) (*storage.Upload, error) {
	if s.avatars == nil {
		return nil, errors.BadRequest("avatar upload is not enabled")
	}

	upload, err := s.avatars.PresignAvatarUpload(ctx, id, contentType)
	if err != nil {
		return nil, err
	}
	user, err := s.repo.UpdateAvatar(ctx, id, upload.Key)
	if err != nil {
		return nil, fmt.Errorf("update avatar: %w", err)
	}
	if err := s.saved(ctx, user); err != nil {
		return nil, err
	}
	return upload, nil
}

// saved refreshes the cached user and the response lists embedding it.
func (s *userService) saved(ctx context.Context, user *model.User) error {
	surveyIDs, err := s.responses.SurveyIDs(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("list responded surveys: %w", err)
	}
	return s.cache.UserSaved(ctx, user, surveyIDs)
}
