package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"storefront/internal/cache"
	apperrors "storefront/internal/errors"
	"storefront/internal/model"
	"storefront/internal/repository"
)

const userCacheTTL = 5 * time.Minute

// UserService exposes profile operations for authenticated users.
type UserService interface {
	GetProfile(ctx context.Context, id uuid.UUID) (model.Profile, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
}

type userService struct {
	repo  repository.UserRepository
	cache *cache.Client
}

// NewUserService builds a UserService with repository and cache.
func NewUserService(repo repository.UserRepository, cache *cache.Client) UserService {
	return &userService{repo: repo, cache: cache}
}

func userCacheKey(id uuid.UUID) string {
	return fmt.Sprintf("user:%s", id)
}

func (s *userService) GetProfile(ctx context.Context, id uuid.UUID) (model.Profile, error) {
	var cached model.Profile
	if s.cache.GetJSON(ctx, userCacheKey(id), &cached) {
		return cached, nil
	}

	profile, err := s.repo.FindProfile(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.Profile{}, apperrors.ErrUserNotFound
		}
		return model.Profile{}, fmt.Errorf("get profile: %w", err)
	}

	s.cache.SetJSON(ctx, userCacheKey(id), profile, userCacheTTL)
	return profile, nil
}

// Deactivate ends the user's session and soft-deletes the account. Logging
// in again with the same phone number restores it.
func (s *userService) Deactivate(ctx context.Context, id uuid.UUID) error {
	err := s.repo.WithTransaction(ctx, func(ctx context.Context, repo repository.UserRepository) error {
		if err := repo.SoftDelete(ctx, id); err != nil {
			return userLookupError(err, apperrors.ErrUserNotFound)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("deactivate user: %w", err)
	}
	s.cache.Delete(ctx, userCacheKey(id))
	return nil
}
