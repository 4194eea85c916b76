package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"restopos/internal/cache"
	apperrors "restopos/internal/errors"
	"restopos/internal/logging"
	"restopos/internal/model"
	"restopos/internal/repository"
)

const userCacheTTL = 5 * time.Minute

// UserService exposes the authenticated user's own account.
type UserService interface {
	GetProfile(ctx context.Context, userID string) (*model.PublicUser, error)
	Deactivate(ctx context.Context, userID string) error
}

type userService struct {
	repo  repository.UserRepository
	cache cache.Store
	log   logging.Logger
}

// NewUserService builds a UserService with repository and cache.
func NewUserService(repo repository.UserRepository, cache cache.Store, log logging.Logger) UserService {
	return &userService{repo: repo, cache: cache, log: log.With("component", "users")}
}

// ProfileCacheKey is the cache key holding the public profile of id.
func ProfileCacheKey(id uuid.UUID) string {
	return "user:" + id.String()
}

// GetProfile returns ErrUserNotFound for unknown, malformed or deleted ids.
func (s *userService) GetProfile(ctx context.Context, userID string) (*model.PublicUser, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, apperrors.ErrUserNotFound
	}

	if data, _ := s.cache.Get(ctx, ProfileCacheKey(id)); data != nil {
		var cached model.PublicUser
		if err := json.Unmarshal(data, &cached); err == nil {
			return &cached, nil
		}
	}

	user, err := s.repo.FindActiveByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	profile := user.Public()
	if payload, err := json.Marshal(profile); err == nil {
		_ = s.cache.Set(ctx, ProfileCacheKey(id), payload, userCacheTTL)
	}
	return &profile, nil
}

// Deactivate soft-deletes the user. Issued tokens stay valid until expiry
// but no longer resolve to a profile.
func (s *userService) Deactivate(ctx context.Context, userID string) error {
	id, err := uuid.Parse(userID)
	if err != nil {
		return apperrors.ErrUserNotFound
	}

	if err := s.repo.SoftDelete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrUserNotFound
		}
		return fmt.Errorf("deactivate user: %w", err)
	}

	if err := s.cache.Delete(ctx, ProfileCacheKey(id)); err != nil {
		s.log.Warn(ctx, "failed to evict profile cache", "user_id", userID, "error", err)
	}
	s.log.Info(ctx, "user deactivated", "user_id", userID)
	return nil
}
