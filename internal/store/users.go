package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"equipment-visualizer-backend/internal/model"
)

// CreateUser inserts a new user, rejecting duplicate usernames.
func (s *gormStore) CreateUser(ctx context.Context, user *model.User) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&model.User{}).Where("username = ?", user.Username).Count(&n).Error; err != nil {
			return fmt.Errorf("failed to check username: %w", err)
		}
		if n > 0 {
			return ErrUsernameTaken
		}
		if err := tx.Create(user).Error; err != nil {
			// a concurrent registration won the unique index
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrUsernameTaken
			}
			return fmt.Errorf("failed to create user %q: %w", user.Username, err)
		}
		return nil
	})
}

func (s *gormStore) UserByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (s *gormStore) UserByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// DeleteUser removes a user together with everything it owns.
func (s *gormStore) DeleteUser(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("upload_id IN (?)", userUploads(tx, id)).Delete(&model.Equipment{}).Error; err != nil {
			return fmt.Errorf("failed to delete equipment of user %d: %w", id, err)
		}
		if err := tx.Where("user_id = ?", id).Delete(&model.Upload{}).Error; err != nil {
			return fmt.Errorf("failed to delete uploads of user %d: %w", id, err)
		}
		if err := tx.Where("user_id = ?", id).Delete(&model.AuthToken{}).Error; err != nil {
			return fmt.Errorf("failed to delete token of user %d: %w", id, err)
		}
		res := tx.Delete(&model.User{}, id)
		if res.Error != nil {
			return fmt.Errorf("failed to delete user %d: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// TokenForUser returns the user's token, creating one on first use.
func (s *gormStore) TokenForUser(ctx context.Context, userID uint) (*model.AuthToken, error) {
	var token model.AuthToken
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&token).Error
	if err == nil {
		return &token, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to look up token for user %d: %w", userID, err)
	}

	token = model.AuthToken{Key: newTokenKey(), UserID: userID}
	if err := s.db.WithContext(ctx).Omit("User").Create(&token).Error; err != nil {
		return nil, fmt.Errorf("failed to create token for user %d: %w", userID, err)
	}
	return &token, nil
}

// UserByToken resolves an API key to its user.
func (s *gormStore) UserByToken(ctx context.Context, key string) (*model.User, error) {
	var token model.AuthToken
	if err := s.db.WithContext(ctx).Where("key = ?", key).First(&token).Error; err != nil {
		return nil, notFound(err)
	}
	return s.UserByID(ctx, token.UserID)
}

func (s *gormStore) DeleteToken(ctx context.Context, key string) error {
	if err := s.db.WithContext(ctx).Where("key = ?", key).Delete(&model.AuthToken{}).Error; err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}

func newTokenKey() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
