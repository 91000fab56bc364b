//go:build !wasm
// +build !wasm

package gorm

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/easytrans/authcore"
)

// AutoMigrate runs database migrations for the credential tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&UserModel{})
}

// UserStore implements authcore.CredentialStore using GORM.
type UserStore struct {
	db *gorm.DB
}

func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) CreateUser(ctx context.Context, user *authcore.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	return s.db.WithContext(ctx).Create(UserToModel(user)).Error
}

func (s *UserStore) GetUserByID(ctx context.Context, id string) (*authcore.User, error) {
	return s.first(ctx, "id = ?", id)
}

func (s *UserStore) GetUserByEmail(ctx context.Context, email string) (*authcore.User, error) {
	return s.first(ctx, "email = ?", email)
}

func (s *UserStore) GetUserByResetCode(ctx context.Context, codeHash string, now time.Time) (*authcore.User, error) {
	return s.first(ctx, "reset_code_hash = ? AND reset_expires_at > ?", codeHash, now)
}

func (s *UserStore) ListUsers(ctx context.Context) ([]*authcore.User, error) {
	var models []UserModel
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	users := make([]*authcore.User, len(models))
	for i, m := range models {
		users[i] = m.ToUser()
	}
	return users, nil
}

func (s *UserStore) SaveUser(ctx context.Context, user *authcore.User) error {
	// Save writes every column so a cleared reset challenge nulls out the
	// reset columns instead of leaving them behind.
	res := s.db.WithContext(ctx).Model(&UserModel{}).
		Where("id = ?", user.ID).
		Select("*").Omit("id", "created_at").
		Updates(UserToModel(user))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return authcore.ErrUserNotFound
	}
	return nil
}

func (s *UserStore) DeleteUser(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&UserModel{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return authcore.ErrUserNotFound
	}
	return nil
}

func (s *UserStore) first(ctx context.Context, query string, args ...any) (*authcore.User, error) {
	var model UserModel
	if err := s.db.WithContext(ctx).First(&model, append([]any{query}, args...)...).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, authcore.ErrUserNotFound
		}
		return nil, err
	}
	return model.ToUser(), nil
}
