//go:build !wasm
// +build !wasm

package gorm

import (
	"time"

	"github.com/easytrans/authcore"
)

// UserModel is the GORM model for users. The reset-challenge columns are
// nullable as a group: either all three are set or none is.
type UserModel struct {
	ID            string `gorm:"primaryKey;size:64"`
	Name          string `gorm:"size:255"`
	Email         string `gorm:"size:320;uniqueIndex"`
	Bio           string
	PasswordHash  string `gorm:"size:128"`
	AvatarURL     string `gorm:"size:1024"`
	AvatarAssetID string `gorm:"size:255"`
	Role          string `gorm:"size:16;default:user"`

	ResetCodeHash  *string    `gorm:"size:64;index"`
	ResetExpiresAt *time.Time `gorm:"index"`
	ResetVerified  *bool

	CreatedAt time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (UserModel) TableName() string {
	return "users"
}

func (m *UserModel) ToUser() *authcore.User {
	user := &authcore.User{
		ID:            m.ID,
		Name:          m.Name,
		Email:         m.Email,
		Bio:           m.Bio,
		PasswordHash:  m.PasswordHash,
		AvatarURL:     m.AvatarURL,
		AvatarAssetID: m.AvatarAssetID,
		Role:          authcore.Role(m.Role),
		CreatedAt:     m.CreatedAt,
	}
	if m.ResetCodeHash != nil && m.ResetExpiresAt != nil {
		user.Reset = &authcore.ResetChallenge{
			CodeHash:  *m.ResetCodeHash,
			ExpiresAt: *m.ResetExpiresAt,
		}
		if m.ResetVerified != nil {
			user.Reset.Verified = *m.ResetVerified
		}
	}
	return user
}

func UserToModel(u *authcore.User) *UserModel {
	model := &UserModel{
		ID:            u.ID,
		Name:          u.Name,
		Email:         u.Email,
		Bio:           u.Bio,
		PasswordHash:  u.PasswordHash,
		AvatarURL:     u.AvatarURL,
		AvatarAssetID: u.AvatarAssetID,
		Role:          string(u.Role),
		CreatedAt:     u.CreatedAt,
	}
	if u.Reset != nil {
		codeHash := u.Reset.CodeHash
		expiresAt := u.Reset.ExpiresAt
		verified := u.Reset.Verified
		model.ResetCodeHash = &codeHash
		model.ResetExpiresAt = &expiresAt
		model.ResetVerified = &verified
	}
	return model
}
