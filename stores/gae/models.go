//go:build !wasm
// +build !wasm

package gae

import (
	"time"

	"cloud.google.com/go/datastore"

	"github.com/easytrans/authcore"
)

// UserEntity is the Datastore representation of a user. Reset-challenge
// fields are flattened onto the entity so they can be filtered in queries.
type UserEntity struct {
	Key           *datastore.Key `datastore:"__key__"`
	Name          string         `datastore:"Name"`
	Email         string         `datastore:"Email"`
	Bio           string         `datastore:"Bio,noindex"`
	PasswordHash  string         `datastore:"PasswordHash,noindex"`
	AvatarURL     string         `datastore:"AvatarURL,noindex"`
	AvatarAssetID string         `datastore:"AvatarAssetID,noindex"`
	Role          string         `datastore:"Role"`

	ResetCodeHash  string    `datastore:"ResetCodeHash"`
	ResetExpiresAt time.Time `datastore:"ResetExpiresAt"`
	ResetVerified  bool      `datastore:"ResetVerified,noindex"`

	CreatedAt time.Time `datastore:"CreatedAt"`
	UpdatedAt time.Time `datastore:"UpdatedAt,noindex"`
}

func (e *UserEntity) toUser() *authcore.User {
	user := &authcore.User{
		ID:            e.Key.Name,
		Name:          e.Name,
		Email:         e.Email,
		Bio:           e.Bio,
		PasswordHash:  e.PasswordHash,
		AvatarURL:     e.AvatarURL,
		AvatarAssetID: e.AvatarAssetID,
		Role:          authcore.Role(e.Role),
		CreatedAt:     e.CreatedAt,
	}
	if e.ResetCodeHash != "" {
		user.Reset = &authcore.ResetChallenge{
			CodeHash:  e.ResetCodeHash,
			ExpiresAt: e.ResetExpiresAt,
			Verified:  e.ResetVerified,
		}
	}
	return user
}

func userToEntity(u *authcore.User, key *datastore.Key) *UserEntity {
	entity := &UserEntity{
		Key:           key,
		Name:          u.Name,
		Email:         u.Email,
		Bio:           u.Bio,
		PasswordHash:  u.PasswordHash,
		AvatarURL:     u.AvatarURL,
		AvatarAssetID: u.AvatarAssetID,
		Role:          string(u.Role),
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     time.Now().UTC(),
	}
	if u.Reset != nil {
		entity.ResetCodeHash = u.Reset.CodeHash
		entity.ResetExpiresAt = u.Reset.ExpiresAt
		entity.ResetVerified = u.Reset.Verified
	}
	return entity
}
