//go:build !wasm
// +build !wasm

package gae

import (
	"context"
	"time"

	"cloud.google.com/go/datastore"
	"google.golang.org/api/iterator"

	"github.com/easytrans/authcore"
)

// KindUser is the Datastore kind for user entities.
const KindUser = "User"

// UserStore implements authcore.CredentialStore using Google Cloud
// Datastore.
type UserStore struct {
	client    *datastore.Client
	namespace string
}

func NewUserStore(client *datastore.Client, namespace string) *UserStore {
	return &UserStore{client: client, namespace: namespace}
}

func (s *UserStore) userKey(id string) *datastore.Key {
	key := datastore.NameKey(KindUser, id, nil)
	key.Namespace = s.namespace
	return key
}

func (s *UserStore) query() *datastore.Query {
	return datastore.NewQuery(KindUser).Namespace(s.namespace)
}

func (s *UserStore) CreateUser(ctx context.Context, user *authcore.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	key := s.userKey(user.ID)
	_, err := s.client.Put(ctx, key, userToEntity(user, key))
	return err
}

func (s *UserStore) GetUserByID(ctx context.Context, id string) (*authcore.User, error) {
	var entity UserEntity
	if err := s.client.Get(ctx, s.userKey(id), &entity); err != nil {
		if err == datastore.ErrNoSuchEntity {
			return nil, authcore.ErrUserNotFound
		}
		return nil, err
	}
	return entity.toUser(), nil
}

func (s *UserStore) GetUserByEmail(ctx context.Context, email string) (*authcore.User, error) {
	return s.first(ctx, s.query().FilterField("Email", "=", email))
}

func (s *UserStore) GetUserByResetCode(ctx context.Context, codeHash string, now time.Time) (*authcore.User, error) {
	return s.first(ctx, s.query().
		FilterField("ResetCodeHash", "=", codeHash).
		FilterField("ResetExpiresAt", ">", now))
}

func (s *UserStore) ListUsers(ctx context.Context) ([]*authcore.User, error) {
	var users []*authcore.User
	it := s.client.Run(ctx, s.query().Order("-CreatedAt"))
	for {
		var entity UserEntity
		if _, err := it.Next(&entity); err != nil {
			if err == iterator.Done {
				break
			}
			return nil, err
		}
		users = append(users, entity.toUser())
	}
	return users, nil
}

func (s *UserStore) SaveUser(ctx context.Context, user *authcore.User) error {
	key := s.userKey(user.ID)
	_, err := s.client.RunInTransaction(ctx, func(tx *datastore.Transaction) error {
		var existing UserEntity
		if err := tx.Get(key, &existing); err != nil {
			if err == datastore.ErrNoSuchEntity {
				return authcore.ErrUserNotFound
			}
			return err
		}
		_, err := tx.Put(key, userToEntity(user, key))
		return err
	})
	return err
}

func (s *UserStore) DeleteUser(ctx context.Context, id string) error {
	key := s.userKey(id)
	_, err := s.client.RunInTransaction(ctx, func(tx *datastore.Transaction) error {
		var existing UserEntity
		if err := tx.Get(key, &existing); err != nil {
			if err == datastore.ErrNoSuchEntity {
				return authcore.ErrUserNotFound
			}
			return err
		}
		return tx.Delete(key)
	})
	return err
}

func (s *UserStore) first(ctx context.Context, q *datastore.Query) (*authcore.User, error) {
	it := s.client.Run(ctx, q.Limit(1))
	var entity UserEntity
	if _, err := it.Next(&entity); err != nil {
		if err == iterator.Done {
			return nil, authcore.ErrUserNotFound
		}
		return nil, err
	}
	return entity.toUser(), nil
}
