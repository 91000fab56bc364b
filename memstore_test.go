package authcore

import (
	"context"
	"sort"
	"sync"
	"time"
)

// memStore is an in-memory CredentialStore used across the package tests.
type memStore struct {
	mu    sync.Mutex
	users map[string]*User

	// failSave, when set, makes every SaveUser return this error.
	failSave error
}

func newMemStore() *memStore {
	return &memStore{users: make(map[string]*User)}
}

func (s *memStore) clone(u *User) *User {
	cp := *u
	if u.Reset != nil {
		reset := *u.Reset
		cp.Reset = &reset
	}
	return &cp
}

func (s *memStore) CreateUser(ctx context.Context, user *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	s.users[user.ID] = s.clone(user)
	return nil
}

func (s *memStore) GetUserByID(ctx context.Context, id string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		return s.clone(u), nil
	}
	return nil, ErrUserNotFound
}

func (s *memStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return s.clone(u), nil
		}
	}
	return nil, ErrUserNotFound
}

func (s *memStore) GetUserByResetCode(ctx context.Context, codeHash string, now time.Time) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Reset != nil && u.Reset.CodeHash == codeHash && u.Reset.ExpiresAt.After(now) {
			return s.clone(u), nil
		}
	}
	return nil, ErrUserNotFound
}

func (s *memStore) ListUsers(ctx context.Context) ([]*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var users []*User
	for _, u := range s.users {
		users = append(users, s.clone(u))
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].CreatedAt.After(users[j].CreatedAt)
	})
	return users, nil
}

func (s *memStore) SaveUser(ctx context.Context, user *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSave != nil {
		return s.failSave
	}
	if _, ok := s.users[user.ID]; !ok {
		return ErrUserNotFound
	}
	s.users[user.ID] = s.clone(user)
	return nil
}

func (s *memStore) DeleteUser(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return ErrUserNotFound
	}
	delete(s.users, id)
	return nil
}
