// Package stores provides a filesystem-backed credential store: one JSON
// file per user, written atomically. Suitable for development and tests;
// production deployments use the gorm or gae stores.
package stores

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/easytrans/authcore"
)

// FSUserStore stores users as JSON files under StoragePath/users. Email and
// reset-code lookups scan the directory, which is fine at the scale a
// filesystem store is meant for.
type FSUserStore struct {
	StoragePath string

	mu sync.RWMutex
}

func NewFSUserStore(storagePath string) *FSUserStore {
	return &FSUserStore{StoragePath: storagePath}
}

func (s *FSUserStore) userPath(userID string) string {
	return filepath.Join(s.StoragePath, "users", userID+".json")
}

func (s *FSUserStore) CreateUser(ctx context.Context, user *authcore.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	return s.writeUser(user)
}

func (s *FSUserStore) GetUserByID(ctx context.Context, id string) (*authcore.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.readUser(s.userPath(id))
}

func (s *FSUserStore) GetUserByEmail(ctx context.Context, email string) (*authcore.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scan(func(u *authcore.User) bool {
		return u.Email == email
	})
}

func (s *FSUserStore) GetUserByResetCode(ctx context.Context, codeHash string, now time.Time) (*authcore.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scan(func(u *authcore.User) bool {
		return u.Reset != nil && u.Reset.CodeHash == codeHash && u.Reset.ExpiresAt.After(now)
	})
}

func (s *FSUserStore) ListUsers(ctx context.Context) ([]*authcore.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var users []*authcore.User
	err := s.forEach(func(u *authcore.User) bool {
		users = append(users, u)
		return false
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].CreatedAt.After(users[j].CreatedAt)
	})
	return users, nil
}

func (s *FSUserStore) SaveUser(ctx context.Context, user *authcore.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.readUser(s.userPath(user.ID)); err != nil {
		return err
	}
	return s.writeUser(user)
}

func (s *FSUserStore) DeleteUser(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.userPath(id)); err != nil {
		if os.IsNotExist(err) {
			return authcore.ErrUserNotFound
		}
		return err
	}
	return nil
}

func (s *FSUserStore) readUser(path string) (*authcore.User, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, authcore.ErrUserNotFound
		}
		return nil, err
	}
	var rec userRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return rec.toUser(), nil
}

func (s *FSUserStore) writeUser(user *authcore.User) error {
	path := s.userPath(user.ID)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(newUserRecord(user), "", "  ")
	if err != nil {
		return err
	}
	return writeAtomicFile(path, data)
}

// scan returns the first user the predicate matches.
func (s *FSUserStore) scan(match func(*authcore.User) bool) (*authcore.User, error) {
	var found *authcore.User
	err := s.forEach(func(u *authcore.User) bool {
		if match(u) {
			found = u
			return true
		}
		return false
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, authcore.ErrUserNotFound
	}
	return found, nil
}

func (s *FSUserStore) forEach(visit func(*authcore.User) bool) error {
	dir := filepath.Join(s.StoragePath, "users")
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		user, err := s.readUser(filepath.Join(dir, entry.Name()))
		if err != nil {
			if err == authcore.ErrUserNotFound {
				continue
			}
			return err
		}
		if visit(user) {
			return nil
		}
	}
	return nil
}

// userRecord is the on-disk shape. It is distinct from the public User JSON
// because the record must round-trip the password hash and reset challenge,
// which the API encoding hides.
type userRecord struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Bio           string    `json:"bio,omitempty"`
	PasswordHash  string    `json:"passwordHash"`
	AvatarURL     string    `json:"avatarUrl,omitempty"`
	AvatarAssetID string    `json:"avatarAssetId,omitempty"`
	Role          string    `json:"role"`
	CreatedAt     time.Time `json:"createdAt"`

	ResetCodeHash  string     `json:"resetCodeHash,omitempty"`
	ResetExpiresAt *time.Time `json:"resetExpiresAt,omitempty"`
	ResetVerified  bool       `json:"resetVerified,omitempty"`
}

func newUserRecord(user *authcore.User) *userRecord {
	rec := &userRecord{
		ID:            user.ID,
		Name:          user.Name,
		Email:         user.Email,
		Bio:           user.Bio,
		PasswordHash:  user.PasswordHash,
		AvatarURL:     user.AvatarURL,
		AvatarAssetID: user.AvatarAssetID,
		Role:          string(user.Role),
		CreatedAt:     user.CreatedAt,
	}
	if user.Reset != nil {
		expiresAt := user.Reset.ExpiresAt
		rec.ResetCodeHash = user.Reset.CodeHash
		rec.ResetExpiresAt = &expiresAt
		rec.ResetVerified = user.Reset.Verified
	}
	return rec
}

func (rec *userRecord) toUser() *authcore.User {
	user := &authcore.User{
		ID:            rec.ID,
		Name:          rec.Name,
		Email:         rec.Email,
		Bio:           rec.Bio,
		PasswordHash:  rec.PasswordHash,
		AvatarURL:     rec.AvatarURL,
		AvatarAssetID: rec.AvatarAssetID,
		Role:          authcore.Role(rec.Role),
		CreatedAt:     rec.CreatedAt,
	}
	if rec.ResetCodeHash != "" && rec.ResetExpiresAt != nil {
		user.Reset = &authcore.ResetChallenge{
			CodeHash:  rec.ResetCodeHash,
			ExpiresAt: *rec.ResetExpiresAt,
			Verified:  rec.ResetVerified,
		}
	}
	return user
}
