package authcore

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Role determines what a user account is allowed to do.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// ResetChallenge is the state of an in-flight password reset. The three
// fields live and die together: a user either has a whole active challenge
// or none at all.
type ResetChallenge struct {
	// CodeHash is the unsalted fingerprint of the one-time code. The
	// plaintext code is never persisted.
	CodeHash string `json:"code_hash"`

	// ExpiresAt is the instant after which the code stops matching.
	ExpiresAt time.Time `json:"expires_at"`

	// Verified becomes true after a successful code check and gates the
	// actual password change.
	Verified bool `json:"verified"`
}

// User is the sole persisted entity. PasswordHash is always set - accounts
// provisioned through OAuth get a random unusable password so the schema
// stays uniform and a later password login remains possible.
type User struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Email         string          `json:"email"`
	Bio           string          `json:"bio,omitempty"`
	PasswordHash  string          `json:"-"`
	AvatarURL     string          `json:"avatar,omitempty"`
	AvatarAssetID string          `json:"-"`
	Role          Role            `json:"role"`
	Reset         *ResetChallenge `json:"-"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// NormalizeEmail is the canonical form used for all email comparisons and
// storage: trimmed and lower-cased.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ErrUserNotFound is returned by CredentialStore implementations when no
// record matches the query.
var ErrUserNotFound = errors.New("user not found")

// CredentialStore is the persistence boundary for user records. All
// operations are atomic at single-record granularity; no workflow here needs
// a multi-record transaction. Writes are last-write-wins on conflict.
type CredentialStore interface {
	// CreateUser persists a new user. The caller assigns ID; the store
	// stamps CreatedAt if it is zero.
	CreateUser(ctx context.Context, user *User) error

	// GetUserByID returns the user with the given ID or ErrUserNotFound.
	GetUserByID(ctx context.Context, id string) (*User, error)

	// GetUserByEmail returns the user with the given (normalized) email or
	// ErrUserNotFound.
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	// GetUserByResetCode returns the user whose active reset challenge has
	// the given code fingerprint AND expires strictly after now.
	// ErrUserNotFound covers both a wrong code and an expired one - callers
	// must not be able to tell the two apart.
	GetUserByResetCode(ctx context.Context, codeHash string, now time.Time) (*User, error)

	// ListUsers returns all users ordered by CreatedAt descending.
	ListUsers(ctx context.Context) ([]*User, error)

	// SaveUser writes the full record back.
	SaveUser(ctx context.Context, user *User) error

	// DeleteUser permanently removes the record. Missing records yield
	// ErrUserNotFound.
	DeleteUser(ctx context.Context, id string) error
}
