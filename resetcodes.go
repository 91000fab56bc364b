package authcore

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
	"time"
)

// ResetCodeTTL is how long an issued reset code stays valid.
const ResetCodeTTL = 10 * time.Minute

// GenerateResetCode returns a 6-digit numeric code drawn uniformly from
// [100000, 999999]. The range starts at 100000 so the code never needs a
// leading zero.
func GenerateResetCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("failed to generate reset code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// FingerprintCode hashes a reset code deterministically (sha256, unsalted) so
// that equal fingerprints imply equal codes. That makes lookup-by-code
// possible without ever indexing a plaintext secret.
func FingerprintCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

// ResetCodeManager issues, verifies and consumes one-time password-reset
// codes against the credential store.
type ResetCodeManager struct {
	Store CredentialStore

	// TTL defaults to ResetCodeTTL when zero.
	TTL time.Duration

	// Now is overridable for tests. Defaults to time.Now.
	Now func() time.Time
}

func NewResetCodeManager(store CredentialStore) *ResetCodeManager {
	return &ResetCodeManager{Store: store}
}

func (m *ResetCodeManager) ttl() time.Duration {
	if m.TTL > 0 {
		return m.TTL
	}
	return ResetCodeTTL
}

func (m *ResetCodeManager) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

// Issue attaches a fresh challenge to the user, overwriting any prior one,
// and returns the plaintext code for out-of-band delivery. Only the
// fingerprint is persisted.
func (m *ResetCodeManager) Issue(ctx context.Context, user *User) (string, error) {
	code, err := GenerateResetCode()
	if err != nil {
		return "", err
	}

	user.Reset = &ResetChallenge{
		CodeHash:  FingerprintCode(code),
		ExpiresAt: m.now().Add(m.ttl()),
		Verified:  false,
	}
	if err := m.Store.SaveUser(ctx, user); err != nil {
		return "", fmt.Errorf("failed to save reset challenge: %w", err)
	}
	return code, nil
}

// Verify looks up the user holding an unexpired challenge matching the code
// and marks the challenge verified. A wrong code and an expired one are the
// same ErrUserNotFound - deliberately indistinguishable.
func (m *ResetCodeManager) Verify(ctx context.Context, code string) (*User, error) {
	user, err := m.Store.GetUserByResetCode(ctx, FingerprintCode(code), m.now())
	if err != nil {
		return nil, err
	}

	user.Reset.Verified = true
	if err := m.Store.SaveUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to mark reset verified: %w", err)
	}
	return user, nil
}

// Consume clears the whole challenge. Called after a completed reset, and
// after a failed code delivery so no code stays active that the user cannot
// have received.
func (m *ResetCodeManager) Consume(ctx context.Context, user *User) error {
	user.Reset = nil
	if err := m.Store.SaveUser(ctx, user); err != nil {
		return fmt.Errorf("failed to clear reset challenge: %w", err)
	}
	return nil
}
