// Package auth implements the credential lifecycle: password hashing and
// verification, password-reset tokens, and opaque session tokens. Tokens are
// stored only as one-way digests; the plaintext is handed to the caller once.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"partita/internal/core"
)

const (
	// DefaultBcryptCost matches the 12 rounds used when passwords were first
	// issued; lowering it would silently weaken newly hashed passwords.
	DefaultBcryptCost = 12

	// DefaultResetTokenTTL bounds how long an issued reset token stays valid.
	DefaultResetTokenTTL = 10 * time.Minute

	tokenBytes = 32
)

var ErrMissingHashMaterial = errors.New("auth: stored password hash is empty")

// Manager performs all credential operations for a single user aggregate.
// It never touches storage; callers persist the mutated user themselves.
type Manager struct {
	cost     int
	tokenTTL time.Duration
	now      func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithCost overrides the bcrypt cost factor.
func WithCost(cost int) Option {
	return func(m *Manager) { m.cost = cost }
}

// WithResetTokenTTL overrides the reset-token lifetime.
func WithResetTokenTTL(ttl time.Duration) Option {
	return func(m *Manager) { m.tokenTTL = ttl }
}

// WithClock overrides the time source. Tests use this to move past expiry.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func NewManager(opts ...Option) *Manager {
	m := &Manager{
		cost:     DefaultBcryptCost,
		tokenTTL: DefaultResetTokenTTL,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// HashPassword applies the one-way adaptive hash. It is called only when a
// password is created or changed, never on an unrelated update.
func (m *Manager) HashPassword(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), m.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword checks a plaintext candidate against a stored hash. A
// mismatch is a normal negative result; a missing or malformed hash is a
// programming-error class fault and returns an error.
func (m *Manager) VerifyPassword(plaintext, hash string) (bool, error) {
	if hash == "" {
		return false, ErrMissingHashMaterial
	}
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("verify password: %w", err)
	}
}

// IssueResetToken generates a random reset token for the user, stores its
// digest and expiry on the user's password-change state, and returns the
// plaintext. Any prior pending reset is overwritten.
func (m *Manager) IssueResetToken(user *core.User) (string, error) {
	token, err := randomToken()
	if err != nil {
		return "", err
	}
	expiresAt := m.now().Add(m.tokenTTL)
	user.PasswordChange.ResetTokenDigest = DigestToken(token)
	user.PasswordChange.ResetTokenExpiresAt = &expiresAt
	return token, nil
}

// ValidateResetToken digests the candidate and compares it with the stored
// state. Expired or mismatched tokens return false; there is no error path
// for expected negative cases.
func (m *Manager) ValidateResetToken(user *core.User, candidate string) bool {
	pc := user.PasswordChange
	if !pc.HasPendingReset() {
		return false
	}
	if DigestToken(candidate) != pc.ResetTokenDigest {
		return false
	}
	return pc.ResetTokenExpiresAt.After(m.now())
}

// ResetPassword sets a new password hash, unconditionally clears the reset
// token (single use), and records the change time.
func (m *Manager) ResetPassword(user *core.User, newPlaintext string) error {
	hash, err := m.HashPassword(newPlaintext)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	user.PasswordChange.ClearReset()
	changedAt := m.now()
	user.PasswordChange.ChangedAt = &changedAt
	return nil
}

// NewSessionToken generates an opaque session token, returning the plaintext
// for the client and the digest for storage.
func (m *Manager) NewSessionToken() (plaintext, digest string, err error) {
	token, err := randomToken()
	if err != nil {
		return "", "", err
	}
	return token, DigestToken(token), nil
}

// DigestToken derives the deterministic one-way digest used for stored
// reset and session tokens.
func DigestToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func randomToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
