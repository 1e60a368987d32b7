package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"partita/internal/auth"
	"partita/internal/core"
)

const (
	minPasswordLength = 8
	maxPasswordLength = 100

	// DefaultSessionTTL bounds how long a login session stays valid.
	DefaultSessionTTL = 24 * time.Hour
)

// ErrInvalidCredentials covers both "unknown email" and "wrong password".
// The two are logged apart but never distinguished for the caller.
var ErrInvalidCredentials = errors.New("invalid email or password")

// AuthService runs the account flows: registration, login, and the
// password-reset round trip. It composes the credential manager explicitly;
// hashing is never an implicit side effect of saving.
type AuthService struct {
	store      Store
	cred       *auth.Manager
	sessionTTL time.Duration
	now        func() time.Time
}

// AuthOption customizes an AuthService.
type AuthOption func(*AuthService)

// WithSessionTTL overrides how long login sessions stay valid.
func WithSessionTTL(ttl time.Duration) AuthOption {
	return func(s *AuthService) { s.sessionTTL = ttl }
}

func NewAuthService(store Store, cred *auth.Manager, opts ...AuthOption) *AuthService {
	s := &AuthService{
		store:      store,
		cred:       cred,
		sessionTTL: DefaultSessionTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a user with the default chart and a hashed password.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*core.User, error) {
	if name == "" || email == "" || password == "" {
		return nil, core.MissingFieldError("name, email, and password fields are required")
	}
	if len(password) < minPasswordLength || len(password) > maxPasswordLength {
		return nil, core.MissingFieldError(fmt.Sprintf("password must be between %d and %d characters", minPasswordLength, maxPasswordLength))
	}

	user := &core.User{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(name),
		Email:     strings.ToLower(strings.TrimSpace(email)),
		Chart:     core.DefaultChart(),
		CreatedAt: s.now(),
	}
	if err := user.Validate(); err != nil {
		return nil, core.MissingFieldError(err.Error())
	}

	if existing, err := s.store.FindUserByEmail(ctx, user.Email); err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	} else if existing != nil {
		return nil, core.MissingFieldError("a user with this email already exists")
	}

	hash, err := s.cred.HashPassword(password)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = hash

	if err := s.store.SaveUser(ctx, user); err != nil {
		return nil, fmt.Errorf("save user: %w", err)
	}
	return user, nil
}

// Login verifies credentials and opens a session, returning the opaque
// session token and the authenticated user.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *core.User, error) {
	user, err := s.store.FindUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return "", nil, fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		slog.InfoContext(ctx, "Login failed", "reason", "unknown_email")
		return "", nil, ErrInvalidCredentials
	}

	ok, err := s.cred.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return "", nil, err
	}
	if !ok {
		slog.InfoContext(ctx, "Login failed", "reason", "password_mismatch", "user_id", user.ID)
		return "", nil, ErrInvalidCredentials
	}

	token, digest, err := s.cred.NewSessionToken()
	if err != nil {
		return "", nil, err
	}
	if err := s.store.SaveSession(ctx, digest, user.ID, s.now().Add(s.sessionTTL)); err != nil {
		return "", nil, fmt.Errorf("save session: %w", err)
	}
	return token, user, nil
}

// Authenticate resolves a session token to its user. Unknown or expired
// tokens yield (nil, nil).
func (s *AuthService) Authenticate(ctx context.Context, token string) (*core.User, error) {
	if token == "" {
		return nil, nil
	}
	user, err := s.store.FindUserBySession(ctx, auth.DigestToken(token))
	if err != nil {
		return nil, fmt.Errorf("find session: %w", err)
	}
	return user, nil
}

// ForgotPassword issues a reset token for the account and returns the
// plaintext for delivery.
//
// TODO: deliver the token by email instead of handing it back once an SMTP
// collaborator exists.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) (string, error) {
	user, err := s.store.FindUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return "", fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		return "", core.NotFoundError(fmt.Sprintf("no user was found with this email %q", email))
	}

	token, err := s.cred.IssueResetToken(user)
	if err != nil {
		return "", err
	}
	if err := s.store.SaveUser(ctx, user); err != nil {
		return "", fmt.Errorf("save user: %w", err)
	}

	slog.InfoContext(ctx, "Password reset token issued", "user_id", user.ID)
	return token, nil
}

// ResetPassword consumes a valid reset token and sets the new password.
func (s *AuthService) ResetPassword(ctx context.Context, email, token, newPassword string) error {
	if len(newPassword) < minPasswordLength || len(newPassword) > maxPasswordLength {
		return core.MissingFieldError(fmt.Sprintf("password must be between %d and %d characters", minPasswordLength, maxPasswordLength))
	}

	user, err := s.store.FindUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return fmt.Errorf("find user: %w", err)
	}
	if user == nil || !s.cred.ValidateResetToken(user, token) {
		// Unknown account and bad token look identical to the caller.
		return core.ResetTokenError()
	}

	if err := s.cred.ResetPassword(user, newPassword); err != nil {
		return err
	}
	if err := s.store.SaveUser(ctx, user); err != nil {
		return fmt.Errorf("save user: %w", err)
	}

	slog.InfoContext(ctx, "Password reset completed", "user_id", user.ID)
	return nil
}
