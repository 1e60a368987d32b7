package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"partita/internal/auth"
	"partita/internal/core"
)

func newAuthService(store Store) *AuthService {
	return NewAuthService(store, auth.NewManager(auth.WithCost(4)))
}

func TestAuthServiceRegister(t *testing.T) {
	store := newFakeStore()
	svc := newAuthService(store)
	ctx := context.Background()

	user, err := svc.Register(ctx, "Mario Rossi", "Mario@Example.com", "secret-password")
	require.NoError(t, err)
	assert.Equal(t, "mario@example.com", user.Email, "email is lowercased")
	assert.NotEmpty(t, user.PasswordHash)
	assert.NotEqual(t, "secret-password", user.PasswordHash)
	assert.NoError(t, user.Chart.Validate(), "a default chart is seeded")

	t.Run("duplicate email", func(t *testing.T) {
		_, err := svc.Register(ctx, "Maria Verdi", "mario@example.com", "another-password")
		assert.Error(t, err)
	})

	t.Run("short password", func(t *testing.T) {
		_, err := svc.Register(ctx, "Maria Verdi", "maria@example.com", "short")
		assert.True(t, core.IsKind(err, core.KindMissingRequiredField))
	})

	t.Run("invalid name", func(t *testing.T) {
		_, err := svc.Register(ctx, "x", "x@example.com", "long-enough-password")
		assert.Error(t, err)
	})
}

func TestAuthServiceLogin(t *testing.T) {
	store := newFakeStore()
	svc := newAuthService(store)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Mario Rossi", "mario@example.com", "secret-password")
	require.NoError(t, err)

	token, user, err := svc.Login(ctx, "mario@example.com", "secret-password")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.Equal(t, "mario@example.com", user.Email)

	// The session token resolves back to the user.
	authed, err := svc.Authenticate(ctx, token)
	require.NoError(t, err)
	require.NotNil(t, authed)
	assert.Equal(t, user.ID, authed.ID)

	t.Run("wrong password and unknown email are indistinguishable", func(t *testing.T) {
		_, _, errWrong := svc.Login(ctx, "mario@example.com", "wrong-password")
		_, _, errGhost := svc.Login(ctx, "ghost@example.com", "secret-password")
		assert.ErrorIs(t, errWrong, ErrInvalidCredentials)
		assert.ErrorIs(t, errGhost, ErrInvalidCredentials)
	})

	t.Run("garbage token does not authenticate", func(t *testing.T) {
		authed, err := svc.Authenticate(ctx, "not-a-real-token")
		require.NoError(t, err)
		assert.Nil(t, authed)
	})
}

func TestAuthServicePasswordResetFlow(t *testing.T) {
	store := newFakeStore()
	svc := newAuthService(store)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Mario Rossi", "mario@example.com", "old-password-123")
	require.NoError(t, err)

	token, err := svc.ForgotPassword(ctx, "mario@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	t.Run("wrong token fails", func(t *testing.T) {
		err := svc.ResetPassword(ctx, "mario@example.com", "bogus-token", "new-password-123")
		assert.True(t, core.IsKind(err, core.KindResetTokenInvalidOrExpired))
	})

	require.NoError(t, svc.ResetPassword(ctx, "mario@example.com", token, "new-password-123"))

	t.Run("token is single use", func(t *testing.T) {
		err := svc.ResetPassword(ctx, "mario@example.com", token, "yet-another-pass")
		assert.True(t, core.IsKind(err, core.KindResetTokenInvalidOrExpired))
	})

	t.Run("old password rejected, new accepted", func(t *testing.T) {
		_, _, err := svc.Login(ctx, "mario@example.com", "old-password-123")
		assert.ErrorIs(t, err, ErrInvalidCredentials)

		_, _, err = svc.Login(ctx, "mario@example.com", "new-password-123")
		assert.NoError(t, err)
	})

	t.Run("unknown email yields not found", func(t *testing.T) {
		_, err := svc.ForgotPassword(ctx, "ghost@example.com")
		assert.True(t, core.IsKind(err, core.KindNotFound))
	})
}
