package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"partita/internal/core"
)

type RepositoryTestSuite struct {
	suite.Suite
	repo *SQLiteRepository
	ctx  context.Context
}

func (s *RepositoryTestSuite) SetupTest() {
	repo, err := NewSQLiteRepository(filepath.Join(s.T().TempDir(), "partita.db"))
	require.NoError(s.T(), err, "failed to create test database")
	s.repo = repo
	s.ctx = context.Background()
}

func (s *RepositoryTestSuite) TearDownTest() {
	if s.repo != nil {
		s.repo.Close()
	}
}

func (s *RepositoryTestSuite) storedUser() *core.User {
	u := &core.User{
		ID:           "user-1",
		Name:         "Mario Rossi",
		Email:        "mario@example.com",
		PasswordHash: "$2a$12$fakefakefakefakefakefake",
		Chart:        core.DefaultChart(),
	}
	require.NoError(s.T(), s.repo.SaveUser(s.ctx, u))
	return u
}

func (s *RepositoryTestSuite) storedTransaction(owner string) *core.Transaction {
	tx := &core.Transaction{
		ID:      "tx-1",
		OwnerID: owner,
		Debit:   core.Entry{Classification: core.Expense, Main: "housing", Sub: "rent"},
		Credit:  core.Entry{Classification: core.Account, Main: "cash"},
		Amount:  decimal.RequireFromString("12.4"),
		Date:    time.Now().Add(-time.Hour).UTC().Truncate(time.Second),
	}
	require.NoError(s.T(), s.repo.SaveTransaction(s.ctx, tx))
	return tx
}

func (s *RepositoryTestSuite) TestUserRoundTrip() {
	saved := s.storedUser()

	loaded, err := s.repo.FindUserByID(s.ctx, saved.ID)
	require.NoError(s.T(), err)
	require.NotNil(s.T(), loaded)
	assert.Equal(s.T(), saved.Email, loaded.Email)
	assert.Equal(s.T(), saved.Chart, loaded.Chart, "chart survives the JSON round trip")
	assert.Nil(s.T(), loaded.PasswordChange.ChangedAt)

	byEmail, err := s.repo.FindUserByEmail(s.ctx, "mario@example.com")
	require.NoError(s.T(), err)
	require.NotNil(s.T(), byEmail)
	assert.Equal(s.T(), saved.ID, byEmail.ID)
}

func (s *RepositoryTestSuite) TestAbsentUserIsNil() {
	loaded, err := s.repo.FindUserByID(s.ctx, "nope")
	require.NoError(s.T(), err)
	assert.Nil(s.T(), loaded)
}

func (s *RepositoryTestSuite) TestSaveUserUpsertsPasswordState() {
	saved := s.storedUser()

	changed := time.Now().UTC().Truncate(time.Second)
	expires := changed.Add(10 * time.Minute)
	saved.PasswordChange.ChangedAt = &changed
	saved.PasswordChange.ResetTokenDigest = "digest-value"
	saved.PasswordChange.ResetTokenExpiresAt = &expires
	require.NoError(s.T(), s.repo.SaveUser(s.ctx, saved))

	loaded, err := s.repo.FindUserByID(s.ctx, saved.ID)
	require.NoError(s.T(), err)
	require.NotNil(s.T(), loaded.PasswordChange.ChangedAt)
	require.NotNil(s.T(), loaded.PasswordChange.ResetTokenExpiresAt)
	assert.Equal(s.T(), "digest-value", loaded.PasswordChange.ResetTokenDigest)
	assert.True(s.T(), expires.Equal(*loaded.PasswordChange.ResetTokenExpiresAt))
}

func (s *RepositoryTestSuite) TestDuplicateEmailRejected() {
	s.storedUser()
	dup := &core.User{
		ID:           "user-2",
		Name:         "Maria Verdi",
		Email:        "mario@example.com",
		PasswordHash: "hash",
		Chart:        core.DefaultChart(),
	}
	assert.Error(s.T(), s.repo.SaveUser(s.ctx, dup))
}

func (s *RepositoryTestSuite) TestTransactionRoundTrip() {
	owner := s.storedUser()
	saved := s.storedTransaction(owner.ID)

	loaded, err := s.repo.FindTransactionByID(s.ctx, saved.ID)
	require.NoError(s.T(), err)
	require.NotNil(s.T(), loaded)
	assert.Equal(s.T(), saved.Debit, loaded.Debit)
	assert.Equal(s.T(), saved.Credit, loaded.Credit)
	assert.True(s.T(), saved.Amount.Equal(loaded.Amount), "amount survives the decimal round trip")
	assert.True(s.T(), saved.Date.Equal(loaded.Date))
}

func (s *RepositoryTestSuite) TestSaveTransactionUpserts() {
	owner := s.storedUser()
	tx := s.storedTransaction(owner.ID)

	tx.Amount = decimal.RequireFromString("99.9")
	tx.Debit.Sub = ""
	require.NoError(s.T(), s.repo.SaveTransaction(s.ctx, tx))

	loaded, err := s.repo.FindTransactionByID(s.ctx, tx.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "99.9", loaded.Amount.String())
	assert.Empty(s.T(), loaded.Debit.Sub)
}

func (s *RepositoryTestSuite) TestFindTransactionsByOwner() {
	owner := s.storedUser()
	s.storedTransaction(owner.ID)

	other := &core.Transaction{
		ID:      "tx-2",
		OwnerID: "someone-else",
		Debit:   core.Entry{Classification: core.Income, Main: "wages"},
		Credit:  core.Entry{Classification: core.Account, Main: "bank"},
		Amount:  decimal.RequireFromString("5"),
		Date:    time.Now().Add(-time.Minute),
	}
	require.NoError(s.T(), s.repo.SaveTransaction(s.ctx, other))

	mine, err := s.repo.FindTransactionsByOwner(s.ctx, owner.ID)
	require.NoError(s.T(), err)
	require.Len(s.T(), mine, 1)
	assert.Equal(s.T(), "tx-1", mine[0].ID)
}

func (s *RepositoryTestSuite) TestDeleteTransaction() {
	owner := s.storedUser()
	tx := s.storedTransaction(owner.ID)

	require.NoError(s.T(), s.repo.DeleteTransaction(s.ctx, tx.ID))
	loaded, err := s.repo.FindTransactionByID(s.ctx, tx.ID)
	require.NoError(s.T(), err)
	assert.Nil(s.T(), loaded)

	// Deleting an unknown id is a no-op.
	assert.NoError(s.T(), s.repo.DeleteTransaction(s.ctx, "missing"))
}

func (s *RepositoryTestSuite) TestSessions() {
	owner := s.storedUser()

	require.NoError(s.T(), s.repo.SaveSession(s.ctx, "digest-1", owner.ID, time.Now().Add(time.Hour)))
	user, err := s.repo.FindUserBySession(s.ctx, "digest-1")
	require.NoError(s.T(), err)
	require.NotNil(s.T(), user)
	assert.Equal(s.T(), owner.ID, user.ID)

	// Expired sessions do not resolve and are swept.
	require.NoError(s.T(), s.repo.SaveSession(s.ctx, "digest-2", owner.ID, time.Now().Add(-time.Minute)))
	user, err = s.repo.FindUserBySession(s.ctx, "digest-2")
	require.NoError(s.T(), err)
	assert.Nil(s.T(), user)

	require.NoError(s.T(), s.repo.DeleteExpiredSessions(s.ctx))
	user, err = s.repo.FindUserBySession(s.ctx, "digest-1")
	require.NoError(s.T(), err)
	assert.NotNil(s.T(), user, "valid sessions survive the sweep")
}

func TestRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(RepositoryTestSuite))
}
