// Package storage persists users, transactions, and sessions in SQLite.
// Single-row reads and writes are atomic, which is the only consistency
// guarantee the services layer relies on.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"partita/internal/core"
	"partita/internal/services"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

var _ services.Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) FindUserByID(ctx context.Context, id string) (*core.User, error) {
	return r.findUser(ctx, "id = ?", id)
}

func (r *SQLiteRepository) FindUserByEmail(ctx context.Context, email string) (*core.User, error) {
	return r.findUser(ctx, "email = ?", email)
}

func (r *SQLiteRepository) findUser(ctx context.Context, where string, arg any) (*core.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, email, password_hash, chart,
		       password_changed_at, reset_token_digest, reset_token_expires_at, created_at
		FROM users WHERE `+where, arg)

	var (
		u         core.User
		chartJSON string
		changedAt sql.NullTime
		expiresAt sql.NullTime
	)
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &chartJSON,
		&changedAt, &u.PasswordChange.ResetTokenDigest, &expiresAt, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}

	if err := json.Unmarshal([]byte(chartJSON), &u.Chart); err != nil {
		return nil, fmt.Errorf("decode chart for user %s: %w", u.ID, err)
	}
	if changedAt.Valid {
		t := changedAt.Time
		u.PasswordChange.ChangedAt = &t
	}
	if expiresAt.Valid {
		t := expiresAt.Time
		u.PasswordChange.ResetTokenExpiresAt = &t
	}
	return &u, nil
}

// SaveUser upserts the full user document, chart and password-change state
// included, in a single statement.
func (r *SQLiteRepository) SaveUser(ctx context.Context, user *core.User) error {
	chartJSON, err := json.Marshal(user.Chart)
	if err != nil {
		return fmt.Errorf("encode chart: %w", err)
	}

	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO users (id, name, email, password_hash, chart,
		                   password_changed_at, reset_token_digest, reset_token_expires_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			email = excluded.email,
			password_hash = excluded.password_hash,
			chart = excluded.chart,
			password_changed_at = excluded.password_changed_at,
			reset_token_digest = excluded.reset_token_digest,
			reset_token_expires_at = excluded.reset_token_expires_at`,
		user.ID, user.Name, user.Email, user.PasswordHash, string(chartJSON),
		nullableTime(user.PasswordChange.ChangedAt),
		user.PasswordChange.ResetTokenDigest,
		nullableTime(user.PasswordChange.ResetTokenExpiresAt),
		user.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) FindTransactionByID(ctx context.Context, id string) (*core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, owner_id,
		       debit_classification, debit_main, debit_sub,
		       credit_classification, credit_main, credit_sub,
		       amount, date, created_at
		FROM transactions WHERE id = ?`, id)

	tx, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return tx, nil
}

func (r *SQLiteRepository) FindTransactionsByOwner(ctx context.Context, ownerID string) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, owner_id,
		       debit_classification, debit_main, debit_sub,
		       credit_classification, credit_main, credit_sub,
		       amount, date, created_at
		FROM transactions WHERE owner_id = ?
		ORDER BY date DESC, created_at DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *tx)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) SaveTransaction(ctx context.Context, tx *core.Transaction) error {
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (id, owner_id,
		                          debit_classification, debit_main, debit_sub,
		                          credit_classification, credit_main, credit_sub,
		                          amount, date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			debit_classification = excluded.debit_classification,
			debit_main = excluded.debit_main,
			debit_sub = excluded.debit_sub,
			credit_classification = excluded.credit_classification,
			credit_main = excluded.credit_main,
			credit_sub = excluded.credit_sub,
			amount = excluded.amount,
			date = excluded.date`,
		tx.ID, tx.OwnerID,
		string(tx.Debit.Classification), tx.Debit.Main, tx.Debit.Sub,
		string(tx.Credit.Classification), tx.Credit.Main, tx.Credit.Sub,
		tx.Amount.String(), tx.Date, tx.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save transaction: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM transactions WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) SaveSession(ctx context.Context, tokenDigest, userID string, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sessions (token_digest, user_id, expires_at) VALUES (?, ?, ?)
		ON CONFLICT(token_digest) DO UPDATE SET expires_at = excluded.expires_at`,
		tokenDigest, userID, expiresAt)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) FindUserBySession(ctx context.Context, tokenDigest string) (*core.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT user_id FROM sessions WHERE token_digest = ? AND expires_at > ?`,
		tokenDigest, time.Now())

	var userID string
	err := row.Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan session: %w", err)
	}
	return r.FindUserByID(ctx, userID)
}

func (r *SQLiteRepository) DeleteExpiredSessions(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM sessions WHERE expires_at <= ?", time.Now()); err != nil {
		return fmt.Errorf("delete expired sessions: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*core.Transaction, error) {
	var (
		tx        core.Transaction
		debitCl   string
		creditCl  string
		amountStr string
	)
	err := row.Scan(&tx.ID, &tx.OwnerID,
		&debitCl, &tx.Debit.Main, &tx.Debit.Sub,
		&creditCl, &tx.Credit.Main, &tx.Credit.Sub,
		&amountStr, &tx.Date, &tx.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan transaction: %w", err)
	}

	tx.Debit.Classification = core.Classification(debitCl)
	tx.Credit.Classification = core.Classification(creditCl)
	tx.Amount, err = decimal.NewFromString(amountStr)
	if err != nil {
		return nil, fmt.Errorf("decode amount for transaction %s: %w", tx.ID, err)
	}
	return &tx, nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
