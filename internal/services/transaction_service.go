package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"partita/internal/core"
)

// TransactionService coordinates the transaction lifecycle: it normalizes
// the amount, resolves the owner's chart, runs validation, and only then
// hands the transaction to the store. Validation is a pure function invoked
// explicitly here, never hidden behind the write path.
type TransactionService struct {
	store  Store
	events EventPublisher
	now    func() time.Time
}

// TransactionInput carries caller-supplied fields. Pointers distinguish
// "absent" from "zero" so updates can be partial.
type TransactionInput struct {
	Debit  *core.Entry
	Credit *core.Entry
	Amount *decimal.Decimal
	Date   *time.Time
}

func NewTransactionService(store Store, events EventPublisher) *TransactionService {
	return &TransactionService{store: store, events: events, now: time.Now}
}

// Create validates and persists a new transaction for the owner. All four
// mutable fields are required; nothing is written unless the full
// pre-persist check passes.
func (s *TransactionService) Create(ctx context.Context, ownerID string, in TransactionInput) (*core.Transaction, error) {
	if in.Debit == nil || in.Credit == nil || in.Amount == nil || in.Date == nil {
		return nil, core.MissingFieldError("debit, credit, amount, and date fields are required for creating a new transaction")
	}

	tx := core.Transaction{
		ID:        uuid.NewString(),
		Debit:     *in.Debit,
		Credit:    *in.Credit,
		Amount:    core.NormalizeAmount(*in.Amount),
		Date:      *in.Date,
		OwnerID:   ownerID,
		CreatedAt: s.now(),
	}

	if err := s.validateForOwner(ctx, &tx); err != nil {
		return nil, err
	}
	if err := s.store.SaveTransaction(ctx, &tx); err != nil {
		return nil, fmt.Errorf("save transaction: %w", err)
	}

	s.publishUpsert(ctx, tx.ID)
	return &tx, nil
}

// Update applies the provided fields to an existing transaction, leaving
// omitted fields untouched. The amount is re-normalized only when it
// changed, but both entries are always re-validated against the owner's
// current chart so the stored pair stays consistent even when only the date
// moved.
func (s *TransactionService) Update(ctx context.Context, id string, in TransactionInput) (*core.Transaction, error) {
	tx, err := s.store.FindTransactionByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find transaction: %w", err)
	}
	if tx == nil {
		return nil, core.NotFoundError(fmt.Sprintf("no transaction was found with this id %q", id))
	}

	if in.Debit != nil {
		tx.Debit = *in.Debit
	}
	if in.Credit != nil {
		tx.Credit = *in.Credit
	}
	if in.Amount != nil {
		tx.Amount = core.NormalizeAmount(*in.Amount)
	}
	if in.Date != nil {
		tx.Date = *in.Date
	}

	if err := s.validateForOwner(ctx, tx); err != nil {
		return nil, err
	}
	if err := s.store.SaveTransaction(ctx, tx); err != nil {
		return nil, fmt.Errorf("save transaction: %w", err)
	}

	s.publishUpsert(ctx, tx.ID)
	return tx, nil
}

// Delete removes a transaction by id and returns the removed transaction,
// nil when the id was unknown. There is no ownership check; deleting an
// unknown id is a no-op.
func (s *TransactionService) Delete(ctx context.Context, id string) (*core.Transaction, error) {
	tx, err := s.store.FindTransactionByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find transaction: %w", err)
	}

	if err := s.store.DeleteTransaction(ctx, id); err != nil {
		return nil, fmt.Errorf("delete transaction: %w", err)
	}

	if s.events != nil {
		if err := s.events.PublishTransactionDelete(ctx, id); err != nil {
			slog.ErrorContext(ctx, "Failed to publish delete event", "id", id, "error", err)
		}
	}
	return tx, nil
}

// ListByOwner returns the owner's transactions, exact match on OwnerID.
func (s *TransactionService) ListByOwner(ctx context.Context, ownerID string) ([]core.Transaction, error) {
	txs, err := s.store.FindTransactionsByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

// validateForOwner loads a fresh snapshot of the owner and runs the full
// pre-persist check against their current chart. Concurrent chart edits
// between this read and the save are tolerated: last validated wins.
func (s *TransactionService) validateForOwner(ctx context.Context, tx *core.Transaction) error {
	owner, err := s.store.FindUserByID(ctx, tx.OwnerID)
	if err != nil {
		return fmt.Errorf("find owner: %w", err)
	}
	if owner == nil {
		return core.OwnerNotFoundError(tx.OwnerID)
	}
	return tx.ValidateAgainst(owner.Chart, s.now())
}

func (s *TransactionService) publishUpsert(ctx context.Context, id string) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishTransactionUpsert(ctx, id); err != nil {
		// Export is eventually consistent; the local write already succeeded.
		slog.ErrorContext(ctx, "Failed to publish upsert event", "id", id, "error", err)
	}
}
