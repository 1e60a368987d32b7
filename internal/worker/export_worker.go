package worker

import (
	"context"
	"fmt"
	"log/slog"

	"partita/internal/amqp"
	"partita/internal/export"
	"partita/internal/services"
)

// ExportWorker mirrors ledger transactions into an external row store. It is
// driven by transaction events: an upsert loads the current transaction from
// the database and rewrites its row, a delete removes the row.
type ExportWorker struct {
	store  services.Store
	writer export.RowWriter
}

func NewExportWorker(store services.Store, writer export.RowWriter) *ExportWorker {
	return &ExportWorker{
		store:  store,
		writer: writer,
	}
}

// HandleEvent processes a single transaction event from AMQP.
func (w *ExportWorker) HandleEvent(ctx context.Context, msg *amqp.TransactionEventMessage) error {
	slog.InfoContext(ctx, "Processing transaction event",
		"id", msg.ID,
		"op", msg.Op)

	switch msg.Op {
	case amqp.OpUpsert:
		return w.handleUpsert(ctx, msg.ID)
	case amqp.OpDelete:
		return w.handleDelete(ctx, msg.ID)
	default:
		// Unknown ops are dropped, not requeued.
		slog.WarnContext(ctx, "Ignoring event with unknown op",
			"id", msg.ID,
			"op", msg.Op)
		return nil
	}
}

func (w *ExportWorker) handleUpsert(ctx context.Context, id string) error {
	tx, err := w.store.FindTransactionByID(ctx, id)
	if err != nil {
		return fmt.Errorf("load transaction: %w", err)
	}
	if tx == nil {
		// The transaction was deleted after the event was published. Treat
		// the stale upsert as a removal so the export converges.
		slog.WarnContext(ctx, "Transaction gone before export, removing row", "id", id)
		return w.handleDelete(ctx, id)
	}

	ref, err := w.writer.AppendTransaction(ctx, *tx)
	if err != nil {
		return fmt.Errorf("append transaction row: %w", err)
	}

	slog.InfoContext(ctx, "Exported transaction",
		"id", id,
		"row_ref", ref,
		"amount", tx.Amount.String())

	return nil
}

func (w *ExportWorker) handleDelete(ctx context.Context, id string) error {
	if err := w.writer.RemoveTransaction(ctx, id); err != nil {
		return fmt.Errorf("remove transaction row: %w", err)
	}

	slog.InfoContext(ctx, "Removed exported transaction", "id", id)
	return nil
}

// Resync rewrites every row for the given owner. This is a recovery path for
// lost events or worker downtime.
func (w *ExportWorker) Resync(ctx context.Context, ownerID string) error {
	txs, err := w.store.FindTransactionsByOwner(ctx, ownerID)
	if err != nil {
		return fmt.Errorf("list transactions for owner: %w", err)
	}

	if len(txs) == 0 {
		slog.InfoContext(ctx, "No transactions to resync", "owner_id", ownerID)
		return nil
	}

	successCount := 0
	errorCount := 0

	for _, tx := range txs {
		if _, err := w.writer.AppendTransaction(ctx, tx); err != nil {
			slog.ErrorContext(ctx, "Failed to resync transaction",
				"id", tx.ID,
				"error", err)
			errorCount++
			continue
		}
		successCount++
	}

	slog.InfoContext(ctx, "Resync completed",
		"owner_id", ownerID,
		"total", len(txs),
		"exported", successCount,
		"errors", errorCount)

	return nil
}
