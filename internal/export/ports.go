package export

import (
	"context"

	"partita/internal/core"
)

// Ports for outbound export adapters.
type (
	// RowWriter mirrors ledger transactions into an external row store.
	// AppendTransaction replaces any previously exported row for the same
	// transaction id, so replayed upsert events stay idempotent.
	RowWriter interface {
		AppendTransaction(ctx context.Context, tx core.Transaction) (rowRef string, err error)
		RemoveTransaction(ctx context.Context, id string) error
	}
)
