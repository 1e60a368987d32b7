package services

import (
	"context"
	"time"

	"partita/internal/core"
)

// Store is the persistence collaborator. Lookups return (nil, nil) when the
// entity is absent; the services map absence to operational errors. The
// engine is assumed to provide atomic single-row reads and writes; no
// locking happens at this layer.
type Store interface {
	FindUserByID(ctx context.Context, id string) (*core.User, error)
	FindUserByEmail(ctx context.Context, email string) (*core.User, error)
	SaveUser(ctx context.Context, user *core.User) error

	FindTransactionByID(ctx context.Context, id string) (*core.Transaction, error)
	FindTransactionsByOwner(ctx context.Context, ownerID string) ([]core.Transaction, error)
	SaveTransaction(ctx context.Context, tx *core.Transaction) error
	DeleteTransaction(ctx context.Context, id string) error

	SaveSession(ctx context.Context, tokenDigest, userID string, expiresAt time.Time) error
	FindUserBySession(ctx context.Context, tokenDigest string) (*core.User, error)
	DeleteExpiredSessions(ctx context.Context) error
}

// EventPublisher emits export events after a successful write. Publishing is
// best effort: a failure is logged, never surfaced to the caller.
type EventPublisher interface {
	PublishTransactionUpsert(ctx context.Context, id string) error
	PublishTransactionDelete(ctx context.Context, id string) error
}
