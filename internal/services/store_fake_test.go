package services

import (
	"context"
	"time"

	"partita/internal/core"
)

// fakeStore is an in-memory Store for service tests.
type fakeStore struct {
	users        map[string]*core.User
	transactions map[string]*core.Transaction
	sessions     map[string]fakeSession

	saveTransactionErr error
	savedTransactions  int
}

type fakeSession struct {
	userID    string
	expiresAt time.Time
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:        make(map[string]*core.User),
		transactions: make(map[string]*core.Transaction),
		sessions:     make(map[string]fakeSession),
	}
}

func (f *fakeStore) addUser(u core.User) {
	f.users[u.ID] = &u
}

func (f *fakeStore) FindUserByID(_ context.Context, id string) (*core.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, nil
	}
	copied := *u
	return &copied, nil
}

func (f *fakeStore) FindUserByEmail(_ context.Context, email string) (*core.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) SaveUser(_ context.Context, user *core.User) error {
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeStore) FindTransactionByID(_ context.Context, id string) (*core.Transaction, error) {
	tx, ok := f.transactions[id]
	if !ok {
		return nil, nil
	}
	copied := *tx
	return &copied, nil
}

func (f *fakeStore) FindTransactionsByOwner(_ context.Context, ownerID string) ([]core.Transaction, error) {
	var out []core.Transaction
	for _, tx := range f.transactions {
		if tx.OwnerID == ownerID {
			out = append(out, *tx)
		}
	}
	return out, nil
}

func (f *fakeStore) SaveTransaction(_ context.Context, tx *core.Transaction) error {
	if f.saveTransactionErr != nil {
		return f.saveTransactionErr
	}
	copied := *tx
	f.transactions[tx.ID] = &copied
	f.savedTransactions++
	return nil
}

func (f *fakeStore) DeleteTransaction(_ context.Context, id string) error {
	delete(f.transactions, id)
	return nil
}

func (f *fakeStore) SaveSession(_ context.Context, tokenDigest, userID string, expiresAt time.Time) error {
	f.sessions[tokenDigest] = fakeSession{userID: userID, expiresAt: expiresAt}
	return nil
}

func (f *fakeStore) FindUserBySession(ctx context.Context, tokenDigest string) (*core.User, error) {
	s, ok := f.sessions[tokenDigest]
	if !ok || !s.expiresAt.After(time.Now()) {
		return nil, nil
	}
	return f.FindUserByID(ctx, s.userID)
}

func (f *fakeStore) DeleteExpiredSessions(_ context.Context) error {
	for digest, s := range f.sessions {
		if !s.expiresAt.After(time.Now()) {
			delete(f.sessions, digest)
		}
	}
	return nil
}

// recordingPublisher captures export events for assertions.
type recordingPublisher struct {
	upserts []string
	deletes []string
}

func (p *recordingPublisher) PublishTransactionUpsert(_ context.Context, id string) error {
	p.upserts = append(p.upserts, id)
	return nil
}

func (p *recordingPublisher) PublishTransactionDelete(_ context.Context, id string) error {
	p.deletes = append(p.deletes, id)
	return nil
}
