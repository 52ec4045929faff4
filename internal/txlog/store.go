// Package txlog keeps the client-side transaction history: the records the
// browser's history and dashboard views display after a payment succeeds.
// It is a cache of what the backend knows, never the system of record.
package txlog

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/iliyamo/cinema-ticket-portal/internal/model"
)

// MaxEntries caps how many records are kept per user.
const MaxEntries = 100

// Store persists transaction records per user.  Records are returned newest
// first.  Append with an order id that already exists replaces the earlier
// record (last write wins).
type Store interface {
	Append(ctx context.Context, userID int64, tx model.Transaction) error
	List(ctx context.Context, userID int64) ([]model.Transaction, error)
	Replace(ctx context.Context, userID int64, txs []model.Transaction) error
}

// Loader fetches the authoritative history from the backend.
type Loader interface {
	ListTransactions(ctx context.Context) ([]model.Transaction, error)
}

// History fronts a Store as a read-through cache of the backend history.
type History struct {
	store Store
	log   *slog.Logger
}

// NewHistory wraps a store.  A nil logger uses slog.Default().
func NewHistory(s Store, log *slog.Logger) *History {
	if log == nil {
		log = slog.Default()
	}
	return &History{store: s, log: log}
}

// Record appends a record for a user.
func (h *History) Record(ctx context.Context, userID int64, tx model.Transaction) error {
	return h.store.Append(ctx, userID, tx)
}

// List returns the user's records.  When the cache is empty and a loader is
// given, the backend history is fetched and cached.  A failing backend only
// costs the fill; the (empty) cached view is still returned.
func (h *History) List(ctx context.Context, userID int64, loader Loader) ([]model.Transaction, error) {
	cached, err := h.store.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(cached) > 0 || loader == nil {
		return cached, nil
	}
	remote, err := loader.ListTransactions(ctx)
	if err != nil {
		h.log.Warn("transaction history fill failed", "user_id", userID, "error", err)
		return cached, nil
	}
	if len(remote) == 0 {
		return cached, nil
	}
	if err := h.store.Replace(ctx, userID, remote); err != nil {
		h.log.Warn("transaction history cache write failed", "user_id", userID, "error", err)
	}
	return newestFirst(remote), nil
}

// newestFirst orders records by creation time, newest first, and caps them.
func newestFirst(txs []model.Transaction) []model.Transaction {
	out := slices.Clone(txs)
	slices.SortStableFunc(out, func(a, b model.Transaction) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if len(out) > MaxEntries {
		out = out[:MaxEntries]
	}
	return out
}

// MemoryStore is a process-local Store.
type MemoryStore struct {
	mu   sync.Mutex
	data map[int64][]model.Transaction
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: map[int64][]model.Transaction{}}
}

func (m *MemoryStore) Append(_ context.Context, userID int64, tx model.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := slices.DeleteFunc(m.data[userID], func(t model.Transaction) bool { return t.OrderID == tx.OrderID })
	list = append([]model.Transaction{tx}, list...)
	if len(list) > MaxEntries {
		list = list[:MaxEntries]
	}
	m.data[userID] = list
	return nil
}

func (m *MemoryStore) List(_ context.Context, userID int64) ([]model.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.data[userID]), nil
}

func (m *MemoryStore) Replace(_ context.Context, userID int64, txs []model.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[userID] = newestFirst(txs)
	return nil
}
