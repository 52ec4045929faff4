package booking

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrDraftNotFound is returned when a session has no wizard in progress.
var ErrDraftNotFound = errors.New("no booking in progress")

// Store keeps wizards between requests, keyed by portal session.  Writes
// are last-write-wins.
type Store interface {
	Load(ctx context.Context, sessionID string) (*Wizard, error)
	Save(ctx context.Context, w *Wizard) error
	Delete(ctx context.Context, sessionID string) error
}

// MemoryStore is a process-local Store used when Redis is unavailable.
type MemoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]memoryEntry
}

type memoryEntry struct {
	w       Wizard
	expires time.Time
}

// NewMemoryStore returns an empty store whose entries expire after ttl.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{ttl: ttl, now: time.Now, entries: map[string]memoryEntry{}}
}

func (m *MemoryStore) Load(_ context.Context, sessionID string) (*Wizard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[sessionID]
	if !ok {
		return nil, ErrDraftNotFound
	}
	if m.ttl > 0 && m.now().After(e.expires) {
		delete(m.entries, sessionID)
		return nil, ErrDraftNotFound
	}
	w := e.w
	w.SelectedSeats = append([]string(nil), e.w.SelectedSeats...)
	return &w, nil
}

func (m *MemoryStore) Save(_ context.Context, w *Wizard) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *w
	cp.SelectedSeats = append([]string(nil), w.SelectedSeats...)
	m.entries[w.SessionID] = memoryEntry{w: cp, expires: m.now().Add(m.ttl)}
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, sessionID)
	return nil
}

// Sweep drops expired entries and returns how many were removed.
func (m *MemoryStore) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	now := m.now()
	for k, e := range m.entries {
		if m.ttl > 0 && now.After(e.expires) {
			delete(m.entries, k)
			n++
		}
	}
	return n
}
