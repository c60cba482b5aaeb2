package dedup

import (
	"context"
	"sync"
	"time"
)

// MemoryIndex is an in-process Index. It is the default when no Redis address
// is configured and is only correct for a single server instance.
type MemoryIndex struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	id        string
	expiresAt time.Time
}

var _ Index = (*MemoryIndex)(nil)

// NewMemoryIndex creates an empty index. now may be nil (time.Now is used);
// tests pass a fake clock so they can step past the window without sleeping.
func NewMemoryIndex(now func() time.Time) *MemoryIndex {
	if now == nil {
		now = time.Now
	}
	return &MemoryIndex{
		entries: make(map[string]memoryEntry),
		now:     now,
	}
}

func (m *MemoryIndex) Lookup(_ context.Context, fingerprint string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[fingerprint]
	if !ok {
		return "", false, nil
	}
	if !m.now().Before(e.expiresAt) {
		delete(m.entries, fingerprint)
		return "", false, nil
	}
	return e.id, true, nil
}

func (m *MemoryIndex) Remember(_ context.Context, fingerprint, id string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.sweep(now)
	m.entries[fingerprint] = memoryEntry{id: id, expiresAt: now.Add(ttl)}
	return nil
}

// sweep drops expired entries so the map stays bounded by the number of
// submissions per window. Caller holds mu.
func (m *MemoryIndex) sweep(now time.Time) {
	for k, e := range m.entries {
		if !now.Before(e.expiresAt) {
			delete(m.entries, k)
		}
	}
}

// Len reports the number of live and not-yet-swept entries.
func (m *MemoryIndex) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
