// Package revocation tracks revoked token IDs (jti) until the tokens would
// have expired anyway.
package revocation

import (
	"errors"
	"sort"
	"sync"
	"time"
)

// ErrClosed is returned by operations on a closed store or manager.
var ErrClosed = errors.New("revocation store is closed")

// Store holds revoked token IDs with their expiry.
type Store interface {
	Add(tokenID string, expiresAt time.Time) error
	Contains(tokenID string) (bool, error)
	Remove(tokenID string) error
	// Cleanup drops expired entries and reports how many were removed.
	Cleanup() (int, error)
	Size() (int, error)
	Close() error
}

type memoryStore struct {
	mu      sync.RWMutex
	entries map[string]time.Time
	maxSize int
	closed  bool
	now     func() time.Time
}

// NewMemoryStore returns a Store bounded to maxSize entries. When full, expired
// entries are purged first, then the tenth of entries expiring soonest.
func NewMemoryStore(maxSize int) Store {
	if maxSize <= 0 {
		maxSize = 100000
	}
	return &memoryStore{
		entries: make(map[string]time.Time, min(maxSize, 1024)),
		maxSize: maxSize,
		now:     time.Now,
	}
}

func (m *memoryStore) Add(tokenID string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	if _, exists := m.entries[tokenID]; !exists && len(m.entries) >= m.maxSize {
		m.purgeLocked(m.now())
		if len(m.entries) >= m.maxSize {
			m.evictLocked(max(m.maxSize/10, 1))
		}
	}

	m.entries[tokenID] = expiresAt
	return nil
}

func (m *memoryStore) Contains(tokenID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return false, ErrClosed
	}

	expiresAt, ok := m.entries[tokenID]
	if !ok {
		return false, nil
	}
	// expired entries stay until Cleanup so reads never take the write lock
	return !m.now().After(expiresAt), nil
}

func (m *memoryStore) Remove(tokenID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	delete(m.entries, tokenID)
	return nil
}

func (m *memoryStore) Cleanup() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0, ErrClosed
	}
	return m.purgeLocked(m.now()), nil
}

func (m *memoryStore) Size() (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return 0, ErrClosed
	}
	return len(m.entries), nil
}

func (m *memoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.entries = nil
	return nil
}

func (m *memoryStore) purgeLocked(now time.Time) int {
	purged := 0
	for id, expiresAt := range m.entries {
		if now.After(expiresAt) {
			delete(m.entries, id)
			purged++
		}
	}
	return purged
}

func (m *memoryStore) evictLocked(count int) {
	type entry struct {
		id        string
		expiresAt time.Time
	}

	all := make([]entry, 0, len(m.entries))
	for id, expiresAt := range m.entries {
		all = append(all, entry{id, expiresAt})
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].expiresAt.Before(all[j].expiresAt)
	})

	for i := 0; i < count && i < len(all); i++ {
		delete(m.entries, all[i].id)
	}
}
