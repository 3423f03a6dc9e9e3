// Package memstore is the memory-only nonce store fallback. It satisfies
// Store's atomicity contract within one process but forfeits replay
// protection across restarts, per spec §4.5.5.
package memstore

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	expiresAt time.Time
}

// Store is a map+mutex nonce store with lazy TTL sweep: expired entries are
// evicted opportunistically on Insert and explicitly on Sweep.
type Store struct {
	mu      sync.Mutex
	nonces  map[string]entry
	nowFunc func() time.Time
}

// New constructs an empty in-memory nonce store.
func New() *Store {
	return &Store{
		nonces:  make(map[string]entry),
		nowFunc: time.Now,
	}
}

// Insert atomically records nonce if, and only if, it is absent or expired.
func (s *Store) Insert(ctx context.Context, nonce string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.nowFunc()
	if e, ok := s.nonces[nonce]; ok && e.expiresAt.After(now) {
		return false, nil
	}

	s.nonces[nonce] = entry{expiresAt: now.Add(ttl)}
	return true, nil
}

// Sweep removes every expired entry.
func (s *Store) Sweep(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.nowFunc()
	for k, e := range s.nonces {
		if !e.expiresAt.After(now) {
			delete(s.nonces, k)
		}
	}
	return nil
}

// Len reports the current entry count, including not-yet-swept expired
// entries. Exposed for tests.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.nonces)
}
