package snapshot

import (
	"context"
	"sync"
	"time"

	"github.com/punchclock/punchclock-backend/pkg/clock"
)

// MemoryStore keeps snapshots in process memory. Snapshots are lost on
// restart; use BoltStore when undo must survive one.
type MemoryStore struct {
	mu        sync.Mutex
	snapshots map[string]Snapshot
	clock     clock.Clock
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore(clk clock.Clock) *MemoryStore {
	return &MemoryStore{
		snapshots: make(map[string]Snapshot),
		clock:     clk,
	}
}

// Put stores a snapshot
func (s *MemoryStore) Put(_ context.Context, key string, snap Snapshot, ttl time.Duration) error {
	snap.ExpiresAt = s.clock.Now().Add(ttl)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[key] = snap
	return nil
}

// Take retrieves and deletes a snapshot
func (s *MemoryStore) Take(_ context.Context, key string) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.snapshots[key]
	if !ok {
		return Snapshot{}, ErrNotFound
	}
	delete(s.snapshots, key)
	if snap.Expired(s.clock.Now()) {
		return Snapshot{}, ErrNotFound
	}
	return snap, nil
}

// Purge removes expired snapshots
func (s *MemoryStore) Purge(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock.Now()
	n := 0
	for key, snap := range s.snapshots {
		if snap.Expired(now) {
			delete(s.snapshots, key)
			n++
		}
	}
	return n, nil
}

// Len returns the number of stored snapshots, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.snapshots)
}
