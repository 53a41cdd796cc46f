package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/punchclock/punchclock-backend/pkg/clock"
	bolt "go.etcd.io/bbolt"
)

var bucketName = []byte("recovery_snapshots")

// BoltStore persists snapshots in a local bbolt file so a pending undo
// survives a restart of the service. Values are JSON-encoded snapshots.
type BoltStore struct {
	db    *bolt.DB
	clock clock.Clock
}

// OpenBoltStore opens (or creates) the database file at path.
func OpenBoltStore(path string, clk clock.Clock) (*BoltStore, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot store %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create snapshot bucket: %w", err)
	}

	return &BoltStore{db: db, clock: clk}, nil
}

// Close closes the underlying database file
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// Put stores a snapshot
func (s *BoltStore) Put(_ context.Context, key string, snap Snapshot, ttl time.Duration) error {
	snap.ExpiresAt = s.clock.Now().Add(ttl)
	value, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).Put([]byte(key), value)
	})
}

// Take retrieves and deletes a snapshot in one write transaction, so two
// concurrent undos cannot both receive it.
func (s *BoltStore) Take(_ context.Context, key string) (Snapshot, error) {
	var snap Snapshot
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName)
		value := b.Get([]byte(key))
		if value == nil {
			return ErrNotFound
		}
		// value is only valid inside the transaction; decode before Delete.
		if err := json.Unmarshal(value, &snap); err != nil {
			return fmt.Errorf("failed to decode snapshot %s: %w", key, err)
		}
		return b.Delete([]byte(key))
	})
	if err != nil {
		return Snapshot{}, err
	}
	if snap.Expired(s.clock.Now()) {
		return Snapshot{}, ErrNotFound
	}
	return snap, nil
}

// Purge removes expired snapshots. Undecodable values are removed as well.
func (s *BoltStore) Purge(_ context.Context) (int, error) {
	now := s.clock.Now()
	n := 0
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName)
		var stale [][]byte
		err := b.ForEach(func(k, v []byte) error {
			var snap Snapshot
			if err := json.Unmarshal(v, &snap); err != nil || snap.Expired(now) {
				stale = append(stale, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		n = len(stale)
		return nil
	})
	return n, err
}
