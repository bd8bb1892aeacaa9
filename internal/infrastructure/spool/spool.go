// Package spool persists audit entries locally while Postgres is unavailable.
package spool

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/teamdo/backend/domain"
)

// Entry is one queued audit row plus delivery bookkeeping.
type Entry struct {
	Key      string          `json:"key"`
	Attempts int             `json:"attempts"`
	QueuedAt time.Time       `json:"queued_at"`
	Log      domain.AuditLog `json:"log"`
}

// Store wraps a BoltDB file holding spooled audit entries in queue order.
type Store struct {
	db     *bolt.DB
	bucket []byte
}

// Open initializes the BoltDB file and ensures the bucket exists.
func Open(path string, bucket string) (*Store, error) {
	if bucket == "" {
		bucket = "audit_spool"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucket))
		return err
	}); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{
		db:     db,
		bucket: []byte(bucket),
	}, nil
}

// Enqueue appends an audit entry. Keys are timestamp-prefixed so a cursor
// walk yields oldest-first delivery.
func (s *Store) Enqueue(entry domain.AuditLog) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	queued := Entry{
		Key:      fmt.Sprintf("%020d_%s", time.Now().UnixNano(), uuid.NewString()),
		QueuedAt: time.Now(),
		Log:      entry,
	}
	payload, err := json.Marshal(queued)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).Put([]byte(queued.Key), payload)
	})
}

// Batch returns up to limit entries without removing them.
func (s *Store) Batch(limit int) ([]Entry, error) {
	if s == nil || s.db == nil {
		return nil, bolt.ErrDatabaseNotOpen
	}
	if limit <= 0 {
		limit = 50
	}

	var entries []Entry
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(s.bucket).Cursor()
		for k, v := c.First(); k != nil && len(entries) < limit; k, v = c.Next() {
			var entry Entry
			if err := json.Unmarshal(v, &entry); err != nil {
				continue
			}
			entries = append(entries, entry)
		}
		return nil
	})
	return entries, err
}

// Remove deletes a delivered entry.
func (s *Store) Remove(key string) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).Delete([]byte(key))
	})
}

// Requeue re-inserts an entry under a fresh key with a bumped attempt count.
func (s *Store) Requeue(entry Entry) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	old := entry.Key
	entry.Key = fmt.Sprintf("%020d_%s", time.Now().UnixNano(), uuid.NewString())
	entry.Attempts++
	payload, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if err := b.Delete([]byte(old)); err != nil {
			return err
		}
		return b.Put([]byte(entry.Key), payload)
	})
}

// Size returns the number of spooled entries.
func (s *Store) Size() (int, error) {
	if s == nil || s.db == nil {
		return 0, bolt.ErrDatabaseNotOpen
	}
	var count int
	err := s.db.View(func(tx *bolt.Tx) error {
		count = tx.Bucket(s.bucket).Stats().KeyN
		return nil
	})
	return count, err
}

// Close closes the Bolt database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Stats exposes Bolt statistics for the health endpoint.
func (s *Store) Stats() bolt.Stats {
	if s == nil || s.db == nil {
		return bolt.Stats{}
	}
	return s.db.Stats()
}
