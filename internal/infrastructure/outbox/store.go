// Package outbox persists emails whose delivery failed so a background
// drain can retry them. Losing an activation email otherwise strands the
// user until they re-trigger the flow.
package outbox

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/altenshop/backend/internal/mailer"
)

// Entry is a stashed message plus retry bookkeeping.
type Entry struct {
	ID        string         `json:"id"`
	Message   mailer.Message `json:"message"`
	Attempts  int            `json:"attempts"`
	StashedAt time.Time      `json:"stashed_at"`

	bucketKey []byte
}

// Store wraps BoltDB to keep undelivered mail across restarts.
type Store struct {
	db     *bolt.DB
	bucket []byte
}

// Open initializes the BoltDB file and ensures the bucket exists.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}

	bucket := []byte("outbox")
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucket)
		return err
	}); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, bucket: bucket}, nil
}

// Stash satisfies mailer.Outbox.
func (s *Store) Stash(msg mailer.Message) error {
	return s.Put(Entry{Message: msg})
}

// Put persists an entry, keyed by stash time so drains run oldest-first.
func (s *Store) Put(entry Entry) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.StashedAt.IsZero() {
		entry.StashedAt = time.Now()
	}
	entry.bucketKey = []byte(fmt.Sprintf("%020d_%s", entry.StashedAt.UnixNano(), entry.ID))

	payload, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).Put(entry.bucketKey, payload)
	})
}

// Batch returns up to limit entries without removing them.
func (s *Store) Batch(limit int) ([]Entry, error) {
	if s == nil || s.db == nil {
		return nil, bolt.ErrDatabaseNotOpen
	}
	if limit <= 0 {
		limit = 25
	}

	var entries []Entry
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(s.bucket).Cursor()
		for k, v := c.First(); k != nil && len(entries) < limit; k, v = c.Next() {
			var entry Entry
			if err := json.Unmarshal(v, &entry); err != nil {
				continue
			}
			entry.bucketKey = append([]byte(nil), k...)
			entries = append(entries, entry)
		}
		return nil
	})
	return entries, err
}

// Remove deletes the entry.
func (s *Store) Remove(entry Entry) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).Delete(entry.bucketKey)
	})
}

// Requeue re-inserts an entry with a bumped attempt count and timestamp.
// Insert and delete happen in one transaction so a failure cannot drop the
// message.
func (s *Store) Requeue(entry Entry) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}

	oldKey := entry.bucketKey
	entry.Attempts++
	entry.StashedAt = time.Now()
	entry.bucketKey = []byte(fmt.Sprintf("%020d_%s", entry.StashedAt.UnixNano(), entry.ID))

	payload, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if err := b.Put(entry.bucketKey, payload); err != nil {
			return err
		}
		if bytes.Equal(oldKey, entry.bucketKey) {
			return nil
		}
		return b.Delete(oldKey)
	})
}

// Size returns the number of stashed entries.
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
