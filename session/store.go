package session

import (
	"fmt"

	bolt "go.etcd.io/bbolt"
)

// Store persists the last-connected account address between runs. Absence
// is reported as an empty string, not an error.
type Store interface {
	Load() (string, error)
	Save(address string) error
	Clear() error
}

var (
	sessionBucket = []byte("session")
	addressKey    = []byte("address")
)

// BoltStore is a Store backed by a bbolt database file, the durable
// key-value analogue of the browser's local storage.
type BoltStore struct {
	db *bolt.DB
}

// OpenBoltStore opens (or creates) the session database at path.
func OpenBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}
	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Load() (string, error) {
	var address string
	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(sessionBucket)
		if bucket == nil {
			return nil
		}
		if v := bucket.Get(addressKey); v != nil {
			address = string(v)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to load session: %w", err)
	}
	return address, nil
}

func (s *BoltStore) Save(address string) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists(sessionBucket)
		if err != nil {
			return err
		}
		return bucket.Put(addressKey, []byte(address))
	})
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (s *BoltStore) Clear() error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(sessionBucket)
		if bucket == nil {
			return nil
		}
		return bucket.Delete(addressKey)
	})
	if err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// MemStore is an in-memory Store for tests and ephemeral sessions.
type MemStore struct {
	address string
}

func (s *MemStore) Load() (string, error) { return s.address, nil }
func (s *MemStore) Save(a string) error   { s.address = a; return nil }
func (s *MemStore) Clear() error          { s.address = ""; return nil }
