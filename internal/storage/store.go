package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

var prefsBucket = []byte("prefs")

const (
	BookmarksKey = "bookmarks"
	DarkModeKey  = "darkMode"
)

// Store is a small persistent key-value store backed by bbolt. Every Set is
// its own transaction and is on disk by the time it returns.
type Store struct {
	db *bolt.DB
}

func NewStore(dbPath string) (*Store, error) {
	return NewStoreWithTimeout(dbPath, 1*time.Second)
}

func NewStoreWithTimeout(dbPath string, timeout time.Duration) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := bolt.Open(dbPath, 0o600, &bolt.Options{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, createErr := tx.CreateBucketIfNotExists(prefsBucket)
		return createErr
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Get returns a copy of the value stored under key, or nil if there is none.
func (s *Store) Get(key string) ([]byte, error) {
	if s == nil || s.db == nil {
		return nil, &PersistenceError{Op: "get", Key: key, Err: ErrStoreClosed}
	}

	var out []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(prefsBucket).Get([]byte(key))
		if data != nil {
			out = append([]byte(nil), data...)
		}
		return nil
	})
	if err != nil {
		return nil, &PersistenceError{Op: "get", Key: key, Err: err}
	}
	return out, nil
}

func (s *Store) Set(key string, value []byte) error {
	if s == nil || s.db == nil {
		return &PersistenceError{Op: "set", Key: key, Err: ErrStoreClosed}
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(prefsBucket).Put([]byte(key), value)
	})
	if err != nil {
		return &PersistenceError{Op: "set", Key: key, Err: err}
	}
	return nil
}

// DarkMode reads the theme flag. Missing or malformed data means light mode.
func (s *Store) DarkMode() bool {
	data, err := s.Get(DarkModeKey)
	if err != nil || data == nil {
		return false
	}
	var dark bool
	if err := json.Unmarshal(data, &dark); err != nil {
		return false
	}
	return dark
}

func (s *Store) SetDarkMode(dark bool) error {
	data, err := json.Marshal(dark)
	if err != nil {
		return err
	}
	return s.Set(DarkModeKey, data)
}
