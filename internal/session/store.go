package session

import (
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

var (
	sessionBucket = []byte("session")
	tokenKey      = []byte("token")
)

// Store persists the bearer credential between runs using a BoltDB backend.
// It holds exactly one key; the credential is the client's only durable
// state. The database file is created with 0600 permissions if it doesn't
// exist.
type Store struct {
	db *bolt.DB
}

// NewStore opens the credential store at the specified file path and
// initializes the session bucket.
func NewStore(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(sessionBucket)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to init session store: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the stored credential, or an empty string when none is stored.
func (s *Store) Get() (string, error) {
	var token string
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(sessionBucket)
		if b == nil {
			return nil
		}
		if v := b.Get(tokenKey); v != nil {
			token = string(v)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to read credential: %w", err)
	}
	return token, nil
}

// Set stores the credential, replacing any previous one. It is written once
// per login.
func (s *Store) Set(token string) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(sessionBucket)
		if b == nil {
			return fmt.Errorf("session bucket missing")
		}
		return b.Put(tokenKey, []byte(token))
	})
	if err != nil {
		return fmt.Errorf("failed to store credential: %w", err)
	}
	return nil
}

// Clear removes the credential. Clearing an empty store is a no-op.
func (s *Store) Clear() error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(sessionBucket)
		if b == nil {
			return nil
		}
		return b.Delete(tokenKey)
	})
	if err != nil {
		return fmt.Errorf("failed to clear credential: %w", err)
	}
	return nil
}
