package store

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog/log"

	"github.com/escapekit/escapekit/go/internal/state"
)

const (
	credentialsKey = "user"
	snapshotKey    = "localErState"
)

// ErrNotFound is returned when the namespace holds no value for a key.
var ErrNotFound = errors.New("not found")

// Store persists the local replica (credentials + ER state) in a Badger
// database. All keys live under a configurable namespace so several rooms
// can share one database file.
type Store struct {
	db        *badger.DB
	namespace string
}

// Config holds storage configuration.
type Config struct {
	Path      string
	Namespace string
	InMemory  bool
}

// DefaultConfig returns default storage configuration.
func DefaultConfig() Config {
	return Config{
		Path:      "escapekit.db",
		Namespace: "ESCAPP",
	}
}

// Open opens (or creates) the local database.
func Open(cfg Config) (*Store, error) {
	if cfg.Namespace == "" {
		cfg.Namespace = DefaultConfig().Namespace
	}
	opts := badger.DefaultOptions(cfg.Path)
	opts.Logger = nil // Badger's own logging is too chatty for a client library
	opts.SyncWrites = true
	if cfg.InMemory {
		opts = opts.WithInMemory(true)
		opts.SyncWrites = false
		opts.Dir = ""
		opts.ValueDir = ""
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}

	log.Debug().Str("path", cfg.Path).Str("namespace", cfg.Namespace).Msg("local store opened")
	return &Store{db: db, namespace: cfg.Namespace}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) key(name string) []byte {
	return []byte(s.namespace + ":" + name)
}

func (s *Store) put(name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(s.key(name), data)
	})
}

func (s *Store) get(name string, v any) error {
	return s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(s.key(name))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get %s: %w", name, err)
		}
		return item.Value(func(data []byte) error {
			return json.Unmarshal(data, v)
		})
	})
}

func (s *Store) delete(name string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(s.key(name))
	})
}

// SaveCredentials persists the user identity.
func (s *Store) SaveCredentials(c *state.Credentials) error {
	return s.put(credentialsKey, c)
}

// Credentials loads the persisted user identity.
// Returns ErrNotFound when no user has authenticated yet.
func (s *Store) Credentials() (*state.Credentials, error) {
	var c state.Credentials
	if err := s.get(credentialsKey, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// DeleteCredentials drops the persisted identity, keeping the ER state.
func (s *Store) DeleteCredentials() error {
	return s.delete(credentialsKey)
}

// SaveSnapshot persists the local ER state. Invalid snapshots are replaced by
// the default empty state before persisting; an invalid value is never stored.
func (s *Store) SaveSnapshot(snap *state.Snapshot) error {
	if !snap.Valid() {
		snap = state.Default()
	}
	return s.put(snapshotKey, snap)
}

// Snapshot loads the persisted ER state. A missing or malformed value yields
// the default empty state rather than an error.
func (s *Store) Snapshot() (*state.Snapshot, error) {
	var snap state.Snapshot
	err := s.get(snapshotKey, &snap)
	if errors.Is(err, ErrNotFound) {
		return state.Default(), nil
	}
	if err != nil {
		return nil, err
	}
	if !snap.Valid() {
		return state.Default(), nil
	}
	return &snap, nil
}

// Clear wipes every key under the namespace. Used on full reset.
func (s *Store) Clear() error {
	prefix := []byte(s.namespace + ":")
	return s.db.Update(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: prefix})
		defer it.Close()

		var keys [][]byte
		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		for _, k := range keys {
			if err := txn.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}
