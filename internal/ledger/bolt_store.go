package ledger

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	perrors "github.com/alexjbarnes/photo-sync/internal/errors"
	bolt "go.etcd.io/bbolt"
	berrors "go.etcd.io/bbolt/errors"
)

const (
	// boltFilePerm is the permission mode for the ledger database file.
	boltFilePerm = fs.FileMode(0o600)

	// boltOpenTimeout is the maximum time to wait for the bolt database lock.
	boltOpenTimeout = 2 * time.Second
)

var uploadedBucket = []byte("uploaded")

// BoltStore keeps the ledger in a bbolt database, one key per filename.
// bbolt's own file lock keeps a second process out while it is open.
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore opens or creates the database at path. It returns
// ErrLedgerLocked if another process has the database open.
func NewBoltStore(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating ledger directory: %w", err)
	}

	db, err := bolt.Open(path, boltFilePerm, &bolt.Options{Timeout: boltOpenTimeout})
	if err != nil {
		if errors.Is(err, berrors.ErrTimeout) {
			return nil, fmt.Errorf("%s: %w", path, perrors.ErrLedgerLocked)
		}

		return nil, fmt.Errorf("opening ledger db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(uploadedBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing ledger db: %w", err)
	}

	return &BoltStore{db: db}, nil
}

// Load returns every committed name in key order.
func (s *BoltStore) Load() ([]string, error) {
	var names []string

	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(uploadedBucket).ForEach(func(k, _ []byte) error {
			names = append(names, string(k))
			return nil
		})
	})

	return names, err
}

// Save writes names in a single transaction. Each key's value is the
// time it was first committed; existing keys are left alone and nothing
// is deleted since the ledger only grows.
func (s *BoltStore) Save(names []string) error {
	now := []byte(time.Now().UTC().Format(time.RFC3339))

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(uploadedBucket)

		for _, name := range names {
			if b.Get([]byte(name)) != nil {
				continue
			}

			if err := b.Put([]byte(name), now); err != nil {
				return err
			}
		}

		return nil
	})
}

// Close closes the database.
func (s *BoltStore) Close() error {
	return s.db.Close()
}
