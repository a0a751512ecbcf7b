package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	perrors "github.com/alexjbarnes/photo-sync/internal/errors"
	"github.com/gofrs/flock"
)

// ledgerFilePerm is the permission mode for the JSON ledger file.
const ledgerFilePerm = fs.FileMode(0o644)

// FileStore keeps the ledger as a pretty-printed JSON array of names.
// An exclusive lock on "<path>.lock" is held from construction until
// Close so two runs cannot interleave their rewrites. The lock file is
// created once and never removed.
type FileStore struct {
	path string
	lock *flock.Flock
}

// NewFileStore locks the ledger at path. It returns ErrLedgerLocked if
// another process holds the lock.
func NewFileStore(path string) (*FileStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating ledger directory: %w", err)
		}
	}

	lock := flock.New(path + ".lock")

	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("locking ledger: %w", err)
	}

	if !locked {
		return nil, fmt.Errorf("%s: %w", path, perrors.ErrLedgerLocked)
	}

	return &FileStore{path: path, lock: lock}, nil
}

// Path returns the ledger file path.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the ledger file. A missing file is an empty ledger; a file
// that is present but not a JSON array of strings is an error.
func (s *FileStore) Load() ([]string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}

		return nil, fmt.Errorf("reading %s: %w", s.path, err)
	}

	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", s.path, err)
	}

	return names, nil
}

// Save rewrites the whole file through a temp file and rename, so a
// crash leaves either the old or the new list on disk.
func (s *FileStore) Save(names []string) error {
	if names == nil {
		names = []string{}
	}

	data, err := json.MarshalIndent(names, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding ledger: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}

	tmpPath := tmp.Name()
	committed := false

	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("writing temp file: %w", err)
	}

	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("syncing temp file: %w", err)
	}

	if err := tmp.Chmod(ledgerFilePerm); err != nil {
		return fmt.Errorf("setting ledger permissions: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("replacing %s: %w", s.path, err)
	}

	committed = true

	return nil
}

// Close releases the lock. The lock file stays on disk: removing it
// would let a process still holding the old inode lock it alongside a
// process that creates a fresh one.
func (s *FileStore) Close() error {
	if !s.lock.Locked() {
		return nil
	}

	if err := s.lock.Unlock(); err != nil {
		return fmt.Errorf("unlocking ledger: %w", err)
	}

	return nil
}
