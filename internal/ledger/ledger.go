// Package ledger records which local files have already been synced.
//
// A ledger is a monotonically growing set of filenames. Every commit is
// persisted before it returns, so an interrupted run loses at most the
// file that was in flight.
package ledger

import (
	"fmt"
	"slices"

	mapset "github.com/deckarep/golang-set/v2"
	"golang.org/x/text/unicode/norm"
)

// Store persists the ledger's contents. Save receives the complete,
// sorted list of names and must replace the previous contents
// atomically.
type Store interface {
	Load() ([]string, error)
	Save(names []string) error
	Close() error
}

// Ledger is the in-memory view of a Store.
type Ledger struct {
	store Store
	names mapset.Set[string]
}

// Open loads the store's contents into a new Ledger. A store with no
// prior state yields an empty ledger.
func Open(store Store) (*Ledger, error) {
	names, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("loading ledger: %w", err)
	}

	return &Ledger{
		store: store,
		names: mapset.NewSet(names...),
	}, nil
}

// Contains reports whether name has been committed. Names are compared
// in both composed and decomposed Unicode forms, since history files
// written on macOS hold decomposed names.
func (l *Ledger) Contains(name string) bool {
	return l.names.Contains(name) ||
		l.names.Contains(norm.NFC.String(name)) ||
		l.names.Contains(norm.NFD.String(name))
}

// Commit adds name and persists the full ledger. Committing a name that
// is already present, in either Unicode form, is a no-op. If persisting fails the name is not
// kept, so Contains only ever reports durable entries.
func (l *Ledger) Commit(name string) error {
	if l.Contains(name) {
		return nil
	}

	l.names.Add(name)

	if err := l.store.Save(l.Names()); err != nil {
		l.names.Remove(name)
		return fmt.Errorf("saving ledger: %w", err)
	}

	return nil
}

// Len returns the number of committed names.
func (l *Ledger) Len() int {
	return l.names.Cardinality()
}

// Names returns the committed names in sorted order.
func (l *Ledger) Names() []string {
	names := l.names.ToSlice()
	slices.Sort(names)

	return names
}

// Close releases the underlying store.
func (l *Ledger) Close() error {
	return l.store.Close()
}
