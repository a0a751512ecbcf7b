// Package library enumerates the local images eligible for upload.
package library

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	perrors "github.com/alexjbarnes/photo-sync/internal/errors"
	"golang.org/x/text/unicode/norm"
)

// DefaultExtensions is the built-in image allow-list.
var DefaultExtensions = []string{".png", ".jpg", ".jpeg", ".webp"}

// LocalFile is one candidate image on disk. Name is the ledger identity:
// two files with the same name are the same sync unit regardless of
// their directory or content.
type LocalFile struct {
	Path       string
	Name       string
	Size       int64
	CreatedAt  time.Time
	ModifiedAt time.Time
}

// Filter decides which directory entries are candidates.
type Filter struct {
	exts map[string]struct{}
}

// NewFilter builds a filter from DefaultExtensions plus extra. Matching
// is case-insensitive.
func NewFilter(extra ...string) *Filter {
	f := &Filter{exts: make(map[string]struct{})}

	for _, e := range slices.Concat(DefaultExtensions, extra) {
		f.exts[strings.ToLower(e)] = struct{}{}
	}

	return f
}

// appleDoublePrefix marks the metadata sidecars macOS writes next to
// files on non-HFS volumes. They share the image's extension but hold no
// image data.
const appleDoublePrefix = "._"

// Allow reports whether a file called name is eligible: its extension is
// on the allow-list. AppleDouble "._" sidecars are never eligible.
func (f *Filter) Allow(name string) bool {
	if strings.HasPrefix(name, appleDoublePrefix) {
		return false
	}

	_, ok := f.exts[strings.ToLower(filepath.Ext(name))]

	return ok
}

// Scan lists the eligible files directly inside dir, oldest modification
// time first. Ties keep directory order, which is sorted by name.
// Symlinks are followed. Entries that cannot be stat'd, including
// dangling links, are logged and skipped; only a missing or unreadable
// directory fails the scan.
func Scan(dir string, filter *Filter, logger *slog.Logger) ([]LocalFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", dir, perrors.ErrSourceDirMissing)
		}

		return nil, fmt.Errorf("reading source dir %s: %w", dir, err)
	}

	var files []LocalFile

	for _, d := range entries {
		if d.IsDir() || !filter.Allow(d.Name()) {
			continue
		}

		path := filepath.Join(dir, d.Name())

		// os.Stat follows symlinks, so a linked screenshot is synced with
		// its target's size and times.
		info, err := os.Stat(path)
		if err != nil {
			logger.Warn("stat failed during scan", slog.String("name", d.Name()), slog.String("error", err.Error()))
			continue
		}

		if !info.Mode().IsRegular() {
			logger.Debug("skipping non-regular entry", slog.String("name", d.Name()), slog.String("mode", info.Mode().String()))
			continue
		}

		files = append(files, LocalFile{
			Path:       path,
			Name:       norm.NFC.String(d.Name()),
			Size:       info.Size(),
			CreatedAt:  fileCreated(path, info),
			ModifiedAt: info.ModTime(),
		})
	}

	SortOldestFirst(files)

	return files, nil
}

// SortOldestFirst orders files by ascending modification time. The sort
// is stable.
func SortOldestFirst(files []LocalFile) {
	slices.SortStableFunc(files, func(a, b LocalFile) int {
		return a.ModifiedAt.Compare(b.ModifiedAt)
	})
}
