package syncer

import (
	"context"
	"fmt"
	"log/slog"

	perrors "github.com/alexjbarnes/photo-sync/internal/errors"
	"github.com/alexjbarnes/photo-sync/internal/immich"
)

// albumLister is the part of API the locator uses.
type albumLister interface {
	ListAlbums(ctx context.Context) ([]immich.Album, error)
}

// LocateAlbum returns the id of the album named exactly name. If the
// server has several albums with that name, the first one listed wins;
// the server does not guarantee list order.
func LocateAlbum(ctx context.Context, api albumLister, name string, logger *slog.Logger) (string, error) {
	albums, err := api.ListAlbums(ctx)
	if err != nil {
		return "", fmt.Errorf("fetching albums: %w", err)
	}

	for _, a := range albums {
		if a.Name == name {
			return a.ID, nil
		}
	}

	names := make([]string, 0, len(albums))
	for _, a := range albums {
		names = append(names, a.Name)
	}

	logger.Debug("album not among server albums", slog.Any("available", names))

	return "", fmt.Errorf("%q: %w", name, perrors.ErrAlbumNotFound)
}
