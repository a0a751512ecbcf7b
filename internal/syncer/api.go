package syncer

//go:generate mockgen -source=api.go -destination=mock_api_test.go -package=syncer

import (
	"context"

	"github.com/alexjbarnes/photo-sync/internal/immich"
	"github.com/alexjbarnes/photo-sync/internal/library"
)

// API is the subset of immich.Client a run needs. Extracted for
// testability.
type API interface {
	ListAlbums(ctx context.Context) ([]immich.Album, error)
	UploadAsset(ctx context.Context, f library.LocalFile) (immich.Outcome, error)
	AddAssetsToAlbum(ctx context.Context, albumID string, assetIDs []string) ([]immich.BulkIDResponse, error)
}

// APIFactory builds an API bound to the base URL chosen for a run.
type APIFactory func(baseURL string) API

var _ API = (*immich.Client)(nil)
