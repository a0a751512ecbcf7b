package syncer

import (
	"context"
	"errors"
	"testing"

	perrors "github.com/alexjbarnes/photo-sync/internal/errors"
	"github.com/alexjbarnes/photo-sync/internal/immich"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestLocateAlbum(t *testing.T) {
	albums := []immich.Album{
		{ID: "a1", Name: "Trips"},
		{ID: "a2", Name: "Screenshots"},
		{ID: "a3", Name: "Screenshots"},
		{ID: "a4", Name: "screenshots"},
	}

	tests := []struct {
		name    string
		album   string
		wantID  string
		wantErr error
	}{
		{"exact match", "Trips", "a1", nil},
		{"first duplicate wins", "Screenshots", "a2", nil},
		{"case sensitive", "screenshots", "a4", nil},
		{"no trimming", " Trips", "", perrors.ErrAlbumNotFound},
		{"missing", "Work", "", perrors.ErrAlbumNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := NewMockAPI(gomock.NewController(t))
			api.EXPECT().ListAlbums(gomock.Any()).Return(albums, nil)

			id, err := LocateAlbum(context.Background(), api, tt.album, discardLogger())
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Contains(t, err.Error(), tt.album)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantID, id)
		})
	}
}

func TestLocateAlbum_EmptyServer(t *testing.T) {
	api := NewMockAPI(gomock.NewController(t))
	api.EXPECT().ListAlbums(gomock.Any()).Return(nil, nil)

	_, err := LocateAlbum(context.Background(), api, "Screenshots", discardLogger())
	assert.ErrorIs(t, err, perrors.ErrAlbumNotFound)
}

func TestLocateAlbum_ListingError(t *testing.T) {
	api := NewMockAPI(gomock.NewController(t))
	api.EXPECT().ListAlbums(gomock.Any()).Return(nil, errors.New("connection reset"))

	_, err := LocateAlbum(context.Background(), api, "Screenshots", discardLogger())
	require.Error(t, err)
	assert.NotErrorIs(t, err, perrors.ErrAlbumNotFound)
	assert.Contains(t, err.Error(), "fetching albums")
}
