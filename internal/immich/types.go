package immich

// Album is one entry from GET /api/albums.
type Album struct {
	ID   string `json:"id"`
	Name string `json:"albumName"`
}

// BulkIDsRequest is the payload for PUT /api/albums/{id}/assets.
type BulkIDsRequest struct {
	IDs []string `json:"ids"`
}

// BulkIDResponse is one per-asset result from PUT /api/albums/{id}/assets.
type BulkIDResponse struct {
	ID      string `json:"id"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// bulkErrorDuplicate is the per-asset error the server reports when the
// asset is already in the album.
const bulkErrorDuplicate = "duplicate"

// Failed reports whether the server refused to add the asset for a
// reason other than it already being in the album.
func (r BulkIDResponse) Failed() bool {
	return !r.Success && r.Error != bulkErrorDuplicate
}
