package e2e_test

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alexjbarnes/photo-sync/internal/endpoint"
	"github.com/alexjbarnes/photo-sync/internal/immich"
	"github.com/alexjbarnes/photo-sync/internal/ledger"
	"github.com/alexjbarnes/photo-sync/internal/syncer"
	"github.com/stretchr/testify/require"
)

const (
	testAPIKey  = "e2e-api-key"
	testAlbum   = "Screenshots"
	testAlbumID = "album-e2e"
)

// fakeImmich is an in-memory Immich server covering the endpoints the
// syncer uses. Assets are deduplicated by content checksum.
type fakeImmich struct {
	mu sync.Mutex

	assets    map[string]string // checksum -> asset id
	album     map[string]bool   // asset ids linked into testAlbum
	uploads   []string          // filenames in upload order
	conflicts map[string]bool   // filenames answered with a bare 409
}

func newFakeImmich() *fakeImmich {
	return &fakeImmich{
		assets:    make(map[string]string),
		album:     make(map[string]bool),
		conflicts: make(map[string]bool),
	}
}

func (f *fakeImmich) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/server/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"res":"pong"}`))
	})

	mux.HandleFunc("GET /api/albums", f.authed(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`[{"id":"other","albumName":"Trips"},{"id":"` + testAlbumID + `","albumName":"` + testAlbum + `"}]`))
	}))

	mux.HandleFunc("POST /api/assets", f.authed(func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("assetData")
		if err != nil {
			t.Errorf("reading assetData: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()

		data, _ := io.ReadAll(file)
		sum := sha1.Sum(data)
		checksum := hex.EncodeToString(sum[:])

		f.mu.Lock()
		defer f.mu.Unlock()

		f.uploads = append(f.uploads, header.Filename)

		if f.conflicts[header.Filename] {
			w.WriteHeader(http.StatusConflict)
			return
		}

		if id, ok := f.assets[checksum]; ok {
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{"id": id, "status": "duplicate"})
			return
		}

		id := "asset-" + strings.TrimSuffix(header.Filename, filepath.Ext(header.Filename))
		f.assets[checksum] = id

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{"id": id, "status": "created"})
	}))

	mux.HandleFunc("PUT /api/albums/{id}/assets", f.authed(func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != testAlbumID {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		var req immich.BulkIDsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		f.mu.Lock()
		defer f.mu.Unlock()

		results := make([]immich.BulkIDResponse, 0, len(req.IDs))
		for _, id := range req.IDs {
			if f.album[id] {
				results = append(results, immich.BulkIDResponse{ID: id, Error: "duplicate"})
				continue
			}

			f.album[id] = true
			results = append(results, immich.BulkIDResponse{ID: id, Success: true})
		}

		json.NewEncoder(w).Encode(results)
	}))

	return mux
}

func (f *fakeImmich) authed(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != testAPIKey {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"message":"Invalid API key"}`))
			return
		}

		next(w, r)
	}
}

func (f *fakeImmich) uploaded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]string(nil), f.uploads...)
}

func (f *fakeImmich) albumSize() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.album)
}

// harness runs the real client stack against fakeImmich.
type harness struct {
	Server     *fakeImmich
	URL        string
	SourceDir  string
	LedgerPath string
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	fake := newFakeImmich()
	srv := httptest.NewServer(fake.handler(t))
	t.Cleanup(srv.Close)

	return &harness{
		Server:     fake,
		URL:        srv.URL,
		SourceDir:  t.TempDir(),
		LedgerPath: filepath.Join(t.TempDir(), "immich_upload_history.db"),
	}
}

func (h *harness) writeImage(t *testing.T, name, content string, mtime time.Time) {
	t.Helper()

	path := filepath.Join(h.SourceDir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	require.NoError(t, os.Chtimes(path, mtime, mtime))
}

// run performs one pass the way cmd/photo-sync does, with a fresh
// ledger handle per call to mimic separate invocations.
func (h *harness) run(t *testing.T, endpoints endpoint.Candidates) (syncer.Result, []string, error) {
	t.Helper()

	store, err := ledger.NewBoltStore(h.LedgerPath)
	require.NoError(t, err)

	l, err := ledger.Open(store)
	require.NoError(t, err)
	defer l.Close()

	newAPI := func(baseURL string) syncer.API {
		return immich.NewClient(immich.ClientConfig{
			BaseURL:    baseURL,
			APIKey:     testAPIKey,
			DeviceID:   "photo-sync-e2e",
			HTTPClient: immich.NewHTTPClient(5 * time.Second),
		})
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := syncer.New(syncer.Config{
		Endpoints: endpoints,
		AlbumName: testAlbum,
		SourceDir: h.SourceDir,
	}, immich.NewPinger(200*time.Millisecond), newAPI, l, logger)

	res, err := s.Run(t.Context())

	return res, l.Names(), err
}
