// Package syncer drives one-way uploads from a local directory into an
// Immich album.
//
// A run resolves an endpoint, locates the album, scans the source
// directory, and then handles each file not yet in the ledger strictly
// one at a time: upload, link into the album, commit to the ledger.
// The ledger commit happens right after each file so an interrupted run
// only ever repeats the file that was in flight.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/alexjbarnes/photo-sync/internal/endpoint"
	"github.com/alexjbarnes/photo-sync/internal/immich"
	"github.com/alexjbarnes/photo-sync/internal/ledger"
	"github.com/alexjbarnes/photo-sync/internal/library"
	"github.com/dustin/go-humanize"
)

// State is a step of a run.
type State int

const (
	StateInit State = iota
	StateResolving
	StateLocating
	StateScanning
	StateUploading
	StateLinking
	StateCommitting
	StateDone
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateResolving:
		return "resolving"
	case StateLocating:
		return "locating"
	case StateScanning:
		return "scanning"
	case StateUploading:
		return "uploading"
	case StateLinking:
		return "linking"
	case StateCommitting:
		return "committing"
	case StateDone:
		return "done"
	case StateAborted:
		return "aborted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// AbortError reports a run that stopped before processing any file
// because it could not proceed: no endpoint, no album, or no readable
// source directory. These are expected conditions; the ledger is left
// exactly as it was loaded.
type AbortError struct {
	State State
	Err   error
}

func (e *AbortError) Error() string {
	return fmt.Sprintf("run aborted while %s: %v", e.State, e.Err)
}

func (e *AbortError) Unwrap() error { return e.Err }

// IsAborted reports whether err (or any error in its chain) is an
// AbortError.
func IsAborted(err error) bool {
	var ae *AbortError
	return errors.As(err, &ae)
}

// Config is the per-process run configuration.
type Config struct {
	Endpoints endpoint.Candidates
	AlbumName string
	SourceDir string
	// Filter selects eligible files. Nil means the default allow-list.
	Filter *library.Filter
}

// Result counts what a run did.
type Result struct {
	Endpoint string
	AlbumID  string
	// Uploaded counts files committed to the ledger this run.
	Uploaded int
	// Skipped counts files already in the ledger.
	Skipped int
	// Failed counts files left uncommitted for a later run.
	Failed int
	// LinkFailed counts committed files that could not be added to the
	// album.
	LinkFailed int
}

// Syncer runs sync passes. It is not safe for concurrent use; callers
// serialize runs.
type Syncer struct {
	cfg    Config
	pinger endpoint.Pinger
	newAPI APIFactory
	ledger *ledger.Ledger
	logger *slog.Logger
}

// New creates a Syncer.
func New(cfg Config, pinger endpoint.Pinger, newAPI APIFactory, l *ledger.Ledger, logger *slog.Logger) *Syncer {
	if cfg.Filter == nil {
		cfg.Filter = library.NewFilter()
	}

	return &Syncer{
		cfg:    cfg,
		pinger: pinger,
		newAPI: newAPI,
		ledger: l,
		logger: logger,
	}
}

func (s *Syncer) enter(state State) {
	s.logger.Debug("sync state", slog.String("state", state.String()))
}

func (s *Syncer) abort(state State, err error) error {
	s.enter(StateAborted)
	return &AbortError{State: state, Err: err}
}

// Run performs one pass. It returns an *AbortError when the run could
// not start processing files, ctx.Err() when interrupted between files,
// and any other error only when the ledger could not be written.
// Per-file upload and link failures are logged and counted, never
// returned.
func (s *Syncer) Run(ctx context.Context) (Result, error) {
	var res Result

	s.enter(StateInit)

	s.enter(StateResolving)

	baseURL, err := endpoint.Resolve(ctx, s.pinger, s.cfg.Endpoints, s.logger)
	if err != nil {
		s.logger.Error("could not connect to any server",
			slog.String("primary", s.cfg.Endpoints.Primary),
			slog.String("fallback", s.cfg.Endpoints.Fallback),
		)

		return res, s.abort(StateResolving, err)
	}

	res.Endpoint = baseURL
	api := s.newAPI(baseURL)

	s.enter(StateLocating)
	s.logger.Info("looking for album", slog.String("album", s.cfg.AlbumName))

	albumID, err := LocateAlbum(ctx, api, s.cfg.AlbumName, s.logger)
	if err != nil {
		s.logger.Error("album lookup failed",
			slog.String("album", s.cfg.AlbumName),
			slog.String("error", err.Error()),
		)

		return res, s.abort(StateLocating, err)
	}

	res.AlbumID = albumID

	s.enter(StateScanning)

	files, err := library.Scan(s.cfg.SourceDir, s.cfg.Filter, s.logger)
	if err != nil {
		s.logger.Error("scanning source directory failed",
			slog.String("dir", s.cfg.SourceDir),
			slog.String("error", err.Error()),
		)

		return res, s.abort(StateScanning, err)
	}

	s.logger.Debug("scan complete",
		slog.Int("candidates", len(files)),
		slog.Int("ledger", s.ledger.Len()),
	)

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			s.logSummary(res)
			return res, err
		}

		if s.ledger.Contains(f.Name) {
			res.Skipped++
			continue
		}

		committed, err := s.syncFile(ctx, api, albumID, f, &res)
		if err != nil {
			s.logSummary(res)
			return res, err
		}

		if committed {
			res.Uploaded++
		}
	}

	s.enter(StateDone)
	s.logSummary(res)

	return res, nil
}

// syncFile uploads, links, and commits one file. It reports whether the
// file was committed. The only error it returns is a ledger write
// failure, which stops the run.
func (s *Syncer) syncFile(ctx context.Context, api API, albumID string, f library.LocalFile, res *Result) (bool, error) {
	logger := s.logger.With(slog.String("file", f.Name))

	s.enter(StateUploading)
	logger.Info("uploading", slog.String("size", humanize.Bytes(uint64(f.Size))))

	outcome, err := api.UploadAsset(ctx, f)
	if err != nil || !outcome.Synced() {
		res.Failed++

		if err == nil {
			err = errors.New("upload not accepted")
		}

		logger.Error("upload failed, will retry next run",
			slog.String("error", err.Error()),
			slog.Bool("transient", immich.IsTransient(err)),
		)

		return false, nil
	}

	switch outcome.Kind() {
	case immich.OutcomeDeduplicated:
		logger.Warn("file exists on server (deduplicated)")
	case immich.OutcomeRejectedDuplicate:
		logger.Warn("duplicate rejected by server")
	}

	if assetID, ok := outcome.AssetID(); ok {
		s.enter(StateLinking)

		if !s.link(ctx, api, albumID, assetID, logger) {
			res.LinkFailed++
		}
	} else {
		logger.Debug("no asset id returned, skipping album link")
	}

	s.enter(StateCommitting)

	if err := s.ledger.Commit(f.Name); err != nil {
		logger.Error("recording upload in ledger failed", slog.String("error", err.Error()))
		return false, fmt.Errorf("committing %s: %w", f.Name, err)
	}

	logger.Debug("committed", slog.String("outcome", outcome.String()))

	return true, nil
}

// link adds assetID to the album. Failures are logged and reported as
// false; they never undo the upload's ledger commit.
func (s *Syncer) link(ctx context.Context, api API, albumID, assetID string, logger *slog.Logger) bool {
	results, err := api.AddAssetsToAlbum(ctx, albumID, []string{assetID})
	if err != nil {
		logger.Error("failed to link to album",
			slog.String("asset_id", assetID),
			slog.String("error", err.Error()),
		)

		return false
	}

	for _, r := range results {
		if r.Failed() {
			logger.Error("server refused album link",
				slog.String("asset_id", r.ID),
				slog.String("reason", r.Error),
			)

			return false
		}
	}

	logger.Info("added to album", slog.String("asset_id", assetID))

	return true
}

func (s *Syncer) logSummary(res Result) {
	attrs := []any{
		slog.Int("uploaded", res.Uploaded),
		slog.Int("skipped", res.Skipped),
		slog.Int("failed", res.Failed),
		slog.Int("link_failed", res.LinkFailed),
	}

	if res.Uploaded > 0 {
		s.logger.Info(fmt.Sprintf("done, processed %d images", res.Uploaded), attrs...)
		return
	}

	s.logger.Info("no new images found", attrs...)
}

// RunOnTrigger runs a pass every time trigger fires until ctx is done
// or trigger is closed. Aborted passes are logged and the loop keeps
// waiting, since a server that is offline now may be back for the next
// trigger. A ledger write failure ends the loop.
func (s *Syncer) RunOnTrigger(ctx context.Context, trigger <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-trigger:
			if !ok {
				return nil
			}

			_, err := s.Run(ctx)

			switch {
			case err == nil, IsAborted(err):
				continue
			case ctx.Err() != nil:
				return nil
			default:
				return err
			}
		}
	}
}
