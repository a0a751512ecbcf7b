package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/alexjbarnes/photo-sync/internal/config"
	"github.com/alexjbarnes/photo-sync/internal/endpoint"
	"github.com/alexjbarnes/photo-sync/internal/immich"
	"github.com/alexjbarnes/photo-sync/internal/ledger"
	"github.com/alexjbarnes/photo-sync/internal/library"
	"github.com/alexjbarnes/photo-sync/internal/logging"
	"github.com/alexjbarnes/photo-sync/internal/syncer"
	"golang.org/x/sync/errgroup"
)

var Version = "dev"

func main() {
	if len(os.Args) > 1 && os.Args[1] == "version" {
		fmt.Println(Version)
		return
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	level, err := config.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		return err
	}

	logger, logCloser, err := logging.NewLogger(logging.Options{
		Environment: cfg.Environment,
		Level:       level,
		FilePath:    cfg.LogFile,
	})
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer logCloser.Close()

	logger.Info("photo-sync starting",
		slog.String("version", Version),
		slog.String("source", cfg.SourceDir),
		slog.String("album", cfg.AlbumName),
		slog.Bool("watch", cfg.Watch),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	l, err := openLedger(cfg, logger)
	if err != nil {
		return err
	}
	defer l.Close()

	filter := library.NewFilter(cfg.Extensions()...)

	s := syncer.New(syncer.Config{
		Endpoints: endpoint.Candidates{
			Primary:  cfg.LocalURL,
			Fallback: cfg.ExternalURL,
		},
		AlbumName: cfg.AlbumName,
		SourceDir: cfg.SourceDir,
		Filter:    filter,
	}, immich.NewPinger(cfg.ProbeTimeout), newAPIFactory(cfg), l, logger)

	_, err = s.Run(ctx)

	switch {
	case err == nil:
	case syncer.IsAborted(err):
		// Expected conditions such as an offline server. The next
		// scheduled invocation retries.
		logger.Warn("sync skipped", slog.String("reason", err.Error()))
	case errors.Is(err, context.Canceled):
		logger.Info("interrupted")
		return nil
	default:
		return err
	}

	if !cfg.Watch {
		return nil
	}

	return watch(ctx, cfg, s, filter, logger)
}

// watch keeps syncing whenever new images settle in the source
// directory until a signal arrives.
func watch(ctx context.Context, cfg *config.Config, s *syncer.Syncer, filter *library.Filter, logger *slog.Logger) error {
	trigger := make(chan struct{}, 1)
	w := syncer.NewWatcher(cfg.SourceDir, filter, cfg.WatchDebounce, logger)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(trigger)
		return w.Watch(gctx, trigger)
	})

	g.Go(func() error {
		return s.RunOnTrigger(gctx, trigger)
	})

	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info("photo-sync stopped")

	return nil
}

func newAPIFactory(cfg *config.Config) syncer.APIFactory {
	httpClient := immich.NewHTTPClient(cfg.RequestTimeout)

	return func(baseURL string) syncer.API {
		return immich.NewClient(immich.ClientConfig{
			BaseURL:    baseURL,
			APIKey:     cfg.APIKey,
			DeviceID:   cfg.DeviceID,
			HTTPClient: httpClient,
		})
	}
}

// openLedger opens the upload ledger with the configured backend.
func openLedger(cfg *config.Config, logger *slog.Logger) (*ledger.Ledger, error) {
	var (
		store ledger.Store
		err   error
	)

	path := ledgerPath(cfg)

	switch cfg.LedgerBackend {
	case config.LedgerBackendBolt:
		store, err = ledger.NewBoltStore(path)
	default:
		store, err = ledger.NewFileStore(path)
	}

	if err != nil {
		return nil, fmt.Errorf("opening ledger: %w", err)
	}

	l, err := ledger.Open(store)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("loading ledger: %w", err)
	}

	logger.Debug("ledger loaded",
		slog.String("path", path),
		slog.String("backend", cfg.LedgerBackend),
		slog.Int("entries", l.Len()),
	)

	return l, nil
}

// ledgerPath returns the ledger location. The bolt backend swaps a .json
// extension for .db so the two formats never share a file.
func ledgerPath(cfg *config.Config) string {
	if cfg.LedgerBackend != config.LedgerBackendBolt {
		return cfg.LedgerPath
	}

	if ext := filepath.Ext(cfg.LedgerPath); strings.EqualFold(ext, ".json") {
		return strings.TrimSuffix(cfg.LedgerPath, ext) + ".db"
	}

	return cfg.LedgerPath
}
