package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

// logFilePerm is the permission mode for the optional log file.
const logFilePerm = 0o644

// Options controls logger construction.
type Options struct {
	// Environment selects the console format. Production uses JSON,
	// anything else uses tint's human-readable output.
	Environment string
	Level       slog.Level
	// FilePath, when set, receives a plain-text copy of every record.
	FilePath string
}

// NewLogger creates a structured logger appropriate for the environment.
// The returned closer releases the log file, if one was opened, and is
// always safe to call.
func NewLogger(opts Options) (*slog.Logger, io.Closer, error) {
	console := consoleHandler(os.Stdout, opts)

	if opts.FilePath == "" {
		return slog.New(console), nopCloser{}, nil
	}

	f, err := os.OpenFile(opts.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePerm)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file %s: %w", opts.FilePath, err)
	}

	file := slog.NewTextHandler(f, &slog.HandlerOptions{Level: opts.Level})

	return slog.New(NewFanoutHandler(console, file)), f, nil
}

func consoleHandler(w *os.File, opts Options) slog.Handler {
	if opts.Environment == "production" {
		return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: opts.Level})
	}

	return tint.NewHandler(w, &tint.Options{
		Level:      opts.Level,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		NoColor:    !isatty.IsTerminal(w.Fd()),
	})
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
