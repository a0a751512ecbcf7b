package errors

import "errors"

// Run-fatal errors. A run that hits one of these stops early without
// touching the ledger beyond what it already committed.
var (
	ErrNoEndpoint       = errors.New("no reachable server endpoint")
	ErrAlbumNotFound    = errors.New("album not found")
	ErrSourceDirMissing = errors.New("source directory not found")
)

// Server/transport errors.
var (
	ErrAPIRequest   = errors.New("API request failed")
	ErrAPIResponse  = errors.New("unexpected API response")
	ErrUnauthorized = errors.New("invalid or missing API key")
)

// Local state errors.
var (
	ErrLedgerLocked = errors.New("ledger is locked by another process")
)
