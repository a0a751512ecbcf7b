package config

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	// LedgerBackendJSON stores the ledger as a JSON array of filenames.
	LedgerBackendJSON = "json"

	// LedgerBackendBolt stores the ledger in a bbolt database.
	LedgerBackendBolt = "bolt"
)

// Config holds all environment-based configuration for photo-sync.
type Config struct {
	// Local directory scanned for images.
	SourceDir string `env:"SCREENSHOTS_PATH"`

	// Immich credentials and endpoints. At least one URL must be set.
	// The local URL is probed first; the external URL is used without
	// probing when the local one is unset or unreachable.
	APIKey      string `env:"IMMICH_API_KEY"`
	LocalURL    string `env:"IMMICH_LOCAL_URL" envDefault:""`
	ExternalURL string `env:"IMMICH_EXTERNAL_URL" envDefault:""`
	AlbumName   string `env:"IMMICH_ALBUM_NAME"`

	// Ledger of already uploaded filenames.
	LedgerPath    string `env:"HISTORY_FILE" envDefault:"immich_upload_history.json"`
	LedgerBackend string `env:"LEDGER_BACKEND" envDefault:"json"`

	// LogFile receives a copy of every log record. Empty disables it.
	LogFile string `env:"LOG_FILE" envDefault:"immich_backup.log"`

	// DeviceID is the device label sent with every upload.
	DeviceID string `env:"DEVICE_ID" envDefault:"photo-sync-v1"`

	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"60s"`
	ProbeTimeout   time.Duration `env:"PROBE_TIMEOUT" envDefault:"2s"`

	// ExtraExtensions extends the built-in image allow-list. Comma
	// separated, with or without the leading dot.
	ExtraExtensions string `env:"SYNC_EXTRA_EXTENSIONS" envDefault:""`

	// Watch keeps the process running after the first pass and syncs
	// again whenever new files settle in the source directory.
	Watch         bool          `env:"WATCH" envDefault:"false"`
	WatchDebounce time.Duration `env:"WATCH_DEBOUNCE" envDefault:"3s"`

	// Environment controls log format
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
}

// warnInsecureEnvFile checks whether the .env file (if present) has
// overly permissive permissions. On Unix systems, group or world
// readable files risk exposing the API key to other users.
func warnInsecureEnvFile() {
	if runtime.GOOS == "windows" {
		return
	}

	info, err := os.Stat(".env")
	if err != nil {
		return // file does not exist, nothing to check
	}

	mode := info.Mode().Perm()
	if mode&0o077 != 0 {
		log.Printf("WARNING: .env file has insecure permissions %04o; recommended 0600", mode)
	}
}

// Load reads configuration from environment variables.
// It first attempts to load a .env file if present, then parses env vars.
func Load() (*Config, error) {
	_ = godotenv.Load()

	warnInsecureEnvFile()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.LocalURL = strings.TrimRight(strings.TrimSpace(cfg.LocalURL), "/")
	cfg.ExternalURL = strings.TrimRight(strings.TrimSpace(cfg.ExternalURL), "/")
	cfg.LedgerBackend = strings.ToLower(strings.TrimSpace(cfg.LedgerBackend))

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	// The ledger and log file paths stay relative to the working
	// directory, matching where earlier runs left them. Only the source
	// directory is made absolute so scan logs are unambiguous.
	absDir, err := filepath.Abs(cfg.SourceDir)
	if err != nil {
		return nil, fmt.Errorf("resolving source dir to absolute path: %w", err)
	}

	cfg.SourceDir = absDir

	return cfg, nil
}

func (c *Config) validate() error {
	if c.SourceDir == "" {
		return fmt.Errorf("SCREENSHOTS_PATH is required")
	}

	if c.APIKey == "" {
		return fmt.Errorf("IMMICH_API_KEY is required")
	}

	if c.AlbumName == "" {
		return fmt.Errorf("IMMICH_ALBUM_NAME is required")
	}

	if c.LocalURL == "" && c.ExternalURL == "" {
		return fmt.Errorf("at least one of IMMICH_LOCAL_URL or IMMICH_EXTERNAL_URL must be set")
	}

	if c.LedgerPath == "" {
		return fmt.Errorf("HISTORY_FILE must not be empty")
	}

	if c.LedgerBackend != LedgerBackendJSON && c.LedgerBackend != LedgerBackendBolt {
		return fmt.Errorf("LEDGER_BACKEND must be %q or %q, got %q", LedgerBackendJSON, LedgerBackendBolt, c.LedgerBackend)
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}

	if c.ProbeTimeout <= 0 {
		return fmt.Errorf("PROBE_TIMEOUT must be positive")
	}

	// The probe exists to fail fast on an unreachable LAN address.
	if c.ProbeTimeout >= c.RequestTimeout {
		return fmt.Errorf("PROBE_TIMEOUT (%s) must be shorter than REQUEST_TIMEOUT (%s)", c.ProbeTimeout, c.RequestTimeout)
	}

	if c.Watch && c.WatchDebounce <= 0 {
		return fmt.Errorf("WATCH_DEBOUNCE must be positive when WATCH is enabled")
	}

	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}

	return nil
}

// IsProduction returns true when the environment is set to production.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Extensions parses SYNC_EXTRA_EXTENSIONS into lower-case extensions
// with a leading dot. Empty entries are ignored.
func (c *Config) Extensions() []string {
	if c.ExtraExtensions == "" {
		return nil
	}

	var exts []string

	for _, e := range strings.Split(c.ExtraExtensions, ",") {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" || e == "." {
			continue
		}

		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}

		exts = append(exts, e)
	}

	return exts
}

// ParseLogLevel maps a LOG_LEVEL value to a slog level.
func ParseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error, got %q", level)
	}
}
