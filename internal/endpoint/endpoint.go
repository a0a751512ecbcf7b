// Package endpoint picks which server URL a run talks to.
package endpoint

import (
	"context"
	"log/slog"
	"strings"

	perrors "github.com/alexjbarnes/photo-sync/internal/errors"
)

// Pinger reports whether a server answers at baseURL. Implementations
// bound the probe with their own short timeout.
type Pinger interface {
	Ping(ctx context.Context, baseURL string) error
}

// Candidates is the ordered preference list for a run.
type Candidates struct {
	// Primary is usually a LAN address. It is only chosen if it answers
	// a probe.
	Primary string
	// Fallback is chosen without probing when Primary is unset or
	// unreachable.
	Fallback string
}

// Resolve returns the base URL to use for this run, or ErrNoEndpoint if
// neither candidate is usable. The probe only checks that the primary
// answers at the transport level; its status code is ignored.
func Resolve(ctx context.Context, pinger Pinger, c Candidates, logger *slog.Logger) (string, error) {
	primary := strings.TrimRight(c.Primary, "/")
	fallback := strings.TrimRight(c.Fallback, "/")

	if primary != "" {
		logger.Info("checking connection", slog.String("url", primary))

		err := pinger.Ping(ctx, primary)
		if err == nil {
			logger.Info("primary endpoint reachable", slog.String("url", primary))
			return primary, nil
		}

		logger.Debug("primary endpoint unreachable",
			slog.String("url", primary),
			slog.String("error", err.Error()),
		)
	}

	if fallback != "" {
		logger.Info("using fallback endpoint", slog.String("url", fallback))
		return fallback, nil
	}

	return "", perrors.ErrNoEndpoint
}
