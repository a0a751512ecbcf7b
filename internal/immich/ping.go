package immich

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	// pingEndpoint is the unauthenticated health check path.
	pingEndpoint = "/api/server/ping"

	// DefaultProbeTimeout bounds a reachability probe.
	DefaultProbeTimeout = 2 * time.Second
)

// Pinger checks whether a server answers at all. Any HTTP response
// counts as reachable; only transport failures do not.
type Pinger struct {
	httpClient *http.Client
	timeout    time.Duration
}

// NewPinger returns a Pinger whose probes give up after timeout.
// Redirects are never followed: a 3xx is itself a response, so a server
// behind an SSO or HTTPS-redirecting proxy still counts as reachable.
func NewPinger(timeout time.Duration) *Pinger {
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}

	return &Pinger{
		httpClient: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		timeout: timeout,
	}
}

// Ping probes baseURL. It returns nil if the server responded with any
// status code.
func (p *Pinger) Ping(ctx context.Context, baseURL string) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+pingEndpoint, nil)
	if err != nil {
		return fmt.Errorf("creating ping request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return &TransientError{Err: fmt.Errorf("pinging %s: %w", baseURL, err)}
	}
	defer resp.Body.Close()

	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxAPIResponseBytes))

	return nil
}
