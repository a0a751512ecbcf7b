// Package immich is a small client for the Immich server API: album
// listing, asset upload, and album membership.
package immich

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
	"unicode/utf8"

	perrors "github.com/alexjbarnes/photo-sync/internal/errors"
	"github.com/tidwall/gjson"
)

// TransientError wraps an error that is likely temporary. The file or
// run that hit it will be retried on the next invocation.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return e.Err.Error() }
func (e *TransientError) Unwrap() error { return e.Err }

// IsTransient reports whether err (or any error in its chain) is a
// TransientError.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

const (
	// maxRedirects is the maximum number of HTTP redirects to follow
	// before giving up, matching the default net/http limit.
	maxRedirects = 10

	// DefaultRequestTimeout bounds listing, upload, and link requests
	// when no custom client is provided.
	DefaultRequestTimeout = 60 * time.Second

	// maxAPIResponseBytes caps response body reads to prevent a
	// misbehaving server from consuming unbounded memory.
	maxAPIResponseBytes = 1024 * 1024

	// apiKeyHeader carries the credential on every authenticated request.
	apiKeyHeader = "x-api-key"
)

// Client talks to one Immich server.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	deviceID   string
}

// ClientConfig configures a Client.
type ClientConfig struct {
	BaseURL  string
	APIKey   string
	DeviceID string
	// HTTPClient is used for every request. If nil, a client with
	// DefaultRequestTimeout and a same-host redirect policy is created.
	HTTPClient *http.Client
}

// sameHostRedirectPolicy follows redirects only when the target host
// matches the original request host, so the API key never leaks to a
// third-party domain.
func sameHostRedirectPolicy(req *http.Request, via []*http.Request) error {
	if len(via) >= maxRedirects {
		return errors.New("stopped after 10 redirects")
	}

	if len(via) > 0 {
		origHost := via[0].URL.Host
		if req.URL.Host != origHost {
			return fmt.Errorf("redirect to different host blocked: %s -> %s", origHost, req.URL.Host)
		}
	}

	return nil
}

// NewHTTPClient returns an http.Client with the given overall timeout
// and the same-host redirect policy.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:       timeout,
		CheckRedirect: sameHostRedirectPolicy,
	}
}

// NewClient creates an API client for cfg.BaseURL.
func NewClient(cfg ClientConfig) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = NewHTTPClient(DefaultRequestTimeout)
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		deviceID:   cfg.DeviceID,
	}
}

// BaseURL returns the server the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// sanitizeResponseBody truncates and sanitizes a response body for
// inclusion in error messages. Limits to 256 bytes and replaces
// non-printable characters to prevent log injection.
func sanitizeResponseBody(body []byte) string {
	const maxLen = 256
	if len(body) > maxLen {
		body = body[:maxLen]
	}

	var clean []byte

	for len(body) > 0 {
		r, size := utf8.DecodeRune(body)
		if r == utf8.RuneError && size <= 1 {
			clean = append(clean, '?')
			body = body[1:]

			continue
		}

		if r < 0x20 && r != '\n' && r != '\r' && r != '\t' {
			clean = append(clean, '?')
		} else {
			clean = append(clean, body[:size]...)
		}

		body = body[size:]
	}

	return string(clean)
}

// send performs req with the API key attached and returns the status
// code and the (capped) response body. Transport failures are wrapped
// in a TransientError.
func (c *Client) send(req *http.Request, endpoint string) (int, []byte, error) {
	req.Header.Set(apiKeyHeader, c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Network errors (timeouts, connection refused, DNS failures)
		// are transient by nature.
		return 0, nil, &TransientError{Err: fmt.Errorf("%w: sending request to %s: %w", perrors.ErrAPIRequest, endpoint, err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxAPIResponseBytes))
	if err != nil {
		return resp.StatusCode, nil, &TransientError{Err: fmt.Errorf("%w: reading response from %s: %w", perrors.ErrAPIRequest, endpoint, err)}
	}

	return resp.StatusCode, body, nil
}

// statusError builds the error for an unexpected status code.
func statusError(endpoint string, code int, body []byte) error {
	err := fmt.Errorf("%w: %s returned status %d: %s", perrors.ErrAPIResponse, endpoint, code, sanitizeResponseBody(body))

	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return fmt.Errorf("%w: %w", perrors.ErrUnauthorized, err)
	case isTransientStatus(code):
		return &TransientError{Err: err}
	}

	return err
}

// doJSON sends a JSON request (body may be nil) and returns the raw
// response body when the status is 2xx.
func (c *Client) doJSON(ctx context.Context, method, endpoint string, body interface{}) ([]byte, error) {
	var reader io.Reader

	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshalling request body: %w", err)
		}

		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	code, respBody, err := c.send(req, endpoint)
	if err != nil {
		return nil, err
	}

	if code < 200 || code > 299 {
		return nil, statusError(endpoint, code, respBody)
	}

	return respBody, nil
}

// isTransientStatus returns true for HTTP status codes that indicate a
// temporary server-side problem worth retrying.
func isTransientStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}

	return false
}

// ListAlbums returns every album visible to the API key.
func (c *Client) ListAlbums(ctx context.Context) ([]Album, error) {
	body, err := c.doJSON(ctx, http.MethodGet, "/api/albums", nil)
	if err != nil {
		return nil, fmt.Errorf("listing albums: %w", err)
	}

	var albums []Album
	if err := json.Unmarshal(body, &albums); err != nil {
		return nil, fmt.Errorf("listing albums: %w: decoding response: %w", perrors.ErrAPIResponse, err)
	}

	return albums, nil
}

// AddAssetsToAlbum links assetIDs into albumID. The request is
// idempotent: assets already in the album come back with a "duplicate"
// per-asset error, which BulkIDResponse.Failed does not count. The
// per-asset results are best-effort; a body that is not a JSON array
// yields no results rather than an error.
func (c *Client) AddAssetsToAlbum(ctx context.Context, albumID string, assetIDs []string) ([]BulkIDResponse, error) {
	endpoint := "/api/albums/" + url.PathEscape(albumID) + "/assets"

	body, err := c.doJSON(ctx, http.MethodPut, endpoint, BulkIDsRequest{IDs: assetIDs})
	if err != nil {
		return nil, fmt.Errorf("adding assets to album: %w", err)
	}

	parsed := gjson.ParseBytes(body)
	if !parsed.IsArray() {
		return nil, nil
	}

	var results []BulkIDResponse

	parsed.ForEach(func(_, item gjson.Result) bool {
		results = append(results, BulkIDResponse{
			ID:      item.Get("id").String(),
			Success: item.Get("success").Bool(),
			Error:   item.Get("error").String(),
		})

		return true
	})

	return results, nil
}
