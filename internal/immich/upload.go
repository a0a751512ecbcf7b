package immich

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"strconv"
	"strings"
	"time"

	perrors "github.com/alexjbarnes/photo-sync/internal/errors"
	"github.com/alexjbarnes/photo-sync/internal/library"
	"github.com/gabriel-vasile/mimetype"
	"github.com/tidwall/gjson"
)

const uploadEndpoint = "/api/assets"

// DeviceAssetID is the client-side identifier sent with an upload:
// name, size, and modification time in Unix seconds.
func DeviceAssetID(f library.LocalFile) string {
	return fmt.Sprintf("%s-%d-%d", f.Name, f.Size, f.ModifiedAt.Unix())
}

// formatTimestamp renders t in RFC 3339 with nanoseconds, in UTC.
func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// UploadAsset sends one file to the server and classifies the response.
// A non-nil error always comes with a Failed outcome.
func (c *Client) UploadAsset(ctx context.Context, f library.LocalFile) (Outcome, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return Failed(), fmt.Errorf("reading %s: %w", f.Name, err)
	}

	body, contentType, err := c.buildUploadForm(f, data)
	if err != nil {
		return Failed(), fmt.Errorf("building upload form for %s: %w", f.Name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+uploadEndpoint, body)
	if err != nil {
		return Failed(), fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", contentType)

	code, respBody, err := c.send(req, uploadEndpoint)
	if err != nil {
		return Failed(), fmt.Errorf("uploading %s: %w", f.Name, err)
	}

	outcome, err := Classify(code, respBody)
	if err != nil {
		return Failed(), fmt.Errorf("uploading %s: %w", f.Name, err)
	}

	return outcome, nil
}

// buildUploadForm assembles the multipart body. The file part's content
// type is sniffed from the bytes rather than trusted from the extension.
func (c *Client) buildUploadForm(f library.LocalFile, data []byte) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer

	w := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="assetData"; filename="%s"`, escapeQuotes(f.Name)))
	h.Set("Content-Type", mimetype.Detect(data).String())

	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", err
	}

	if _, err := part.Write(data); err != nil {
		return nil, "", err
	}

	fields := []struct{ name, value string }{
		{"deviceAssetId", DeviceAssetID(f)},
		{"deviceId", c.deviceID},
		{"fileCreatedAt", formatTimestamp(f.CreatedAt)},
		{"fileModifiedAt", formatTimestamp(f.ModifiedAt)},
		{"isFavorite", strconv.FormatBool(false)},
	}

	for _, field := range fields {
		if err := w.WriteField(field.name, field.value); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}

	return &buf, w.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

// Classify maps an upload response to an Outcome:
//
//	201 Created  -> Created(id)
//	200 OK       -> Deduplicated(id)
//	409 Conflict -> RejectedDuplicate(id), or UnknownDuplicate when the
//	                body carries no usable id
//	other        -> Failed
//
// A 200 or 201 without an id in the body is treated as Failed, since
// the file cannot be confirmed on the server.
func Classify(code int, body []byte) (Outcome, error) {
	switch code {
	case http.StatusCreated, http.StatusOK:
		id, ok := bodyAssetID(body)
		if !ok {
			return Failed(), fmt.Errorf("%w: status %d without asset id: %s", perrors.ErrAPIResponse, code, sanitizeResponseBody(body))
		}

		if code == http.StatusCreated {
			return Created(id), nil
		}

		return Deduplicated(id), nil

	case http.StatusConflict:
		if id, ok := bodyAssetID(body); ok {
			return RejectedDuplicate(id), nil
		}

		return UnknownDuplicate(), nil
	}

	return Failed(), statusError(uploadEndpoint, code, body)
}

// bodyAssetID extracts a non-empty string "id" from a JSON object body.
func bodyAssetID(body []byte) (string, bool) {
	if !gjson.ValidBytes(body) {
		return "", false
	}

	id := gjson.GetBytes(body, "id")
	if id.Type != gjson.String || id.Str == "" {
		return "", false
	}

	return id.Str, true
}
