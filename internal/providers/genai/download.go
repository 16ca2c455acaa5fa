package genai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"genstudio/internal/domain"
)

// maxDownloadBytes bounds a single fetched media file.
const maxDownloadBytes = 512 << 20

// ErrDownloadTooLarge reports a media file over the download limit.
var ErrDownloadTooLarge = errors.New("genai: download too large")

// StatusError is returned by FetchBytes for non-2xx answers.
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("genai: download status %d: %s", e.StatusCode, e.StatusText())
}

// StatusText returns the reason phrase without the numeric prefix.
func (e *StatusError) StatusText() string {
	text := strings.TrimSpace(strings.TrimPrefix(e.Status, fmt.Sprintf("%d", e.StatusCode)))
	if text == "" {
		text = http.StatusText(e.StatusCode)
	}
	return text
}

// FetchBytes downloads a produced media file. The credential is appended as
// the key query parameter, which is how the file service authenticates.
func (c *Client) FetchBytes(ctx context.Context, cred domain.Credential, uri string) ([]byte, string, error) {
	if err := cred.Require(); err != nil {
		return nil, "", err
	}
	target, err := url.Parse(strings.TrimSpace(uri))
	if err != nil || target.Scheme == "" {
		return nil, "", fmt.Errorf("genai: invalid download uri %q", uri)
	}
	q := target.Query()
	q.Set("key", cred.APIKey)
	target.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, "", fmt.Errorf("genai: create download request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("genai: download file: %w", redactKey(err, cred.APIKey))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, "", &StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxDownload+1))
	if err != nil {
		return nil, "", fmt.Errorf("genai: read file: %w", err)
	}
	if int64(len(data)) > c.maxDownload {
		return nil, "", domain.NewJobError(domain.ErrorDownloadFailed,
			fmt.Sprintf("file exceeds %d bytes", c.maxDownload), ErrDownloadTooLarge)
	}
	c.logger.Debug().Int("bytes", len(data)).Msg("genai: downloaded media")
	return data, resp.Header.Get("Content-Type"), nil
}

// redactKey strips the API key from transport errors, which embed the URL.
func redactKey(err error, key string) error {
	if key == "" || !strings.Contains(err.Error(), key) {
		return err
	}
	return fmt.Errorf("%s", strings.ReplaceAll(err.Error(), key, "REDACTED"))
}
