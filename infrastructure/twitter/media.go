package twitter

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	domainDispatch "github.com/twitboost/twitboost-api/domains/dispatch"
)

// MediaFetcher downloads pre-uploaded media URLs so their bytes can be
// re-uploaded to the platform at dispatch time.
type MediaFetcher struct {
	httpClient *http.Client
	maxBytes   int64
}

var _ domainDispatch.IMediaFetcher = (*MediaFetcher)(nil)

func NewMediaFetcher(timeout time.Duration, maxBytes int64) *MediaFetcher {
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	if maxBytes <= 0 {
		maxBytes = 20000000
	}
	return &MediaFetcher{
		httpClient: &http.Client{Timeout: timeout},
		maxBytes:   maxBytes,
	}
}

func (f *MediaFetcher) Fetch(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to build media fetch request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("media fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", fmt.Errorf("media fetch returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read media body: %w", err)
	}
	if int64(len(data)) > f.maxBytes {
		return nil, "", fmt.Errorf("media exceeds the %d byte limit", f.maxBytes)
	}

	return data, resp.Header.Get("Content-Type"), nil
}
