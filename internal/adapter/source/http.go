package source

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/storm-data-shared/retry"

	"github.com/couchcryptid/georgia-health-dashboard/internal/domain"
	"github.com/couchcryptid/georgia-health-dashboard/internal/observability"
)

// maxPayloadBytes bounds a single source payload. The national county
// collection is roughly 25 MB.
const maxPayloadBytes = 64 << 20

// HTTPFetcher implements domain.Fetcher over HTTP(S). Transport failures and
// 5xx or 429 responses are retried with exponential backoff.
type HTTPFetcher struct {
	httpClient *http.Client
	retries    int
	backoff    time.Duration
	maxBackoff time.Duration
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewHTTPFetcher creates an HTTP source fetcher.
func NewHTTPFetcher(timeout time.Duration, retries int, metrics *observability.Metrics, logger *slog.Logger) *HTTPFetcher {
	return &HTTPFetcher{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		retries:    retries,
		backoff:    250 * time.Millisecond,
		maxBackoff: 4 * time.Second,
		metrics:    metrics,
		logger:     logger,
	}
}

// Fetch downloads location and returns the response body.
func (f *HTTPFetcher) Fetch(ctx context.Context, location string) ([]byte, error) {
	start := time.Now()
	body, err := f.fetchWithRetry(ctx, location)
	f.metrics.FetchDuration.WithLabelValues("http").Observe(time.Since(start).Seconds())
	if err != nil {
		f.metrics.FetchRequests.WithLabelValues("http", "error").Inc()
		return nil, err
	}
	f.metrics.FetchRequests.WithLabelValues("http", "success").Inc()
	f.logger.Debug("source fetched", "location", location, "bytes", len(body), "duration", time.Since(start))
	return body, nil
}

func (f *HTTPFetcher) fetchWithRetry(ctx context.Context, location string) ([]byte, error) {
	backoff := f.backoff
	for attempt := 0; ; attempt++ {
		body, retryable, err := f.doRequest(ctx, location)
		if err == nil {
			return body, nil
		}
		if !retryable || attempt >= f.retries {
			return nil, err
		}
		f.logger.Warn("source fetch failed, retrying",
			"location", location, "attempt", attempt+1, "backoff", backoff, "error", err)
		if !retry.SleepWithContext(ctx, backoff) {
			return nil, &domain.FetchError{Source: location, Err: ctx.Err()}
		}
		backoff = retry.NextBackoff(backoff, f.maxBackoff)
	}
}

func (f *HTTPFetcher) doRequest(ctx context.Context, location string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, false, &domain.FetchError{Source: location, Err: fmt.Errorf("create request: %w", err)}
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, ctx.Err() == nil, &domain.FetchError{Source: location, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		retryable := resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests
		return nil, retryable, &domain.FetchError{
			Source:     location,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected response: %s", snippet),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes+1))
	if err != nil {
		return nil, true, &domain.FetchError{Source: location, Err: fmt.Errorf("read body: %w", err)}
	}
	if len(body) > maxPayloadBytes {
		return nil, false, &domain.FetchError{Source: location, Err: fmt.Errorf("payload exceeds %d bytes", maxPayloadBytes)}
	}
	return body, false, nil
}
