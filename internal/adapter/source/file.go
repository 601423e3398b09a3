package source

import (
	"context"
	"io/fs"
	"strings"
	"time"

	"github.com/couchcryptid/georgia-health-dashboard/internal/domain"
	"github.com/couchcryptid/georgia-health-dashboard/internal/observability"
)

// FileFetcher implements domain.Fetcher over a filesystem, either a data
// directory on disk or the embedded default datasets.
type FileFetcher struct {
	fsys    fs.FS
	metrics *observability.Metrics
}

// NewFileFetcher creates a fetcher that resolves locations inside fsys.
func NewFileFetcher(fsys fs.FS, metrics *observability.Metrics) *FileFetcher {
	return &FileFetcher{fsys: fsys, metrics: metrics}
}

// Fetch reads location, which may carry a "file://" prefix and a leading
// slash, relative to the fetcher's filesystem root.
func (f *FileFetcher) Fetch(ctx context.Context, location string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, &domain.FetchError{Source: location, Err: err}
	}
	start := time.Now()
	name := strings.TrimPrefix(strings.TrimPrefix(location, "file://"), "/")
	data, err := fs.ReadFile(f.fsys, name)
	f.metrics.FetchDuration.WithLabelValues("file").Observe(time.Since(start).Seconds())
	if err != nil {
		f.metrics.FetchRequests.WithLabelValues("file", "error").Inc()
		return nil, &domain.FetchError{Source: location, Err: err}
	}
	f.metrics.FetchRequests.WithLabelValues("file", "success").Inc()
	return data, nil
}
