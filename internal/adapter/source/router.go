package source

import (
	"context"
	"strings"

	"github.com/couchcryptid/georgia-health-dashboard/internal/domain"
)

// Router dispatches a location to the HTTP fetcher when it is an http(s)
// URL and to the file fetcher otherwise.
type Router struct {
	HTTP domain.Fetcher
	File domain.Fetcher
}

// Fetch implements domain.Fetcher.
func (r Router) Fetch(ctx context.Context, location string) ([]byte, error) {
	if IsRemote(location) {
		return r.HTTP.Fetch(ctx, location)
	}
	return r.File.Fetch(ctx, location)
}

// IsRemote reports whether location is an http or https URL.
func IsRemote(location string) bool {
	lower := strings.ToLower(location)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
