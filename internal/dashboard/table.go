package dashboard

import (
	"context"

	"github.com/couchcryptid/georgia-health-dashboard/internal/domain"
)

// Table is a tabular source: where the CSV lives and how to read it.
type Table struct {
	Location string
	Schema   domain.Schema
}

// Load fetches and parses the table.
func (t Table) Load(ctx context.Context, fetcher domain.Fetcher) ([]domain.TabularRecord, error) {
	payload, err := fetcher.Fetch(ctx, t.Location)
	if err != nil {
		return nil, err
	}
	return domain.ParseTable(t.Location, string(payload), t.Schema)
}

// invalidator is implemented by fetchers that cache payloads.
type invalidator interface {
	Invalidate(locations ...string)
}

func invalidate(fetcher domain.Fetcher, locations ...string) {
	if inv, ok := fetcher.(invalidator); ok {
		inv.Invalidate(locations...)
	}
}
