package dashboard

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/georgia-health-dashboard/internal/domain"
	"github.com/couchcryptid/georgia-health-dashboard/internal/geo"
	"github.com/couchcryptid/georgia-health-dashboard/internal/observability"
	"github.com/couchcryptid/georgia-health-dashboard/internal/render"
)

const (
	countiesLocation = "counties.json"
	ratesLocation    = "rates.csv"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeFetcher serves payloads from memory. A gated location blocks its next
// fetch until the gate is closed; the payload is read before blocking.
type fakeFetcher struct {
	mu          sync.Mutex
	payloads    map[string][]byte
	errs        map[string]error
	gates       map[string]chan struct{}
	blocked     chan string
	calls       map[string]int
	invalidated []string
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		payloads: make(map[string][]byte),
		errs:     make(map[string]error),
		gates:    make(map[string]chan struct{}),
		blocked:  make(chan string, 8),
		calls:    make(map[string]int),
	}
}

func (f *fakeFetcher) set(location, payload string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads[location] = []byte(payload)
	delete(f.errs, location)
}

func (f *fakeFetcher) fail(location string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[location] = err
}

func (f *fakeFetcher) gate(location string) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.gates[location] = ch
	return ch
}

func (f *fakeFetcher) callCount(location string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[location]
}

func (f *fakeFetcher) Fetch(ctx context.Context, location string) ([]byte, error) {
	f.mu.Lock()
	f.calls[location]++
	payload, err := f.payloads[location], f.errs[location]
	gate, gated := f.gates[location]
	delete(f.gates, location)
	f.mu.Unlock()

	if gated {
		f.blocked <- location
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, &domain.FetchError{Source: location, Err: err}
	}
	if payload == nil {
		return nil, &domain.FetchError{Source: location, StatusCode: 404, Err: os.ErrNotExist}
	}
	return payload, nil
}

func (f *fakeFetcher) Invalidate(locations ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidated = append(f.invalidated, locations...)
}

func countiesFixture(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile("../geo/testdata/counties.json")
	require.NoError(t, err)
	return string(data)
}

type mapFixture struct {
	fetcher *fakeFetcher
	store   *geo.Store
	overlay *render.Overlay
	metrics *observability.Metrics
}

func newMapFixture(t *testing.T) *mapFixture {
	t.Helper()
	f := newFakeFetcher()
	f.set(countiesLocation, countiesFixture(t))
	return &mapFixture{
		fetcher: f,
		store:   geo.NewStore(f, countiesLocation, "13", discardLogger()),
		overlay: render.NewOverlay(),
		metrics: observability.NewMetricsForTesting(),
	}
}

func (m *mapFixture) view(t *testing.T, name, location string, publisher domain.JoinPublisher) *MapView {
	t.Helper()
	interp, err := domain.NamedInterpolator("reds")
	require.NoError(t, err)
	return NewMapView(MapConfig{
		Name:         name,
		Title:        "Hypertension in Georgia",
		Metric:       "Rate (%)",
		Table:        Table{Location: location, Schema: domain.Schema{KeyColumn: "County", ValueColumn: "Rate", KeyKind: domain.KeyName}},
		JoinBy:       domain.KeyName,
		Interpolator: interp,
		Fallback:     domain.Domain{Min: 0, Max: 100},
		Format:       domain.FormatPercent,
		Width:        600,
		Height:       400,
	}, m.fetcher, m.store, m.overlay, publisher, discardLogger(), m.metrics)
}
