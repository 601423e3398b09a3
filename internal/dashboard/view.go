// Package dashboard loads the dashboard's views from their sources and
// keeps each view's latest successful result.
//
// Every load of a view takes a new generation number. A load that settles
// after a newer one has started is discarded, so a slow fetch can never
// overwrite fresher state.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/georgia-health-dashboard/internal/observability"
	"github.com/couchcryptid/georgia-health-dashboard/internal/render"
)

// Status is the lifecycle state of a view.
type Status string

const (
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusError   Status = "error"
)

// Kinds of view.
const (
	KindMap         = "map"
	KindTrend       = "trend"
	KindCorrelation = "correlation"
)

// ErrNotReady is returned by interactions with a view that has no content.
var ErrNotReady = errors.New("view is not ready")

// ErrStale is returned by a load that was superseded by a newer one.
var ErrStale = errors.New("load superseded by a newer generation")

// View is one panel of the dashboard.
type View interface {
	Name() string
	Title() string
	Kind() string

	// Load fetches the view's sources and rebuilds its content. Reload
	// first drops cached payloads so the sources are fetched again.
	Load(ctx context.Context) error
	Reload(ctx context.Context) error

	Snapshot() Snapshot
	Settled() bool

	// RenderKey changes whenever the SVG output would change.
	RenderKey() string
	WriteSVG(w io.Writer) error
}

// Snapshot is the externally visible state of a view.
type Snapshot struct {
	Name       string        `json:"name"`
	Title      string        `json:"title"`
	Kind       string        `json:"kind"`
	Status     Status        `json:"status"`
	Generation uint64        `json:"generation"`
	LoadedAt   *time.Time    `json:"loaded_at,omitempty"`
	Error      *render.Panel `json:"error,omitempty"`
	Warning    string        `json:"warning,omitempty"`

	Map         *MapDetail         `json:"map,omitempty"`
	Trend       *TrendDetail       `json:"trend,omitempty"`
	Correlation *CorrelationDetail `json:"correlation,omitempty"`
}

// lifecycle tracks generations and status for a view. Concrete views embed
// it and keep their content under mu.
type lifecycle struct {
	name, title, kind string
	logger            *slog.Logger
	metrics           *observability.Metrics

	generation atomic.Uint64

	mu       sync.Mutex
	status   Status
	err      error
	warning  string
	loadedAt time.Time
	settled  bool
	revision uint64
}

func (l *lifecycle) init(name, title, kind string, logger *slog.Logger, metrics *observability.Metrics) {
	l.name, l.title, l.kind = name, title, kind
	l.logger = logger.With("view", name)
	l.metrics = metrics
	l.status = StatusLoading
}

func (l *lifecycle) Name() string  { return l.name }
func (l *lifecycle) Title() string { return l.title }
func (l *lifecycle) Kind() string  { return l.kind }

// Settled reports whether at least one load has finished.
func (l *lifecycle) Settled() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.settled
}

// begin starts a new generation.
func (l *lifecycle) begin() (uint64, time.Time) {
	gen := l.generation.Add(1)
	l.logger.Debug("view load started", "generation", gen)
	return gen, time.Now()
}

// settle records the outcome of generation gen. apply runs under the view
// lock when gen is still current; it is skipped for stale loads. settle
// returns ErrStale for a stale load and err otherwise.
func (l *lifecycle) settle(gen uint64, start time.Time, err error, warning string, apply func()) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if current := l.generation.Load(); gen != current {
		l.metrics.ViewLoads.WithLabelValues(l.name, "stale").Inc()
		l.logger.Info("discarding stale view load", "generation", gen, "current", current)
		return ErrStale
	}

	l.metrics.ViewLoadDuration.WithLabelValues(l.name).Observe(time.Since(start).Seconds())
	wasReady := l.status == StatusReady
	l.settled = true
	l.revision++
	if apply != nil {
		apply()
	}

	if err != nil {
		l.status, l.err, l.warning = StatusError, err, ""
		l.metrics.ViewLoads.WithLabelValues(l.name, "error").Inc()
		if wasReady {
			l.metrics.ViewsReady.Dec()
		}
		l.logger.Error("view load failed", "generation", gen, "error", err)
		return err
	}

	l.status, l.err, l.warning = StatusReady, nil, warning
	l.loadedAt = time.Now().UTC()
	l.metrics.ViewLoads.WithLabelValues(l.name, "ready").Inc()
	if !wasReady {
		l.metrics.ViewsReady.Inc()
	}
	l.logger.Info("view ready", "generation", gen, "duration", time.Since(start))
	return nil
}

// snapshot fills the common fields. Callers hold mu.
func (l *lifecycle) snapshot() Snapshot {
	s := Snapshot{
		Name:       l.name,
		Title:      l.title,
		Kind:       l.kind,
		Status:     l.status,
		Generation: l.generation.Load(),
		Warning:    l.warning,
	}
	if !l.loadedAt.IsZero() {
		t := l.loadedAt
		s.LoadedAt = &t
	}
	if l.status == StatusError {
		p := l.panel()
		s.Error = &p
	}
	return s
}

// panel describes a view without content. Callers hold mu.
func (l *lifecycle) panel() render.Panel {
	if l.status == StatusError && l.err != nil {
		return render.ErrorPanel(l.title, l.err, fmt.Sprintf(render.RetryHint, l.name))
	}
	return render.LoadingPanel(l.title)
}

func (l *lifecycle) renderKey(extra ...uint64) string {
	key := fmt.Sprintf("%s/%d", l.status, l.revision)
	for _, e := range extra {
		key += fmt.Sprintf(".%d", e)
	}
	return key
}

// writePanel draws the loading or error panel as SVG.
func writePanel(w io.Writer, p render.Panel, width, height float64) error {
	return render.WriteSVG(w, width, height, p.Draw)
}
