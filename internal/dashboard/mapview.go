package dashboard

import (
	"context"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/georgia-health-dashboard/internal/domain"
	"github.com/couchcryptid/georgia-health-dashboard/internal/geo"
	"github.com/couchcryptid/georgia-health-dashboard/internal/observability"
	"github.com/couchcryptid/georgia-health-dashboard/internal/render"
)

// MapConfig describes a choropleth view.
type MapConfig struct {
	Name   string
	Title  string
	Metric string // legend title

	Table  Table
	JoinBy domain.KeyKind

	Interpolator domain.Interpolator
	Inverse      bool
	Fallback     domain.Domain
	Format       domain.Formatter
	LegendFormat domain.Formatter

	Width, Height float64
}

// MapDetail is the map-specific part of a snapshot.
type MapDetail struct {
	Legend            render.Legend          `json:"legend"`
	Hover             render.HoverState      `json:"hover"`
	Features          int                    `json:"features"`
	Matched           int                    `json:"matched"`
	UnmatchedFeatures []string               `json:"unmatched_features,omitempty"`
	UnmatchedRecords  []string               `json:"unmatched_records,omitempty"`
	Superseded        int                    `json:"superseded,omitempty"`
	Ambiguous         []domain.NormalizedKey `json:"ambiguous,omitempty"`
	JoinedAt          time.Time              `json:"joined_at"`
}

// MapView joins a table against the region's features and renders the
// result as a choropleth.
type MapView struct {
	lifecycle

	cfg       MapConfig
	fetcher   domain.Fetcher
	features  *geo.Store
	overlay   *render.Overlay
	publisher domain.JoinPublisher

	// Guarded by lifecycle.mu.
	choropleth *render.Choropleth
	result     domain.JoinResult
}

// NewMapView creates a map view. Views of one dashboard share the feature
// store, the fetcher and the overlay. publisher may be nil.
func NewMapView(cfg MapConfig, fetcher domain.Fetcher, features *geo.Store, overlay *render.Overlay,
	publisher domain.JoinPublisher, logger *slog.Logger, metrics *observability.Metrics) *MapView {
	if cfg.Format == nil {
		cfg.Format = domain.FormatDecimal
	}
	v := &MapView{
		cfg:       cfg,
		fetcher:   fetcher,
		features:  features,
		overlay:   overlay,
		publisher: publisher,
	}
	v.init(cfg.Name, cfg.Title, KindMap, logger, metrics)
	return v
}

// Load fetches the features and the table concurrently, joins them once
// both have arrived and builds the choropleth. A failure of either source
// puts the view in the error state.
func (v *MapView) Load(ctx context.Context) error {
	gen, start := v.begin()

	var (
		features []domain.GeoFeature
		records  []domain.TabularRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		features, err = v.features.Load(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		records, err = v.cfg.Table.Load(gctx, v.fetcher)
		return err
	})
	if err := g.Wait(); err != nil {
		return v.settle(gen, start, err, "", v.clear)
	}

	result := domain.Join(features, records, v.cfg.JoinBy)
	scale := domain.BuildScale(result.Values(), v.cfg.Interpolator, v.cfg.Fallback).WithInverse(v.cfg.Inverse)
	c := render.NewChoropleth(result.Joined, scale, render.MapOptions{
		Title:        v.cfg.Title,
		Metric:       v.cfg.Metric,
		Width:        v.cfg.Width,
		Height:       v.cfg.Height,
		Overlay:      v.overlay,
		Format:       v.cfg.Format,
		LegendFormat: v.cfg.LegendFormat,
	})

	var warning string
	if w := result.Mismatch(); w != nil {
		warning = w.Error()
		v.logger.Warn("join mismatch",
			"unmatched_features", len(w.UnmatchedFeatures),
			"unmatched_records", len(w.UnmatchedRecords))
	}
	if len(result.Superseded) > 0 {
		v.logger.Warn("duplicate record keys, later rows win", "superseded", len(result.Superseded))
	}

	err := v.settle(gen, start, nil, warning, func() {
		v.clear()
		v.choropleth, v.result = c, result
	})
	if err != nil {
		return err
	}

	v.metrics.JoinUnmatched.WithLabelValues(v.name, "features").Set(float64(len(result.UnmatchedFeatures)))
	v.metrics.JoinUnmatched.WithLabelValues(v.name, "records").Set(float64(len(result.UnmatchedRecords)))
	v.publish(ctx, result)
	return nil
}

// Reload drops the cached table and feature payloads and loads again.
func (v *MapView) Reload(ctx context.Context) error {
	invalidate(v.fetcher, v.cfg.Table.Location)
	if _, err := v.features.Reload(ctx); err != nil {
		v.logger.Warn("feature reload failed", "error", err)
	}
	return v.Load(ctx)
}

// clear drops the current choropleth and its tooltip. Callers hold mu.
func (v *MapView) clear() {
	if v.choropleth != nil {
		v.overlay.Release(v.choropleth.Token())
	}
	v.choropleth = nil
	v.result = domain.JoinResult{}
}

func (v *MapView) publish(ctx context.Context, result domain.JoinResult) {
	if v.publisher == nil {
		return
	}
	if err := v.publisher.PublishJoin(ctx, v.name, result); err != nil {
		v.logger.Error("publish joined records", "error", err)
	}
}

func (v *MapView) current() *render.Choropleth {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.choropleth
}

// Result returns the latest join result.
func (v *MapView) Result() (domain.JoinResult, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.result, v.choropleth != nil
}

// Pointer applies a pointer event to the map and returns the resulting
// hover state.
func (v *MapView) Pointer(ev PointerEvent) (render.HoverState, error) {
	c := v.current()
	if c == nil {
		return render.HoverState{}, ErrNotReady
	}
	return applyPointer(c, ev)
}

// Snapshot implements View.
func (v *MapView) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	s := v.snapshot()
	if v.choropleth == nil {
		return s
	}
	r := v.result
	d := &MapDetail{
		Legend:     v.choropleth.Legend(),
		Hover:      v.choropleth.State(),
		Features:   len(r.Joined),
		Matched:    len(r.Joined) - len(r.UnmatchedFeatures),
		Superseded: len(r.Superseded),
		Ambiguous:  r.Ambiguous,
		JoinedAt:   r.JoinedAt,
	}
	if w := r.Mismatch(); w != nil {
		d.UnmatchedFeatures, d.UnmatchedRecords = w.UnmatchedFeatures, w.UnmatchedRecords
	}
	s.Map = d
	return s
}

// RenderKey implements View. It covers the map's own interaction state and
// the shared overlay, which other maps can take over.
func (v *MapView) RenderKey() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.choropleth == nil {
		return v.renderKey()
	}
	return v.renderKey(v.choropleth.Revision(), v.overlay.Version())
}

// WriteSVG implements View.
func (v *MapView) WriteSVG(w io.Writer) error {
	v.mu.Lock()
	c, panel := v.choropleth, v.panel()
	v.mu.Unlock()
	if c == nil {
		return writePanel(w, panel, v.cfg.Width, v.cfg.Height)
	}
	width, height := c.Size()
	return render.WriteSVG(w, width, height, c.Render)
}
