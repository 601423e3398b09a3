package dashboard

import (
	"context"
	"io"
	"log/slog"
	"math"
	"strings"

	"github.com/couchcryptid/georgia-health-dashboard/internal/domain"
	"github.com/couchcryptid/georgia-health-dashboard/internal/observability"
	"github.com/couchcryptid/georgia-health-dashboard/internal/render"
)

// SeriesConfig selects one line of a trend view. An empty Column reads the
// table's value column; any other column must be one of the schema's
// secondary columns.
type SeriesConfig struct {
	Name   string
	Column string
	Color  string
}

// TrendConfig describes a trend view.
type TrendConfig struct {
	Name   string
	Title  string
	XLabel string
	YLabel string

	Table    Table
	Series   []SeriesConfig
	YPadding float64
	Format   domain.Formatter

	Width, Height int
}

// TrendDetail is the trend-specific part of a snapshot.
type TrendDetail struct {
	render.TrendChart
	Hover render.HoverState `json:"hover"`
}

// TrendView plots table rows as periods and selected columns as lines.
// Each observation can be hovered.
type TrendView struct {
	lifecycle

	cfg     TrendConfig
	fetcher domain.Fetcher
	overlay *render.Overlay

	// guarded by lifecycle.mu
	chart   *render.TrendChart
	markers *render.Markers
}

// NewTrendView creates a trend view. Tooltips go through overlay; nil gives
// the view a private one.
func NewTrendView(cfg TrendConfig, fetcher domain.Fetcher, overlay *render.Overlay,
	logger *slog.Logger, metrics *observability.Metrics) *TrendView {
	if cfg.Format == nil {
		cfg.Format = domain.FormatDecimal
	}
	if overlay == nil {
		overlay = render.NewOverlay()
	}
	v := &TrendView{cfg: cfg, fetcher: fetcher, overlay: overlay}
	v.init(cfg.Name, cfg.Title, KindTrend, logger, metrics)
	return v
}

// Load fetches the table and builds the chart.
func (v *TrendView) Load(ctx context.Context) error {
	gen, start := v.begin()

	records, err := v.cfg.Table.Load(ctx, v.fetcher)
	var (
		chart   render.TrendChart
		markers *render.Markers
	)
	if err == nil {
		chart, err = v.build(records)
	}
	if err == nil {
		markers, err = chart.Markers(v.overlay)
	}
	if err != nil {
		return v.settle(gen, start, err, "", v.clear)
	}
	return v.settle(gen, start, nil, "", func() {
		v.clear()
		v.chart, v.markers = &chart, markers
	})
}

// clear drops the current chart and its tooltip. Callers hold mu.
func (v *TrendView) clear() {
	if v.markers != nil {
		v.overlay.Release(v.markers.Token())
	}
	v.chart, v.markers = nil, nil
}

// Pointer applies a pointer event to the chart's observations. A point is
// named "<series>/<period>", e.g. "All/2017-2018".
func (v *TrendView) Pointer(ev PointerEvent) (render.HoverState, error) {
	v.mu.Lock()
	m := v.markers
	v.mu.Unlock()
	if m == nil {
		return render.HoverState{}, ErrNotReady
	}
	return applyPointer(m, ev)
}

// Reload implements View.
func (v *TrendView) Reload(ctx context.Context) error {
	invalidate(v.fetcher, v.cfg.Table.Location)
	return v.Load(ctx)
}

func (v *TrendView) build(records []domain.TabularRecord) (render.TrendChart, error) {
	chart := render.TrendChart{
		Title:    v.cfg.Title,
		XLabel:   v.cfg.XLabel,
		YLabel:   v.cfg.YLabel,
		YPadding: v.cfg.YPadding,
		YFormat:  v.cfg.Format,
		Width:    v.cfg.Width,
		Height:   v.cfg.Height,
		Labels:   make([]string, len(records)),
	}
	for i, rec := range records {
		chart.Labels[i] = strings.TrimSpace(rec.Key)
	}

	for _, sc := range v.cfg.Series {
		s := render.TrendSeries{Name: sc.Name, Color: sc.Color, Values: make([]float64, len(records))}
		for i, rec := range records {
			s.Values[i] = seriesValue(rec, sc.Column, v.cfg.Table.Schema.ValueColumn)
		}
		chart.Series = append(chart.Series, s)
	}

	if len(chart.Labels) < 2 {
		return chart, &domain.EmptyResultError{Source: v.cfg.Table.Location, What: "periods (need at least two)"}
	}
	if _, _, err := chart.YRange(); err != nil {
		return chart, &domain.EmptyResultError{Source: v.cfg.Table.Location, What: "series values"}
	}
	return chart, nil
}

func seriesValue(rec domain.TabularRecord, column, valueColumn string) float64 {
	if column == "" || strings.EqualFold(column, valueColumn) {
		return rec.Value
	}
	if v, ok := rec.Secondary[column]; ok {
		return v
	}
	return math.NaN()
}

// Chart returns the current chart.
func (v *TrendView) Chart() (render.TrendChart, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.chart == nil {
		return render.TrendChart{}, false
	}
	return *v.chart, true
}

// Snapshot implements View.
func (v *TrendView) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	s := v.snapshot()
	if v.chart != nil {
		s.Trend = &TrendDetail{TrendChart: *v.chart, Hover: v.markers.State()}
	}
	return s
}

// RenderKey implements View.
func (v *TrendView) RenderKey() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.markers == nil {
		return v.renderKey()
	}
	return v.renderKey(v.markers.Revision(), v.overlay.Version())
}

// WriteSVG implements View.
func (v *TrendView) WriteSVG(w io.Writer) error {
	v.mu.Lock()
	chart, markers, panel := v.chart, v.markers, v.panel()
	v.mu.Unlock()
	if chart == nil {
		return writePanel(w, panel, float64(v.cfg.Width), float64(v.cfg.Height))
	}
	return chart.WriteSVG(w, markers.Draw)
}
