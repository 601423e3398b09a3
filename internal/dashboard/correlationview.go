package dashboard

import (
	"context"
	"io"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/georgia-health-dashboard/internal/domain"
	"github.com/couchcryptid/georgia-health-dashboard/internal/observability"
	"github.com/couchcryptid/georgia-health-dashboard/internal/render"
)

// CorrelationConfig describes a scatter view of two tables paired by key.
type CorrelationConfig struct {
	Name   string
	Title  string
	XLabel string
	YLabel string

	X, Y   Table
	PairBy domain.KeyKind

	// PointColor colors points by their x value; nil uses one color.
	PointColor domain.Interpolator

	XFormat, YFormat domain.Formatter
	Width, Height    float64
}

// CorrelationDetail is the correlation-specific part of a snapshot. Fit is
// nil when the regression is undefined.
type CorrelationDetail struct {
	Points   []domain.Point           `json:"points"`
	Fit      *domain.RegressionResult `json:"fit,omitempty"`
	Label    string                   `json:"label"`
	Equation string                   `json:"equation,omitempty"`
	Hover    render.HoverState        `json:"hover"`
}

// CorrelationView pairs two tables, fits a regression line and renders a
// scatter plot whose points can be hovered.
type CorrelationView struct {
	lifecycle

	cfg     CorrelationConfig
	fetcher domain.Fetcher
	overlay *render.Overlay

	// guarded by lifecycle.mu
	chart   *render.ScatterChart
	markers *render.Markers
}

// NewCorrelationView creates a correlation view. Point tooltips go through
// overlay; nil gives the view a private one.
func NewCorrelationView(cfg CorrelationConfig, fetcher domain.Fetcher, overlay *render.Overlay,
	logger *slog.Logger, metrics *observability.Metrics) *CorrelationView {
	if overlay == nil {
		overlay = render.NewOverlay()
	}
	v := &CorrelationView{cfg: cfg, fetcher: fetcher, overlay: overlay}
	v.init(cfg.Name, cfg.Title, KindCorrelation, logger, metrics)
	return v
}

// Load fetches both tables concurrently and fits the paired points once
// both have arrived.
func (v *CorrelationView) Load(ctx context.Context) error {
	gen, start := v.begin()

	var xs, ys []domain.TabularRecord
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		xs, err = v.cfg.X.Load(gctx, v.fetcher)
		return err
	})
	g.Go(func() error {
		var err error
		ys, err = v.cfg.Y.Load(gctx, v.fetcher)
		return err
	})
	if err := g.Wait(); err != nil {
		return v.settle(gen, start, err, "", v.clear)
	}

	points := domain.Pair(xs, ys, v.cfg.PairBy)
	if len(points) == 0 {
		err := &domain.EmptyResultError{Source: v.cfg.X.Location + " x " + v.cfg.Y.Location, What: "paired points"}
		return v.settle(gen, start, err, "", v.clear)
	}

	chart := render.ScatterChart{
		Title:      v.cfg.Title,
		XLabel:     v.cfg.XLabel,
		YLabel:     v.cfg.YLabel,
		Points:     points,
		PointColor: v.cfg.PointColor,
		XFormat:    v.cfg.XFormat,
		YFormat:    v.cfg.YFormat,
		Width:      v.cfg.Width,
		Height:     v.cfg.Height,
	}
	var warning string
	fit, err := domain.Fit(points)
	if err != nil {
		warning = err.Error()
		v.logger.Warn("regression undefined", "points", len(points), "error", err)
	} else {
		chart.Fit = &fit
	}
	if unpaired := len(xs) - len(points); unpaired > 0 {
		v.logger.Info("records without a partner", "unpaired", unpaired, "paired", len(points))
	}

	markers, err := chart.Markers(v.overlay)
	if err != nil {
		return v.settle(gen, start, err, "", v.clear)
	}

	return v.settle(gen, start, nil, warning, func() {
		v.clear()
		v.chart, v.markers = &chart, markers
	})
}

// clear drops the current chart and its tooltip. Callers hold mu.
func (v *CorrelationView) clear() {
	if v.markers != nil {
		v.overlay.Release(v.markers.Token())
	}
	v.chart, v.markers = nil, nil
}

// Pointer applies a pointer event to the scatter points. Points are named
// by their county key.
func (v *CorrelationView) Pointer(ev PointerEvent) (render.HoverState, error) {
	v.mu.Lock()
	m := v.markers
	v.mu.Unlock()
	if m == nil {
		return render.HoverState{}, ErrNotReady
	}
	return applyPointer(m, ev)
}

// Reload implements View.
func (v *CorrelationView) Reload(ctx context.Context) error {
	invalidate(v.fetcher, v.cfg.X.Location, v.cfg.Y.Location)
	return v.Load(ctx)
}

// Fit returns the current regression, if defined.
func (v *CorrelationView) Fit() (domain.RegressionResult, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.chart == nil || v.chart.Fit == nil {
		return domain.RegressionResult{}, false
	}
	return *v.chart.Fit, true
}

// Snapshot implements View.
func (v *CorrelationView) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	s := v.snapshot()
	if v.chart != nil {
		s.Correlation = &CorrelationDetail{
			Points:   v.chart.Points,
			Fit:      v.chart.Fit,
			Label:    render.FitLabel(v.chart.Fit),
			Equation: render.EquationLabel(v.chart.Fit),
			Hover:    v.markers.State(),
		}
	}
	return s
}

// RenderKey implements View.
func (v *CorrelationView) RenderKey() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.markers == nil {
		return v.renderKey()
	}
	return v.renderKey(v.markers.Revision(), v.overlay.Version())
}

// WriteSVG implements View.
func (v *CorrelationView) WriteSVG(w io.Writer) error {
	v.mu.Lock()
	chart, markers, panel := v.chart, v.markers, v.panel()
	v.mu.Unlock()
	if chart == nil {
		return writePanel(w, panel, v.cfg.Width, v.cfg.Height)
	}
	return chart.WriteSVG(w, markers.Draw)
}
