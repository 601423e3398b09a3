package catalog

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/georgia-health-dashboard/internal/dashboard"
	"github.com/couchcryptid/georgia-health-dashboard/internal/domain"
	"github.com/couchcryptid/georgia-health-dashboard/internal/geo"
	"github.com/couchcryptid/georgia-health-dashboard/internal/observability"
	"github.com/couchcryptid/georgia-health-dashboard/internal/render"
)

// Deps are the shared collaborators of every view. Publisher may be nil.
type Deps struct {
	Fetcher   domain.Fetcher
	Features  *geo.Store
	Overlay   *render.Overlay
	Publisher domain.JoinPublisher
	Logger    *slog.Logger
	Metrics   *observability.Metrics

	Width, Height int
}

// Build creates a dashboard with one view per catalog entry, in order.
// Views are created but not loaded.
func (c *Catalog) Build(deps Deps) (*dashboard.Dashboard, error) {
	if deps.Overlay == nil {
		deps.Overlay = render.NewOverlay()
	}
	d := dashboard.New(deps.Overlay, deps.Logger)
	for _, spec := range c.Views {
		v, err := spec.build(deps)
		if err != nil {
			return nil, fmt.Errorf("view %s: %w", spec.Name, err)
		}
		if err := d.Add(v); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func (v ViewSpec) build(deps Deps) (dashboard.View, error) {
	w, h := float64(deps.Width), float64(deps.Height)
	switch v.Kind {
	case "map":
		interp, err := domain.NamedInterpolator(v.Interpolator)
		if err != nil {
			return nil, err
		}
		format, legend, err := formatters(v.Format, v.LegendFormat)
		if err != nil {
			return nil, err
		}
		if v.LegendFormat == "" {
			legend = format
		}
		if deps.Features == nil {
			return nil, errors.New("map view needs a feature store")
		}
		return dashboard.NewMapView(dashboard.MapConfig{
			Name:         v.Name,
			Title:        v.Title,
			Metric:       v.Metric,
			Table:        table(v.Source),
			JoinBy:       v.JoinBy,
			Interpolator: interp,
			Inverse:      v.Inverse,
			Fallback:     v.Fallback,
			Format:       format,
			LegendFormat: legend,
			Width:        w,
			Height:       h,
		}, deps.Fetcher, deps.Features, deps.Overlay, deps.Publisher, deps.Logger, deps.Metrics), nil

	case "trend":
		format, err := domain.NamedFormatter(v.Format)
		if err != nil {
			return nil, err
		}
		series := make([]dashboard.SeriesConfig, len(v.Series))
		for i, s := range v.Series {
			series[i] = dashboard.SeriesConfig{Name: s.Name, Column: s.Column, Color: s.Color}
		}
		return dashboard.NewTrendView(dashboard.TrendConfig{
			Name:     v.Name,
			Title:    v.Title,
			XLabel:   v.XLabel,
			YLabel:   v.YLabel,
			Table:    table(v.Source),
			Series:   series,
			YPadding: v.YPadding,
			Format:   format,
			Width:    deps.Width,
			Height:   deps.Height,
		}, deps.Fetcher, deps.Overlay, deps.Logger, deps.Metrics), nil

	case "correlation":
		xf, yf, err := formatters(v.XFormat, v.YFormat)
		if err != nil {
			return nil, err
		}
		var points domain.Interpolator
		if v.Interpolator != "" {
			if points, err = domain.NamedInterpolator(v.Interpolator); err != nil {
				return nil, err
			}
		}
		return dashboard.NewCorrelationView(dashboard.CorrelationConfig{
			Name:       v.Name,
			Title:      v.Title,
			XLabel:     v.XLabel,
			YLabel:     v.YLabel,
			X:          table(v.X),
			Y:          table(v.Y),
			PairBy:     v.PairBy,
			PointColor: points,
			XFormat:    xf,
			YFormat:    yf,
			Width:      w,
			Height:     h,
		}, deps.Fetcher, deps.Overlay, deps.Logger, deps.Metrics), nil
	}
	return nil, fmt.Errorf("unknown kind %q", v.Kind)
}

func formatters(a, b string) (domain.Formatter, domain.Formatter, error) {
	fa, err := domain.NamedFormatter(a)
	if err != nil {
		return nil, nil, err
	}
	fb, err := domain.NamedFormatter(b)
	if err != nil {
		return nil, nil, err
	}
	return fa, fb, nil
}

func table(s SourceSpec) dashboard.Table {
	return dashboard.Table{Location: s.Location, Schema: s.Schema}
}
