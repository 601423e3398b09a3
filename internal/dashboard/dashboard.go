package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/georgia-health-dashboard/internal/render"
)

// maxParallelLoads bounds how many views load at once.
const maxParallelLoads = 4

// Dashboard is the ordered set of views sharing one tooltip overlay.
type Dashboard struct {
	views   []View
	byName  map[string]View
	overlay *render.Overlay
	logger  *slog.Logger
}

// New creates an empty dashboard around overlay.
func New(overlay *render.Overlay, logger *slog.Logger) *Dashboard {
	return &Dashboard{
		byName:  make(map[string]View),
		overlay: overlay,
		logger:  logger,
	}
}

// Add registers a view. Names must be unique.
func (d *Dashboard) Add(v View) error {
	if _, dup := d.byName[v.Name()]; dup {
		return fmt.Errorf("duplicate view %q", v.Name())
	}
	d.views = append(d.views, v)
	d.byName[v.Name()] = v
	return nil
}

// Views returns the views in registration order.
func (d *Dashboard) Views() []View { return d.views }

// View looks a view up by name.
func (d *Dashboard) View(name string) (View, bool) {
	v, ok := d.byName[name]
	return v, ok
}

// Overlay returns the tooltip overlay shared by the dashboard's maps.
func (d *Dashboard) Overlay() *render.Overlay { return d.overlay }

// LoadAll loads every view. A failing view does not stop the others; the
// returned error joins every failure.
func (d *Dashboard) LoadAll(ctx context.Context) error {
	return d.each(ctx, "load", View.Load)
}

// ReloadAll reloads every view from freshly fetched sources.
func (d *Dashboard) ReloadAll(ctx context.Context) error {
	return d.each(ctx, "reload", View.Reload)
}

func (d *Dashboard) each(ctx context.Context, op string, fn func(View, context.Context) error) error {
	errs := make([]error, len(d.views))
	var g errgroup.Group
	g.SetLimit(maxParallelLoads)
	for i, v := range d.views {
		g.Go(func() error {
			if err := fn(v, ctx); err != nil && !errors.Is(err, ErrStale) {
				errs[i] = fmt.Errorf("%s %s: %w", op, v.Name(), err)
			}
			return nil
		})
	}
	_ = g.Wait()

	err := errors.Join(errs...)
	if err != nil {
		d.logger.Warn("some views failed", "op", op, "error", err)
	}
	return err
}

// CheckReadiness returns nil once every view has settled at least once,
// successfully or not.
func (d *Dashboard) CheckReadiness(_ context.Context) error {
	var pending []string
	for _, v := range d.views {
		if !v.Settled() {
			pending = append(pending, v.Name())
		}
	}
	if len(pending) > 0 {
		return fmt.Errorf("views still loading: %s", strings.Join(pending, ", "))
	}
	return nil
}
