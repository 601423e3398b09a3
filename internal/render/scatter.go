package render

import (
	"fmt"
	"image/color"
	"io"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgsvg"

	"github.com/couchcryptid/georgia-health-dashboard/internal/domain"
)

var (
	pointColor = color.RGBA{R: 0x7f, G: 0x4d, B: 0xe2, A: 0xb0}
	fitColor   = color.RGBA{R: 0xd9, G: 0x48, B: 0x01, A: 0xff}
)

// scatterHitRadius is how close, in points, the pointer must be to a point
// to hover it.
const scatterHitRadius = 8

// ScatterChart plots paired observations with their fitted line. Fit is
// nil when the regression is undefined; the points are still drawn.
type ScatterChart struct {
	Title  string
	XLabel string
	YLabel string
	Points []domain.Point
	Fit    *domain.RegressionResult

	// PointColor colors each point by its x value along a sequential
	// ramp. Nil draws every point in one color.
	PointColor domain.Interpolator

	XFormat, YFormat domain.Formatter
	Width, Height    float64
}

// FitLabel summarizes a fit for the legend, e.g. "r = -0.42, R² = 0.18".
func FitLabel(fit *domain.RegressionResult) string {
	if fit == nil || math.IsNaN(fit.Correlation) {
		return "Regression undefined"
	}
	return fmt.Sprintf("r = %.2f, R² = %.2f (n = %d)", fit.Correlation, fit.RSquared, fit.N)
}

// EquationLabel writes the fitted line, e.g. "y = -0.00021x + 52.31". It is
// empty when the regression is undefined.
func EquationLabel(fit *domain.RegressionResult) string {
	if fit == nil || math.IsNaN(fit.Slope) || math.IsNaN(fit.Intercept) {
		return ""
	}
	sign, intercept := "+", fit.Intercept
	if intercept < 0 {
		sign, intercept = "-", -intercept
	}
	return fmt.Sprintf("y = %.5fx %s %.2f", fit.Slope, sign, intercept)
}

// Plot builds the gonum plot for the chart.
func (sc ScatterChart) Plot() (*plot.Plot, error) {
	if len(sc.Points) == 0 {
		return nil, &domain.EmptyResultError{Source: sc.Title, What: "paired points"}
	}

	p := plot.New()
	p.Title.Text = sc.Title
	p.X.Label.Text = sc.XLabel
	p.Y.Label.Text = sc.YLabel
	if sc.XFormat != nil {
		p.X.Tick.Marker = formattedTicks(sc.XFormat)
	}
	if sc.YFormat != nil {
		p.Y.Tick.Marker = formattedTicks(sc.YFormat)
	}
	p.Add(plotter.NewGrid())

	xys := make(plotter.XYs, len(sc.Points))
	for i, pt := range sc.Points {
		xys[i].X, xys[i].Y = pt.X, pt.Y
	}
	scatter, err := plotter.NewScatter(xys)
	if err != nil {
		return nil, fmt.Errorf("scatter points: %w", err)
	}
	scatter.GlyphStyle = draw.GlyphStyle{Color: pointColor, Radius: vg.Points(3), Shape: draw.CircleGlyph{}}
	scatter.GlyphStyleFunc = sc.pointStyles(scatter.GlyphStyle)
	p.Add(scatter)
	p.Legend.Add("Counties", scatter)

	if sc.Fit != nil && !math.IsNaN(sc.Fit.Slope) {
		fit := *sc.Fit
		line := plotter.NewFunction(fit.Predict)
		line.XMin, line.XMax = xRange(sc.Points)
		line.Samples = 2
		line.Color = fitColor
		line.Width = vg.Points(2)
		p.Add(line)
		p.Legend.Add(FitLabel(sc.Fit), line)
		p.Legend.Add(EquationLabel(sc.Fit))
	} else {
		p.Legend.Add(FitLabel(nil))
	}
	p.Legend.Top = true
	return p, nil
}

// WriteSVG renders the chart as an SVG document. Each overlay then draws on
// top of the chart in surface coordinates.
func (sc ScatterChart) WriteSVG(w io.Writer, overlays ...func(Surface)) error {
	p, err := sc.Plot()
	if err != nil {
		return err
	}
	c := vgsvg.New(vg.Points(sc.Width), vg.Points(sc.Height))
	p.Draw(draw.New(c))
	if len(overlays) > 0 {
		s := NewVGSurface(c)
		for _, o := range overlays {
			o(s)
		}
	}
	if _, err := c.WriteTo(w); err != nil {
		return fmt.Errorf("write svg: %w", err)
	}
	return nil
}

// Layout returns where each point is drawn, in surface coordinates, in the
// order of Points.
func (sc ScatterChart) Layout() ([]Point, error) {
	p, err := sc.Plot()
	if err != nil {
		return nil, err
	}
	dc := p.DataCanvas(draw.New(vgsvg.New(vg.Points(sc.Width), vg.Points(sc.Height))))
	tx, ty := p.Transforms(&dc)
	out := make([]Point, len(sc.Points))
	for i, pt := range sc.Points {
		out[i] = Point{X: tx(pt.X).Points(), Y: sc.Height - ty(pt.Y).Points()}
	}
	return out, nil
}

// Markers makes every point hoverable. A point's tooltip names its county
// and shows both values.
func (sc ScatterChart) Markers(overlay *Overlay) (*Markers, error) {
	at, err := sc.Layout()
	if err != nil {
		return nil, err
	}
	xf, yf := sc.XFormat, sc.YFormat
	if xf == nil {
		xf = domain.FormatDecimal
	}
	if yf == nil {
		yf = domain.FormatDecimal
	}
	markers := make([]Marker, len(sc.Points))
	for i, pt := range sc.Points {
		markers[i] = Marker{
			ID:    pt.Label,
			At:    at[i],
			Title: countyTitle(pt.Label),
			Body:  yf(pt.Y) + " at " + xf(pt.X),
		}
	}
	return NewMarkers(markers, scatterHitRadius, overlay), nil
}

// pointStyles colors each point by its x value, or returns nil when every
// point shares base.
func (sc ScatterChart) pointStyles(base draw.GlyphStyle) func(int) draw.GlyphStyle {
	if sc.PointColor == nil {
		return nil
	}
	xs := make([]float64, len(sc.Points))
	for i, pt := range sc.Points {
		xs[i] = pt.X
	}
	scale := domain.BuildScale(xs, sc.PointColor, domain.Domain{Min: 0, Max: 1})
	return func(i int) draw.GlyphStyle {
		style := base
		style.Color = scale.Color(sc.Points[i].X)
		return style
	}
}

func xRange(points []domain.Point) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, p := range points {
		lo = math.Min(lo, p.X)
		hi = math.Max(hi, p.X)
	}
	return lo, hi
}

// formattedTicks relabels the default major ticks with format.
func formattedTicks(format domain.Formatter) plot.Ticker {
	return plot.TickerFunc(func(lo, hi float64) []plot.Tick {
		ticks := plot.DefaultTicks{}.Ticks(lo, hi)
		for i := range ticks {
			if ticks[i].Label != "" {
				ticks[i].Label = format(ticks[i].Value)
			}
		}
		return ticks
	})
}
