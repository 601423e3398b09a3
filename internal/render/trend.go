package render

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/couchcryptid/georgia-health-dashboard/internal/domain"
)

// TrendSeries is one line of a trend chart. Values align with the chart's
// labels; NaN marks a missing observation.
type TrendSeries struct {
	Name   string    `json:"name"`
	Color  string    `json:"color"` // hex, e.g. "#7f4de2"
	Values []float64 `json:"values"`
}

// TrendChart plots one or more series over ordered periods such as years
// or survey cycles. Periods are spaced evenly regardless of their labels.
type TrendChart struct {
	Title  string        `json:"title"`
	XLabel string        `json:"x_label"`
	YLabel string        `json:"y_label"`
	Labels []string      `json:"labels"`
	Series []TrendSeries `json:"series"`

	// YPadding widens the value range on both sides before it is rounded
	// outward to whole units.
	YPadding float64          `json:"y_padding"`
	YFormat  domain.Formatter `json:"-"`

	Width, Height int `json:"-"`
}

// MarshalJSON encodes missing observations as null.
func (s TrendSeries) MarshalJSON() ([]byte, error) {
	values := make([]*float64, len(s.Values))
	for i, v := range s.Values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			values[i] = &s.Values[i]
		}
	}
	return json.Marshal(struct {
		Name   string     `json:"name"`
		Color  string     `json:"color"`
		Values []*float64 `json:"values"`
	}{s.Name, s.Color, values})
}

var errNoTrendData = errors.New("trend chart needs at least two periods with data")

// YRange returns the padded value range of the chart.
func (t TrendChart) YRange() (float64, float64, error) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, s := range t.Series {
		for _, v := range s.Values {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	if math.IsInf(lo, 1) {
		return 0, 0, errNoTrendData
	}
	lo = math.Floor(lo - t.YPadding)
	hi = math.Ceil(hi + t.YPadding)
	if lo == hi {
		hi = lo + 1
	}
	return lo, hi, nil
}

// WriteSVG renders the chart as an SVG document. Each overlay then draws on
// top of the chart in surface coordinates (pixels of the SVG).
func (t TrendChart) WriteSVG(w io.Writer, overlays ...func(Surface)) error {
	c, err := t.chart()
	if err != nil {
		return err
	}
	if len(overlays) > 0 {
		c.Elements = append(c.Elements, func(r chart.Renderer, _ chart.Box, defaults chart.Style) {
			s := &chartSurface{r: r, defaults: defaults, width: float64(c.GetWidth()), height: float64(c.GetHeight())}
			for _, o := range overlays {
				o(s)
			}
		})
	}
	if err := c.Render(chart.SVG, w); err != nil {
		return fmt.Errorf("render trend %q: %w", t.Title, err)
	}
	return nil
}

// chart builds the go-chart definition. The x axis spans one unit per
// period centered on the period index.
func (t TrendChart) chart() (chart.Chart, error) {
	if len(t.Labels) < 2 {
		return chart.Chart{}, errNoTrendData
	}
	lo, hi, err := t.YRange()
	if err != nil {
		return chart.Chart{}, err
	}
	format := t.YFormat
	if format == nil {
		format = domain.FormatDecimal
	}

	var series []chart.Series
	for _, s := range t.Series {
		cs := continuous(s)
		if len(cs.XValues) == 0 {
			continue
		}
		series = append(series, cs)
	}
	if len(series) == 0 {
		return chart.Chart{}, errNoTrendData
	}

	ticks := make([]chart.Tick, len(t.Labels))
	for i, label := range t.Labels {
		ticks[i] = chart.Tick{Value: float64(i), Label: label}
	}

	c := chart.Chart{
		Title:  t.Title,
		Width:  t.Width,
		Height: t.Height,
		Background: chart.Style{
			Padding: chart.Box{Top: 50, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: chart.XAxis{
			Name:  t.XLabel,
			Range: &chart.ContinuousRange{Min: -0.5, Max: float64(len(t.Labels)) - 0.5},
			Ticks: ticks,
		},
		YAxis: chart.YAxis{
			Name:  t.YLabel,
			Range: &chart.ContinuousRange{Min: lo, Max: hi},
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return format(f)
				}
				return ""
			},
			GridMajorStyle: chart.Style{StrokeColor: drawing.ColorFromHex("e0e0e0"), StrokeWidth: 1},
		},
		Series: series,
	}
	if len(series) > 1 {
		c.Elements = []chart.Renderable{chart.Legend(&c)}
	}
	return c, nil
}

// Layout returns, per series, where each observation is drawn in surface
// coordinates. Missing observations have no position and are omitted, so
// positions pair with the series' defined values in period order.
func (t TrendChart) Layout() ([][]Point, error) {
	c, err := t.chart()
	if err != nil {
		return nil, err
	}
	var box chart.Box
	c.Elements = append(c.Elements, func(_ chart.Renderer, b chart.Box, _ chart.Style) { box = b })
	if err := c.Render(chart.SVG, io.Discard); err != nil {
		return nil, fmt.Errorf("layout trend %q: %w", t.Title, err)
	}

	xr := chart.ContinuousRange{Min: c.XAxis.Range.GetMin(), Max: c.XAxis.Range.GetMax(), Domain: box.Width()}
	yr := chart.ContinuousRange{Min: c.YAxis.Range.GetMin(), Max: c.YAxis.Range.GetMax(), Domain: box.Height()}
	out := make([][]Point, len(t.Series))
	for i, s := range t.Series {
		for j, v := range s.Values {
			if j >= len(t.Labels) {
				break
			}
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			out[i] = append(out[i], Point{
				X: float64(box.Left + xr.Translate(float64(j))),
				Y: float64(box.Bottom - yr.Translate(v)),
			})
		}
	}
	return out, nil
}

// Markers makes every observation hoverable. The tooltip of a point names
// its period and lists every series' value for that period.
func (t TrendChart) Markers(overlay *Overlay) (*Markers, error) {
	layout, err := t.Layout()
	if err != nil {
		return nil, err
	}
	format := t.YFormat
	if format == nil {
		format = domain.FormatDecimal
	}

	bodies := make([]string, len(t.Labels))
	for j := range t.Labels {
		var parts []string
		for _, s := range t.Series {
			if j >= len(s.Values) || math.IsNaN(s.Values[j]) || math.IsInf(s.Values[j], 0) {
				continue
			}
			if len(t.Series) == 1 {
				parts = append(parts, format(s.Values[j]))
				continue
			}
			parts = append(parts, s.Name+" "+format(s.Values[j]))
		}
		bodies[j] = strings.Join(parts, ", ")
	}

	var markers []Marker
	for i, s := range t.Series {
		k := 0
		for j, v := range s.Values {
			if j >= len(t.Labels) {
				break
			}
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			markers = append(markers, Marker{
				ID:    s.Name + "/" + t.Labels[j],
				At:    layout[i][k],
				Title: t.Labels[j],
				Body:  bodies[j],
			})
			k++
		}
	}
	return NewMarkers(markers, trendHitRadius, overlay), nil
}

// trendHitRadius is how close, in pixels, the pointer must be to an
// observation to hover it.
const trendHitRadius = 10

// continuous drops missing observations from s. Points keep their period
// index as x.
func continuous(s TrendSeries) chart.ContinuousSeries {
	cs := chart.ContinuousSeries{Name: s.Name}
	for i, v := range s.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		cs.XValues = append(cs.XValues, float64(i))
		cs.YValues = append(cs.YValues, v)
	}
	if hex := strings.TrimPrefix(s.Color, "#"); len(hex) == 3 || len(hex) == 6 {
		col := drawing.ColorFromHex(hex)
		cs.Style = chart.Style{StrokeColor: col, StrokeWidth: 2.5, DotColor: col, DotWidth: 3.5}
	}
	return cs
}
