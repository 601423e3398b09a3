package render

import (
	"image/color"
	"math"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// chartSurface draws onto a go-chart renderer from inside a chart element.
// go-chart already places the origin at the top-left, in pixels.
type chartSurface struct {
	r             chart.Renderer
	defaults      chart.Style
	width, height float64
}

func (s *chartSurface) Size() (float64, float64) { return s.width, s.height }

func (s *chartSurface) Polygon(rings [][]Point, style Style) {
	drawn := false
	for _, ring := range rings {
		if len(ring) < 3 {
			continue
		}
		s.path(ring)
		s.r.Close()
		drawn = true
	}
	if drawn {
		s.paint(style)
	}
}

func (s *chartSurface) Polyline(points []Point, style Style) {
	if len(points) < 2 || style.Stroke == nil || style.StrokeWidth <= 0 {
		return
	}
	s.path(points)
	s.paint(Style{Stroke: style.Stroke, StrokeWidth: style.StrokeWidth})
}

func (s *chartSurface) Rect(r Rect, style Style) {
	s.Polygon([][]Point{{r.Min, {r.Max.X, r.Min.Y}, r.Max, {r.Min.X, r.Max.Y}}}, style)
}

func (s *chartSurface) Text(at Point, text string, style TextStyle) {
	if text == "" || style.Size <= 0 {
		return
	}
	c := style.Color
	if c == nil {
		c = black
	}
	chart.Style{FontSize: style.Size, FontColor: drawingColor(c)}.
		InheritFrom(s.defaults).
		WriteTextOptionsToRenderer(s.r)
	x := at.X
	switch style.Anchor {
	case AnchorMiddle:
		x -= float64(s.r.MeasureText(text).Width()) / 2
	case AnchorEnd:
		x -= float64(s.r.MeasureText(text).Width())
	}
	s.r.Text(text, px(x), px(at.Y))
}

func (s *chartSurface) path(points []Point) {
	s.r.MoveTo(px(points[0].X), px(points[0].Y))
	for _, p := range points[1:] {
		s.r.LineTo(px(p.X), px(p.Y))
	}
}

// paint fills and strokes the current path. go-chart always emits both, so
// a disabled part is made transparent.
func (s *chartSurface) paint(style Style) {
	fill, stroke, width := drawing.ColorTransparent, drawing.ColorTransparent, 0.0
	if style.Fill != nil {
		fill = drawingColor(style.Fill)
	}
	if style.Stroke != nil && style.StrokeWidth > 0 {
		stroke, width = drawingColor(style.Stroke), style.StrokeWidth
	}
	s.r.SetFillColor(fill)
	s.r.SetStrokeColor(stroke)
	s.r.SetStrokeWidth(width)
	s.r.FillStroke()
}

func drawingColor(c color.Color) drawing.Color {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return drawing.Color{R: n.R, G: n.G, B: n.B, A: n.A}
}

func px(v float64) int { return int(math.Round(v)) }
