package render

import (
	"fmt"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/font"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/vgsvg"
)

// VGSurface draws onto a gonum vg canvas. vg places the origin at the
// bottom-left, so y is flipped on the way in.
type VGSurface struct {
	canvas        vg.Canvas
	width, height float64
}

// NewVGSurface wraps a sized vg canvas.
func NewVGSurface(c vg.CanvasSizer) *VGSurface {
	w, h := c.Size()
	return &VGSurface{canvas: c, width: w.Points(), height: h.Points()}
}

// WriteSVG sizes an SVG canvas, lets draw paint onto it and writes the
// document to w.
func WriteSVG(w io.Writer, width, height float64, draw func(Surface)) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid canvas size %gx%g", width, height)
	}
	c := vgsvg.New(vg.Points(width), vg.Points(height))
	draw(NewVGSurface(c))
	if _, err := c.WriteTo(w); err != nil {
		return fmt.Errorf("write svg: %w", err)
	}
	return nil
}

func (s *VGSurface) Size() (float64, float64) { return s.width, s.height }

func (s *VGSurface) pt(p Point) vg.Point {
	return vg.Point{X: vg.Points(p.X), Y: vg.Points(s.height - p.Y)}
}

func (s *VGSurface) Polygon(rings [][]Point, style Style) {
	var path vg.Path
	for _, ring := range rings {
		if len(ring) < 3 {
			continue
		}
		path.Move(s.pt(ring[0]))
		for _, p := range ring[1:] {
			path.Line(s.pt(p))
		}
		path.Close()
	}
	if len(path) == 0 {
		return
	}
	s.paint(path, style)
}

func (s *VGSurface) Polyline(points []Point, style Style) {
	if len(points) < 2 || style.Stroke == nil || style.StrokeWidth <= 0 {
		return
	}
	var path vg.Path
	path.Move(s.pt(points[0]))
	for _, p := range points[1:] {
		path.Line(s.pt(p))
	}
	s.canvas.SetColor(style.Stroke)
	s.canvas.SetLineWidth(vg.Points(style.StrokeWidth))
	s.canvas.Stroke(path)
}

func (s *VGSurface) Rect(r Rect, style Style) {
	var path vg.Path
	path.Move(s.pt(r.Min))
	path.Line(s.pt(Point{r.Max.X, r.Min.Y}))
	path.Line(s.pt(r.Max))
	path.Line(s.pt(Point{r.Min.X, r.Max.Y}))
	path.Close()
	s.paint(path, style)
}

func (s *VGSurface) Text(at Point, text string, style TextStyle) {
	if text == "" || style.Size <= 0 {
		return
	}
	face := font.DefaultCache.Lookup(plot.DefaultFont, vg.Points(style.Size))
	x := at.X
	switch style.Anchor {
	case AnchorMiddle:
		x -= face.Width(text).Points() / 2
	case AnchorEnd:
		x -= face.Width(text).Points()
	}
	c := style.Color
	if c == nil {
		c = black
	}
	s.canvas.SetColor(c)
	s.canvas.FillString(face, s.pt(Point{x, at.Y}), text)
}

func (s *VGSurface) paint(path vg.Path, style Style) {
	if style.Fill != nil {
		s.canvas.SetColor(style.Fill)
		s.canvas.Fill(path)
	}
	if style.Stroke != nil && style.StrokeWidth > 0 {
		s.canvas.SetColor(style.Stroke)
		s.canvas.SetLineWidth(vg.Points(style.StrokeWidth))
		s.canvas.Stroke(path)
	}
}
