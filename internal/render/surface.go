// Package render draws choropleth maps, legends, panels and charts onto an
// abstract vector surface.
//
// Surface coordinates are in points with the origin at the top-left corner
// and y growing downward. Concrete surfaces translate to their backend's
// coordinate system.
package render

import "image/color"

// Point is a position on a surface.
type Point struct {
	X, Y float64
}

// Rect is an axis-aligned rectangle on a surface.
type Rect struct {
	Min, Max Point
}

// Width returns the horizontal extent of r.
func (r Rect) Width() float64 { return r.Max.X - r.Min.X }

// Height returns the vertical extent of r.
func (r Rect) Height() float64 { return r.Max.Y - r.Min.Y }

// Contains reports whether p lies inside r, edges included.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.Min.X && p.X <= r.Max.X && p.Y >= r.Min.Y && p.Y <= r.Max.Y
}

// Inset shrinks r by d on every side.
func (r Rect) Inset(d float64) Rect {
	return Rect{Min: Point{r.Min.X + d, r.Min.Y + d}, Max: Point{r.Max.X - d, r.Max.Y - d}}
}

// Style controls how a shape is painted. A nil Fill or Stroke disables that
// part; a non-positive StrokeWidth disables the stroke.
type Style struct {
	Fill        color.Color
	Stroke      color.Color
	StrokeWidth float64
}

// Anchor aligns text horizontally relative to its position.
type Anchor int

const (
	AnchorStart Anchor = iota
	AnchorMiddle
	AnchorEnd
)

// TextStyle controls how text is drawn. The text position is its baseline.
type TextStyle struct {
	Size   float64
	Color  color.Color
	Anchor Anchor
}

// Surface is a 2-D vector drawing target.
type Surface interface {
	Size() (width, height float64)

	// Polygon paints one shape made of closed rings. Inner rings are holes.
	Polygon(rings [][]Point, style Style)

	// Polyline strokes an open path.
	Polyline(points []Point, style Style)

	Rect(r Rect, style Style)
	Text(at Point, text string, style TextStyle)
}

var (
	black = color.RGBA{A: 0xff}
	white = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	muted = color.RGBA{R: 0x55, G: 0x55, B: 0x55, A: 0xff}
)
