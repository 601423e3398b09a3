package render

import (
	"math"

	"github.com/twpayne/go-geom"
)

// maxLat keeps the Mercator y finite.
const maxLat = 85.05112878

// Projection maps lon/lat degrees to surface points with a spherical
// Mercator projection scaled and centered on a target area.
type Projection struct {
	scale      float64
	minX, maxY float64
	offset     Point
}

// FitMercator returns the projection that fits bounds (lon/lat degrees)
// inside area while preserving aspect ratio. The projected region is
// centered on the axis with slack.
func FitMercator(bounds *geom.Bounds, area Rect) Projection {
	if bounds == nil || bounds.IsEmpty() {
		return Projection{scale: 1, offset: area.Min}
	}
	x0, y0 := mercator(bounds.Min(0), bounds.Min(1))
	x1, y1 := mercator(bounds.Max(0), bounds.Max(1))
	dx, dy := x1-x0, y1-y0

	var scale float64
	switch {
	case dx <= 0 && dy <= 0:
		scale = 1
	case dx <= 0:
		scale = area.Height() / dy
	case dy <= 0:
		scale = area.Width() / dx
	default:
		scale = math.Min(area.Width()/dx, area.Height()/dy)
	}

	return Projection{
		scale: scale,
		minX:  x0,
		maxY:  y1,
		offset: Point{
			X: area.Min.X + (area.Width()-dx*scale)/2,
			Y: area.Min.Y + (area.Height()-dy*scale)/2,
		},
	}
}

// Project maps a lon/lat pair to a surface point.
func (p Projection) Project(lon, lat float64) Point {
	x, y := mercator(lon, lat)
	return Point{
		X: p.offset.X + (x-p.minX)*p.scale,
		Y: p.offset.Y + (p.maxY-y)*p.scale,
	}
}

func mercator(lon, lat float64) (float64, float64) {
	lat = math.Max(-maxLat, math.Min(maxLat, lat))
	phi := lat * math.Pi / 180
	return lon * math.Pi / 180, math.Log(math.Tan(math.Pi/4 + phi/2))
}

// projectRings projects every ring of a polygonal geometry. Each polygon's
// outer ring is followed by its holes.
func projectRings(g geom.T, proj Projection) [][]Point {
	var rings [][]Point
	add := func(poly *geom.Polygon) {
		for _, ring := range poly.Coords() {
			pts := make([]Point, len(ring))
			for i, c := range ring {
				pts[i] = proj.Project(c.X(), c.Y())
			}
			rings = append(rings, pts)
		}
	}
	switch g := g.(type) {
	case *geom.Polygon:
		add(g)
	case *geom.MultiPolygon:
		for i := 0; i < g.NumPolygons(); i++ {
			add(g.Polygon(i))
		}
	}
	return rings
}

// polygonRingCounts returns, for each polygon of g, how many rings it has,
// so hit testing can tell outer rings from holes.
func polygonRingCounts(g geom.T) []int {
	switch g := g.(type) {
	case *geom.Polygon:
		return []int{g.NumLinearRings()}
	case *geom.MultiPolygon:
		counts := make([]int, g.NumPolygons())
		for i := range counts {
			counts[i] = g.Polygon(i).NumLinearRings()
		}
		return counts
	}
	return nil
}

// regionBounds returns the lon/lat bounds covering every geometry.
func regionBounds(geoms []geom.T) *geom.Bounds {
	b := geom.NewBounds(geom.XY)
	for _, g := range geoms {
		if g != nil {
			b.Extend(g)
		}
	}
	return b
}
