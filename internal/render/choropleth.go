package render

import (
	"image/color"
	"math"
	"sync"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"

	"github.com/couchcryptid/georgia-health-dashboard/internal/domain"
)

// Layout and stroke constants, in points.
const (
	titleBand   = 30
	legendBand  = 62
	mapMargin   = 10
	titleSize   = 14
	baseStroke  = 0.5
	hoverStroke = 2
)

var (
	baseStrokeColor  = white
	hoverStrokeColor = color.RGBA{R: 0x22, G: 0x22, B: 0x22, A: 0xff}
)

// MapOptions configures a choropleth.
type MapOptions struct {
	Title         string
	Metric        string // legend title
	Width, Height float64
	Overlay       *Overlay
	Format        domain.Formatter

	// LegendFormat labels legend ticks; nil uses Format.
	LegendFormat domain.Formatter
}

// HoverState is a snapshot of a map's interaction state.
type HoverState struct {
	FeatureID string   `json:"feature_id,omitempty"`
	Hovered   bool     `json:"hovered"`
	Pointer   Point    `json:"pointer"`
	Tooltip   *Tooltip `json:"tooltip,omitempty"`
}

type featureShape struct {
	record domain.JoinedRecord
	fill   color.RGBA
	rings  [][]Point
	polys  [][][]float64 // per polygon: outer ring then holes, flat x,y
	bounds Rect
}

// Choropleth is a rendered map of joined records. Fills, projected outlines
// and the legend are fixed at construction; pointer events only switch
// which feature is emphasized and who holds the tooltip.
//
// Each feature is Idle or Hovered, and at most one feature is Hovered. A
// hovered feature returns to Idle when another map takes the shared
// overlay.
type Choropleth struct {
	title   string
	token   Token
	overlay *Overlay
	format  domain.Formatter

	width, height float64
	legend        Legend
	legendArea    Rect
	features      []featureShape
	index         map[string]int

	mu       sync.Mutex
	hovered  int
	pointer  Point
	revision uint64
}

// NewChoropleth projects joined features into the map area and paints each
// with scale. A nil overlay gives the map a private one.
func NewChoropleth(joined []domain.JoinedRecord, scale domain.ColorScale, opts MapOptions) *Choropleth {
	if opts.Overlay == nil {
		opts.Overlay = NewOverlay()
	}
	if opts.Format == nil {
		opts.Format = domain.FormatDecimal
	}
	if opts.LegendFormat == nil {
		opts.LegendFormat = opts.Format
	}
	c := &Choropleth{
		title:   opts.Title,
		token:   NewToken(),
		overlay: opts.Overlay,
		format:  opts.Format,
		width:   opts.Width,
		height:  opts.Height,
		legend:  NewLegend(opts.Metric, scale, opts.LegendFormat),
		index:   make(map[string]int, len(joined)),
		hovered: -1,
	}

	mapArea := Rect{
		Min: Point{mapMargin, titleBand},
		Max: Point{opts.Width - mapMargin, opts.Height - legendBand},
	}
	c.legendArea = Rect{
		Min: Point{mapMargin * 2, opts.Height - legendBand + 8},
		Max: Point{opts.Width - mapMargin*2, opts.Height - 4},
	}

	geoms := make([]geom.T, len(joined))
	for i, j := range joined {
		geoms[i] = j.Feature.Geometry
	}
	proj := FitMercator(regionBounds(geoms), mapArea)

	c.features = make([]featureShape, 0, len(joined))
	for _, j := range joined {
		shape := featureShape{
			record: j,
			fill:   scale.Fill(j.Value),
			rings:  projectRings(j.Feature.Geometry, proj),
		}
		shape.polys, shape.bounds = flatten(shape.rings, polygonRingCounts(j.Feature.Geometry))
		c.index[j.Feature.ID] = len(c.features)
		c.features = append(c.features, shape)
	}
	return c
}

func flatten(rings [][]Point, counts []int) ([][][]float64, Rect) {
	bounds := Rect{Min: Point{math.Inf(1), math.Inf(1)}, Max: Point{math.Inf(-1), math.Inf(-1)}}
	var polys [][][]float64
	next := 0
	for _, n := range counts {
		var poly [][]float64
		for r := 0; r < n && next < len(rings); r++ {
			ring := rings[next]
			next++
			flat := make([]float64, 0, len(ring)*2)
			for _, p := range ring {
				flat = append(flat, p.X, p.Y)
				bounds.Min.X = math.Min(bounds.Min.X, p.X)
				bounds.Min.Y = math.Min(bounds.Min.Y, p.Y)
				bounds.Max.X = math.Max(bounds.Max.X, p.X)
				bounds.Max.Y = math.Max(bounds.Max.Y, p.Y)
			}
			poly = append(poly, flat)
		}
		polys = append(polys, poly)
	}
	return polys, bounds
}

// Token returns the map's overlay owner token.
func (c *Choropleth) Token() Token { return c.token }

// Legend returns the legend derived from the map's scale.
func (c *Choropleth) Legend() Legend { return c.legend }

// Size returns the surface size the map was laid out for.
func (c *Choropleth) Size() (float64, float64) { return c.width, c.height }

// Revision increases on every interaction state change.
func (c *Choropleth) Revision() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.revision
}

// Fill returns the precomputed fill of a feature.
func (c *Choropleth) Fill(id string) (color.RGBA, bool) {
	i, ok := c.index[id]
	if !ok {
		return color.RGBA{}, false
	}
	return c.features[i].fill, true
}

// StrokeWidth returns the current outline width of a feature.
func (c *Choropleth) StrokeWidth(id string) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	i, ok := c.index[id]
	if !ok {
		return 0
	}
	c.dropLostHover()
	return c.strokeWidth(i)
}

func (c *Choropleth) strokeWidth(i int) float64 {
	if i == c.hovered {
		return hoverStroke
	}
	return baseStroke
}

// State returns the current hover state.
func (c *Choropleth) State() HoverState {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dropLostHover()
	st := HoverState{Pointer: c.pointer}
	if c.hovered >= 0 {
		st.Hovered = true
		st.FeatureID = c.features[c.hovered].record.Feature.ID
	}
	if tip, ok := c.overlay.HeldBy(c.token); ok {
		st.Tooltip = &tip
	}
	return st
}

// PointerEnter moves feature id from Idle to Hovered: its outline is
// emphasized and the tooltip shows its name and value at the pointer. A
// previously hovered feature returns to Idle first. Unknown ids are
// ignored.
func (c *Choropleth) PointerEnter(id string, at Point) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	i, ok := c.index[id]
	if !ok {
		return false
	}
	c.enter(i, at)
	return true
}

// PointerMove makes the tooltip track the pointer while a feature is
// Hovered.
func (c *Choropleth) PointerMove(at Point) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dropLostHover()
	if c.hovered < 0 {
		return false
	}
	c.pointer = at
	c.overlay.Move(c.token, at)
	c.revision++
	return true
}

// PointerLeave returns feature id to Idle and hides the tooltip.
func (c *Choropleth) PointerLeave(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dropLostHover()
	i, ok := c.index[id]
	if !ok || i != c.hovered {
		return false
	}
	c.leave()
	return true
}

// PointerAt hit-tests a pointer position and performs the implied
// transitions: entering the feature under the pointer, leaving the one it
// exited, or tracking movement within the same feature.
func (c *Choropleth) PointerAt(at Point) HoverState {
	c.mu.Lock()
	c.dropLostHover()
	i := c.hit(at)
	switch {
	case i < 0 && c.hovered >= 0:
		c.leave()
	case i >= 0 && i == c.hovered:
		c.pointer = at
		c.overlay.Move(c.token, at)
		c.revision++
	case i >= 0:
		c.enter(i, at)
	}
	c.mu.Unlock()
	return c.State()
}

func (c *Choropleth) enter(i int, at Point) {
	if c.hovered >= 0 && c.hovered != i {
		c.leave()
	}
	c.hovered = i
	c.pointer = at
	c.overlay.Acquire(c.token, c.tooltip(i, at))
	c.revision++
}

// dropLostHover returns the hovered feature to Idle when another owner has
// taken the overlay. Callers hold mu.
func (c *Choropleth) dropLostHover() {
	if c.hovered < 0 {
		return
	}
	if _, held := c.overlay.HeldBy(c.token); held {
		return
	}
	c.hovered = -1
	c.pointer = Point{}
	c.revision++
}

func (c *Choropleth) leave() {
	c.hovered = -1
	c.pointer = Point{}
	c.overlay.Release(c.token)
	c.revision++
}

func (c *Choropleth) tooltip(i int, at Point) Tooltip {
	rec := c.features[i].record
	title := countyTitle(rec.Feature.Name)
	body := "No data"
	if rec.Value != nil {
		body = c.format(*rec.Value)
	}
	return Tooltip{Title: title, Body: body, At: at}
}

func (c *Choropleth) hit(at Point) int {
	p := geom.Coord{at.X, at.Y}
	// Reverse order so the feature painted last wins on shared edges.
	for i := len(c.features) - 1; i >= 0; i-- {
		f := c.features[i]
		if !f.bounds.Contains(at) {
			continue
		}
		for _, poly := range f.polys {
			if len(poly) == 0 || !xy.IsPointInRing(geom.XY, p, poly[0]) {
				continue
			}
			inHole := false
			for _, hole := range poly[1:] {
				if xy.IsPointInRing(geom.XY, p, hole) {
					inHole = true
					break
				}
			}
			if !inHole {
				return i
			}
		}
	}
	return -1
}

// Render draws the title, every feature, the legend and, when this map
// holds it, the tooltip. The hovered feature is drawn last so its outline
// is not covered by neighbors.
func (c *Choropleth) Render(s Surface) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dropLostHover()

	if c.title != "" {
		s.Text(Point{c.width / 2, titleSize + 6}, c.title, TextStyle{Size: titleSize, Color: black, Anchor: AnchorMiddle})
	}
	for i := range c.features {
		if i != c.hovered {
			c.drawFeature(s, i)
		}
	}
	if c.hovered >= 0 {
		c.drawFeature(s, c.hovered)
	}
	c.legend.Draw(s, c.legendArea)
	c.overlay.Draw(s, c.token)
}

func (c *Choropleth) drawFeature(s Surface, i int) {
	f := c.features[i]
	if len(f.rings) == 0 {
		return
	}
	stroke := baseStrokeColor
	if i == c.hovered {
		stroke = hoverStrokeColor
	}
	s.Polygon(f.rings, Style{Fill: f.fill, Stroke: stroke, StrokeWidth: c.strokeWidth(i)})
}
