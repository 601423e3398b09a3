package render

import (
	"math"
	"strings"
	"sync"
)

// Marker is a hoverable point of a chart, in surface coordinates.
type Marker struct {
	ID    string
	At    Point
	Title string
	Body  string
}

// Markers tracks pointer hover over the points of a chart. It follows the
// same rules as a choropleth: at most one marker is hovered, its tooltip
// goes through the shared overlay, and a marker whose tooltip was taken by
// another owner is no longer hovered.
type Markers struct {
	token   Token
	overlay *Overlay
	radius  float64
	markers []Marker
	index   map[string]int

	mu       sync.Mutex
	hovered  int
	pointer  Point
	revision uint64
}

// NewMarkers creates a hover tracker. PointerAt picks the nearest marker
// within radius. A nil overlay gives the chart a private one.
func NewMarkers(markers []Marker, radius float64, overlay *Overlay) *Markers {
	if overlay == nil {
		overlay = NewOverlay()
	}
	m := &Markers{
		token:   NewToken(),
		overlay: overlay,
		radius:  radius,
		markers: markers,
		index:   make(map[string]int, len(markers)),
		hovered: -1,
	}
	for i, mk := range markers {
		m.index[mk.ID] = i
	}
	return m
}

// Token returns the chart's overlay owner token.
func (m *Markers) Token() Token { return m.token }

// Len returns the number of markers.
func (m *Markers) Len() int { return len(m.markers) }

// Marker returns the marker with the given id.
func (m *Markers) Marker(id string) (Marker, bool) {
	i, ok := m.index[id]
	if !ok {
		return Marker{}, false
	}
	return m.markers[i], true
}

// Revision increases on every interaction state change.
func (m *Markers) Revision() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.revision
}

// State returns the current hover state. FeatureID is the hovered marker.
func (m *Markers) State() HoverState {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dropLostHover()
	st := HoverState{Pointer: m.pointer}
	if m.hovered >= 0 {
		st.Hovered = true
		st.FeatureID = m.markers[m.hovered].ID
	}
	if tip, ok := m.overlay.HeldBy(m.token); ok {
		st.Tooltip = &tip
	}
	return st
}

// PointerEnter hovers marker id and shows its tooltip at the pointer.
func (m *Markers) PointerEnter(id string, at Point) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, ok := m.index[id]
	if !ok {
		return false
	}
	m.enter(i, at)
	return true
}

// PointerMove makes the tooltip track the pointer while a marker is hovered.
func (m *Markers) PointerMove(at Point) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dropLostHover()
	if m.hovered < 0 {
		return false
	}
	m.pointer = at
	m.overlay.Move(m.token, at)
	m.revision++
	return true
}

// PointerLeave ends the hover of marker id.
func (m *Markers) PointerLeave(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dropLostHover()
	i, ok := m.index[id]
	if !ok || i != m.hovered {
		return false
	}
	m.leave()
	return true
}

// PointerAt hovers the marker nearest to the pointer, or ends the hover
// when no marker is within reach.
func (m *Markers) PointerAt(at Point) HoverState {
	m.mu.Lock()
	m.dropLostHover()
	i := m.hit(at)
	switch {
	case i < 0 && m.hovered >= 0:
		m.leave()
	case i >= 0 && i == m.hovered:
		m.pointer = at
		m.overlay.Move(m.token, at)
		m.revision++
	case i >= 0:
		m.enter(i, at)
	}
	m.mu.Unlock()
	return m.State()
}

// Draw rings the hovered marker and paints the tooltip when this chart
// holds the overlay.
func (m *Markers) Draw(s Surface) {
	m.mu.Lock()
	m.dropLostHover()
	hovered := m.hovered
	m.mu.Unlock()

	if hovered >= 0 {
		s.Polygon([][]Point{circle(m.markers[hovered].At, m.radius*0.75, 16)},
			Style{Stroke: hoverStrokeColor, StrokeWidth: hoverStroke})
	}
	m.overlay.Draw(s, m.token)
}

func (m *Markers) enter(i int, at Point) {
	if m.hovered >= 0 && m.hovered != i {
		m.leave()
	}
	m.hovered = i
	m.pointer = at
	mk := m.markers[i]
	m.overlay.Acquire(m.token, Tooltip{Title: mk.Title, Body: mk.Body, At: at})
	m.revision++
}

func (m *Markers) leave() {
	m.hovered = -1
	m.pointer = Point{}
	m.overlay.Release(m.token)
	m.revision++
}

// dropLostHover ends the hover when another owner has taken the overlay.
// Callers hold mu.
func (m *Markers) dropLostHover() {
	if m.hovered < 0 {
		return
	}
	if _, held := m.overlay.HeldBy(m.token); held {
		return
	}
	m.hovered = -1
	m.pointer = Point{}
	m.revision++
}

func (m *Markers) hit(at Point) int {
	best, bestDist := -1, m.radius
	for i, mk := range m.markers {
		if d := math.Hypot(mk.At.X-at.X, mk.At.Y-at.Y); d <= bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// circle approximates a circle with an n-sided ring.
func circle(c Point, r float64, n int) []Point {
	ring := make([]Point, n)
	for i := range ring {
		a := 2 * math.Pi * float64(i) / float64(n)
		ring[i] = Point{c.X + r*math.Cos(a), c.Y + r*math.Sin(a)}
	}
	return ring
}

// countyTitle names a county for display, e.g. "Fulton" as "Fulton County".
func countyTitle(name string) string {
	if strings.HasSuffix(strings.ToLower(name), "county") {
		return name
	}
	return name + " County"
}
