package render

import (
	"sync"

	"github.com/google/uuid"
)

// Token identifies an overlay owner.
type Token string

// NewToken returns a fresh owner token.
func NewToken() Token { return Token(uuid.NewString()) }

// Tooltip is the overlay content.
type Tooltip struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	At    Point  `json:"at"`
}

// Overlay is the single tooltip shared by every map of a dashboard. At most
// one owner holds it; acquiring it replaces whatever the previous owner
// showed.
type Overlay struct {
	mu      sync.Mutex
	owner   Token
	tip     Tooltip
	visible bool
	version uint64
}

// NewOverlay creates an empty overlay.
func NewOverlay() *Overlay { return &Overlay{} }

// Acquire makes owner the holder of the overlay and shows tip. It returns
// the previous owner, or "" when the overlay was free or already held by
// owner.
func (o *Overlay) Acquire(owner Token, tip Tooltip) Token {
	o.mu.Lock()
	defer o.mu.Unlock()

	prev := o.owner
	o.owner, o.tip, o.visible = owner, tip, true
	o.version++
	if prev == owner {
		return ""
	}
	return prev
}

// Move repositions the tooltip if owner holds the overlay.
func (o *Overlay) Move(owner Token, at Point) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.visible || o.owner != owner {
		return false
	}
	o.tip.At = at
	o.version++
	return true
}

// Release hides and frees the overlay if owner holds it. A stale owner's
// release is ignored.
func (o *Overlay) Release(owner Token) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.visible || o.owner != owner {
		return false
	}
	o.owner, o.tip, o.visible = "", Tooltip{}, false
	o.version++
	return true
}

// Current returns the holder and content of the overlay.
func (o *Overlay) Current() (Token, Tooltip, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.owner, o.tip, o.visible
}

// Version increases on every change of holder, content or position.
func (o *Overlay) Version() uint64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.version
}

// HeldBy returns the tooltip when owner holds the overlay.
func (o *Overlay) HeldBy(owner Token) (Tooltip, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.visible || o.owner != owner {
		return Tooltip{}, false
	}
	return o.tip, true
}

// Draw paints the tooltip if owner holds the overlay. The box is kept
// inside the surface.
func (o *Overlay) Draw(s Surface, owner Token) {
	tip, ok := o.HeldBy(owner)
	if !ok {
		return
	}
	drawTooltip(s, tip)
}

const (
	tooltipTitleSize = 11
	tooltipBodySize  = 10
	tooltipPad       = 6
	tooltipOffset    = 12
)

func drawTooltip(s Surface, tip Tooltip) {
	w, h := s.Size()
	boxW := tooltipPad*2 + approxTextWidth(longer(tip.Title, tip.Body), tooltipTitleSize)
	boxH := float64(tooltipPad*2 + tooltipTitleSize + 4 + tooltipBodySize)

	x := tip.At.X + tooltipOffset
	y := tip.At.Y + tooltipOffset
	if x+boxW > w {
		x = tip.At.X - tooltipOffset - boxW
	}
	if y+boxH > h {
		y = tip.At.Y - tooltipOffset - boxH
	}
	x = clamp(x, 0, max(0, w-boxW))
	y = clamp(y, 0, max(0, h-boxH))

	box := Rect{Min: Point{x, y}, Max: Point{x + boxW, y + boxH}}
	s.Rect(box, Style{Fill: white, Stroke: muted, StrokeWidth: 0.75})
	s.Text(Point{x + tooltipPad, y + tooltipPad + tooltipTitleSize}, tip.Title,
		TextStyle{Size: tooltipTitleSize, Color: black})
	s.Text(Point{x + tooltipPad, y + tooltipPad + tooltipTitleSize + 4 + tooltipBodySize}, tip.Body,
		TextStyle{Size: tooltipBodySize, Color: muted})
}

// approxTextWidth estimates rendered width for layout without font metrics.
func approxTextWidth(s string, size float64) float64 {
	return float64(len([]rune(s))) * size * 0.6
}

func longer(a, b string) string {
	if len([]rune(b)) > len([]rune(a)) {
		return b
	}
	return a
}

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(hi, v))
}
