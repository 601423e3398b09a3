package render

import (
	"image/color"
	"strings"

	"github.com/couchcryptid/georgia-health-dashboard/internal/domain"
)

// Panel replaces a chart that cannot be drawn: a view that is still
// loading, or one whose sources failed.
type Panel struct {
	Title   string `json:"title"`
	Kind    string `json:"kind,omitempty"` // error kind, empty while loading
	Message string `json:"message"`
	Hint    string `json:"hint,omitempty"`
	Loading bool   `json:"loading"`
}

// RetryHint tells the user how to retry a failed view.
const RetryHint = "Retry with POST /views/%s/reload"

// LoadingPanel describes a view whose sources are still in flight.
func LoadingPanel(title string) Panel {
	return Panel{Title: title, Message: "Loading data…", Loading: true}
}

// ErrorPanel describes a failed view.
func ErrorPanel(title string, err error, hint string) Panel {
	return Panel{
		Title:   title,
		Kind:    domain.ErrorKind(err),
		Message: err.Error(),
		Hint:    hint,
	}
}

var (
	panelBackground = color.RGBA{R: 0xfa, G: 0xfa, B: 0xfa, A: 0xff}
	panelBorder     = color.RGBA{R: 0xcc, G: 0xcc, B: 0xcc, A: 0xff}
	errorColor      = color.RGBA{R: 0xb0, G: 0x1c, B: 0x1c, A: 0xff}
)

// Draw paints the panel over the whole surface.
func (p Panel) Draw(s Surface) {
	w, h := s.Size()
	s.Rect(Rect{Max: Point{w, h}}.Inset(4), Style{Fill: panelBackground, Stroke: panelBorder, StrokeWidth: 1})
	if p.Title != "" {
		s.Text(Point{w / 2, titleSize + 10}, p.Title, TextStyle{Size: titleSize, Color: black, Anchor: AnchorMiddle})
	}

	y := h/2 - 20
	if p.Loading {
		s.Text(Point{w / 2, y}, p.Message, TextStyle{Size: 12, Color: muted, Anchor: AnchorMiddle})
		return
	}

	s.Text(Point{w / 2, y}, p.Kind, TextStyle{Size: 13, Color: errorColor, Anchor: AnchorMiddle})
	for _, line := range wrap(p.Message, max(20, int((w-40)/(11*0.6)))) {
		y += 16
		s.Text(Point{w / 2, y}, line, TextStyle{Size: 11, Color: black, Anchor: AnchorMiddle})
	}
	if p.Hint != "" {
		s.Text(Point{w / 2, y + 28}, p.Hint, TextStyle{Size: 10, Color: muted, Anchor: AnchorMiddle})
	}
}

// wrap breaks text into lines of at most width runes on word boundaries.
// Words longer than width are kept whole.
func wrap(text string, width int) []string {
	var lines []string
	var cur strings.Builder
	for _, word := range strings.Fields(text) {
		if cur.Len() > 0 && len([]rune(cur.String()))+1+len([]rune(word)) > width {
			lines = append(lines, cur.String())
			cur.Reset()
		}
		if cur.Len() > 0 {
			cur.WriteByte(' ')
		}
		cur.WriteString(word)
	}
	if cur.Len() > 0 {
		lines = append(lines, cur.String())
	}
	return lines
}
