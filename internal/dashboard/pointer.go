package dashboard

import (
	"fmt"

	"github.com/couchcryptid/georgia-health-dashboard/internal/render"
)

// PointerEvent is a pointer interaction with a map or chart. FeatureID
// names a county feature of a map or a point of a chart.
type PointerEvent struct {
	Type      string  `json:"type"` // enter, move, leave or at
	FeatureID string  `json:"feature_id,omitempty"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
}

// hoverable is the pointer surface shared by choropleths and chart markers.
type hoverable interface {
	PointerEnter(id string, at render.Point) bool
	PointerMove(at render.Point) bool
	PointerLeave(id string) bool
	PointerAt(at render.Point) render.HoverState
	State() render.HoverState
}

func applyPointer(h hoverable, ev PointerEvent) (render.HoverState, error) {
	at := render.Point{X: ev.X, Y: ev.Y}
	switch ev.Type {
	case "enter":
		if !h.PointerEnter(ev.FeatureID, at) {
			return h.State(), fmt.Errorf("unknown feature %q", ev.FeatureID)
		}
	case "move":
		h.PointerMove(at)
	case "leave":
		h.PointerLeave(ev.FeatureID)
	case "at":
		return h.PointerAt(at), nil
	default:
		return render.HoverState{}, fmt.Errorf("unknown pointer event %q", ev.Type)
	}
	return h.State(), nil
}
