package render

// OpKind names a recorded draw command.
type OpKind string

const (
	OpPolygon  OpKind = "polygon"
	OpPolyline OpKind = "polyline"
	OpRect     OpKind = "rect"
	OpText     OpKind = "text"
)

// Op is one recorded draw command.
type Op struct {
	Kind      OpKind
	Rings     [][]Point
	Points    []Point
	Rect      Rect
	At        Point
	Text      string
	Style     Style
	TextStyle TextStyle
}

// Recorder is a Surface that keeps every draw command instead of painting.
type Recorder struct {
	Width, Height float64
	Ops           []Op
}

// NewRecorder creates an empty recorder of the given size.
func NewRecorder(width, height float64) *Recorder {
	return &Recorder{Width: width, Height: height}
}

func (r *Recorder) Size() (float64, float64) { return r.Width, r.Height }

func (r *Recorder) Polygon(rings [][]Point, style Style) {
	r.Ops = append(r.Ops, Op{Kind: OpPolygon, Rings: rings, Style: style})
}

func (r *Recorder) Polyline(points []Point, style Style) {
	r.Ops = append(r.Ops, Op{Kind: OpPolyline, Points: points, Style: style})
}

func (r *Recorder) Rect(rect Rect, style Style) {
	r.Ops = append(r.Ops, Op{Kind: OpRect, Rect: rect, Style: style})
}

func (r *Recorder) Text(at Point, text string, style TextStyle) {
	r.Ops = append(r.Ops, Op{Kind: OpText, At: at, Text: text, TextStyle: style})
}

// Texts returns the recorded strings in draw order.
func (r *Recorder) Texts() []string {
	var out []string
	for _, op := range r.Ops {
		if op.Kind == OpText {
			out = append(out, op.Text)
		}
	}
	return out
}

// OfKind returns the recorded ops of one kind in draw order.
func (r *Recorder) OfKind(kind OpKind) []Op {
	var out []Op
	for _, op := range r.Ops {
		if op.Kind == kind {
			out = append(out, op)
		}
	}
	return out
}
