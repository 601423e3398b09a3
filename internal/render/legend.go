package render

import (
	"image/color"

	"github.com/couchcryptid/georgia-health-dashboard/internal/domain"
)

// legendSteps is the number of swatches approximating the continuous ramp.
const legendSteps = 48

// LegendStop is one swatch of the gradient.
type LegendStop struct {
	Value float64    `json:"value"`
	Color color.RGBA `json:"color"`
}

// LegendTick labels a value along the gradient.
type LegendTick struct {
	Value float64 `json:"value"`
	Label string  `json:"label"`
}

// Legend describes the color key of a map. It is derived from the same
// ColorScale that paints the features.
type Legend struct {
	Title    string        `json:"title"`
	Domain   domain.Domain `json:"domain"`
	Fallback bool          `json:"fallback"`
	Inverse  bool          `json:"inverse"`
	Stops    []LegendStop  `json:"stops"`
	Ticks    []LegendTick  `json:"ticks"`
	NoData   color.RGBA    `json:"no_data"`
}

// NewLegend samples scale across its domain.
func NewLegend(title string, scale domain.ColorScale, format domain.Formatter) Legend {
	l := Legend{
		Title:    title,
		Domain:   scale.Domain,
		Fallback: scale.Fallback,
		Inverse:  scale.Inverse,
		NoData:   domain.NoDataColor,
		Stops:    make([]LegendStop, legendSteps),
	}
	span := scale.Domain.Max - scale.Domain.Min
	for i := range l.Stops {
		v := scale.Domain.Min + span*float64(i)/float64(legendSteps-1)
		l.Stops[i] = LegendStop{Value: v, Color: scale.Color(v)}
	}

	ticks := 5
	if span == 0 {
		ticks = 1
	}
	for i := 0; i < ticks; i++ {
		v := scale.Domain.Min
		if ticks > 1 {
			v += span * float64(i) / float64(ticks-1)
		}
		l.Ticks = append(l.Ticks, LegendTick{Value: v, Label: format(v)})
	}
	return l
}

const (
	legendBarHeight = 10
	legendTitleSize = 10
	legendTickSize  = 9
)

// Draw paints the legend inside area: title, gradient bar, tick labels and
// the no-data swatch. A fallback legend carries a notice that no data
// informed the scale.
func (l Legend) Draw(s Surface, area Rect) {
	textStyle := TextStyle{Size: legendTitleSize, Color: black}
	s.Text(Point{area.Min.X, area.Min.Y + legendTitleSize}, l.Title, textStyle)

	swatchW := 70.0
	bar := Rect{
		Min: Point{area.Min.X, area.Min.Y + legendTitleSize + 6},
		Max: Point{area.Max.X - swatchW - 12, area.Min.Y + legendTitleSize + 6 + legendBarHeight},
	}
	step := bar.Width() / float64(len(l.Stops))
	for i, stop := range l.Stops {
		x := bar.Min.X + step*float64(i)
		// Overlap by a hair so anti-aliasing leaves no seams.
		s.Rect(Rect{Min: Point{x, bar.Min.Y}, Max: Point{x + step + 0.3, bar.Max.Y}}, Style{Fill: stop.Color})
	}
	s.Rect(bar, Style{Stroke: muted, StrokeWidth: 0.5})

	span := l.Domain.Max - l.Domain.Min
	tickStyle := TextStyle{Size: legendTickSize, Color: muted, Anchor: AnchorMiddle}
	for i, t := range l.Ticks {
		x := bar.Min.X + bar.Width()/2
		if span != 0 {
			x = bar.Min.X + bar.Width()*(t.Value-l.Domain.Min)/span
		}
		st := tickStyle
		switch {
		case len(l.Ticks) > 1 && i == 0:
			st.Anchor = AnchorStart
		case len(l.Ticks) > 1 && i == len(l.Ticks)-1:
			st.Anchor = AnchorEnd
		}
		s.Polyline([]Point{{x, bar.Max.Y}, {x, bar.Max.Y + 3}}, Style{Stroke: muted, StrokeWidth: 0.5})
		s.Text(Point{x, bar.Max.Y + 4 + legendTickSize}, t.Label, st)
	}

	swatch := Rect{
		Min: Point{area.Max.X - swatchW, bar.Min.Y},
		Max: Point{area.Max.X - swatchW + legendBarHeight, bar.Max.Y},
	}
	s.Rect(swatch, Style{Fill: l.NoData, Stroke: muted, StrokeWidth: 0.5})
	s.Text(Point{swatch.Max.X + 4, swatch.Max.Y - 1}, "No data", TextStyle{Size: legendTickSize, Color: muted})

	if l.Fallback {
		s.Text(Point{area.Min.X, bar.Max.Y + 8 + 2*legendTickSize}, FallbackNotice,
			TextStyle{Size: legendTickSize, Color: fallbackRed})
	}
}

// FallbackNotice flags a legend whose scale was not derived from data.
const FallbackNotice = "No matching data: colors use a default range"

var fallbackRed = color.RGBA{R: 0xb0, G: 0x1c, B: 0x1c, A: 0xff}
