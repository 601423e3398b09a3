package domain

import (
	"fmt"
	"image/color"
	"math"
	"strings"
)

// Interpolator maps t in [0, 1] to a color.
type Interpolator func(t float64) color.RGBA

// NoDataColor fills features without a matched value. It is a neutral gray
// with no hue, distinct from every sequential ramp below.
var NoDataColor = color.RGBA{R: 0xbd, G: 0xbd, B: 0xbd, A: 0xff}

// Nine-class ColorBrewer sequential ramps, light to dark.
var ramps = map[string][]string{
	"blues":   {"f7fbff", "deebf7", "c6dbef", "9ecae1", "6baed6", "4292c6", "2171b5", "08519c", "08306b"},
	"purples": {"fcfbfd", "efedf5", "dadaeb", "bcbddc", "9e9ac8", "807dba", "6a51a3", "54278f", "3f007d"},
	"reds":    {"fff5f0", "fee0d2", "fcbba1", "fc9272", "fb6a4a", "ef3b2c", "cb181d", "a50f15", "67000d"},
	"greens":  {"f7fcf5", "e5f5e0", "c7e9c0", "a1d99b", "74c476", "41ab5d", "238b45", "006d2c", "00441b"},
	"oranges": {"fff5eb", "fee6ce", "fdd0a2", "fdae6b", "fd8d3c", "f16913", "d94801", "a63603", "7f2704"},
	// Perceptually uniform, dark to light.
	"viridis": {"440154", "472d7b", "3b528b", "2c728e", "21918c", "28ae80", "5ec962", "addc30", "fde725"},
}

// NamedInterpolator returns the sequential ramp with the given name
// ("blues", "purples", "reds", "greens", "oranges", "viridis").
func NamedInterpolator(name string) (Interpolator, error) {
	stops, ok := ramps[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("unknown interpolator %q", name)
	}
	colors := make([]color.RGBA, len(stops))
	for i, hex := range stops {
		colors[i] = hexColor(hex)
	}
	return Ramp(colors...), nil
}

// Ramp returns a piecewise-linear interpolator through the given stops.
// t is clamped to [0, 1].
func Ramp(stops ...color.RGBA) Interpolator {
	if len(stops) == 0 {
		return func(float64) color.RGBA { return NoDataColor }
	}
	if len(stops) == 1 {
		only := stops[0]
		return func(float64) color.RGBA { return only }
	}
	segments := float64(len(stops) - 1)
	return func(t float64) color.RGBA {
		switch {
		case math.IsNaN(t) || t <= 0:
			return stops[0]
		case t >= 1:
			return stops[len(stops)-1]
		}
		pos := t * segments
		i := int(pos)
		frac := pos - float64(i)
		a, b := stops[i], stops[i+1]
		return color.RGBA{
			R: lerp8(a.R, b.R, frac),
			G: lerp8(a.G, b.G, frac),
			B: lerp8(a.B, b.B, frac),
			A: 0xff,
		}
	}
}

func lerp8(a, b uint8, t float64) uint8 {
	return uint8(math.Round(float64(a) + (float64(b)-float64(a))*t))
}

func hexColor(hex string) color.RGBA {
	var c color.RGBA
	c.A = 0xff
	_, _ = fmt.Sscanf(hex, "%02x%02x%02x", &c.R, &c.G, &c.B)
	return c
}

// Domain is a closed numeric interval.
type Domain struct {
	Min float64 `yaml:"min" json:"min"`
	Max float64 `yaml:"max" json:"max"`
}

// ColorScale maps values continuously onto an interpolator. A scale built
// from no data uses its fallback domain and sets Fallback.
type ColorScale struct {
	Domain   Domain
	Fallback bool
	Inverse  bool

	interp Interpolator
}

// BuildScale derives a scale whose domain is the min and max of values.
// When values is empty the fallback domain is used and the scale is
// flagged. Non-finite values are ignored.
func BuildScale(values []float64, interp Interpolator, fallback Domain) ColorScale {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if math.IsInf(lo, 1) {
		return ColorScale{Domain: fallback, Fallback: true, interp: interp}
	}
	return ColorScale{Domain: Domain{Min: lo, Max: hi}, interp: interp}
}

// WithInverse returns a copy of the scale with inverse coding toggled, so
// higher values map toward the light end of the ramp.
func (s ColorScale) WithInverse(inverse bool) ColorScale {
	s.Inverse = inverse
	return s
}

// T returns the position of v along the interpolator. A degenerate domain
// maps every value to the midpoint.
func (s ColorScale) T(v float64) float64 {
	span := s.Domain.Max - s.Domain.Min
	var t float64
	if span == 0 {
		t = 0.5
	} else {
		t = (v - s.Domain.Min) / span
	}
	t = math.Max(0, math.Min(1, t))
	if s.Inverse {
		t = 1 - t
	}
	return t
}

// Color maps v to its fill color.
func (s ColorScale) Color(v float64) color.RGBA {
	if s.interp == nil {
		return NoDataColor
	}
	return s.interp(s.T(v))
}

// Fill returns the fill for an optional value: the scale color when the
// value is defined, otherwise NoDataColor.
func (s ColorScale) Fill(v *float64) color.RGBA {
	if v == nil {
		return NoDataColor
	}
	return s.Color(*v)
}
