package history

import (
	colorful "github.com/lucasb-eyer/go-colorful"
)

// Fixed colors used by the classifier.
const (
	// ColorEmpty marks a day with no progress.
	ColorEmpty = "#9E9AA1"
	// ColorSurpassed marks a day whose value exceeded its target.
	ColorSurpassed = "#FFBF00"
	// colorCarryBreak marks a non-weekly day where a carried value dropped
	// back to zero.
	colorCarryBreak = "#7140C9"
	// ColorTransparent is the zero color of layout cells.
	ColorTransparent = ""
)

// DefaultGradient is the fixed purple ramp, deepest first. The classifier
// indexes it by bucket.
var DefaultGradient = []string{
	"#633FA4",
	"#8A6ABC",
	"#9E7FCA",
	"#B195D8",
	"#C5ABE7",
	"#D8C2F5",
}

const (
	tintCount = 5
	minSat    = 0.2
	maxSat    = 0.85
)

// GenerateTints derives a 5-step ramp from a seed color by walking saturation
// from washed-out toward the seed's own saturation ceiling while pulling the
// value channel down from full brightness, hue fixed. Deterministic for a
// given seed; index 0 is the lightest tint.
func GenerateTints(seed string) []string {
	c, err := colorful.Hex(seed)
	if err != nil {
		c, _ = colorful.Hex(ColorEmpty)
	}
	h, _, v := c.Hsv()

	sStep := (maxSat - minSat) / tintCount
	vStep := (v - 1.0) / tintCount

	palette := make([]string, 0, tintCount)
	for i := 0; i < tintCount; i++ {
		s := clamp(minSat+sStep*float64(i), minSat, maxSat)
		val := clamp(1.0+vStep*float64(i), 0, 1)
		palette = append(palette, colorful.Hsv(h, s, val).Hex())
	}
	return palette
}

// ActivePalette returns the gradient the classifier should index: a reversed
// tint ramp (deepest first) when dynamic color is enabled, otherwise the
// default gradient.
func ActivePalette(dynamic bool, seed string) []string {
	if !dynamic {
		return DefaultGradient
	}
	tints := GenerateTints(seed)
	reversed := make([]string, len(tints))
	for i, t := range tints {
		reversed[len(tints)-1-i] = t
	}
	return reversed
}

// BucketColor classifies a day's effective value against its target. Without
// a target the day is either empty or "has value"; with one, the value/target
// ratio picks a gradient bucket, with a distinct color above 1.0.
func BucketColor(count int, target *int, palette []string) string {
	if target == nil {
		if count == 0 {
			return ColorEmpty
		}
		return palette[1]
	}

	ratio := float64(count) / float64(*target)
	switch {
	case ratio == 0:
		return ColorEmpty
	case ratio < 0.25:
		return palette[4]
	case ratio < 0.5:
		return palette[3]
	case ratio < 0.75:
		return palette[2]
	case ratio < 1.0:
		return palette[1]
	case ratio == 1.0:
		return palette[0]
	default:
		return ColorSurpassed
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
