package scene

import (
	"github.com/chewxy/math32"
)

// Named colour palettes for cloud key mapping. Each palette is a flat slice of
// RGB triples in [0, 1], indexed by the normalized key: a key of 0 selects the
// first triple and a key of 1 the last.
var (
	// Spezia is the default palette: a blue-to-red sweep through the hue
	// circle that keeps mid-range returns clearly separated.
	Spezia = makeHuePalette(256, 0.66, 0.0)

	// Grey is a plain monochrome ramp.
	Grey = makeGreyPalette(256)

	// Viridis approximates the matplotlib viridis perceptually uniform map.
	Viridis = makeViridisPalette(256)
)

// PaletteSize returns the number of RGB triples in a flat palette slice.
//
// Parameters:
//   - palette: flat palette data, 3 values per colour
//
// Returns:
//   - int: the colour count
func PaletteSize(palette []float32) int {
	return len(palette) / 3
}

// makeHuePalette sweeps the hue circle from hueStart to hueEnd at full
// saturation, producing n RGB triples.
func makeHuePalette(n int, hueStart, hueEnd float32) []float32 {
	p := make([]float32, 0, 3*n)
	for i := 0; i < n; i++ {
		t := float32(i) / float32(n-1)
		h := hueStart + t*(hueEnd-hueStart)
		r, g, b := hslToRgb(h, 1.0, 0.5)
		p = append(p, r, g, b)
	}
	return p
}

// makeGreyPalette produces a linear monochrome ramp of n triples.
func makeGreyPalette(n int) []float32 {
	p := make([]float32, 0, 3*n)
	for i := 0; i < n; i++ {
		v := float32(i) / float32(n-1)
		p = append(p, v, v, v)
	}
	return p
}

// makeViridisPalette evaluates a low-order polynomial fit of the viridis
// colour map at n sample points.
func makeViridisPalette(n int) []float32 {
	// Coefficients fit against the reference map endpoints and midpoint:
	// dark purple (0.267, 0.005, 0.329) through teal to yellow (0.993,
	// 0.906, 0.144).
	p := make([]float32, 0, 3*n)
	for i := 0; i < n; i++ {
		t := float32(i) / float32(n-1)
		r := 0.267 + t*(-0.213+t*(0.162+t*0.777))
		g := 0.005 + t*(1.24+t*(-0.646+t*0.307))
		b := 0.329 + t*(0.718+t*(-0.212+t*-0.691))
		p = append(p, clamp01(r), clamp01(g), clamp01(b))
	}
	return p
}

// hslToRgb converts hue/saturation/lightness (hue in turns) to RGB.
func hslToRgb(h, s, l float32) (r, g, b float32) {
	c := (1 - math32.Abs(2*l-1)) * s
	hp := math32.Mod(h*6, 6)
	x := c * (1 - math32.Abs(math32.Mod(hp, 2)-1))
	m := l - c/2
	switch {
	case hp < 1:
		r, g, b = c, x, 0
	case hp < 2:
		r, g, b = x, c, 0
	case hp < 3:
		r, g, b = 0, c, x
	case hp < 4:
		r, g, b = 0, x, c
	case hp < 5:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}
	return r + m, g + m, b + m
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
