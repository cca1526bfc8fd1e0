package scene

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPalettesWellFormed(t *testing.T) {
	for name, palette := range map[string][]float32{
		"spezia":  Spezia,
		"grey":    Grey,
		"viridis": Viridis,
	} {
		t.Run(name, func(t *testing.T) {
			require.NotEmpty(t, palette)
			require.Zero(t, len(palette)%3)
			assert.Equal(t, 256, PaletteSize(palette))
			for i, v := range palette {
				require.GreaterOrEqual(t, v, float32(0), "component %d", i)
				require.LessOrEqual(t, v, float32(1), "component %d", i)
			}
		})
	}
}

func TestGreyPaletteMonotonic(t *testing.T) {
	n := PaletteSize(Grey)
	for i := 1; i < n; i++ {
		require.GreaterOrEqual(t, Grey[3*i], Grey[3*(i-1)])
	}
	assert.Equal(t, float32(0), Grey[0])
	assert.Equal(t, float32(1), Grey[len(Grey)-1])
}

func TestSpeziaCoversHueRange(t *testing.T) {
	// The ends of the hue sweep must not collapse to the same color.
	n := PaletteSize(Spezia)
	first := Spezia[:3]
	last := Spezia[3*(n-1):]
	assert.NotEqual(t, first, last)
}
