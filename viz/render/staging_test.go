package render

import (
	"testing"

	"github.com/lidar-tools/pointviz/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandRGBToRGBA(t *testing.T) {
	rgb := []float32{0.1, 0.2, 0.3, 0.4, 0.5, 0.6}
	b := expandRGBToRGBA(rgb)
	require.Len(t, b, 2*4*4)

	// Reinterpret to check the padded layout.
	texels := []float32{0.1, 0.2, 0.3, 1, 0.4, 0.5, 0.6, 1}
	assert.Equal(t, common.SliceToBytes(texels), b)
}

func TestQuantizeRGBToRGBA8(t *testing.T) {
	rgb := []float32{0, 0.5, 1, -2, 3, 0.25}
	b := quantizeRGBToRGBA8(rgb)
	require.Len(t, b, 8)

	assert.Equal(t, []byte{0, 128, 255, 255, 0, 255, 64, 255}, b)
}

func TestQuantize8Rounds(t *testing.T) {
	assert.Equal(t, byte(0), quantize8(-0.1))
	assert.Equal(t, byte(255), quantize8(1.1))
	assert.Equal(t, byte(1), quantize8(1.0/255.0))
}

// Uniform structs must match WGSL uniform layout: each struct size a multiple
// of 16 bytes, since they are uploaded verbatim.
func TestUniformSizes(t *testing.T) {
	for name, size := range map[string]uint64{
		"cloud":  common.SizeOf[cloudUniform](),
		"image":  common.SizeOf[imageUniform](),
		"cuboid": common.SizeOf[cuboidUniform](),
		"rings":  common.SizeOf[ringsUniform](),
		"label":  common.SizeOf[labelUniform](),
	} {
		assert.Zerof(t, size%16, "%s uniform size %d not 16-byte aligned", name, size)
	}

	assert.Equal(t, uint64(144), common.SizeOf[cloudUniform]())
	assert.Equal(t, uint64(32), common.SizeOf[imageUniform]())
	assert.Equal(t, uint64(80), common.SizeOf[cuboidUniform]())
	assert.Equal(t, uint64(80), common.SizeOf[ringsUniform]())
	assert.Equal(t, uint64(96), common.SizeOf[labelUniform]())
}
