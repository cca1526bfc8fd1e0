package scene

import (
	"testing"

	"github.com/lidar-tools/pointviz/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCloudDefaults(t *testing.T) {
	c := NewCloud(64)

	assert.Equal(t, 64, c.Size())
	assert.Equal(t, 1, c.Width())
	assert.Equal(t, float32(2), c.PointSize())
	assert.Equal(t, common.Identity4, c.Pose())
	assert.Equal(t, common.Identity4, c.Extrinsic())

	// Unstructured clouds start with all ranges at 1 so SetXyz positions are
	// used as-is.
	for i, r := range c.RangeData() {
		require.Equal(t, float32(1), r, "range at %d", i)
	}

	d := c.Dirty()
	assert.True(t, d.Range)
	assert.True(t, d.Transform)
	assert.True(t, d.Pose)
	assert.True(t, d.Palette)
}

func TestCloudSetThenClear(t *testing.T) {
	c := NewCloud(64)
	c.SetXyz(make([]float32, 3*64))
	assert.True(t, c.Dirty().Xyz)

	c.Clear()
	assert.Equal(t, CloudDirty{}, c.Dirty())
	assert.Equal(t, 64, c.Size())
}

func TestCloudSetXyzInterleavesPlanarInput(t *testing.T) {
	const n = 4
	c := NewCloud(n)

	// Planar layout: all x, then all y, then all z.
	xyz := []float32{
		10, 11, 12, 13,
		20, 21, 22, 23,
		30, 31, 32, 33,
	}
	c.SetXyz(xyz)

	data := c.XyzData()
	for i := 0; i < n; i++ {
		assert.Equal(t, xyz[i], data[3*i])
		assert.Equal(t, xyz[i+n], data[3*i+1])
		assert.Equal(t, xyz[i+2*n], data[3*i+2])
	}
}

func TestCloudSetRangeConvertsToFloat(t *testing.T) {
	c := NewCloud(3)
	c.SetRange([]uint32{0, 7, 65535})
	assert.Equal(t, []float32{0, 7, 65535}, c.RangeData())
	assert.True(t, c.Dirty().Range)
}

func TestCloudSetPalette(t *testing.T) {
	c := NewCloud(8)

	for _, k := range []int{1, 2, 256} {
		palette := make([]float32, 3*k)
		for i := range palette {
			palette[i] = float32(i) / float32(len(palette))
		}
		c.SetPalette(palette)

		assert.Equal(t, k, c.PaletteSize())
		assert.Equal(t, palette, c.PaletteData())
		assert.True(t, c.Dirty().Palette)

		// The cloud owns its copy.
		palette[0] = -1
		assert.NotEqual(t, float32(-1), c.PaletteData()[0])
		c.Clear()
	}
}

func TestCloudSetPalettePanicsOnBadLength(t *testing.T) {
	c := NewCloud(8)
	assert.Panics(t, func() { c.SetPalette(nil) })
	assert.Panics(t, func() { c.SetPalette(make([]float32, 4)) })
}

func TestCloudSettersPanicOnLengthMismatch(t *testing.T) {
	c := NewCloud(8)
	assert.Panics(t, func() { c.SetKey(make([]float32, 7)) })
	assert.Panics(t, func() { c.SetXyz(make([]float32, 8)) })
	assert.Panics(t, func() { c.SetMask(make([]float32, 8)) })
	assert.Panics(t, func() { c.SetRange(make([]uint32, 9)) })
}

func TestCloudColumnPoseIdentityLayout(t *testing.T) {
	const w, h = 3, 2
	c := NewStructuredCloud(w, h, make([]float32, 3*w*h), make([]float32, 3*w*h))
	c.Clear()

	seeded := append([]float32(nil), c.TransformData()...)

	// Supplying explicit identity poses must reproduce the seeded layout.
	rotation := make([]float32, 9*w)
	for v := 0; v < w; v++ {
		for u := 0; u < 3; u++ {
			rotation[v+u*w+3*u*w] = 1
		}
	}
	translation := make([]float32, 3*w)
	c.SetColumnPoses(rotation, translation)

	assert.Equal(t, seeded, c.TransformData())
	assert.True(t, c.Dirty().Transform)
}

func TestCloudColumnPoseTranslationPacking(t *testing.T) {
	const w, h = 4, 1
	c := NewStructuredCloud(w, h, make([]float32, 3*w*h), make([]float32, 3*w*h))

	rotation := make([]float32, 9*w)
	for v := 0; v < w; v++ {
		for u := 0; u < 3; u++ {
			rotation[v+u*w+3*u*w] = 1
		}
	}
	// Planar translation input: all x, then all y, then all z.
	translation := []float32{
		1, 2, 3, 4,
		10, 20, 30, 40,
		100, 200, 300, 400,
	}
	c.SetColumnPoses(rotation, translation)

	data := c.TransformData()
	for v := 0; v < w; v++ {
		assert.Equal(t, translation[v], data[9*w+3*v], "x of column %d", v)
		assert.Equal(t, translation[v+w], data[9*w+3*v+1], "y of column %d", v)
		assert.Equal(t, translation[v+2*w], data[9*w+3*v+2], "z of column %d", v)
	}
}

func TestNewStructuredCloud(t *testing.T) {
	const w, h = 16, 8
	dir := make([]float32, 3*w*h)
	for i := range dir {
		dir[i] = float32(i)
	}
	c := NewStructuredCloud(w, h, dir, make([]float32, 3*w*h))

	assert.Equal(t, w*h, c.Size())
	assert.Equal(t, w, c.Width())
	assert.Len(t, c.TransformData(), 12*w)

	d := c.Dirty()
	assert.True(t, d.Xyz)
	assert.True(t, d.Offset)
}

func TestCloudBuilderOptions(t *testing.T) {
	extrinsic := common.Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		5, 6, 7, 1,
	}
	c := NewCloud(4,
		WithExtrinsic(extrinsic),
		WithPointSize(7),
		WithPalette(Grey),
	)

	assert.Equal(t, extrinsic, c.Extrinsic())
	assert.Equal(t, float32(7), c.PointSize())
	assert.Equal(t, Grey, c.PaletteData())
}
