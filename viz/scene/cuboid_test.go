package scene

import (
	"testing"

	"github.com/lidar-tools/pointviz/common"
	"github.com/stretchr/testify/assert"
)

func TestNewCuboidStartsFullyDirty(t *testing.T) {
	c := NewCuboid(common.Identity4, [4]float32{1, 0, 0, 0.5})

	d := c.Dirty()
	assert.True(t, d.Transform)
	assert.True(t, d.Rgba)
	assert.Equal(t, common.Identity4, c.Transform())
	assert.Equal(t, [4]float32{1, 0, 0, 0.5}, c.Rgba())
}

func TestCuboidPartialDirty(t *testing.T) {
	c := NewCuboid(common.Identity4, [4]float32{1, 1, 1, 1})
	c.Clear()
	assert.Equal(t, CuboidDirty{}, c.Dirty())

	c.SetRgba([4]float32{0, 1, 0, 1})
	d := c.Dirty()
	assert.True(t, d.Rgba)
	assert.False(t, d.Transform)

	c.Clear()
	transform := common.Mat4{
		2, 0, 0, 0,
		0, 2, 0, 0,
		0, 0, 2, 0,
		1, 2, 3, 1,
	}
	c.SetTransform(transform)
	d = c.Dirty()
	assert.True(t, d.Transform)
	assert.False(t, d.Rgba)
	assert.Equal(t, transform, c.Transform())
}
