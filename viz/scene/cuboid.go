package scene

import (
	"github.com/lidar-tools/pointviz/common"
)

// CuboidDirty reports which of a cuboid's attribute groups changed since the
// last Clear.
type CuboidDirty struct {
	Transform bool
	Rgba      bool
}

// cuboidImpl implements the Cuboid interface.
type cuboidImpl struct {
	dirty CuboidDirty

	transform common.Mat4
	rgba      [4]float32
}

// Cuboid manages the state of a single wireframe cuboid: one transform applied
// to a unit cube centered at the origin, and one RGBA colour.
type Cuboid interface {
	// SetTransform sets the transform defining the cuboid, applied to a unit
	// cube centered at the origin.
	//
	// Parameters:
	//   - transform: 4x4 column-major homogeneous transformation matrix
	SetTransform(transform common.Mat4)

	// SetRgba sets the colour of the cuboid.
	//
	// Parameters:
	//   - rgba: colour components, preferably normalized between 0 and 1
	SetRgba(rgba [4]float32)

	// Clear resets every dirty flag. Called by the visualizer exactly once
	// after a frame consumed the cuboid's data; producers must not call it.
	Clear()

	// Dirty returns the current dirty flags. For adapter use.
	Dirty() CuboidDirty

	// Transform returns the current transform. For adapter use.
	Transform() common.Mat4

	// Rgba returns the current colour. For adapter use.
	Rgba() [4]float32
}

var _ Cuboid = &cuboidImpl{}

// NewCuboid creates a cuboid with the given transform and colour.
//
// Parameters:
//   - transform: 4x4 column-major homogeneous transformation matrix
//   - rgba: colour components
//
// Returns:
//   - Cuboid: the newly created cuboid
func NewCuboid(transform common.Mat4, rgba [4]float32) Cuboid {
	c := &cuboidImpl{}
	c.SetTransform(transform)
	c.SetRgba(rgba)
	return c
}

func (c *cuboidImpl) SetTransform(transform common.Mat4) {
	c.transform = transform
	c.dirty.Transform = true
}

func (c *cuboidImpl) SetRgba(rgba [4]float32) {
	c.rgba = rgba
	c.dirty.Rgba = true
}

func (c *cuboidImpl) Clear() {
	c.dirty = CuboidDirty{}
}

func (c *cuboidImpl) Dirty() CuboidDirty      { return c.dirty }
func (c *cuboidImpl) Transform() common.Mat4  { return c.transform }
func (c *cuboidImpl) Rgba() [4]float32        { return c.rgba }
