// Package scene holds the CPU-side mutable state containers for everything the
// visualizer can draw: point clouds, images, cuboids, and text labels.
//
// Each container tracks one dirty flag per attribute group. Setters copy
// caller-owned data into container-owned storage and raise the matching flag;
// the draw loop's adapters consume the flagged data and the visualizer resets
// all flags with Clear once per drawn frame.
//
// Containers perform no internal locking. A producer must serialize its own
// mutation of a given object against other producers; wrap an object in Locked
// when more than one goroutine mutates it.
package scene

import (
	"fmt"

	"github.com/lidar-tools/pointviz/common"
)

// CloudDirty reports which of a cloud's attribute groups changed since the
// last Clear. Adapters re-upload only the flagged groups.
type CloudDirty struct {
	Range     bool
	Key       bool
	Mask      bool
	Xyz       bool
	Offset    bool
	Transform bool
	Palette   bool
	Pose      bool
	PointSize bool
}

// cloudImpl implements the Cloud interface.
type cloudImpl struct {
	n int // point count, fixed at construction
	w int // pose-group count, point i is transformed by pose i % w

	extrinsic common.Mat4

	dirty CloudDirty

	rangeData     []float32 // n
	keyData       []float32 // n
	maskData      []float32 // 4n rgba
	xyzData       []float32 // 3n interleaved unit directions
	offData       []float32 // 3n interleaved offsets
	transformData []float32 // 12w, packed w x 4 rgb transform texture
	paletteData   []float32 // 3k rgb triples

	pose      common.Mat4
	pointSize float32
}

// Cloud manages the state of a point cloud of n points with w poses. The ith
// point is transformed by the (i % w)th pose. For example, for a 2048 x 64
// lidar scan we may have w = 2048 poses and n = 2048 * 64 = 131072 points.
//
// A separate per-cloud pose transforms the whole cloud without touching the
// ~2048 per-column poses.
//
// All sizes are fixed at construction; every setter panics if the supplied
// slice length does not match.
type Cloud interface {
	// Size returns the number of points in the cloud.
	//
	// Returns:
	//   - int: the point count fixed at construction
	Size() int

	// Width returns the pose-group count w. Width always divides Size.
	//
	// Returns:
	//   - int: the pose-group count
	Width() int

	// SetRange sets the range values, one per point.
	//
	// Parameters:
	//   - ranges: exactly Size values, the range of each point
	SetRange(ranges []uint32)

	// SetKey sets the key values used for colouring, one per point,
	// preferably normalized between 0 and 1.
	//
	// Parameters:
	//   - key: exactly Size values
	SetKey(key []float32)

	// SetMask sets the RGBA mask values used as an overlay on top of the key.
	//
	// Parameters:
	//   - mask: exactly 4 * Size values, preferably normalized between 0 and 1
	SetMask(mask []float32)

	// SetXyz sets the xyz unit direction values. The source layout is planar:
	// the position of the ith point is xyz[i], xyz[i + n], xyz[i + 2n].
	//
	// Parameters:
	//   - xyz: exactly 3 * Size values
	SetXyz(xyz []float32)

	// SetOffset sets the per-point offset values. Same planar layout as SetXyz.
	//
	// Parameters:
	//   - offset: exactly 3 * Size values
	SetOffset(offset []float32)

	// SetPose sets the per-cloud pose.
	//
	// Parameters:
	//   - pose: 4x4 column-major homogeneous transformation matrix
	SetPose(pose common.Mat4)

	// SetPointSize sets the rendered point size in pixels.
	//
	// Parameters:
	//   - size: point size
	SetPointSize(size float32)

	// SetColumnPoses sets the per-column poses, so that the point at row u,
	// column v of the staggered scan is transformed by the vth pose.
	//
	// Parameters:
	//   - rotation: 9 * Width values, planar: the vth rotation matrix is
	//     r[v], r[w+v], r[2w+v], ..., r[8w+v]
	//   - translation: 3 * Width values, planar: the vth translation is
	//     t[v], t[w+v], t[2w+v]
	SetColumnPoses(rotation, translation []float32)

	// SetPalette sets the colour palette used to map key values to RGB.
	//
	// Parameters:
	//   - palette: 3 * k values for a palette of k RGB triples
	SetPalette(palette []float32)

	// Clear resets every dirty flag. Called by the visualizer exactly once
	// after a frame consumed the cloud's data; producers must not call it.
	Clear()

	// Dirty returns the current dirty flags. For adapter use.
	//
	// Returns:
	//   - CloudDirty: a copy of the per-attribute dirty flags
	Dirty() CloudDirty

	// The remaining accessors expose container-owned storage to the GPU
	// adapter. The returned slices must only be read during the synchronous
	// upload and never retained or mutated.

	// RangeData returns the owned range buffer (Size values). For adapter use.
	RangeData() []float32

	// KeyData returns the owned key buffer (Size values). For adapter use.
	KeyData() []float32

	// MaskData returns the owned RGBA mask buffer (4 * Size values). For adapter use.
	MaskData() []float32

	// XyzData returns the owned interleaved xyz buffer (3 * Size values). For adapter use.
	XyzData() []float32

	// OffsetData returns the owned interleaved offset buffer (3 * Size values). For adapter use.
	OffsetData() []float32

	// TransformData returns the owned packed per-column pose texture data
	// (12 * Width values, a Width x 4 RGB texture). For adapter use.
	TransformData() []float32

	// PaletteData returns the owned palette buffer (3 * PaletteSize values). For adapter use.
	PaletteData() []float32

	// PaletteSize returns the number of RGB triples in the current palette.
	PaletteSize() int

	// Pose returns the per-cloud pose.
	Pose() common.Mat4

	// Extrinsic returns the sensor extrinsic calibration supplied at construction.
	Extrinsic() common.Mat4

	// PointSize returns the rendered point size in pixels.
	PointSize() float32
}

var _ Cloud = &cloudImpl{}

// newCloud is the shared structured constructor: w columns, h points per column.
func newCloud(w, h int, options ...CloudBuilderOption) *cloudImpl {
	n := w * h
	c := &cloudImpl{
		n:             n,
		w:             w,
		extrinsic:     common.Identity4,
		rangeData:     make([]float32, n),
		keyData:       make([]float32, n),
		maskData:      make([]float32, 4*n),
		xyzData:       make([]float32, 3*n),
		offData:       make([]float32, 3*n),
		transformData: make([]float32, 12*w),
		pose:          common.Identity4,
		pointSize:     2,
	}

	// Per-column poses start as identity. The texture stores the vth pose as
	// four RGB texels down column v: three rotation columns and a translation.
	for v := 0; v < w; v++ {
		c.transformData[3*v] = 1
		c.transformData[3*(v+w)+1] = 1
		c.transformData[3*(v+2*w)+2] = 1
	}
	c.dirty.Transform = true
	c.dirty.Pose = true

	c.SetPalette(Spezia)

	for _, option := range options {
		option(c)
	}
	return c
}

// NewCloud creates an unstructured point cloud of n points. Ranges are
// initialized to 1 so that positions come directly from SetXyz.
//
// Parameters:
//   - n: number of points, fixed for the lifetime of the cloud
//   - options: functional options (extrinsic calibration, palette, point size)
//
// Returns:
//   - Cloud: the newly created cloud
func NewCloud(n int, options ...CloudBuilderOption) Cloud {
	c := newCloud(1, n, options...)
	ones := make([]uint32, n)
	for i := range ones {
		ones[i] = 1
	}
	c.SetRange(ones)
	return c
}

// NewStructuredCloud creates a structured point cloud of w columns with h
// points per column. The unit direction and offset lookup tables are fixed up
// front; per-frame data arrives through SetRange.
//
// Parameters:
//   - w: number of columns
//   - h: number of points per column
//   - dir: 3 * w * h unit direction values in planar layout (see SetXyz)
//   - off: 3 * w * h offset values in planar layout (see SetOffset)
//   - options: functional options (extrinsic calibration, palette, point size)
//
// Returns:
//   - Cloud: the newly created cloud
func NewStructuredCloud(w, h int, dir, off []float32, options ...CloudBuilderOption) Cloud {
	c := newCloud(w, h, options...)
	c.SetXyz(dir)
	c.SetOffset(off)
	return c
}

func (c *cloudImpl) Size() int  { return c.n }
func (c *cloudImpl) Width() int { return c.w }

func (c *cloudImpl) SetRange(ranges []uint32) {
	assertLen("range", len(ranges), c.n)
	for i, r := range ranges {
		c.rangeData[i] = float32(r)
	}
	c.dirty.Range = true
}

func (c *cloudImpl) SetKey(key []float32) {
	assertLen("key", len(key), c.n)
	copy(c.keyData, key)
	c.dirty.Key = true
}

func (c *cloudImpl) SetMask(mask []float32) {
	assertLen("mask", len(mask), 4*c.n)
	copy(c.maskData, mask)
	c.dirty.Mask = true
}

func (c *cloudImpl) SetXyz(xyz []float32) {
	assertLen("xyz", len(xyz), 3*c.n)
	interleave3(c.xyzData, xyz, c.n)
	c.dirty.Xyz = true
}

func (c *cloudImpl) SetOffset(offset []float32) {
	assertLen("offset", len(offset), 3*c.n)
	interleave3(c.offData, offset, c.n)
	c.dirty.Offset = true
}

func (c *cloudImpl) SetPose(pose common.Mat4) {
	c.pose = pose
	c.dirty.Pose = true
}

func (c *cloudImpl) SetPointSize(size float32) {
	c.pointSize = size
	c.dirty.PointSize = true
}

func (c *cloudImpl) SetColumnPoses(rotation, translation []float32) {
	assertLen("rotation", len(rotation), 9*c.w)
	assertLen("translation", len(translation), 3*c.w)
	for v := 0; v < c.w; v++ {
		for u := 0; u < 3; u++ {
			for e := 0; e < 3; e++ {
				c.transformData[(u*c.w+v)*3+e] = rotation[v+u*c.w+3*e*c.w]
			}
		}
		for e := 0; e < 3; e++ {
			c.transformData[9*c.w+3*v+e] = translation[v+e*c.w]
		}
	}
	c.dirty.Transform = true
}

func (c *cloudImpl) SetPalette(palette []float32) {
	if len(palette) == 0 || len(palette)%3 != 0 {
		panic(fmt.Sprintf("scene: palette length %d is not a positive multiple of 3", len(palette)))
	}
	c.paletteData = make([]float32, len(palette))
	copy(c.paletteData, palette)
	c.dirty.Palette = true
}

func (c *cloudImpl) Clear() {
	c.dirty = CloudDirty{}
}

func (c *cloudImpl) Dirty() CloudDirty { return c.dirty }

func (c *cloudImpl) RangeData() []float32     { return c.rangeData }
func (c *cloudImpl) KeyData() []float32       { return c.keyData }
func (c *cloudImpl) MaskData() []float32      { return c.maskData }
func (c *cloudImpl) XyzData() []float32       { return c.xyzData }
func (c *cloudImpl) OffsetData() []float32    { return c.offData }
func (c *cloudImpl) TransformData() []float32 { return c.transformData }
func (c *cloudImpl) PaletteData() []float32   { return c.paletteData }
func (c *cloudImpl) PaletteSize() int         { return len(c.paletteData) / 3 }
func (c *cloudImpl) Pose() common.Mat4        { return c.pose }
func (c *cloudImpl) Extrinsic() common.Mat4   { return c.extrinsic }
func (c *cloudImpl) PointSize() float32       { return c.pointSize }

// interleave3 copies a planar source (x values, then y values, then z values)
// into an interleaved xyz destination.
func interleave3(dst, src []float32, n int) {
	for i := 0; i < n; i++ {
		dst[3*i] = src[i]
		dst[3*i+1] = src[i+n]
		dst[3*i+2] = src[i+2*n]
	}
}

// assertLen panics when a setter receives a slice whose length does not match
// the size fixed at construction. A mismatch is a programming bug in the
// producer, not a recoverable runtime condition.
func assertLen(name string, got, want int) {
	if got != want {
		panic(fmt.Sprintf("scene: %s length %d, want %d", name, got, want))
	}
}
