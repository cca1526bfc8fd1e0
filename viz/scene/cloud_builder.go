package scene

import (
	"github.com/lidar-tools/pointviz/common"
)

// CloudBuilderOption is a functional option for configuring a cloud at
// construction time.
type CloudBuilderOption func(c *cloudImpl)

// WithExtrinsic sets the sensor extrinsic calibration applied to every point.
//
// Parameters:
//   - extrinsic: 4x4 column-major homogeneous transformation matrix
//
// Returns:
//   - CloudBuilderOption: option function to apply
func WithExtrinsic(extrinsic common.Mat4) CloudBuilderOption {
	return func(c *cloudImpl) {
		c.extrinsic = extrinsic
	}
}

// WithPalette sets the initial colour palette, replacing the Spezia default.
//
// Parameters:
//   - palette: 3 * k values for a palette of k RGB triples
//
// Returns:
//   - CloudBuilderOption: option function to apply
func WithPalette(palette []float32) CloudBuilderOption {
	return func(c *cloudImpl) {
		c.SetPalette(palette)
	}
}

// WithPointSize sets the initial rendered point size in pixels.
//
// Parameters:
//   - size: point size
//
// Returns:
//   - CloudBuilderOption: option function to apply
func WithPointSize(size float32) CloudBuilderOption {
	return func(c *cloudImpl) {
		c.pointSize = size
	}
}
