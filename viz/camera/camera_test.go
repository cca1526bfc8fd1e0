package camera

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/lidar-tools/pointviz/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// approx compares float32 values with a relative tolerance suitable for
// chained matrix math.
var approx = cmpopts.EquateApprox(1e-5, 1e-6)

func TestResetMatchesFreshCamera(t *testing.T) {
	c := NewCamera()
	c.Yaw(123)
	c.Pitch(-45)
	c.Dolly(17)
	c.DollyXy(0.25, -0.5)
	c.SetFov(90)
	c.SetOrthographic(true)
	c.SetProjOffset(0.5, 0.5)
	c.SetTarget(common.Mat4{
		0, 1, 0, 0,
		-1, 0, 0, 0,
		0, 0, 1, 0,
		10, 0, 0, 1,
	})

	c.Reset()

	fresh := NewCamera()
	if diff := cmp.Diff(fresh.Matrices(1.0), c.Matrices(1.0), approx); diff != "" {
		t.Errorf("reset camera differs from fresh camera:\n%s", diff)
	}
}

func TestMatricesIsPure(t *testing.T) {
	c := NewCamera()
	c.Yaw(30)
	c.Dolly(-10)

	first := c.Matrices(1.5)
	second := c.Matrices(1.5)
	assert.Equal(t, first, second)
}

func TestDefaultViewDistance(t *testing.T) {
	c := NewCamera()
	assert.InDelta(t, 50.0, float64(c.ViewDistance()), 1e-6)
}

func TestDollyIsExponential(t *testing.T) {
	c := NewCamera()
	base := c.ViewDistance()

	// Dollying out by the doubling step doubles the distance; every step is
	// a constant ratio.
	c.Dolly(-32)
	assert.InDelta(t, float64(2*base), float64(c.ViewDistance()), 1e-3)

	c.Dolly(-32)
	assert.InDelta(t, float64(4*base), float64(c.ViewDistance()), 1e-3)

	c.Reset()
	c.Dolly(32)
	assert.InDelta(t, float64(base/2), float64(c.ViewDistance()), 1e-4)
}

func TestYawWrapsFullTurns(t *testing.T) {
	c := NewCamera()
	c.Yaw(90)
	reference := c.Matrices(1.0)

	c.Reset()
	c.Yaw(90 + 720)
	wrapped := c.Matrices(1.0)

	if diff := cmp.Diff(reference, wrapped, approx); diff != "" {
		t.Errorf("yaw of 810 degrees differs from 90 degrees:\n%s", diff)
	}
}

func TestDollyXyScalesWithDistance(t *testing.T) {
	near := NewCamera()
	far := NewCamera()
	far.Dolly(-32) // double the distance

	near.DollyXy(0.5, 0)
	far.DollyXy(0.5, 0)

	// The same normalized input displaces the view proportionally to the
	// view-plane size, which doubles with the distance. The displacement
	// shows up in the view translation column.
	nearShift := near.Matrices(1.0).View[12]
	farShift := far.Matrices(1.0).View[12]

	require.NotZero(t, nearShift)
	assert.InDelta(t, 2.0, float64(farShift/nearShift), 1e-4)
}

func TestPerspectiveDependsOnAspect(t *testing.T) {
	c := NewCamera()
	wide := c.Matrices(2.0)
	square := c.Matrices(1.0)
	assert.NotEqual(t, wide.Proj, square.Proj)
}

func TestOrthographicProjectionHasNoPerspectiveRow(t *testing.T) {
	c := NewCamera()
	c.SetOrthographic(true)
	require.True(t, c.Orthographic())

	proj := c.Matrices(1.0).Proj
	// Column-major: the w row is elements 3, 7, 11, 15.
	assert.Equal(t, float32(0), proj[3])
	assert.Equal(t, float32(0), proj[7])
	assert.Equal(t, float32(0), proj[11])
	assert.Equal(t, float32(1), proj[15])
}

func TestPerspectiveProjectionMapsDepthRange(t *testing.T) {
	c := NewCamera()
	proj := c.Matrices(1.0).Proj

	d := c.ViewDistance()
	near, far := d*0.01, d*100

	// A point on the near plane lands at z/w = 0, on the far plane at 1.
	for _, tc := range []struct {
		z    float32
		want float64
	}{
		{-near, 0},
		{-far, 1},
	} {
		zc := proj[10]*tc.z + proj[14]
		wc := proj[11] * tc.z
		assert.InDelta(t, tc.want, float64(zc/wc), 1e-3)
	}
}

func TestProjOffsetShiftsClipSpace(t *testing.T) {
	c := NewCamera()
	centered := c.Matrices(1.0).Proj

	c.SetProjOffset(0.5, -0.25)
	shifted := c.Matrices(1.0).Proj

	// The translation premultiplies the projection, so the last column picks
	// up the offset scaled by w.
	assert.InDelta(t, float64(centered[12]+0.5*centered[15]), float64(shifted[12]), 1e-5)
	assert.NotEqual(t, centered, shifted)
}

func TestSetTargetPassesThrough(t *testing.T) {
	c := NewCamera()
	target := common.Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		-3, 2, 1, 1,
	}
	c.SetTarget(target)
	assert.Equal(t, target, c.Matrices(1.0).Target)
}

func TestViewIncludesDistanceTranslation(t *testing.T) {
	c := NewCamera()
	view := c.Matrices(1.0).View

	// With zero yaw and pitch the view is a pure translation back by the
	// target distance.
	assert.InDelta(t, float64(-c.ViewDistance()), float64(view[14]), 1e-4)
	assert.InDelta(t, 1.0, float64(view[0]), 1e-6)
	assert.InDelta(t, 1.0, float64(view[5]), 1e-6)
}
