package common

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var approx = cmpopts.EquateApprox(1e-6, 1e-7)

// apply multiplies a column-major matrix by a homogeneous vector.
func apply(m []float32, v [4]float32) [4]float32 {
	var out [4]float32
	for row := 0; row < 4; row++ {
		out[row] = m[row]*v[0] + m[4+row]*v[1] + m[8+row]*v[2] + m[12+row]*v[3]
	}
	return out
}

func TestMul4Identity(t *testing.T) {
	var m, out Mat4
	RotationZ(m[:], 1.2)

	Mul4(out[:], Identity4[:], m[:])
	assert.Equal(t, m, out)

	Mul4(out[:], m[:], Identity4[:])
	assert.Equal(t, m, out)
}

func TestMul4AllowsAliasedOutput(t *testing.T) {
	var a, b, want Mat4
	RotationX(a[:], 0.4)
	Translation(b[:], 1, 2, 3)
	Mul4(want[:], a[:], b[:])

	got := a
	Mul4(got[:], got[:], b[:])
	assert.Equal(t, want, got)
}

func TestMul4ComposesTransforms(t *testing.T) {
	var rot, trans, combined Mat4
	RotationZ(rot[:], Pi90())
	Translation(trans[:], 1, 0, 0)

	// Rotate the translated point: T(1,0,0) then Rz(90 deg) sends the origin
	// to (0, 1, 0).
	Mul4(combined[:], rot[:], trans[:])
	got := apply(combined[:], [4]float32{0, 0, 0, 1})
	want := [4]float32{0, 1, 0, 1}
	if diff := cmp.Diff(want, got, approx); diff != "" {
		t.Errorf("composed transform mismatch:\n%s", diff)
	}
}

// Pi90 returns a 90 degree angle in radians without importing math32 here.
func Pi90() float32 { return 3.14159265 / 2 }

func TestRotationZRotatesXToY(t *testing.T) {
	var m Mat4
	RotationZ(m[:], Pi90())
	got := apply(m[:], [4]float32{1, 0, 0, 1})
	if diff := cmp.Diff([4]float32{0, 1, 0, 1}, got, approx); diff != "" {
		t.Errorf("rotation mismatch:\n%s", diff)
	}
}

func TestRotationXRotatesYToZ(t *testing.T) {
	var m Mat4
	RotationX(m[:], Pi90())
	got := apply(m[:], [4]float32{0, 1, 0, 1})
	if diff := cmp.Diff([4]float32{0, 0, 1, 1}, got, approx); diff != "" {
		t.Errorf("rotation mismatch:\n%s", diff)
	}
}

func TestTranslationMovesPoints(t *testing.T) {
	var m Mat4
	Translation(m[:], 1, -2, 3)
	got := apply(m[:], [4]float32{10, 10, 10, 1})
	assert.Equal(t, [4]float32{11, 8, 13, 1}, got)

	// Directions (w = 0) are unaffected.
	dir := apply(m[:], [4]float32{1, 0, 0, 0})
	assert.Equal(t, [4]float32{1, 0, 0, 0}, dir)
}

func TestPerspectiveDepthRange(t *testing.T) {
	var p Mat4
	const near, far = 0.5, 100.0
	Perspective(p[:], 1.0, 1.0, near, far)

	nearClip := apply(p[:], [4]float32{0, 0, -near, 1})
	assert.InDelta(t, 0.0, float64(nearClip[2]/nearClip[3]), 1e-5)

	farClip := apply(p[:], [4]float32{0, 0, -far, 1})
	assert.InDelta(t, 1.0, float64(farClip[2]/farClip[3]), 1e-5)
}

func TestOrthoMapsCorners(t *testing.T) {
	var p Mat4
	Ortho(p[:], -2, 2, -1, 1, 1, 10)

	corner := apply(p[:], [4]float32{2, 1, -1, 1})
	if diff := cmp.Diff([4]float32{1, 1, 0, 1}, corner, approx); diff != "" {
		t.Errorf("near top-right corner mismatch:\n%s", diff)
	}

	center := apply(p[:], [4]float32{0, 0, -10, 1})
	assert.InDelta(t, 1.0, float64(center[2]), 1e-5)
}

func TestSliceToBytes(t *testing.T) {
	data := []float32{1, 2, 3}
	b := SliceToBytes(data)
	require.Len(t, b, 12)

	assert.Nil(t, SliceToBytes([]float32(nil)))

	u := []uint32{0xAABBCCDD}
	b = SliceToBytes(u)
	require.Len(t, b, 4)
}

func TestStructToBytesLength(t *testing.T) {
	type uniform struct {
		M Mat4
		V [4]float32
	}
	var u uniform
	assert.Len(t, StructToBytes(&u), 80)
	assert.Equal(t, uint64(80), SizeOf[uniform]())
}

func TestCoalesce(t *testing.T) {
	assert.Equal(t, 5, Coalesce(0, 0, 5, 7))
	assert.Equal(t, 0, Coalesce(0, 0))
	assert.Equal(t, "a", Coalesce("", "a"))
}
