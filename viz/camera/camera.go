// Package camera implements the visualizer's orbit camera as a pure state
// machine: a handful of continuous parameters in, view and projection matrices
// out. It performs no locking; callers that touch a camera from more than one
// thread must serialize access themselves, the same discipline required for
// scene objects.
package camera

import (
	"github.com/chewxy/math32"

	"github.com/lidar-tools/pointviz/common"
)

const (
	// defaultFov is the default diagonal field of view in degrees.
	defaultFov = 45

	// baseDistance is the target distance in meters at log-distance zero.
	baseDistance = 50.0

	// logZoomStep controls the zoom ratio per log-distance unit: the distance
	// doubles every logZoomStep units, so each step is a constant visual zoom
	// ratio rather than a constant metric step.
	logZoomStep = 32.0

	decidegreesPerTurn = 3600
)

// CameraData holds the matrices computed from camera state for one frame.
// All matrices are column-major.
type CameraData struct {
	// View transforms world coordinates into camera space.
	View common.Mat4
	// Proj projects camera space into clip space.
	Proj common.Mat4
	// Target is the camera target transform, applied to scene object poses
	// before the view.
	Target common.Mat4
}

// cameraImpl implements the Camera interface.
type cameraImpl struct {
	// view parameters
	target     common.Mat4
	viewOffset [3]float32
	yaw        int // decidegrees, wrapped
	pitch      int // decidegrees, wrapped
	// logDistance is the integer zoom parameter: 0 means 50 m, and the actual
	// distance is an exponential function of it.
	logDistance int

	// projection parameters
	orthographic bool
	fov          int // diagonal field of view, degrees
	projOffsetX  float32
	projOffsetY  float32
}

// Camera controls the view and projection of the visualizer.
//
// All parameters are continuous orbit/zoom state rather than discrete modes.
// Matrices is a pure function of the current state and may be called every
// frame with no side effects.
type Camera interface {
	// Matrices computes the view, projection, and target matrices for the
	// current state and the given viewport aspect ratio. Pure: no state is
	// modified.
	//
	// Parameters:
	//   - aspect: viewport aspect ratio (width / height)
	//
	// Returns:
	//   - CameraData: the computed matrices
	Matrices(aspect float32) CameraData

	// Reset restores every parameter to its initial construction value.
	Reset()

	// Yaw orbits the camera left or right about the camera target.
	//
	// Parameters:
	//   - degrees: offset to the current yaw angle
	Yaw(degrees float32)

	// Pitch tilts the camera up or down.
	//
	// Parameters:
	//   - degrees: offset to the current pitch angle
	Pitch(degrees float32)

	// Dolly moves the camera towards or away from the target by adjusting the
	// log-distance zoom parameter.
	//
	// Parameters:
	//   - amount: offset to the current log-distance (positive moves closer)
	Dolly(amount int)

	// DollyXy moves the camera target in the XY plane of the camera view.
	// Coordinates are normalized so that 1 is the length of the diagonal of
	// the view plane at the target: a fixed input delta produces the same
	// apparent motion regardless of the camera distance.
	//
	// Parameters:
	//   - x: horizontal offset
	//   - y: vertical offset
	DollyXy(x, y float32)

	// SetFov sets the diagonal field of view.
	//
	// Parameters:
	//   - degrees: the diagonal field of view, in degrees
	SetFov(degrees float32)

	// SetOrthographic switches between orthographic and perspective projection.
	//
	// Parameters:
	//   - state: true for orthographic, false for perspective
	SetOrthographic(state bool)

	// SetProjOffset sets the 2D position of the camera target in the viewport.
	//
	// Parameters:
	//   - x: horizontal position in normalized coordinates [-1, 1]
	//   - y: vertical position in normalized coordinates [-1, 1]
	SetProjOffset(x, y float32)

	// SetTarget sets the camera target transform.
	//
	// Parameters:
	//   - target: 4x4 column-major homogeneous transformation matrix
	SetTarget(target common.Mat4)

	// ViewDistance returns the actual target distance in meters for the
	// current log-distance.
	//
	// Returns:
	//   - float32: distance from the camera to the target
	ViewDistance() float32

	// Orthographic reports whether the orthographic projection is active.
	Orthographic() bool

	// Fov returns the diagonal field of view in degrees.
	Fov() float32
}

var _ Camera = &cameraImpl{}

// NewCamera creates a camera in its reset state: yaw, pitch, and log-distance
// zero (50 m from the target), perspective projection, default field of view.
//
// Returns:
//   - Camera: the newly created camera
func NewCamera() Camera {
	c := &cameraImpl{}
	c.Reset()
	return c
}

func (c *cameraImpl) Reset() {
	c.target = common.Identity4
	c.viewOffset = [3]float32{}
	c.yaw = 0
	c.pitch = 0
	c.logDistance = 0
	c.orthographic = false
	c.fov = defaultFov
	c.projOffsetX = 0
	c.projOffsetY = 0
}

func (c *cameraImpl) Yaw(degrees float32) {
	c.yaw = wrapDecidegrees(c.yaw + int(10*degrees))
}

func (c *cameraImpl) Pitch(degrees float32) {
	c.pitch = wrapDecidegrees(c.pitch + int(10*degrees))
}

func (c *cameraImpl) Dolly(amount int) {
	c.logDistance -= amount
}

func (c *cameraImpl) DollyXy(x, y float32) {
	diag := c.viewPlaneDiagonal()
	c.viewOffset[0] += x * diag
	c.viewOffset[1] -= y * diag
}

func (c *cameraImpl) SetFov(degrees float32) {
	c.fov = int(degrees)
}

func (c *cameraImpl) SetOrthographic(state bool) {
	c.orthographic = state
}

func (c *cameraImpl) SetProjOffset(x, y float32) {
	c.projOffsetX = x
	c.projOffsetY = y
}

func (c *cameraImpl) SetTarget(target common.Mat4) {
	c.target = target
}

func (c *cameraImpl) ViewDistance() float32 {
	return baseDistance * math32.Pow(2, float32(c.logDistance)/logZoomStep)
}

func (c *cameraImpl) Orthographic() bool { return c.orthographic }

func (c *cameraImpl) Fov() float32 { return float32(c.fov) }

func (c *cameraImpl) Matrices(aspect float32) CameraData {
	var data CameraData
	data.Target = c.target

	distance := c.ViewDistance()

	// The stored fov is diagonal; convert to the vertical fov the projection
	// needs for this aspect ratio.
	tanHalfDiag := math32.Tan(float32(c.fov) * deg2rad / 2)
	tanHalfV := tanHalfDiag / math32.Sqrt(1+aspect*aspect)

	near := distance * 0.01
	far := distance * 100
	if c.orthographic {
		halfH := distance * tanHalfV
		common.Ortho(data.Proj[:], -halfH*aspect, halfH*aspect, -halfH, halfH, near, far)
	} else {
		fovY := 2 * math32.Atan(tanHalfV)
		common.Perspective(data.Proj[:], fovY, aspect, near, far)
	}

	// Position the camera target in the viewport by translating clip space.
	if c.projOffsetX != 0 || c.projOffsetY != 0 {
		var shift [16]float32
		common.Translation(shift[:], c.projOffsetX, c.projOffsetY, 0)
		common.Mul4(data.Proj[:], shift[:], data.Proj[:])
	}

	// view = T(-offset) * T(0,0,-d) * Rx(pitch) * Rz(yaw)
	var tmp [16]float32
	common.RotationZ(data.View[:], float32(c.yaw)/10*deg2rad)
	common.RotationX(tmp[:], float32(c.pitch)/10*deg2rad)
	common.Mul4(data.View[:], tmp[:], data.View[:])
	common.Translation(tmp[:], -c.viewOffset[0], -c.viewOffset[1], -c.viewOffset[2]-distance)
	common.Mul4(data.View[:], tmp[:], data.View[:])

	return data
}

// viewPlaneDiagonal returns the length of the diagonal of the view plane at
// the current target distance, the normalization basis for DollyXy.
func (c *cameraImpl) viewPlaneDiagonal() float32 {
	return 2 * c.ViewDistance() * math32.Tan(float32(c.fov)*deg2rad/2)
}

const deg2rad = math32.Pi / 180

// wrapDecidegrees wraps an angle in decidegrees into [0, 3600).
func wrapDecidegrees(v int) int {
	v %= decidegreesPerTurn
	if v < 0 {
		v += decidegreesPerTurn
	}
	return v
}
