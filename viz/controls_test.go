package viz

import (
	"sync"
	"testing"

	"github.com/lidar-tools/pointviz/viz/camera"
	"github.com/lidar-tools/pointviz/viz/window"
	"github.com/stretchr/testify/assert"
)

func newControlledViz() *pointVizImpl {
	p := newTestViz()
	AddDefaultControls(p, nil)
	return p
}

func TestDefaultControlsOrbitKeys(t *testing.T) {
	p := newControlledViz()
	before := p.Camera().Matrices(1)

	p.dispatchKey(window.KeyW, 0)
	after := p.Camera().Matrices(1)
	assert.NotEqual(t, before.View, after.View, "pitch should change the view matrix")

	p.dispatchKey(window.KeyS, 0)
	assert.Equal(t, before.View, p.Camera().Matrices(1).View, "opposite pitch should restore the view")
}

func TestDefaultControlsDollyKeys(t *testing.T) {
	p := newControlledViz()
	before := p.Camera().Matrices(1)

	p.dispatchKey(window.KeyEqual, 0)
	after := p.Camera().Matrices(1)
	assert.Less(t, -after.View[14], -before.View[14], "dolly in should reduce the view distance")
}

func TestDefaultControlsOrthoToggle(t *testing.T) {
	p := newControlledViz()
	assert.False(t, p.Camera().Orthographic())

	p.dispatchKey(window.Key0, 0)
	assert.True(t, p.Camera().Orthographic())

	p.dispatchKey(window.Key0, 0)
	assert.False(t, p.Camera().Orthographic())
}

func TestDefaultControlsResetRequiresShift(t *testing.T) {
	p := newControlledViz()
	fresh := camera.NewCamera().Matrices(1)

	p.dispatchKey(window.KeyW, 0)
	p.dispatchKey(window.KeyEqual, 0)

	// Plain r is left for application handlers.
	p.dispatchKey(window.KeyR, 0)
	assert.NotEqual(t, fresh.View, p.Camera().Matrices(1).View)

	p.dispatchKey(window.KeyR, window.ModShift)
	assert.Equal(t, fresh.View, p.Camera().Matrices(1).View)
}

func TestDefaultControlsEscStopsLoop(t *testing.T) {
	p := newControlledViz()
	p.SetRunning(true)

	p.dispatchKey(window.KeyEsc, 0)
	assert.False(t, p.Running())
}

func TestDefaultControlsScrollDollies(t *testing.T) {
	p := newControlledViz()
	before := p.Camera().Matrices(1)

	p.dispatchScroll(0, 1)
	assert.NotEqual(t, before.View, p.Camera().Matrices(1).View)
}

func TestDefaultControlsLeftDragOrbits(t *testing.T) {
	p := newControlledViz()
	fake := p.window.(*fakeWindow)
	before := p.Camera().Matrices(1)

	// Cursor motion with no buttons held does nothing.
	p.dispatchMouseMove(110, 100)
	assert.Equal(t, before.View, p.Camera().Matrices(1).View)

	fake.ctx.LeftButtonDown = true
	fake.ctx.MouseX = 100
	fake.ctx.MouseY = 100
	p.dispatchMouseMove(110, 100)
	assert.NotEqual(t, before.View, p.Camera().Matrices(1).View)
}

func TestDefaultControlsDragOrbitDirection(t *testing.T) {
	p := newControlledViz()
	fake := p.window.(*fakeWindow)

	fake.ctx.LeftButtonDown = true
	fake.ctx.MouseX = 100
	fake.ctx.MouseY = 100
	p.dispatchMouseMove(120, 130)

	// A drag of (dx, dy) pixels orbits by sensitivity-scaled positive yaw and
	// pitch.
	want := camera.NewCamera()
	want.Yaw(orbitSensitivity * float32(20))
	want.Pitch(orbitSensitivity * float32(30))
	assert.Equal(t, want.Matrices(1), p.Camera().Matrices(1))
}

func TestDefaultControlsMiddleDragPans(t *testing.T) {
	p := newControlledViz()
	fake := p.window.(*fakeWindow)
	before := p.Camera().Matrices(1)

	fake.ctx.MiddleButtonDown = true
	fake.ctx.MouseX = 100
	fake.ctx.MouseY = 100
	p.dispatchMouseMove(160, 140)

	after := p.Camera().Matrices(1)
	assert.NotEqual(t, before.View, after.View, "pan should shift the view offset")
}

func TestDefaultControlsWithMutex(t *testing.T) {
	p := newControlledViz()

	// Reinstall with a mutex and drive the bindings concurrently with a
	// producer holding the same lock.
	var mu sync.Mutex
	AddDefaultControls(p, &mu)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			mu.Lock()
			p.Camera().Yaw(1)
			mu.Unlock()
		}
	}()
	for i := 0; i < 100; i++ {
		p.dispatchKey(window.KeyW, 0)
	}
	<-done
}
