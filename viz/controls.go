package viz

import (
	"sync"

	"github.com/chewxy/math32"
	"github.com/lidar-tools/pointviz/viz/window"
)

// orbitSensitivity is the orbit speed in degrees per pixel of mouse drag.
const orbitSensitivity = 0.3

// AddDefaultControls installs the standard camera bindings on the viewer:
//
//	w/s/a/d        orbit in 5 degree steps
//	= / -          dolly in and out
//	0              toggle orthographic projection
//	shift+r        reset the camera
//	esc            stop the event loop
//	scroll         dolly
//	left drag      orbit
//	middle drag    pan the view offset
//
// The camera is mutated from the window event thread. When mu is non-nil
// every camera mutation is wrapped in it, for callers that also drive the
// camera from producer threads.
//
// Parameters:
//   - p: the viewer to install the bindings on
//   - mu: optional mutex guarding camera access, may be nil
func AddDefaultControls(p PointViz, mu *sync.Mutex) {
	locked := func(fn func()) {
		if mu != nil {
			mu.Lock()
			defer mu.Unlock()
		}
		fn()
	}

	p.PushKeyHandler(func(_ window.Ctx, key, mods int) bool {
		switch key {
		case window.KeyW:
			locked(func() { p.Camera().Pitch(5) })
		case window.KeyS:
			locked(func() { p.Camera().Pitch(-5) })
		case window.KeyA:
			locked(func() { p.Camera().Yaw(5) })
		case window.KeyD:
			locked(func() { p.Camera().Yaw(-5) })
		case window.KeyEqual:
			locked(func() { p.Camera().Dolly(5) })
		case window.KeyMinus:
			locked(func() { p.Camera().Dolly(-5) })
		case window.Key0:
			locked(func() { p.Camera().SetOrthographic(!p.Camera().Orthographic()) })
		case window.KeyR:
			if mods&window.ModShift == 0 {
				return false
			}
			locked(func() { p.Camera().Reset() })
		case window.KeyEsc:
			p.SetRunning(false)
		default:
			return false
		}
		return true
	})

	p.PushScrollHandler(func(_ window.Ctx, _, yoff float64) bool {
		locked(func() { p.Camera().Dolly(int(yoff * 5)) })
		return true
	})

	p.PushMouseMoveHandler(func(ctx window.Ctx, x, y float64) bool {
		dx := x - ctx.MouseX
		dy := y - ctx.MouseY
		switch {
		case ctx.LeftButtonDown:
			locked(func() {
				p.Camera().Yaw(orbitSensitivity * float32(dx))
				p.Camera().Pitch(orbitSensitivity * float32(dy))
			})
		case ctx.MiddleButtonDown:
			// Pan amounts are normalized by the window diagonal so a drag
			// across the window moves the view by a consistent fraction of
			// the visible extent.
			diagonal := math32.Hypot(float32(ctx.ViewportWidth), float32(ctx.ViewportHeight))
			if diagonal > 0 {
				locked(func() {
					p.Camera().DollyXy(2*float32(dx)/diagonal, 2*float32(dy)/diagonal)
				})
			}
		default:
			return false
		}
		return true
	})
}
