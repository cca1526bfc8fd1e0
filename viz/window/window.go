// Package window wraps the GLFW windowing and input backend behind a small
// interface. It supplies the per-frame input context (pointer state, viewport
// size) consumed by the visualizer's handler dispatch, and the surface
// descriptor the render context needs to attach WebGPU to the window.
package window

import (
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/lidar-tools/pointviz/common"
)

// Ctx is the per-frame context for input callbacks.
type Ctx struct {
	// LeftButtonDown is true while the left mouse button is held.
	LeftButtonDown bool
	// MiddleButtonDown is true while the middle mouse button is held.
	MiddleButtonDown bool
	// MouseX, MouseY hold the current cursor position in pixels. During a
	// mouse-move dispatch they still hold the previous position so handlers
	// can compute deltas.
	MouseX float64
	MouseY float64
	// ViewportWidth, ViewportHeight hold the framebuffer size in pixels.
	ViewportWidth  int
	ViewportHeight int
}

// Aspect returns the viewport aspect ratio, defaulting to 1 when the
// viewport has no area yet.
//
// Returns:
//   - float32: width divided by height
func (c Ctx) Aspect() float32 {
	if c.ViewportHeight <= 0 {
		return 1
	}
	return float32(c.ViewportWidth) / float32(c.ViewportHeight)
}

// Window provides platform windowing and raw input event delivery.
type Window interface {
	// Ctx returns the current input context.
	//
	// Returns:
	//   - Ctx: pointer state and viewport size
	Ctx() Ctx

	// SetKeyCallback sets the callback for key press and repeat events.
	//
	// Parameters:
	//   - callback: function receiving the key code and modifier bitmask
	SetKeyCallback(callback func(key, mods int))

	// SetMouseButtonCallback sets the callback for mouse button presses.
	//
	// Parameters:
	//   - callback: function receiving the button code and modifier bitmask
	SetMouseButtonCallback(callback func(button, mods int))

	// SetScrollCallback sets the callback for scroll wheel events.
	//
	// Parameters:
	//   - callback: function receiving horizontal and vertical scroll offsets
	SetScrollCallback(callback func(xoff, yoff float64))

	// SetMouseMoveCallback sets the callback for cursor movement. The input
	// context still reports the previous position during the callback.
	//
	// Parameters:
	//   - callback: function receiving the new cursor position in pixels
	SetMouseMoveCallback(callback func(x, y float64))

	// SetResizeCallback sets the callback for framebuffer size changes.
	//
	// Parameters:
	//   - callback: function receiving new width and height in pixels
	SetResizeCallback(callback func(width, height int))

	// SurfaceDescriptor returns a wgpu.SurfaceDescriptor suitable for creating
	// a WebGPU surface. The descriptor is platform-appropriate (Windows HWND,
	// X11, Wayland, macOS Metal) and is created by the wgpuglfw bridge from
	// the underlying GLFW window.
	//
	// Returns:
	//   - *wgpu.SurfaceDescriptor: the platform-specific surface descriptor
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// PollEvents processes pending window events without blocking, firing the
	// registered callbacks. Must be called from the thread that created the
	// window.
	PollEvents()

	// ShouldClose reports whether the window has been asked to close.
	//
	// Returns:
	//   - bool: true once the user closed the window
	ShouldClose() bool

	// SetVisible shows or hides the window.
	//
	// Parameters:
	//   - visible: true to show
	SetVisible(visible bool)

	// Width returns the current framebuffer width in pixels.
	Width() int

	// Height returns the current framebuffer height in pixels.
	Height() int

	// Close destroys the window and releases platform resources.
	//
	// Returns:
	//   - error: error if the window was never initialized
	Close() error
}

// vizWindow is the implementation of the Window interface.
type vizWindow struct {
	title     string
	width     int
	height    int
	fixAspect bool

	ctx Ctx

	internalWindow *glfwWindow

	onKey         func(key, mods int)
	onMouseButton func(button, mods int)
	onScroll      func(xoff, yoff float64)
	onMouseMove   func(x, y float64)
	onResize      func(width, height int)
}

var _ Window = &vizWindow{}

// NewWindow creates the visualizer window with the provided options and
// registers the GLFW input callbacks. Locks the calling goroutine to its OS
// thread; the same thread must service PollEvents.
//
// Parameters:
//   - options: functional options for window configuration
//
// Returns:
//   - Window: the created window
//   - error: error if GLFW initialization or window creation fails
func NewWindow(options ...WindowBuilderOption) (Window, error) {
	w := &vizWindow{}
	for _, option := range options {
		option(w)
	}
	w.title = common.Coalesce(w.title, "pointviz")
	w.width = common.Coalesce(w.width, 800)
	w.height = common.Coalesce(w.height, 600)
	if err := newPlatformWindow(w); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *vizWindow) Ctx() Ctx {
	return w.ctx
}

func (w *vizWindow) SetKeyCallback(callback func(key, mods int)) {
	w.onKey = callback
}

func (w *vizWindow) SetMouseButtonCallback(callback func(button, mods int)) {
	w.onMouseButton = callback
}

func (w *vizWindow) SetScrollCallback(callback func(xoff, yoff float64)) {
	w.onScroll = callback
}

func (w *vizWindow) SetMouseMoveCallback(callback func(x, y float64)) {
	w.onMouseMove = callback
}

func (w *vizWindow) SetResizeCallback(callback func(width, height int)) {
	w.onResize = callback
}

func (w *vizWindow) Width() int {
	return w.ctx.ViewportWidth
}

func (w *vizWindow) Height() int {
	return w.ctx.ViewportHeight
}
