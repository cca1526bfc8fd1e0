// Package viz coordinates a live point cloud viewer: scene objects with dirty
// state tracking, a camera, input handler stacks, and a draw loop that mirrors
// dirty CPU state into GPU resources each frame.
//
// Threading contract: one consumer thread calls Run or RunOnce (the window
// requires it to be the OS thread that created the viewer). Any number of
// producer threads mutate scene objects and call Update, serializing their own
// access to shared objects, for example with scene.Locked. SetRunning is safe
// from any goroutine without further synchronization.
package viz

import (
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/lidar-tools/pointviz/common"
	"github.com/lidar-tools/pointviz/viz/camera"
	"github.com/lidar-tools/pointviz/viz/render"
	"github.com/lidar-tools/pointviz/viz/scene"
	"github.com/lidar-tools/pointviz/viz/window"
)

// KeyHandler consumes a key press. Return true to stop propagation to older
// handlers.
type KeyHandler func(ctx window.Ctx, key, mods int) bool

// MouseButtonHandler consumes a mouse button press. Return true to stop
// propagation to older handlers.
type MouseButtonHandler func(ctx window.Ctx, button, mods int) bool

// ScrollHandler consumes a scroll event. Return true to stop propagation to
// older handlers.
type ScrollHandler func(ctx window.Ctx, xoff, yoff float64) bool

// MouseMoveHandler consumes a cursor move. The ctx still holds the previous
// cursor position, so handlers can compute deltas. Return true to stop
// propagation to older handlers.
type MouseMoveHandler func(ctx window.Ctx, x, y float64) bool

// PointViz is the viewer coordinator. It owns the window, the camera, the
// active scene object sets and the GPU adapters that mirror them.
type PointViz interface {
	// Run shows the window and drives the event/draw loop until SetRunning
	// (false), the Escape key via default controls, or a window close request
	// stops it. Must be called from the thread that created the viewer.
	Run()

	// RunOnce polls window events and draws a single frame. Must be called
	// from the thread that created the viewer.
	RunOnce()

	// Running reports whether the event loop is active. Safe from any
	// goroutine.
	Running() bool

	// SetRunning starts or stops the event loop flag. Setting false causes a
	// blocked Run to return after its current iteration. Safe from any
	// goroutine.
	SetRunning(running bool)

	// Update commits the producer's pending scene mutations as one frame.
	//
	// Returns:
	//   - bool: false when the previous commit has not been drawn yet, in
	//     which case the new mutations are folded into the pending frame
	Update() bool

	// Visible shows or hides the window.
	Visible(visible bool)

	// AddCloud adds a cloud to the scene. Adding the same cloud twice draws
	// it twice.
	AddCloud(c scene.Cloud)

	// RemoveCloud removes one occurrence of a cloud from the scene.
	//
	// Returns:
	//   - bool: true if the cloud was present
	RemoveCloud(c scene.Cloud) bool

	// AddImage adds an image to the scene.
	AddImage(im scene.Image)

	// RemoveImage removes one occurrence of an image from the scene.
	//
	// Returns:
	//   - bool: true if the image was present
	RemoveImage(im scene.Image) bool

	// AddCuboid adds a cuboid to the scene.
	AddCuboid(c scene.Cuboid)

	// RemoveCuboid removes one occurrence of a cuboid from the scene.
	//
	// Returns:
	//   - bool: true if the cuboid was present
	RemoveCuboid(c scene.Cuboid) bool

	// AddLabel adds a label to the scene.
	AddLabel(l scene.Label)

	// RemoveLabel removes one occurrence of a label from the scene.
	//
	// Returns:
	//   - bool: true if the label was present
	RemoveLabel(l scene.Label) bool

	// PushKeyHandler installs a key handler on top of the stack. Handlers are
	// dispatched most-recent-first until one consumes the event.
	PushKeyHandler(h KeyHandler)

	// PopKeyHandler removes the most recently pushed key handler.
	PopKeyHandler()

	// PushMouseButtonHandler installs a mouse button handler on top of the
	// stack.
	PushMouseButtonHandler(h MouseButtonHandler)

	// PopMouseButtonHandler removes the most recently pushed mouse button
	// handler.
	PopMouseButtonHandler()

	// PushScrollHandler installs a scroll handler on top of the stack.
	PushScrollHandler(h ScrollHandler)

	// PopScrollHandler removes the most recently pushed scroll handler.
	PopScrollHandler()

	// PushMouseMoveHandler installs a cursor move handler on top of the stack.
	PushMouseMoveHandler(h MouseMoveHandler)

	// PopMouseMoveHandler removes the most recently pushed cursor move
	// handler.
	PopMouseMoveHandler()

	// Camera returns the viewer camera. Mutations follow the producer
	// synchronization contract.
	Camera() camera.Camera

	// TargetDisplay returns the camera target display settings.
	TargetDisplay() *TargetDisplay

	// Close stops the loop and releases all GPU and window resources. The
	// viewer must not be used afterwards. Must be called from the thread that
	// created the viewer.
	Close() error
}

type pointVizImpl struct {
	window window.Window
	ctx    *render.Context
	cam    camera.Camera
	target *TargetDisplay

	rasterizer render.TextRasterizer

	// frameReady is the pacing flag behind Update: true while a committed
	// frame awaits drawing.
	frameMu    sync.Mutex
	frameReady bool

	running atomic.Bool

	clouds  []scene.Cloud
	images  []scene.Image
	cuboids []scene.Cuboid
	labels  []scene.Label

	cloudRenderers  map[scene.Cloud]*render.CloudRenderer
	imageRenderers  map[scene.Image]*render.ImageRenderer
	cuboidRenderers map[scene.Cuboid]*render.CuboidRenderer
	labelRenderers  map[scene.Label]*render.LabelRenderer
	rings           *render.RingsRenderer

	keyHandlers         []KeyHandler
	mouseButtonHandlers []MouseButtonHandler
	scrollHandlers      []ScrollHandler
	mouseMoveHandlers   []MouseMoveHandler

	// stagePool runs the per-object CPU staging phase of each frame.
	stagePool    worker.DynamicWorkerPool
	stageWorkers int

	resized bool
	closed  bool
}

var _ PointViz = &pointVizImpl{}

// NewPointViz creates a viewer with a hidden window, a configured GPU context
// and compiled pipelines. Call Run (or Visible plus RunOnce) to show it.
//
// Parameters:
//   - options: optional PointVizBuilderOption configuration
//
// Returns:
//   - PointViz: the viewer
//   - error: an error if the window or GPU context could not be created
func NewPointViz(options ...PointVizBuilderOption) (PointViz, error) {
	p := &pointVizImpl{
		cam:             camera.NewCamera(),
		target:          NewTargetDisplay(),
		cloudRenderers:  make(map[scene.Cloud]*render.CloudRenderer),
		imageRenderers:  make(map[scene.Image]*render.ImageRenderer),
		cuboidRenderers: make(map[scene.Cuboid]*render.CuboidRenderer),
		labelRenderers:  make(map[scene.Label]*render.LabelRenderer),
	}
	cfg := &pointVizConfig{}
	for _, option := range options {
		option(cfg)
	}
	p.stageWorkers = common.Coalesce(cfg.stageWorkers, 4)
	p.rasterizer = cfg.rasterizer

	win, err := window.NewWindow(cfg.windowOptions...)
	if err != nil {
		return nil, err
	}
	p.window = win

	ctx, err := render.NewContext(win.SurfaceDescriptor(), win.Width(), win.Height())
	if err != nil {
		win.Close()
		return nil, err
	}
	if err := ctx.InitPipelines(); err != nil {
		ctx.Release()
		win.Close()
		return nil, err
	}
	p.ctx = ctx

	if p.rings, err = render.NewRingsRenderer(ctx); err != nil {
		ctx.Release()
		win.Close()
		return nil, err
	}

	// Queue size of 256 leaves headroom over typical scene object counts.
	p.stagePool = worker.NewDynamicWorkerPool(p.stageWorkers, 256, 1*time.Second)

	win.SetKeyCallback(func(key, mods int) {
		p.dispatchKey(key, mods)
	})
	win.SetMouseButtonCallback(func(button, mods int) {
		p.dispatchMouseButton(button, mods)
	})
	win.SetScrollCallback(func(xoff, yoff float64) {
		p.dispatchScroll(xoff, yoff)
	})
	win.SetMouseMoveCallback(func(x, y float64) {
		p.dispatchMouseMove(x, y)
	})
	win.SetResizeCallback(func(_, _ int) {
		p.resized = true
	})

	return p, nil
}

func (p *pointVizImpl) Running() bool {
	return p.running.Load()
}

func (p *pointVizImpl) SetRunning(running bool) {
	p.running.Store(running)
}

func (p *pointVizImpl) Run() {
	p.SetRunning(true)
	p.window.SetVisible(true)
	for p.Running() && !p.window.ShouldClose() {
		p.RunOnce()
	}
	p.SetRunning(false)
}

func (p *pointVizImpl) RunOnce() {
	p.window.PollEvents()
	if p.resized {
		p.resized = false
		ctx := p.window.Ctx()
		if ctx.ViewportWidth > 0 && ctx.ViewportHeight > 0 {
			p.ctx.ConfigureSurface(ctx.ViewportWidth, ctx.ViewportHeight)
		}
	}
	p.drawFrame()
}

func (p *pointVizImpl) Update() bool {
	p.frameMu.Lock()
	defer p.frameMu.Unlock()
	if p.frameReady {
		return false
	}
	p.frameReady = true
	return true
}

func (p *pointVizImpl) Visible(visible bool) {
	p.window.SetVisible(visible)
}

// drawFrame renders one frame: reap renderers for removed objects, create
// missing ones, run the parallel CPU staging phase, then record and submit
// all draws and consume the pending commit.
func (p *pointVizImpl) drawFrame() {
	winCtx := p.window.Ctx()
	if winCtx.ViewportWidth == 0 || winCtx.ViewportHeight == 0 {
		return
	}

	consumed := p.beginConsume()

	p.reapRenderers()
	drawables := p.collectDrawables()

	// Phase 1: parallel CPU prep. Workers are reused across frames; a
	// WaitGroup provides the per-frame barrier.
	var wg sync.WaitGroup
	for i, d := range drawables {
		wg.Add(1)
		dCap := d
		p.stagePool.SubmitTask(worker.Task{
			ID: i,
			Do: func() (any, error) {
				defer wg.Done()
				dCap.Prepare()
				return nil, nil
			},
		})
	}
	wg.Wait()

	// Phase 2: record and submit all draws in one pass.
	cam := p.cam.Matrices(winCtx.Aspect())

	if err := p.ctx.BeginFrame(); err != nil {
		log.Printf("viz: failed to begin frame: %v", err)
		return
	}

	if p.target.RingsEnabled() {
		p.rings.Draw(winCtx, cam, p.target.RingSpacing(), defaultRingCount)
	}
	for _, c := range p.clouds {
		if r := p.cloudRenderers[c]; r != nil {
			r.Draw(winCtx, cam)
		}
	}
	for _, c := range p.cuboids {
		if r := p.cuboidRenderers[c]; r != nil {
			r.Draw(winCtx, cam)
		}
	}
	for _, im := range p.images {
		if r := p.imageRenderers[im]; r != nil {
			r.Draw(winCtx, cam)
		}
	}
	for _, l := range p.labels {
		if r := p.labelRenderers[l]; r != nil {
			r.Draw(winCtx, cam)
		}
	}

	p.ctx.EndFrame()
	p.ctx.Present()

	p.clearDirty()
	p.finishConsume(consumed)
}

// beginConsume snapshots whether a committed frame is pending at the start of
// a draw. Commits that land mid-draw stay pending for the next frame.
func (p *pointVizImpl) beginConsume() bool {
	p.frameMu.Lock()
	defer p.frameMu.Unlock()
	return p.frameReady
}

// finishConsume marks the pending commit drawn, if one was pending when the
// draw started.
func (p *pointVizImpl) finishConsume(consumed bool) {
	if !consumed {
		return
	}
	p.frameMu.Lock()
	p.frameReady = false
	p.frameMu.Unlock()
}

// collectDrawables ensures an adapter exists for every active object and
// returns the adapters to stage this frame, one entry per adapter. Objects
// added more than once share one adapter; it is staged once here and drawn
// once per occurrence by drawFrame, so concurrent Prepare calls never hit the
// same adapter. Adapters are created lazily on the first frame an object is
// drawn; a creation failure is logged once and the object is skipped from
// then on.
func (p *pointVizImpl) collectDrawables() []render.Drawable {
	drawables := make([]render.Drawable, 0,
		len(p.clouds)+len(p.images)+len(p.cuboids)+len(p.labels))
	seen := make(map[render.Drawable]struct{})
	appendOnce := func(d render.Drawable) {
		if _, ok := seen[d]; ok {
			return
		}
		seen[d] = struct{}{}
		drawables = append(drawables, d)
	}

	for _, c := range p.clouds {
		r, ok := p.cloudRenderers[c]
		if !ok {
			var err error
			if r, err = render.NewCloudRenderer(p.ctx, c); err != nil {
				log.Printf("viz: failed to create cloud renderer: %v", err)
			}
			p.cloudRenderers[c] = r
		}
		if r != nil {
			appendOnce(r)
		}
	}
	for _, im := range p.images {
		r, ok := p.imageRenderers[im]
		if !ok {
			var err error
			if r, err = render.NewImageRenderer(p.ctx, im); err != nil {
				log.Printf("viz: failed to create image renderer: %v", err)
			}
			p.imageRenderers[im] = r
		}
		if r != nil {
			appendOnce(r)
		}
	}
	for _, c := range p.cuboids {
		r, ok := p.cuboidRenderers[c]
		if !ok {
			var err error
			if r, err = render.NewCuboidRenderer(p.ctx, c); err != nil {
				log.Printf("viz: failed to create cuboid renderer: %v", err)
			}
			p.cuboidRenderers[c] = r
		}
		if r != nil {
			appendOnce(r)
		}
	}
	for _, l := range p.labels {
		r, ok := p.labelRenderers[l]
		if !ok {
			var err error
			if r, err = render.NewLabelRenderer(p.ctx, l, p.rasterizer); err != nil {
				log.Printf("viz: failed to create label renderer: %v", err)
			}
			p.labelRenderers[l] = r
		}
		if r != nil {
			appendOnce(r)
		}
	}
	return drawables
}

// reapRenderers releases adapters whose object is no longer in the active
// set. Runs on the render thread at the start of each frame.
func (p *pointVizImpl) reapRenderers() {
	for c, r := range p.cloudRenderers {
		if !containsIdentity(p.clouds, c) {
			if r != nil {
				r.Release()
			}
			delete(p.cloudRenderers, c)
		}
	}
	for im, r := range p.imageRenderers {
		if !containsIdentity(p.images, im) {
			if r != nil {
				r.Release()
			}
			delete(p.imageRenderers, im)
		}
	}
	for c, r := range p.cuboidRenderers {
		if !containsIdentity(p.cuboids, c) {
			if r != nil {
				r.Release()
			}
			delete(p.cuboidRenderers, c)
		}
	}
	for l, r := range p.labelRenderers {
		if !containsIdentity(p.labels, l) {
			if r != nil {
				r.Release()
			}
			delete(p.labelRenderers, l)
		}
	}
}

// clearDirty resets every active object's dirty flags after its state reached
// the GPU.
func (p *pointVizImpl) clearDirty() {
	for _, c := range p.clouds {
		c.Clear()
	}
	for _, im := range p.images {
		im.Clear()
	}
	for _, c := range p.cuboids {
		c.Clear()
	}
	for _, l := range p.labels {
		l.Clear()
	}
}

func (p *pointVizImpl) AddCloud(c scene.Cloud) {
	p.clouds = append(p.clouds, c)
}

func (p *pointVizImpl) RemoveCloud(c scene.Cloud) bool {
	var found bool
	p.clouds, found = removeIdentity(p.clouds, c)
	return found
}

func (p *pointVizImpl) AddImage(im scene.Image) {
	p.images = append(p.images, im)
}

func (p *pointVizImpl) RemoveImage(im scene.Image) bool {
	var found bool
	p.images, found = removeIdentity(p.images, im)
	return found
}

func (p *pointVizImpl) AddCuboid(c scene.Cuboid) {
	p.cuboids = append(p.cuboids, c)
}

func (p *pointVizImpl) RemoveCuboid(c scene.Cuboid) bool {
	var found bool
	p.cuboids, found = removeIdentity(p.cuboids, c)
	return found
}

func (p *pointVizImpl) AddLabel(l scene.Label) {
	p.labels = append(p.labels, l)
}

func (p *pointVizImpl) RemoveLabel(l scene.Label) bool {
	var found bool
	p.labels, found = removeIdentity(p.labels, l)
	return found
}

func (p *pointVizImpl) PushKeyHandler(h KeyHandler) {
	p.keyHandlers = append(p.keyHandlers, h)
}

func (p *pointVizImpl) PopKeyHandler() {
	if n := len(p.keyHandlers); n > 0 {
		p.keyHandlers = p.keyHandlers[:n-1]
	}
}

func (p *pointVizImpl) PushMouseButtonHandler(h MouseButtonHandler) {
	p.mouseButtonHandlers = append(p.mouseButtonHandlers, h)
}

func (p *pointVizImpl) PopMouseButtonHandler() {
	if n := len(p.mouseButtonHandlers); n > 0 {
		p.mouseButtonHandlers = p.mouseButtonHandlers[:n-1]
	}
}

func (p *pointVizImpl) PushScrollHandler(h ScrollHandler) {
	p.scrollHandlers = append(p.scrollHandlers, h)
}

func (p *pointVizImpl) PopScrollHandler() {
	if n := len(p.scrollHandlers); n > 0 {
		p.scrollHandlers = p.scrollHandlers[:n-1]
	}
}

func (p *pointVizImpl) PushMouseMoveHandler(h MouseMoveHandler) {
	p.mouseMoveHandlers = append(p.mouseMoveHandlers, h)
}

func (p *pointVizImpl) PopMouseMoveHandler() {
	if n := len(p.mouseMoveHandlers); n > 0 {
		p.mouseMoveHandlers = p.mouseMoveHandlers[:n-1]
	}
}

func (p *pointVizImpl) dispatchKey(key, mods int) {
	ctx := p.window.Ctx()
	for i := len(p.keyHandlers) - 1; i >= 0; i-- {
		if p.keyHandlers[i](ctx, key, mods) {
			return
		}
	}
}

func (p *pointVizImpl) dispatchMouseButton(button, mods int) {
	ctx := p.window.Ctx()
	for i := len(p.mouseButtonHandlers) - 1; i >= 0; i-- {
		if p.mouseButtonHandlers[i](ctx, button, mods) {
			return
		}
	}
}

func (p *pointVizImpl) dispatchScroll(xoff, yoff float64) {
	ctx := p.window.Ctx()
	for i := len(p.scrollHandlers) - 1; i >= 0; i-- {
		if p.scrollHandlers[i](ctx, xoff, yoff) {
			return
		}
	}
}

func (p *pointVizImpl) dispatchMouseMove(x, y float64) {
	ctx := p.window.Ctx()
	for i := len(p.mouseMoveHandlers) - 1; i >= 0; i-- {
		if p.mouseMoveHandlers[i](ctx, x, y) {
			return
		}
	}
}

func (p *pointVizImpl) Camera() camera.Camera {
	return p.cam
}

func (p *pointVizImpl) TargetDisplay() *TargetDisplay {
	return p.target
}

func (p *pointVizImpl) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true
	p.SetRunning(false)

	for _, r := range p.cloudRenderers {
		if r != nil {
			r.Release()
		}
	}
	for _, r := range p.imageRenderers {
		if r != nil {
			r.Release()
		}
	}
	for _, r := range p.cuboidRenderers {
		if r != nil {
			r.Release()
		}
	}
	for _, r := range p.labelRenderers {
		if r != nil {
			r.Release()
		}
	}
	clear(p.cloudRenderers)
	clear(p.imageRenderers)
	clear(p.cuboidRenderers)
	clear(p.labelRenderers)

	if p.rings != nil {
		p.rings.Release()
		p.rings = nil
	}
	if p.ctx != nil {
		p.ctx.Release()
		p.ctx = nil
	}
	if p.window != nil {
		return p.window.Close()
	}
	return nil
}

// removeIdentity removes the first element identical to target and reports
// whether one was found.
func removeIdentity[T comparable](s []T, target T) ([]T, bool) {
	for i, v := range s {
		if v == target {
			return append(s[:i], s[i+1:]...), true
		}
	}
	return s, false
}

func containsIdentity[T comparable](s []T, target T) bool {
	for _, v := range s {
		if v == target {
			return true
		}
	}
	return false
}
