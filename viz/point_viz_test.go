package viz

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/lidar-tools/pointviz/viz/camera"
	"github.com/lidar-tools/pointviz/viz/render"
	"github.com/lidar-tools/pointviz/viz/scene"
	"github.com/lidar-tools/pointviz/viz/window"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeWindow satisfies window.Window without a display, for exercising the
// coordinator's dispatch and pacing logic.
type fakeWindow struct {
	ctx window.Ctx
}

func (f *fakeWindow) Ctx() window.Ctx                                   { return f.ctx }
func (f *fakeWindow) SetKeyCallback(func(key, mods int))                {}
func (f *fakeWindow) SetMouseButtonCallback(func(button, mods int))     {}
func (f *fakeWindow) SetScrollCallback(func(xoff, yoff float64))        {}
func (f *fakeWindow) SetMouseMoveCallback(func(x, y float64))           {}
func (f *fakeWindow) SetResizeCallback(func(width, height int))         {}
func (f *fakeWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor        { return nil }
func (f *fakeWindow) PollEvents()                                       {}
func (f *fakeWindow) ShouldClose() bool                                 { return false }
func (f *fakeWindow) SetVisible(bool)                                   {}
func (f *fakeWindow) Width() int                                        { return f.ctx.ViewportWidth }
func (f *fakeWindow) Height() int                                       { return f.ctx.ViewportHeight }
func (f *fakeWindow) Close() error                                      { return nil }

func newTestViz() *pointVizImpl {
	return &pointVizImpl{
		window:          &fakeWindow{ctx: window.Ctx{ViewportWidth: 800, ViewportHeight: 600}},
		cam:             camera.NewCamera(),
		target:          NewTargetDisplay(),
		cloudRenderers:  make(map[scene.Cloud]*render.CloudRenderer),
		imageRenderers:  make(map[scene.Image]*render.ImageRenderer),
		cuboidRenderers: make(map[scene.Cuboid]*render.CuboidRenderer),
		labelRenderers:  make(map[scene.Label]*render.LabelRenderer),
	}
}

func TestUpdatePacing(t *testing.T) {
	p := newTestViz()

	// First commit goes through; the second finds the first still pending.
	assert.True(t, p.Update())
	assert.False(t, p.Update())

	// A draw that started with a pending commit consumes it; commits landing
	// mid-draw stay pending.
	consumed := p.beginConsume()
	require.True(t, consumed)
	assert.False(t, p.Update())
	p.finishConsume(consumed)

	assert.True(t, p.Update())
}

func TestFinishConsumeWithoutPendingCommit(t *testing.T) {
	p := newTestViz()

	consumed := p.beginConsume()
	require.False(t, consumed)

	// Commit lands mid-draw: the frame must stay pending afterwards.
	assert.True(t, p.Update())
	p.finishConsume(consumed)
	assert.False(t, p.Update())
}

func TestAddRemoveIdentity(t *testing.T) {
	p := newTestViz()

	c1 := scene.NewCloud(4)
	c2 := scene.NewCloud(4)

	p.AddCloud(c1)
	p.AddCloud(c1) // duplicates are allowed
	p.AddCloud(c2)
	assert.Len(t, p.clouds, 3)

	// Remove drops one occurrence at a time.
	assert.True(t, p.RemoveCloud(c1))
	assert.Len(t, p.clouds, 2)
	assert.True(t, p.RemoveCloud(c1))
	assert.False(t, p.RemoveCloud(c1))

	assert.True(t, p.RemoveCloud(c2))
	assert.False(t, p.RemoveCloud(c2))
	assert.Empty(t, p.clouds)
}

func TestRemoveMatchesByIdentityNotValue(t *testing.T) {
	p := newTestViz()

	l1 := scene.NewLabel("same", 0, 0, 0)
	l2 := scene.NewLabel("same", 0, 0, 0)
	p.AddLabel(l1)

	assert.False(t, p.RemoveLabel(l2))
	assert.True(t, p.RemoveLabel(l1))
}

func TestHandlerDispatchStopsAtFirstConsumer(t *testing.T) {
	p := newTestViz()

	var order []string
	p.PushKeyHandler(func(_ window.Ctx, _, _ int) bool {
		order = append(order, "old")
		return true
	})
	p.PushKeyHandler(func(_ window.Ctx, _, _ int) bool {
		order = append(order, "new")
		return true
	})

	p.dispatchKey(window.KeyW, 0)

	// Most recent first; it consumed, so the older handler never ran.
	assert.Equal(t, []string{"new"}, order)
}

func TestHandlerDispatchFallsThrough(t *testing.T) {
	p := newTestViz()

	var order []string
	p.PushScrollHandler(func(_ window.Ctx, _, _ float64) bool {
		order = append(order, "old")
		return true
	})
	p.PushScrollHandler(func(_ window.Ctx, _, _ float64) bool {
		order = append(order, "new")
		return false
	})

	p.dispatchScroll(0, 1)
	assert.Equal(t, []string{"new", "old"}, order)
}

func TestPopHandlerRemovesMostRecent(t *testing.T) {
	p := newTestViz()

	var hits []string
	p.PushMouseButtonHandler(func(_ window.Ctx, _, _ int) bool {
		hits = append(hits, "first")
		return true
	})
	p.PushMouseButtonHandler(func(_ window.Ctx, _, _ int) bool {
		hits = append(hits, "second")
		return true
	})

	p.PopMouseButtonHandler()
	p.dispatchMouseButton(window.MouseButtonLeft, 0)
	assert.Equal(t, []string{"first"}, hits)

	// Popping an empty stack is a no-op.
	p.PopMouseButtonHandler()
	p.PopMouseButtonHandler()
	p.dispatchMouseButton(window.MouseButtonLeft, 0)
	assert.Equal(t, []string{"first"}, hits)
}

func TestCollectDrawablesStagesSharedAdapterOnce(t *testing.T) {
	p := newTestViz()

	c := scene.NewCloud(4)
	p.AddCloud(c)
	p.AddCloud(c)
	cr := &render.CloudRenderer{}
	p.cloudRenderers[c] = cr

	l := scene.NewLabel("x", 0, 0, 0)
	p.AddLabel(l)
	p.AddLabel(l)
	lr := &render.LabelRenderer{}
	p.labelRenderers[l] = lr

	// One staging entry per adapter, so duplicate occurrences never run
	// Prepare concurrently on the same adapter. The active sets keep both
	// occurrences for the draw phase.
	drawables := p.collectDrawables()
	require.Len(t, drawables, 2)
	assert.Same(t, cr, drawables[0])
	assert.Same(t, lr, drawables[1])
	assert.Len(t, p.clouds, 2)
	assert.Len(t, p.labels, 2)
}

func TestSetRunningIsObservable(t *testing.T) {
	p := newTestViz()
	assert.False(t, p.Running())
	p.SetRunning(true)
	assert.True(t, p.Running())
	p.SetRunning(false)
	assert.False(t, p.Running())
}

func TestTargetDisplayRingSpacing(t *testing.T) {
	td := NewTargetDisplay()
	assert.False(t, td.RingsEnabled())
	assert.InDelta(t, 10.0, float64(td.RingSpacing()), 1e-4, "default spacing is 10 meters")

	td.EnableRings(true)
	td.SetRingSize(2)
	assert.True(t, td.RingsEnabled())
	assert.InDelta(t, 100.0, float64(td.RingSpacing()), 1e-3)

	td.SetRingSize(-1)
	assert.InDelta(t, 0.1, float64(td.RingSpacing()), 1e-6)

	td.SetRingSize(0)
	assert.InDelta(t, 1.0, float64(td.RingSpacing()), 1e-6)
}
