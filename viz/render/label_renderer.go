package render

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/lidar-tools/pointviz/common"
	"github.com/lidar-tools/pointviz/viz/camera"
	"github.com/lidar-tools/pointviz/viz/scene"
	"github.com/lidar-tools/pointviz/viz/window"
)

// TextRasterizer converts a text string into an RGBA8 bitmap for label
// rendering. Implementations are injected by the caller; when none is
// provided, labels occupy their anchor but draw nothing.
type TextRasterizer interface {
	// Rasterize renders text into a tightly packed RGBA8 bitmap.
	//
	// Parameters:
	//   - text: the string to render
	//
	// Returns:
	//   - []byte: RGBA8 pixels, 4*width*height bytes, row-major from the top
	//   - int: bitmap width in pixels
	//   - int: bitmap height in pixels
	Rasterize(text string) ([]byte, int, int)
}

// labelUniform mirrors the LabelUniform struct in the label shader.
type labelUniform struct {
	ProjView   common.Mat4
	Anchor     [4]float32
	Extent     [2]float32
	AlignRight float32
	_          float32
}

// LabelRenderer draws one Label as a textured quad, either billboarded at a
// 3D point or pinned to a 2D screen anchor. Text is rasterized on the CPU in
// Prepare whenever the label text changes.
type LabelRenderer struct {
	ctx        *Context
	label      scene.Label
	rasterizer TextRasterizer

	uniformBuf *wgpu.Buffer

	texture *wgpu.Texture
	view    *wgpu.TextureView
	texW    int
	texH    int

	bindGroup *wgpu.BindGroup

	stagedPixels []byte
	stagedW      int
	stagedH      int
}

// NewLabelRenderer allocates the GPU resources for one label. Panics if the
// context pipelines have not been initialized.
//
// Parameters:
//   - ctx: the shared render context
//   - label: the label whose state this renderer mirrors
//   - rasterizer: the text rasterizer, or nil to disable text rendering
//
// Returns:
//   - *LabelRenderer: the renderer
//   - error: an error if a buffer or texture could not be created
func NewLabelRenderer(ctx *Context, label scene.Label, rasterizer TextRasterizer) (*LabelRenderer, error) {
	if !ctx.initialized {
		panic("render: label renderer created before InitPipelines")
	}

	r := &LabelRenderer{
		ctx:        ctx,
		label:      label,
		rasterizer: rasterizer,
	}

	var err error
	if r.uniformBuf, err = ctx.createUniformBuffer("Label Uniform Buffer", common.SizeOf[labelUniform]()); err != nil {
		return nil, err
	}
	// Transparent placeholder until text is rasterized.
	if err = r.ensureTexture(1, 1); err != nil {
		return nil, err
	}
	ctx.uploadTexture(r.texture, make([]byte, 4), 1, 1, 4)
	if err = r.rebuildBindGroup(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *LabelRenderer) ensureTexture(w, h int) error {
	if w == r.texW && h == r.texH {
		return nil
	}
	if r.view != nil {
		r.view.Release()
		r.view = nil
	}
	if r.texture != nil {
		r.texture.Release()
		r.texture = nil
	}

	var err error
	if r.texture, err = r.ctx.createTexture2D("Label Text Texture", uint32(w), uint32(h), wgpu.TextureFormatRGBA8Unorm); err != nil {
		return err
	}
	if r.view, err = r.texture.CreateView(nil); err != nil {
		return err
	}
	r.texW, r.texH = w, h
	return nil
}

func (r *LabelRenderer) rebuildBindGroup() error {
	if r.bindGroup != nil {
		r.bindGroup.Release()
		r.bindGroup = nil
	}
	var err error
	r.bindGroup, err = r.ctx.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "Label Bind Group",
		Layout: r.ctx.labelLayout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: r.uniformBuf, Size: wgpu.WholeSize},
			{Binding: 1, TextureView: r.view},
			{Binding: 2, Sampler: r.ctx.linearSampler},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create label bind group: %w", err)
	}
	return nil
}

// Prepare rasterizes the label text when it changed. Safe to run concurrently
// with other renderers' Prepare calls.
func (r *LabelRenderer) Prepare() {
	if !r.label.Dirty().Text || r.rasterizer == nil {
		return
	}
	pixels, w, h := r.rasterizer.Rasterize(r.label.Text())
	if w <= 0 || h <= 0 {
		return
	}
	r.stagedPixels = pixels
	r.stagedW, r.stagedH = w, h
}

// Draw uploads freshly rasterized text and records the draw call on the
// current render pass.
func (r *LabelRenderer) Draw(winCtx window.Ctx, cam camera.CameraData) {
	if r.ctx.labelPipeline == nil {
		return
	}

	if r.stagedPixels != nil {
		if r.stagedW != r.texW || r.stagedH != r.texH {
			if err := r.ensureTexture(r.stagedW, r.stagedH); err != nil {
				r.stagedPixels = nil
				return
			}
			if err := r.rebuildBindGroup(); err != nil {
				r.stagedPixels = nil
				return
			}
		}
		r.ctx.uploadTexture(r.texture, r.stagedPixels, uint32(r.texW), uint32(r.texH), 4)
		r.stagedPixels = nil
	}

	var pv common.Mat4
	common.Mul4(pv[:], cam.Proj[:], cam.View[:])
	common.Mul4(pv[:], pv[:], cam.Target[:])

	pos := r.label.Position()
	anchor := [4]float32{pos[0], pos[1], pos[2], 0}
	if r.label.Is3D() {
		anchor[3] = 1
	}

	// Extent in NDC units from the bitmap's native pixel size, scaled by the
	// label scale.
	scale := r.label.Scale()
	extent := [2]float32{
		2 * float32(r.texW) / float32(winCtx.ViewportWidth) * scale,
		2 * float32(r.texH) / float32(winCtx.ViewportHeight) * scale,
	}
	alignRight := float32(0)
	if r.label.AlignRight() {
		alignRight = 1
	}

	u := labelUniform{
		ProjView:   pv,
		Anchor:     anchor,
		Extent:     extent,
		AlignRight: alignRight,
	}
	r.ctx.queue.WriteBuffer(r.uniformBuf, 0, common.StructToBytes(&u))

	pass := r.ctx.framePass
	pass.SetPipeline(r.ctx.labelPipeline)
	pass.SetBindGroup(0, r.bindGroup, nil)
	pass.Draw(6, 1, 0, 0)
}

// Release frees all GPU resources held by the renderer.
func (r *LabelRenderer) Release() {
	if r.uniformBuf != nil {
		r.uniformBuf.Release()
		r.uniformBuf = nil
	}
	if r.bindGroup != nil {
		r.bindGroup.Release()
		r.bindGroup = nil
	}
	if r.view != nil {
		r.view.Release()
		r.view = nil
	}
	if r.texture != nil {
		r.texture.Release()
		r.texture = nil
	}
}
