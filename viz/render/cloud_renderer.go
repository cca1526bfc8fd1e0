package render

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/lidar-tools/pointviz/common"
	"github.com/lidar-tools/pointviz/viz/camera"
	"github.com/lidar-tools/pointviz/viz/scene"
	"github.com/lidar-tools/pointviz/viz/window"
)

// cloudUniform mirrors the CloudUniform struct in the cloud shader. Field
// order and padding must match WGSL uniform layout rules.
type cloudUniform struct {
	Model     common.Mat4
	ProjView  common.Mat4
	Viewport  [2]float32
	PointSize float32
	Width     uint32
}

// CloudRenderer mirrors one Cloud's CPU state into GPU buffers and textures
// and draws it. Dirty attributes are uploaded before the draw; everything else
// is left untouched on the GPU.
//
// The slices read from the Cloud are uploaded synchronously and never retained.
type CloudRenderer struct {
	ctx   *Context
	cloud scene.Cloud
	n, w  int

	uniformBuf *wgpu.Buffer
	xyzBuf     *wgpu.Buffer
	offsetBuf  *wgpu.Buffer
	rangeBuf   *wgpu.Buffer
	keyBuf     *wgpu.Buffer
	maskBuf    *wgpu.Buffer

	transformTexture *wgpu.Texture
	transformView    *wgpu.TextureView
	paletteTexture   *wgpu.Texture
	paletteView      *wgpu.TextureView
	paletteSize      int

	bindGroup *wgpu.BindGroup

	// CPU-side staging filled by Prepare and consumed by the next Draw.
	stagedTransform []byte
	stagedPalette   []byte
	stagedPaletteN  int
}

// NewCloudRenderer allocates the GPU resources for one cloud. Panics if the
// context pipelines have not been initialized.
//
// Parameters:
//   - ctx: the shared render context
//   - cloud: the cloud whose state this renderer mirrors
//
// Returns:
//   - *CloudRenderer: the renderer
//   - error: an error if a buffer or texture could not be created
func NewCloudRenderer(ctx *Context, cloud scene.Cloud) (*CloudRenderer, error) {
	if !ctx.initialized {
		panic("render: cloud renderer created before InitPipelines")
	}

	r := &CloudRenderer{
		ctx:   ctx,
		cloud: cloud,
		n:     cloud.Size(),
		w:     cloud.Width(),
	}

	var err error
	if r.uniformBuf, err = ctx.createUniformBuffer("Cloud Uniform Buffer", common.SizeOf[cloudUniform]()); err != nil {
		return nil, err
	}
	if r.xyzBuf, err = ctx.createStorageBuffer("Cloud Xyz Buffer", uint64(4*3*r.n)); err != nil {
		return nil, err
	}
	if r.offsetBuf, err = ctx.createStorageBuffer("Cloud Offset Buffer", uint64(4*3*r.n)); err != nil {
		return nil, err
	}
	if r.rangeBuf, err = ctx.createStorageBuffer("Cloud Range Buffer", uint64(4*r.n)); err != nil {
		return nil, err
	}
	if r.keyBuf, err = ctx.createStorageBuffer("Cloud Key Buffer", uint64(4*r.n)); err != nil {
		return nil, err
	}
	if r.maskBuf, err = ctx.createStorageBuffer("Cloud Mask Buffer", uint64(4*4*r.n)); err != nil {
		return nil, err
	}

	if r.transformTexture, err = ctx.createTexture2D("Cloud Transform Texture", uint32(r.w), 4, wgpu.TextureFormatRGBA32Float); err != nil {
		return nil, err
	}
	if r.transformView, err = r.transformTexture.CreateView(nil); err != nil {
		return nil, err
	}

	if err = r.ensurePalette(cloud.PaletteSize()); err != nil {
		return nil, err
	}

	return r, nil
}

// ensurePalette (re)creates the palette texture and bind group when the
// palette length changes. The bind group references the palette view, so it
// is rebuilt alongside.
func (r *CloudRenderer) ensurePalette(size int) error {
	if size == r.paletteSize && r.bindGroup != nil {
		return nil
	}

	if r.paletteView != nil {
		r.paletteView.Release()
		r.paletteView = nil
	}
	if r.paletteTexture != nil {
		r.paletteTexture.Release()
		r.paletteTexture = nil
	}
	if r.bindGroup != nil {
		r.bindGroup.Release()
		r.bindGroup = nil
	}

	var err error
	if r.paletteTexture, err = r.ctx.createTexture2D("Cloud Palette Texture", uint32(size), 1, wgpu.TextureFormatRGBA8Unorm); err != nil {
		return err
	}
	if r.paletteView, err = r.paletteTexture.CreateView(nil); err != nil {
		return err
	}
	r.paletteSize = size

	r.bindGroup, err = r.ctx.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "Cloud Bind Group",
		Layout: r.ctx.cloudLayout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: r.uniformBuf, Size: wgpu.WholeSize},
			{Binding: 1, Buffer: r.xyzBuf, Size: wgpu.WholeSize},
			{Binding: 2, Buffer: r.offsetBuf, Size: wgpu.WholeSize},
			{Binding: 3, Buffer: r.rangeBuf, Size: wgpu.WholeSize},
			{Binding: 4, Buffer: r.keyBuf, Size: wgpu.WholeSize},
			{Binding: 5, Buffer: r.maskBuf, Size: wgpu.WholeSize},
			{Binding: 6, TextureView: r.transformView},
			{Binding: 7, TextureView: r.paletteView},
			{Binding: 8, Sampler: r.ctx.linearSampler},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create cloud bind group: %w", err)
	}
	return nil
}

// Prepare performs the CPU-side staging for dirty texture attributes: the RGB
// per-column pose data is expanded to RGBA texels and the palette is quantized
// to RGBA8. Safe to run concurrently with other renderers' Prepare calls.
func (r *CloudRenderer) Prepare() {
	dirty := r.cloud.Dirty()

	if dirty.Transform {
		r.stagedTransform = expandRGBToRGBA(r.cloud.TransformData())
	}
	if dirty.Palette {
		palette := r.cloud.PaletteData()
		r.stagedPaletteN = len(palette) / 3
		r.stagedPalette = quantizeRGBToRGBA8(palette)
	}
}

// Draw uploads dirty attributes and records the draw call on the current
// render pass. Must be called between BeginFrame and EndFrame.
func (r *CloudRenderer) Draw(winCtx window.Ctx, cam camera.CameraData) {
	if r.ctx.cloudPipeline == nil {
		return
	}

	dirty := r.cloud.Dirty()
	queue := r.ctx.queue

	if dirty.Xyz {
		queue.WriteBuffer(r.xyzBuf, 0, common.SliceToBytes(r.cloud.XyzData()))
	}
	if dirty.Offset {
		queue.WriteBuffer(r.offsetBuf, 0, common.SliceToBytes(r.cloud.OffsetData()))
	}
	if dirty.Range {
		queue.WriteBuffer(r.rangeBuf, 0, common.SliceToBytes(r.cloud.RangeData()))
	}
	if dirty.Key {
		queue.WriteBuffer(r.keyBuf, 0, common.SliceToBytes(r.cloud.KeyData()))
	}
	if dirty.Mask {
		queue.WriteBuffer(r.maskBuf, 0, common.SliceToBytes(r.cloud.MaskData()))
	}
	if r.stagedTransform != nil {
		r.ctx.uploadTexture(r.transformTexture, r.stagedTransform, uint32(r.w), 4, 16)
		r.stagedTransform = nil
	}
	if r.stagedPalette != nil {
		if err := r.ensurePalette(r.stagedPaletteN); err != nil {
			r.stagedPalette = nil
			return
		}
		r.ctx.uploadTexture(r.paletteTexture, r.stagedPalette, uint32(r.paletteSize), 1, 4)
		r.stagedPalette = nil
	}

	// proj * view * target * cloud pose; the extrinsic goes in as the model
	// matrix applied to every point.
	var pv, tmp common.Mat4
	common.Mul4(tmp[:], cam.Proj[:], cam.View[:])
	common.Mul4(tmp[:], tmp[:], cam.Target[:])
	pose := r.cloud.Pose()
	common.Mul4(pv[:], tmp[:], pose[:])

	u := cloudUniform{
		Model:     r.cloud.Extrinsic(),
		ProjView:  pv,
		Viewport:  [2]float32{float32(winCtx.ViewportWidth), float32(winCtx.ViewportHeight)},
		PointSize: r.cloud.PointSize(),
		Width:     uint32(r.w),
	}
	queue.WriteBuffer(r.uniformBuf, 0, common.StructToBytes(&u))

	pass := r.ctx.framePass
	pass.SetPipeline(r.ctx.cloudPipeline)
	pass.SetBindGroup(0, r.bindGroup, nil)
	pass.Draw(uint32(6*r.n), 1, 0, 0)
}

// Release frees all GPU resources held by the renderer.
func (r *CloudRenderer) Release() {
	for _, b := range []*wgpu.Buffer{r.uniformBuf, r.xyzBuf, r.offsetBuf, r.rangeBuf, r.keyBuf, r.maskBuf} {
		if b != nil {
			b.Release()
		}
	}
	r.uniformBuf, r.xyzBuf, r.offsetBuf, r.rangeBuf, r.keyBuf, r.maskBuf = nil, nil, nil, nil, nil, nil

	if r.bindGroup != nil {
		r.bindGroup.Release()
		r.bindGroup = nil
	}
	for _, v := range []*wgpu.TextureView{r.transformView, r.paletteView} {
		if v != nil {
			v.Release()
		}
	}
	r.transformView, r.paletteView = nil, nil
	for _, t := range []*wgpu.Texture{r.transformTexture, r.paletteTexture} {
		if t != nil {
			t.Release()
		}
	}
	r.transformTexture, r.paletteTexture = nil, nil
}

// expandRGBToRGBA pads packed RGB float texels to RGBA with alpha 1.
func expandRGBToRGBA(rgb []float32) []byte {
	texels := len(rgb) / 3
	rgba := make([]float32, 4*texels)
	for i := 0; i < texels; i++ {
		rgba[4*i] = rgb[3*i]
		rgba[4*i+1] = rgb[3*i+1]
		rgba[4*i+2] = rgb[3*i+2]
		rgba[4*i+3] = 1
	}
	return common.SliceToBytes(rgba)
}

// quantizeRGBToRGBA8 converts packed RGB floats in [0, 1] to 8-bit RGBA.
func quantizeRGBToRGBA8(rgb []float32) []byte {
	texels := len(rgb) / 3
	out := make([]byte, 4*texels)
	for i := 0; i < texels; i++ {
		out[4*i] = quantize8(rgb[3*i])
		out[4*i+1] = quantize8(rgb[3*i+1])
		out[4*i+2] = quantize8(rgb[3*i+2])
		out[4*i+3] = 0xFF
	}
	return out
}

func quantize8(v float32) byte {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 0xFF
	default:
		return byte(v*255 + 0.5)
	}
}
