package render

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/lidar-tools/pointviz/common"
	"github.com/lidar-tools/pointviz/viz/camera"
	"github.com/lidar-tools/pointviz/viz/scene"
	"github.com/lidar-tools/pointviz/viz/window"
)

// imageUniform mirrors the ImageUniform struct in the image shader.
type imageUniform struct {
	Rect   [4]float32
	Aspect float32
	_      [3]float32
}

// ImageRenderer mirrors one Image's CPU state into GPU textures and draws it
// as a screen-space quad. The monochrome image and the RGBA mask each live in
// their own texture, recreated when their dimensions change. Before any data
// has been set a 1x1 zero texture is bound so the quad renders black.
type ImageRenderer struct {
	ctx   *Context
	image scene.Image

	uniformBuf *wgpu.Buffer

	imageTexture *wgpu.Texture
	imageView    *wgpu.TextureView
	imageW       int
	imageH       int

	maskTexture *wgpu.Texture
	maskView    *wgpu.TextureView
	maskW       int
	maskH       int

	bindGroup *wgpu.BindGroup
}

// NewImageRenderer allocates the GPU resources for one image. Panics if the
// context pipelines have not been initialized.
func NewImageRenderer(ctx *Context, image scene.Image) (*ImageRenderer, error) {
	if !ctx.initialized {
		panic("render: image renderer created before InitPipelines")
	}

	r := &ImageRenderer{
		ctx:   ctx,
		image: image,
	}

	var err error
	if r.uniformBuf, err = ctx.createUniformBuffer("Image Uniform Buffer", common.SizeOf[imageUniform]()); err != nil {
		return nil, err
	}
	// Placeholder textures until real data arrives.
	if err = r.ensureImageTexture(1, 1); err != nil {
		return nil, err
	}
	if err = r.ensureMaskTexture(1, 1); err != nil {
		return nil, err
	}
	r.ctx.uploadTexture(r.imageTexture, make([]byte, 4), 1, 1, 4)
	r.ctx.uploadTexture(r.maskTexture, make([]byte, 16), 1, 1, 16)
	if err = r.rebuildBindGroup(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *ImageRenderer) ensureImageTexture(w, h int) error {
	if w == r.imageW && h == r.imageH {
		return nil
	}
	if r.imageView != nil {
		r.imageView.Release()
		r.imageView = nil
	}
	if r.imageTexture != nil {
		r.imageTexture.Release()
		r.imageTexture = nil
	}

	var err error
	if r.imageTexture, err = r.ctx.createTexture2D("Image Texture", uint32(w), uint32(h), wgpu.TextureFormatR32Float); err != nil {
		return err
	}
	if r.imageView, err = r.imageTexture.CreateView(nil); err != nil {
		return err
	}
	r.imageW, r.imageH = w, h
	return nil
}

func (r *ImageRenderer) ensureMaskTexture(w, h int) error {
	if w == r.maskW && h == r.maskH {
		return nil
	}
	if r.maskView != nil {
		r.maskView.Release()
		r.maskView = nil
	}
	if r.maskTexture != nil {
		r.maskTexture.Release()
		r.maskTexture = nil
	}

	var err error
	if r.maskTexture, err = r.ctx.createTexture2D("Image Mask Texture", uint32(w), uint32(h), wgpu.TextureFormatRGBA32Float); err != nil {
		return err
	}
	if r.maskView, err = r.maskTexture.CreateView(nil); err != nil {
		return err
	}
	r.maskW, r.maskH = w, h
	return nil
}

func (r *ImageRenderer) rebuildBindGroup() error {
	if r.bindGroup != nil {
		r.bindGroup.Release()
		r.bindGroup = nil
	}
	var err error
	r.bindGroup, err = r.ctx.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "Image Bind Group",
		Layout: r.ctx.imageLayout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: r.uniformBuf, Size: wgpu.WholeSize},
			{Binding: 1, TextureView: r.imageView},
			{Binding: 2, TextureView: r.maskView},
			{Binding: 3, Sampler: r.ctx.nearestSampler},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create image bind group: %w", err)
	}
	return nil
}

// Prepare is a no-op; image data uploads need no CPU-side conversion.
func (r *ImageRenderer) Prepare() {}

// Draw uploads dirty image data and records the draw call on the current
// render pass.
func (r *ImageRenderer) Draw(winCtx window.Ctx, _ camera.CameraData) {
	if r.ctx.imagePipeline == nil {
		return
	}

	dirty := r.image.Dirty()
	rebind := false

	if dirty.Image {
		data, w, h := r.image.ImageData()
		if w > 0 && h > 0 {
			if w != r.imageW || h != r.imageH {
				if err := r.ensureImageTexture(w, h); err != nil {
					return
				}
				rebind = true
			}
			r.ctx.uploadTexture(r.imageTexture, common.SliceToBytes(data), uint32(w), uint32(h), 4)
		}
	}
	if dirty.Mask {
		data, w, h := r.image.MaskData()
		if w > 0 && h > 0 {
			if w != r.maskW || h != r.maskH {
				if err := r.ensureMaskTexture(w, h); err != nil {
					return
				}
				rebind = true
			}
			r.ctx.uploadTexture(r.maskTexture, common.SliceToBytes(data), uint32(w), uint32(h), 16)
		}
	}
	if rebind {
		if err := r.rebuildBindGroup(); err != nil {
			return
		}
	}

	u := imageUniform{
		Rect:   r.image.Position(),
		Aspect: winCtx.Aspect(),
	}
	r.ctx.queue.WriteBuffer(r.uniformBuf, 0, common.StructToBytes(&u))

	pass := r.ctx.framePass
	pass.SetPipeline(r.ctx.imagePipeline)
	pass.SetBindGroup(0, r.bindGroup, nil)
	pass.Draw(6, 1, 0, 0)
}

// Release frees all GPU resources held by the renderer.
func (r *ImageRenderer) Release() {
	if r.uniformBuf != nil {
		r.uniformBuf.Release()
		r.uniformBuf = nil
	}
	if r.bindGroup != nil {
		r.bindGroup.Release()
		r.bindGroup = nil
	}
	for _, v := range []*wgpu.TextureView{r.imageView, r.maskView} {
		if v != nil {
			v.Release()
		}
	}
	r.imageView, r.maskView = nil, nil
	for _, t := range []*wgpu.Texture{r.imageTexture, r.maskTexture} {
		if t != nil {
			t.Release()
		}
	}
	r.imageTexture, r.maskTexture = nil, nil
}
