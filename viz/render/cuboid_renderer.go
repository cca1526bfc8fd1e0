package render

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/lidar-tools/pointviz/common"
	"github.com/lidar-tools/pointviz/viz/camera"
	"github.com/lidar-tools/pointviz/viz/scene"
	"github.com/lidar-tools/pointviz/viz/window"
)

// cuboidUniform mirrors the CuboidUniform struct in the cuboid shader.
type cuboidUniform struct {
	ProjView common.Mat4
	Rgba     [4]float32
}

// CuboidRenderer draws one Cuboid as the wireframe edges of a unit cube under
// the cuboid's pose. The cube geometry is generated in the shader, so the only
// GPU state is a uniform buffer.
type CuboidRenderer struct {
	ctx    *Context
	cuboid scene.Cuboid

	uniformBuf *wgpu.Buffer
	bindGroup  *wgpu.BindGroup
}

// NewCuboidRenderer allocates the GPU resources for one cuboid. Panics if the
// context pipelines have not been initialized.
func NewCuboidRenderer(ctx *Context, cuboid scene.Cuboid) (*CuboidRenderer, error) {
	if !ctx.initialized {
		panic("render: cuboid renderer created before InitPipelines")
	}

	r := &CuboidRenderer{
		ctx:    ctx,
		cuboid: cuboid,
	}

	var err error
	if r.uniformBuf, err = ctx.createUniformBuffer("Cuboid Uniform Buffer", common.SizeOf[cuboidUniform]()); err != nil {
		return nil, err
	}
	r.bindGroup, err = ctx.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "Cuboid Bind Group",
		Layout: ctx.cuboidLayout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: r.uniformBuf, Size: wgpu.WholeSize},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create cuboid bind group: %w", err)
	}
	return r, nil
}

// Prepare is a no-op; cuboid state needs no CPU-side conversion.
func (r *CuboidRenderer) Prepare() {}

// Draw records the cuboid draw call on the current render pass.
func (r *CuboidRenderer) Draw(_ window.Ctx, cam camera.CameraData) {
	if r.ctx.cuboidPipeline == nil {
		return
	}

	var pv, tmp common.Mat4
	common.Mul4(tmp[:], cam.Proj[:], cam.View[:])
	common.Mul4(tmp[:], tmp[:], cam.Target[:])
	transform := r.cuboid.Transform()
	common.Mul4(pv[:], tmp[:], transform[:])

	u := cuboidUniform{
		ProjView: pv,
		Rgba:     r.cuboid.Rgba(),
	}
	r.ctx.queue.WriteBuffer(r.uniformBuf, 0, common.StructToBytes(&u))

	pass := r.ctx.framePass
	pass.SetPipeline(r.ctx.cuboidPipeline)
	pass.SetBindGroup(0, r.bindGroup, nil)
	pass.Draw(24, 1, 0, 0)
}

// Release frees all GPU resources held by the renderer.
func (r *CuboidRenderer) Release() {
	if r.uniformBuf != nil {
		r.uniformBuf.Release()
		r.uniformBuf = nil
	}
	if r.bindGroup != nil {
		r.bindGroup.Release()
		r.bindGroup = nil
	}
}
