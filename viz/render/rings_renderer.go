package render

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/lidar-tools/pointviz/common"
	"github.com/lidar-tools/pointviz/viz/camera"
	"github.com/lidar-tools/pointviz/viz/window"
)

// ringSegments is the number of line segments approximating each ring.
const ringSegments = 512

// ringsUniform mirrors the RingsUniform struct in the rings shader.
type ringsUniform struct {
	ProjView common.Mat4
	Spacing  float32
	Segments uint32
	_        [2]float32
}

// RingsRenderer draws concentric distance rings on the xy plane, centered on
// the camera target. Ring vertices are generated in the shader; one instance
// is drawn per ring.
type RingsRenderer struct {
	ctx *Context

	uniformBuf *wgpu.Buffer
	bindGroup  *wgpu.BindGroup
}

// NewRingsRenderer allocates the GPU resources for the distance rings. Panics
// if the context pipelines have not been initialized.
func NewRingsRenderer(ctx *Context) (*RingsRenderer, error) {
	if !ctx.initialized {
		panic("render: rings renderer created before InitPipelines")
	}

	r := &RingsRenderer{ctx: ctx}

	var err error
	if r.uniformBuf, err = ctx.createUniformBuffer("Rings Uniform Buffer", common.SizeOf[ringsUniform]()); err != nil {
		return nil, err
	}
	r.bindGroup, err = ctx.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "Rings Bind Group",
		Layout: ctx.ringsLayout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: r.uniformBuf, Size: wgpu.WholeSize},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create rings bind group: %w", err)
	}
	return r, nil
}

// Draw records the ring draw calls on the current render pass. The rings stay
// centered on the camera target, so the target matrix is deliberately left
// out of the transform chain.
//
// Parameters:
//   - cam: the camera matrices for the frame
//   - spacing: distance between consecutive rings in meters
//   - count: number of rings to draw
func (r *RingsRenderer) Draw(_ window.Ctx, cam camera.CameraData, spacing float32, count int) {
	if r.ctx.ringsPipeline == nil || count <= 0 {
		return
	}

	var pv common.Mat4
	common.Mul4(pv[:], cam.Proj[:], cam.View[:])

	u := ringsUniform{
		ProjView: pv,
		Spacing:  spacing,
		Segments: ringSegments,
	}
	r.ctx.queue.WriteBuffer(r.uniformBuf, 0, common.StructToBytes(&u))

	pass := r.ctx.framePass
	pass.SetPipeline(r.ctx.ringsPipeline)
	pass.SetBindGroup(0, r.bindGroup, nil)
	pass.Draw(ringSegments+1, uint32(count), 0, 0)
}

// Release frees all GPU resources held by the renderer.
func (r *RingsRenderer) Release() {
	if r.uniformBuf != nil {
		r.uniformBuf.Release()
		r.uniformBuf = nil
	}
	if r.bindGroup != nil {
		r.bindGroup.Release()
		r.bindGroup = nil
	}
}
