package render

import (
	"github.com/lidar-tools/pointviz/viz/camera"
	"github.com/lidar-tools/pointviz/viz/window"
)

// Drawable is the common surface of per-object adapters: a CPU staging step,
// a draw that uploads dirty state and records commands, and a teardown.
// Prepare calls on distinct Drawables may run concurrently; Draw and Release
// must happen on the render thread.
type Drawable interface {
	Prepare()
	Draw(winCtx window.Ctx, cam camera.CameraData)
	Release()
}

var (
	_ Drawable = &CloudRenderer{}
	_ Drawable = &ImageRenderer{}
	_ Drawable = &CuboidRenderer{}
	_ Drawable = &LabelRenderer{}
)
