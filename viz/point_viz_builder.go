package viz

import (
	"github.com/lidar-tools/pointviz/viz/render"
	"github.com/lidar-tools/pointviz/viz/window"
)

// PointVizBuilderOption configures a PointViz during construction.
type PointVizBuilderOption func(cfg *pointVizConfig)

type pointVizConfig struct {
	windowOptions []window.WindowBuilderOption
	stageWorkers  int
	rasterizer    render.TextRasterizer
}

// WithTitle sets the window title.
//
// Parameters:
//   - title: the window title string
//
// Returns:
//   - PointVizBuilderOption: the option to apply
func WithTitle(title string) PointVizBuilderOption {
	return func(cfg *pointVizConfig) {
		cfg.windowOptions = append(cfg.windowOptions, window.WithTitle(title))
	}
}

// WithSize sets the initial window size in pixels.
//
// Parameters:
//   - width: window width in pixels
//   - height: window height in pixels
//
// Returns:
//   - PointVizBuilderOption: the option to apply
func WithSize(width, height int) PointVizBuilderOption {
	return func(cfg *pointVizConfig) {
		cfg.windowOptions = append(cfg.windowOptions, window.WithSize(width, height))
	}
}

// WithFixedAspect locks the window aspect ratio to its initial value.
//
// Returns:
//   - PointVizBuilderOption: the option to apply
func WithFixedAspect() PointVizBuilderOption {
	return func(cfg *pointVizConfig) {
		cfg.windowOptions = append(cfg.windowOptions, window.WithFixedAspect())
	}
}

// WithStageWorkers sets the worker count for the parallel CPU staging phase
// that runs before each frame's draws.
//
// Parameters:
//   - workers: number of staging workers, must be positive to take effect
//
// Returns:
//   - PointVizBuilderOption: the option to apply
func WithStageWorkers(workers int) PointVizBuilderOption {
	return func(cfg *pointVizConfig) {
		cfg.stageWorkers = workers
	}
}

// WithTextRasterizer injects the rasterizer used to render label text. Without
// one, labels draw nothing.
//
// Parameters:
//   - rasterizer: the text rasterizer implementation
//
// Returns:
//   - PointVizBuilderOption: the option to apply
func WithTextRasterizer(rasterizer render.TextRasterizer) PointVizBuilderOption {
	return func(cfg *pointVizConfig) {
		cfg.rasterizer = rasterizer
	}
}
