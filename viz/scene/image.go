package scene

import (
	"fmt"
)

// ImageDirty reports which of an image's attribute groups changed since the
// last Clear.
type ImageDirty struct {
	Position bool
	Image    bool
	Mask     bool
}

// imageImpl implements the Image interface.
type imageImpl struct {
	dirty ImageDirty

	// Screen-space rectangle stored as {x0, x1, y1, y0}: y is in [-1, 1] and x
	// uses the same scale, divided by the viewport aspect at draw time so the
	// image keeps its shape while scaling with the window.
	position [4]float32

	imageWidth  int
	imageHeight int
	imageData   []float32

	maskWidth  int
	maskHeight int
	maskData   []float32
}

// Image manages the state of a 2D monochrome image drawn in screen space, with
// an independently sized RGBA mask overlay. Buffer dimensions are bound lazily
// by the first SetImage/SetMask call and may change on later calls.
type Image interface {
	// SetImage sets the image data.
	//
	// Parameters:
	//   - width: width of the image data in pixels
	//   - height: height of the image data in pixels
	//   - data: exactly width * height values, a row-major monochrome image
	SetImage(width, height int, data []float32)

	// SetMask sets the RGBA mask. Not required to match the image resolution.
	//
	// Parameters:
	//   - width: width of the mask data in pixels
	//   - height: height of the mask data in pixels
	//   - data: exactly 4 * width * height values, a row-major RGBA image
	SetMask(width, height int, data []float32)

	// SetPosition sets the display rectangle of the image in screen
	// coordinates: y spans [-1, 1] and x uses the same scale regardless of
	// window width.
	//
	// Parameters:
	//   - xMin, xMax: horizontal extent
	//   - yMin, yMax: vertical extent
	SetPosition(xMin, xMax, yMin, yMax float32)

	// Clear resets every dirty flag. Called by the visualizer exactly once
	// after a frame consumed the image's data; producers must not call it.
	Clear()

	// Dirty returns the current dirty flags. For adapter use.
	Dirty() ImageDirty

	// Position returns the stored rectangle as {x0, x1, y1, y0}. For adapter use.
	Position() [4]float32

	// ImageData returns the owned image buffer and its dimensions. The slice
	// must only be read during the synchronous upload. For adapter use.
	ImageData() (data []float32, width, height int)

	// MaskData returns the owned mask buffer and its dimensions. The slice
	// must only be read during the synchronous upload. For adapter use.
	MaskData() (data []float32, width, height int)
}

var _ Image = &imageImpl{}

// NewImage creates an empty image. Nothing is drawn until SetImage supplies
// pixel data and SetPosition places it.
//
// Returns:
//   - Image: the newly created image
func NewImage() Image {
	return &imageImpl{}
}

func (im *imageImpl) SetImage(width, height int, data []float32) {
	if len(data) != width*height {
		panic(fmt.Sprintf("scene: image data length %d, want %d", len(data), width*height))
	}
	im.imageData = resizeCopy(im.imageData, data)
	im.imageWidth = width
	im.imageHeight = height
	im.dirty.Image = true
}

func (im *imageImpl) SetMask(width, height int, data []float32) {
	if len(data) != 4*width*height {
		panic(fmt.Sprintf("scene: mask data length %d, want %d", len(data), 4*width*height))
	}
	im.maskData = resizeCopy(im.maskData, data)
	im.maskWidth = width
	im.maskHeight = height
	im.dirty.Mask = true
}

func (im *imageImpl) SetPosition(xMin, xMax, yMin, yMax float32) {
	im.position = [4]float32{xMin, xMax, yMax, yMin}
	im.dirty.Position = true
}

func (im *imageImpl) Clear() {
	im.dirty = ImageDirty{}
}

func (im *imageImpl) Dirty() ImageDirty { return im.dirty }

func (im *imageImpl) Position() [4]float32 { return im.position }

func (im *imageImpl) ImageData() ([]float32, int, int) {
	return im.imageData, im.imageWidth, im.imageHeight
}

func (im *imageImpl) MaskData() ([]float32, int, int) {
	return im.maskData, im.maskWidth, im.maskHeight
}

// resizeCopy copies src into dst, reallocating only when the length changes.
func resizeCopy(dst, src []float32) []float32 {
	if len(dst) != len(src) {
		dst = make([]float32, len(src))
	}
	copy(dst, src)
	return dst
}
