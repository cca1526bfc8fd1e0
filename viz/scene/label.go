package scene

// LabelDirty reports which of a label's attribute groups changed since the
// last Clear.
type LabelDirty struct {
	Position bool
	Scale    bool
	Text     bool
}

// labelImpl implements the Label interface.
type labelImpl struct {
	dirty LabelDirty

	is3D       bool
	alignRight bool

	position [3]float32
	scale    float32
	text     string
}

// Label manages the state of a text label, positioned either at a 3D point in
// the scene or at a 2D screen-space anchor.
type Label interface {
	// SetText updates the label text.
	//
	// Parameters:
	//   - text: new text to display
	SetText(text string)

	// SetPosition places the label at a 3D position in the scene.
	//
	// Parameters:
	//   - x, y, z: world-space position of the label
	SetPosition(x, y, z float32)

	// SetPosition2D places the bottom corner of the label in screen space.
	//
	// Parameters:
	//   - x: horizontal position in [0, 1]
	//   - y: vertical position in [0, 1]
	//   - alignRight: interpret the position as the bottom right corner
	SetPosition2D(x, y float32, alignRight bool)

	// SetScale sets the text scaling factor.
	//
	// Parameters:
	//   - scale: text scaling factor
	SetScale(scale float32)

	// Clear resets every dirty flag. Called by the visualizer exactly once
	// after a frame consumed the label's data; producers must not call it.
	Clear()

	// Dirty returns the current dirty flags. For adapter use.
	Dirty() LabelDirty

	// Text returns the label text. For adapter use.
	Text() string

	// Position returns the current position; z is zero for 2D labels. For adapter use.
	Position() [3]float32

	// Is3D reports whether the position is a world-space point. For adapter use.
	Is3D() bool

	// AlignRight reports whether a 2D position anchors the bottom right corner. For adapter use.
	AlignRight() bool

	// Scale returns the text scaling factor. For adapter use.
	Scale() float32
}

var _ Label = &labelImpl{}

// NewLabel creates a label at a 3D position in the scene.
//
// Parameters:
//   - text: the text to display
//   - x, y, z: world-space position of the label
//
// Returns:
//   - Label: the newly created label
func NewLabel(text string, x, y, z float32) Label {
	l := newLabel()
	l.SetText(text)
	l.SetPosition(x, y, z)
	return l
}

// NewLabel2D creates a label anchored in screen space.
//
// Parameters:
//   - text: the text to display
//   - x: horizontal position in [0, 1]
//   - y: vertical position in [0, 1]
//   - alignRight: interpret the position as the bottom right corner
//
// Returns:
//   - Label: the newly created label
func NewLabel2D(text string, x, y float32, alignRight bool) Label {
	l := newLabel()
	l.SetText(text)
	l.SetPosition2D(x, y, alignRight)
	return l
}

func newLabel() *labelImpl {
	// The scale flag starts raised so the adapter picks up the default scale
	// on the first frame even if SetScale is never called.
	return &labelImpl{
		scale: 1.0,
		dirty: LabelDirty{Scale: true},
	}
}

func (l *labelImpl) SetText(text string) {
	l.text = text
	l.dirty.Text = true
}

func (l *labelImpl) SetPosition(x, y, z float32) {
	l.position = [3]float32{x, y, z}
	l.is3D = true
	l.dirty.Position = true
}

func (l *labelImpl) SetPosition2D(x, y float32, alignRight bool) {
	l.position = [3]float32{x, y, 0}
	l.alignRight = alignRight
	l.is3D = false
	l.dirty.Position = true
}

func (l *labelImpl) SetScale(scale float32) {
	l.scale = scale
	l.dirty.Scale = true
}

func (l *labelImpl) Clear() {
	l.dirty = LabelDirty{}
}

func (l *labelImpl) Dirty() LabelDirty    { return l.dirty }
func (l *labelImpl) Text() string         { return l.text }
func (l *labelImpl) Position() [3]float32 { return l.position }
func (l *labelImpl) Is3D() bool           { return l.is3D }
func (l *labelImpl) AlignRight() bool     { return l.alignRight }
func (l *labelImpl) Scale() float32       { return l.scale }
