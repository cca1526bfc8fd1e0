package window

// WindowBuilderOption is a functional option for configuring a window.
// Use the With* functions to create options.
type WindowBuilderOption func(w *vizWindow)

// WithTitle sets the window title displayed in the title bar.
//
// Parameters:
//   - title: the window title text
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithTitle(title string) WindowBuilderOption {
	return func(w *vizWindow) {
		w.title = title
	}
}

// WithSize sets the initial window size.
//
// Parameters:
//   - width: initial width in pixels
//   - height: initial height in pixels
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithSize(width, height int) WindowBuilderOption {
	return func(w *vizWindow) {
		w.width = width
		w.height = height
	}
}

// WithFixedAspect locks the window aspect ratio to the initial size.
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithFixedAspect() WindowBuilderOption {
	return func(w *vizWindow) {
		w.fixAspect = true
	}
}
