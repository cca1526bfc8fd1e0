package window

// Key codes delivered to key handlers. These values match GLFW key codes,
// which use ASCII values for printable keys.
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Key
const (
	KeyW = 87 // W key (ASCII)
	KeyA = 65 // A key (ASCII)
	KeyS = 83 // S key (ASCII)
	KeyD = 68 // D key (ASCII)
	KeyR = 82 // R key (ASCII)

	Key0 = 48 // 0 key (ASCII)

	KeyMinus = 45 // - key (ASCII)
	KeyEqual = 61 // = key (ASCII)

	KeyEsc = 256 // Escape key (GLFW)
)

// Modifier bitmask values delivered alongside key and mouse button events.
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#ModifierKey
const (
	ModShift   = 0x0001
	ModControl = 0x0002
	ModAlt     = 0x0004
)

// Mouse button codes delivered to mouse-button handlers.
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#MouseButton
const (
	MouseButtonLeft   = 0
	MouseButtonRight  = 1
	MouseButtonMiddle = 2
)
