package viz

import "github.com/chewxy/math32"

// defaultRingCount is the number of concentric rings drawn when rings are
// enabled.
const defaultRingCount = 16

// TargetDisplay controls the visualization of the camera target: concentric
// distance rings on the xy plane centered on the target.
//
// Mutations follow the same contract as scene objects: callers synchronize
// with the draw loop externally.
type TargetDisplay struct {
	ringsEnabled bool
	ringSize     int
}

// NewTargetDisplay creates a target display with rings disabled and 10 meter
// ring spacing.
func NewTargetDisplay() *TargetDisplay {
	return &TargetDisplay{ringSize: 1}
}

// EnableRings turns the distance rings on or off.
func (t *TargetDisplay) EnableRings(enabled bool) {
	t.ringsEnabled = enabled
}

// SetRingSize sets the ring spacing exponent: consecutive rings are 10^n
// meters apart.
func (t *TargetDisplay) SetRingSize(n int) {
	t.ringSize = n
}

// RingsEnabled reports whether the distance rings are drawn.
func (t *TargetDisplay) RingsEnabled() bool {
	return t.ringsEnabled
}

// RingSize returns the ring spacing exponent.
func (t *TargetDisplay) RingSize() int {
	return t.ringSize
}

// RingSpacing returns the distance between consecutive rings in meters.
func (t *TargetDisplay) RingSpacing() float32 {
	return math32.Pow(10, float32(t.ringSize))
}
