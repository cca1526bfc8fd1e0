package scene

import (
	"sync"
)

// Locked wraps a scene object with a mutex for call-sites where more than one
// producer goroutine mutates the same object. The containers themselves carry
// no locks; single-producer use needs none, and multi-producer use opts into
// this wrapper explicitly.
//
// The draw loop reads objects without taking the wrapper's lock, so producers
// should still pace mutation through the visualizer's Update signal.
type Locked[T any] struct {
	mu  sync.Mutex
	obj T
}

// NewLocked wraps obj in a Locked.
//
// Parameters:
//   - obj: the scene object to guard
//
// Returns:
//   - *Locked[T]: the wrapper
func NewLocked[T any](obj T) *Locked[T] {
	return &Locked[T]{obj: obj}
}

// Do runs fn with the wrapper's lock held, passing the guarded object.
// Mutations of the object from other goroutines must also go through Do.
//
// Parameters:
//   - fn: function receiving the guarded object
func (l *Locked[T]) Do(fn func(obj T)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fn(l.obj)
}

// Get returns the guarded object without locking, for handing to the
// visualizer's Add/Remove which compare by reference identity.
//
// Returns:
//   - T: the guarded object
func (l *Locked[T]) Get() T {
	return l.obj
}
