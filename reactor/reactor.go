// File: reactor/reactor.go
// Author: momentics <momentics@gmail.com>
//
// Platform-neutral readiness reactor interface.

package reactor

// EventType is a bit mask of readiness conditions.
type EventType uint32

const (
	EventRead EventType = 1 << iota
	EventWrite
	EventError
)

// Callback is invoked from the poll loop for each ready descriptor.
type Callback func(fd uintptr, events EventType)

// Reactor multiplexes readiness events over registered descriptors.
type Reactor interface {
	// Register adds fd with an initial interest set and its callback.
	Register(fd uintptr, events EventType, cb Callback) error

	// Modify replaces the interest set of an already registered fd.
	Modify(fd uintptr, events EventType) error

	// Unregister removes fd from the watch list.
	Unregister(fd uintptr) error

	// Poll waits up to timeoutMs (negative blocks) and dispatches ready
	// events to their callbacks.
	Poll(timeoutMs int) error

	// Close releases the reactor's resources.
	Close() error
}
