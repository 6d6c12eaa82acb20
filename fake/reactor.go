// File: fake/reactor.go
// Author: momentics <momentics@gmail.com>
//
// In-memory reactor for dispatcher tests: events are fired explicitly.

package fake

import (
	"sync"
	"time"

	"github.com/momentics/muxio/api"
	"github.com/momentics/muxio/reactor"
)

type firedEvent struct {
	fd uintptr
	ev reactor.EventType
}

// Reactor is a fake reactor.Reactor driven by Fire calls from tests.
type Reactor struct {
	mu        sync.Mutex
	callbacks map[uintptr]reactor.Callback
	interests map[uintptr]reactor.EventType

	events chan firedEvent
	closed chan struct{}
	once   sync.Once
}

var _ reactor.Reactor = (*Reactor)(nil)

// NewReactor creates an empty fake reactor.
func NewReactor() *Reactor {
	return &Reactor{
		callbacks: make(map[uintptr]reactor.Callback),
		interests: make(map[uintptr]reactor.EventType),
		events:    make(chan firedEvent, 128),
		closed:    make(chan struct{}),
	}
}

// Fire queues a readiness event for fd; the next Poll dispatches it.
func (r *Reactor) Fire(fd uintptr, ev reactor.EventType) {
	select {
	case r.events <- firedEvent{fd: fd, ev: ev}:
	case <-r.closed:
	}
}

// Interest reports the current interest set registered for fd.
func (r *Reactor) Interest(fd uintptr) reactor.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.interests[fd]
}

// Register implements reactor.Reactor.
func (r *Reactor) Register(fd uintptr, events reactor.EventType, cb reactor.Callback) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.callbacks[fd] = cb
	r.interests[fd] = events
	return nil
}

// Modify implements reactor.Reactor.
func (r *Reactor) Modify(fd uintptr, events reactor.EventType) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.callbacks[fd]; !ok {
		return api.ErrNotSupported
	}
	r.interests[fd] = events
	return nil
}

// Unregister implements reactor.Reactor.
func (r *Reactor) Unregister(fd uintptr) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.callbacks, fd)
	delete(r.interests, fd)
	return nil
}

// Poll implements reactor.Reactor: it dispatches queued events, waiting up
// to timeoutMs for the first one.
func (r *Reactor) Poll(timeoutMs int) error {
	if timeoutMs < 0 {
		timeoutMs = 10
	}
	timer := time.NewTimer(time.Duration(timeoutMs) * time.Millisecond)
	defer timer.Stop()

	select {
	case <-r.closed:
		return api.ErrConnClosed
	case <-timer.C:
		return nil
	case e := <-r.events:
		r.dispatch(e)
	}

	for {
		select {
		case e := <-r.events:
			r.dispatch(e)
		default:
			return nil
		}
	}
}

func (r *Reactor) dispatch(e firedEvent) {
	r.mu.Lock()
	cb := r.callbacks[e.fd]
	r.mu.Unlock()
	if cb != nil {
		cb(e.fd, e.ev)
	}
}

// Close implements reactor.Reactor.
func (r *Reactor) Close() error {
	r.once.Do(func() { close(r.closed) })
	return nil
}
