// File: dispatch/dispatcher.go
// Package dispatch drives muxio connections from readiness events.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package dispatch

import (
	"sync"

	"github.com/eapache/queue"

	"github.com/momentics/muxio/api"
	"github.com/momentics/muxio/conn"
	"github.com/momentics/muxio/control"
	"github.com/momentics/muxio/reactor"
)

// writeScheduler is implemented by endpoints whose ScheduleWrite is wired
// through the dispatcher's reactor.
type writeScheduler interface {
	SetScheduleWriteFunc(fn func())
}

type connState struct {
	conn   *conn.Conn
	ep     api.Endpoint
	fd     uintptr
	queued bool // guarded by Dispatcher.mu
}

// Dispatcher multiplexes many connections over one reactor.
type Dispatcher struct {
	cfg     *control.Config
	r       reactor.Reactor
	metrics *control.MetricsRegistry

	mu      sync.Mutex
	cond    *sync.Cond
	runq    *queue.Queue // of *connState
	conns   map[uintptr]*connState
	stopped bool
	pollErr error

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New creates a dispatcher over r. A nil cfg uses defaults; metrics may be
// nil to disable snapshot publishing.
func New(cfg *control.Config, r reactor.Reactor, metrics *control.MetricsRegistry) *Dispatcher {
	if cfg == nil {
		cfg = control.DefaultConfig()
	}
	d := &Dispatcher{
		cfg:     cfg,
		r:       r,
		metrics: metrics,
		runq:    queue.New(),
		conns:   make(map[uintptr]*connState),
		done:    make(chan struct{}),
	}
	d.cond = sync.NewCond(&d.mu)
	return d
}

// Register adds a connection whose endpoint is watched under fd. The
// connection is scheduled once immediately so bytes that arrived before
// registration are not stranded.
func (d *Dispatcher) Register(c *conn.Conn, ep api.Endpoint, fd uintptr) error {
	st := &connState{conn: c, ep: ep, fd: fd}

	if ws, ok := ep.(writeScheduler); ok {
		ws.SetScheduleWriteFunc(func() {
			_ = d.r.Modify(fd, reactor.EventRead|reactor.EventWrite)
		})
	}

	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return api.ErrConnClosed
	}
	d.conns[fd] = st
	d.mu.Unlock()

	if err := d.r.Register(fd, reactor.EventRead, func(fd uintptr, ev reactor.EventType) {
		d.onEvent(st, ev)
	}); err != nil {
		d.mu.Lock()
		delete(d.conns, fd)
		d.mu.Unlock()
		return err
	}

	d.schedule(st)
	return nil
}

// Unregister detaches a connection and fires its close hook.
func (d *Dispatcher) Unregister(fd uintptr) {
	d.mu.Lock()
	st, ok := d.conns[fd]
	delete(d.conns, fd)
	d.mu.Unlock()
	if !ok {
		return
	}
	_ = d.r.Unregister(fd)
	st.conn.OnClose()
}

func (d *Dispatcher) onEvent(st *connState, ev reactor.EventType) {
	if ev&reactor.EventWrite != 0 {
		// One-shot write interest: the adapter re-arms via ScheduleWrite
		// if the resumed write is still partial.
		_ = d.r.Modify(st.fd, reactor.EventRead)
	}
	d.schedule(st)
}

func (d *Dispatcher) schedule(st *connState) {
	d.mu.Lock()
	if !st.queued && !d.stopped {
		st.queued = true
		d.runq.Add(st)
		d.cond.Signal()
	}
	d.mu.Unlock()
}

// Run starts the poll, run and idle goroutines. It returns immediately;
// use Shutdown to stop.
func (d *Dispatcher) Run() {
	d.wg.Add(3)
	go d.pollLoop()
	go d.runLoop()
	go d.idleLoop()
}

func (d *Dispatcher) pollLoop() {
	defer d.wg.Done()
	for {
		select {
		case <-d.done:
			return
		default:
		}
		if err := d.r.Poll(d.cfg.PollTimeoutMs); err != nil {
			d.pollFailed(err)
			return
		}
	}
}

// pollFailed stops the dispatcher when the reactor breaks, so registered
// connections do not sit undriven behind loops that appear healthy. The
// error is surfaced by Shutdown.
func (d *Dispatcher) pollFailed(err error) {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	d.pollErr = err
	d.cond.Broadcast()
	d.mu.Unlock()

	d.stopOnce.Do(func() {
		close(d.done)
		_ = d.r.Close()
	})
}

func (d *Dispatcher) runLoop() {
	defer d.wg.Done()
	for {
		d.mu.Lock()
		for d.runq.Length() == 0 && !d.stopped {
			d.cond.Wait()
		}
		if d.runq.Length() == 0 {
			d.mu.Unlock()
			return
		}
		st := d.runq.Remove().(*connState)
		st.queued = false
		d.mu.Unlock()

		st.conn.Handle()

		if !st.ep.IsOpen() {
			d.Unregister(st.fd)
		}
	}
}

func (d *Dispatcher) idleLoop() {
	defer d.wg.Done()
	ticker := newSweepTicker(d.cfg.IdleSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-d.done:
			return
		case <-ticker.C:
			d.sweep()
		}
	}
}

// sweep expires idle connections and publishes a metrics snapshot.
func (d *Dispatcher) sweep() {
	d.mu.Lock()
	states := make([]*connState, 0, len(d.conns))
	for _, st := range d.conns {
		states = append(states, st)
	}
	d.mu.Unlock()

	var total conn.Stats
	for _, st := range states {
		if st.ep.CheckForIdle() && st.ep.IdleFor() >= d.cfg.IdleTimeout {
			st.conn.OnIdleExpired(st.ep.IdleFor())
		}
		s := st.conn.Stats()
		total.BytesIn += s.BytesIn
		total.BytesOut += s.BytesOut
		total.FramesFlushed += s.FramesFlushed
		total.WritesResumed += s.WritesResumed
		total.DecodeErrors += s.DecodeErrors
	}

	if d.metrics != nil && d.cfg.EnableMetrics {
		d.metrics.Set("conns", len(states))
		d.metrics.Set("bytes_in", total.BytesIn)
		d.metrics.Set("bytes_out", total.BytesOut)
		d.metrics.Set("writes_completed", total.FramesFlushed)
		d.metrics.Set("writes_resumed", total.WritesResumed)
		d.metrics.Set("decode_errors", total.DecodeErrors)
	}
}

// ConnCount reports the number of registered connections.
func (d *Dispatcher) ConnCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.conns)
}

// Shutdown stops all loops and closes the reactor. Registered connections
// receive their close hook. If the dispatcher already stopped because the
// reactor failed, that failure is returned.
func (d *Dispatcher) Shutdown() error {
	d.mu.Lock()
	d.stopped = true
	pollErr := d.pollErr
	fds := make([]uintptr, 0, len(d.conns))
	for fd := range d.conns {
		fds = append(fds, fd)
	}
	d.cond.Broadcast()
	d.mu.Unlock()

	var closeErr error
	d.stopOnce.Do(func() {
		close(d.done)
		closeErr = d.r.Close()
	})
	d.wg.Wait()

	for _, fd := range fds {
		d.Unregister(fd)
	}
	if pollErr != nil {
		return pollErr
	}
	return closeErr
}
