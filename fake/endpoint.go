// File: fake/endpoint.go
// Author: momentics <momentics@gmail.com>
//
// Scripted endpoint for exercising the connection adapter without sockets.

package fake

import (
	"sync"
	"time"

	"github.com/momentics/muxio/api"
)

// Endpoint is a fake implementation of api.Endpoint. Reads are scripted
// per Fill call; writes accept a configurable byte budget per Flush call.
type Endpoint struct {
	mu sync.Mutex

	fills   [][]byte // consumed one entry per Fill call
	fillErr error    // returned once fill scripts are drained

	flushBudgets []int // per-call accepted byte limits; empty accepts all
	flushErr     error
	flushed      []byte

	open        bool
	outputShut  bool
	shutdownErr error

	scheduled  int
	drains     int
	progressed bool

	checkIdle bool
	idleFor   time.Duration
}

var _ api.Endpoint = (*Endpoint)(nil)

// NewEndpoint creates an open fake endpoint with no scripted data.
func NewEndpoint() *Endpoint {
	return &Endpoint{open: true}
}

// AddFill scripts the data returned by the next unscripted Fill call.
func (e *Endpoint) AddFill(data []byte) {
	e.mu.Lock()
	defer e.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	e.fills = append(e.fills, cp)
}

// SetFillError configures the error returned once fill scripts drain
// (io.EOF simulates the peer closing its sending side).
func (e *Endpoint) SetFillError(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.fillErr = err
}

// PushFlushBudget limits how many bytes the next Flush call accepts.
// Budgets are consumed in order; with none queued, Flush accepts all.
func (e *Endpoint) PushFlushBudget(n int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.flushBudgets = append(e.flushBudgets, n)
}

// SetFlushError configures the error returned by the next Flush call.
func (e *Endpoint) SetFlushError(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.flushErr = err
}

// SetShutdownError forces ShutdownOutput to fail.
func (e *Endpoint) SetShutdownError(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.shutdownErr = err
}

// SetProgressed arms a one-shot HasProgressed report.
func (e *Endpoint) SetProgressed() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.progressed = true
}

// SetIdleFor sets the duration reported by IdleFor.
func (e *Endpoint) SetIdleFor(d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.idleFor = d
}

// Flushed returns all bytes accepted so far.
func (e *Endpoint) Flushed() []byte {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]byte, len(e.flushed))
	copy(out, e.flushed)
	return out
}

// Scheduled reports how many times ScheduleWrite was requested.
func (e *Endpoint) Scheduled() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.scheduled
}

// Drained reports how many times Drain was invoked.
func (e *Endpoint) Drained() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.drains
}

// OutputShutdown reports whether ShutdownOutput succeeded.
func (e *Endpoint) OutputShutdown() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.outputShut
}

// Closed reports whether Close was invoked.
func (e *Endpoint) Closed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return !e.open
}

// Fill implements api.Endpoint.
func (e *Endpoint) Fill(p []byte) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.fills) == 0 {
		if e.fillErr != nil {
			return 0, e.fillErr
		}
		return 0, nil
	}
	data := e.fills[0]
	e.fills = e.fills[1:]
	n := copy(p, data)
	return n, nil
}

// Flush implements api.Endpoint.
func (e *Endpoint) Flush(p []byte) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.flushErr != nil {
		err := e.flushErr
		e.flushErr = nil
		return 0, err
	}
	n := len(p)
	if len(e.flushBudgets) > 0 {
		budget := e.flushBudgets[0]
		e.flushBudgets = e.flushBudgets[1:]
		if n > budget {
			n = budget
		}
	}
	e.flushed = append(e.flushed, p[:n]...)
	return n, nil
}

// Drain implements api.Endpoint.
func (e *Endpoint) Drain() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.drains++
	return nil
}

// HasProgressed implements api.Endpoint; the armed report is one-shot.
func (e *Endpoint) HasProgressed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	p := e.progressed
	e.progressed = false
	return p
}

// ShutdownOutput implements api.Endpoint.
func (e *Endpoint) ShutdownOutput() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.shutdownErr != nil {
		return e.shutdownErr
	}
	e.outputShut = true
	return nil
}

// Close implements api.Endpoint.
func (e *Endpoint) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.open = false
	return nil
}

// IsOpen implements api.Endpoint.
func (e *Endpoint) IsOpen() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.open
}

// ScheduleWrite implements api.Endpoint.
func (e *Endpoint) ScheduleWrite() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.scheduled++
}

// SetCheckForIdle implements api.Endpoint.
func (e *Endpoint) SetCheckForIdle(check bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.checkIdle = check
}

// CheckForIdle implements api.Endpoint.
func (e *Endpoint) CheckForIdle() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.checkIdle
}

// IdleFor implements api.Endpoint.
func (e *Endpoint) IdleFor() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.idleFor
}
