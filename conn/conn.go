// File: conn/conn.go
// Package conn implements the framed-connection adapter.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package conn

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/momentics/muxio/api"
	"github.com/momentics/muxio/pool"
)

// Conn drives the fill/decode/flush cycle of a single connection and
// implements the api.Controller write contract consumed by the session
// layer.
type Conn struct {
	endpoint api.Endpoint
	decoder  api.Decoder
	bufs     *pool.ReadBufferPool

	// Session attached once after construction; read by the idle-timer
	// thread, hence atomic.
	session atomic.Value // api.Session

	// Read region held across reentrant decode calls. Touched only by the
	// driving thread.
	readRegion *api.Region

	// Single-slot pending write. writePending is the fast-path flag; the
	// triple itself is guarded by writeMu so it can never be observed torn.
	writeMu      sync.Mutex
	writeBuf     []byte
	writeHandler api.WriteHandler
	writeCtx     any
	writePending int32

	closed int32

	stats Stats
}

// Stats are per-connection I/O counters, updated atomically.
type Stats struct {
	BytesIn       int64
	BytesOut      int64
	FramesFlushed int64 // write completions
	WritesResumed int64 // flush calls that continued a partial write
	DecodeErrors  int64
}

// New constructs an adapter over endpoint and decoder. The session is
// attached separately via SetSession once it exists. A nil bufs uses a
// pool of default-sized read buffers.
func New(endpoint api.Endpoint, decoder api.Decoder, bufs *pool.ReadBufferPool) *Conn {
	if bufs == nil {
		bufs = pool.NewReadBufferPool(0)
	}
	c := &Conn{
		endpoint: endpoint,
		decoder:  decoder,
		bufs:     bufs,
	}
	endpoint.SetCheckForIdle(true)
	return c
}

// SetSession attaches the session. Called once, after construction.
func (c *Conn) SetSession(s api.Session) {
	c.session.Store(s)
}

// Session returns the attached session, or nil before attachment.
func (c *Conn) Session() api.Session {
	s, _ := c.session.Load().(api.Session)
	return s
}

// Endpoint returns the underlying transport endpoint.
func (c *Conn) Endpoint() api.Endpoint { return c.endpoint }

// Handle advances the connection until no further progress can be made
// without blocking, then returns to the dispatcher. Idle tracking is
// disabled for the duration of the loop: the loop itself proves liveness.
func (c *Conn) Handle() {
	c.endpoint.SetCheckForIdle(false)
	defer c.endpoint.SetCheckForIdle(true)

	progress := true
	for c.endpoint.IsOpen() && progress {
		filled := c.Fill()
		progress = filled > 0

		flushed := c.Flush()
		progress = progress || flushed > 0

		_ = c.endpoint.Drain()
		progress = progress || c.endpoint.HasProgressed()

		if !progress && filled < 0 {
			c.Close(false)
		}
	}
}

// Fill pulls bytes from the endpoint and feeds them to the decoder. To
// support reentrant decoding the region is saved on the adapter: a nested
// Fill call finishes consuming it instead of reading the transport again.
// Returns the transport-level byte count: 0 for no data, negative for
// EOF or read error.
func (c *Conn) Fill() int {
	filled := 0
	if c.readRegion == nil {
		bb := c.bufs.Get()
		n, err := c.endpoint.Fill(bb.B)
		if err != nil {
			c.bufs.Put(bb)
			return -1
		}
		if n <= 0 {
			c.bufs.Put(bb)
			return n
		}
		defer c.bufs.Put(bb)
		atomic.AddInt64(&c.stats.BytesIn, int64(n))
		c.readRegion = api.NewRegion(bb.B[:n])
		filled = n
	}
	if err := c.decoder.Decode(c.readRegion); err != nil {
		atomic.AddInt64(&c.stats.DecodeErrors, 1)
		c.readRegion = nil
		c.Close(false)
		return filled
	}
	c.readRegion = nil
	return filled
}

// Write attempts a non-blocking write of p. Callers must not issue a new
// write while one is pending; the session layer serializes its writes.
// On a transport write error the connection is fully closed, the error is
// returned wrapped, and the completion handler is never invoked for that
// write. Returns the number of bytes written by this call.
func (c *Conn) Write(p []byte, handler api.WriteHandler, ctx any) (int, error) {
	if atomic.LoadInt32(&c.closed) == 1 {
		return 0, api.ErrConnClosed
	}

	c.writeMu.Lock()
	n, err := c.endpoint.Flush(p)
	if err != nil {
		c.writeBuf, c.writeHandler, c.writeCtx = nil, nil, nil
		atomic.StoreInt32(&c.writePending, 0)
		c.writeMu.Unlock()
		c.Close(false)
		return 0, fmt.Errorf("conn: endpoint write: %w", err)
	}
	if n > 0 {
		atomic.AddInt64(&c.stats.BytesOut, int64(n))
	}

	if n < len(p) {
		// Save the tail so a later Flush can finish the write.
		c.writeBuf, c.writeHandler, c.writeCtx = p[n:], handler, ctx
		atomic.StoreInt32(&c.writePending, 1)
		c.writeMu.Unlock()
		c.endpoint.ScheduleWrite()
		return n, nil
	}

	if atomic.LoadInt32(&c.writePending) == 1 {
		c.writeBuf, c.writeHandler, c.writeCtx = nil, nil, nil
		atomic.StoreInt32(&c.writePending, 0)
	}
	c.writeMu.Unlock()

	atomic.AddInt64(&c.stats.FramesFlushed, 1)
	handler.Complete(ctx)
	return n, nil
}

// Flush resumes a previously partial write, if any, against the remaining
// unwritten tail. Calling Flush with no pending write is a no-op returning
// 0. The pending slot is claimed before the attempt so concurrent Flush
// calls cannot replay the same bytes; Write re-arms the slot if the tail
// is still not fully accepted.
func (c *Conn) Flush() int {
	if atomic.LoadInt32(&c.writePending) == 0 {
		return 0
	}

	c.writeMu.Lock()
	buf, handler, ctx := c.writeBuf, c.writeHandler, c.writeCtx
	c.writeBuf, c.writeHandler, c.writeCtx = nil, nil, nil
	atomic.StoreInt32(&c.writePending, 0)
	c.writeMu.Unlock()

	if buf == nil {
		return 0
	}
	atomic.AddInt64(&c.stats.WritesResumed, 1)
	n, err := c.Write(buf, handler, ctx)
	if err != nil {
		return 0
	}
	return n
}

// Close shuts the connection down, best effort: I/O failures during close
// are swallowed. With onlyOutput the write side alone is shut down,
// escalating to a full close if the graceful shutdown fails.
func (c *Conn) Close(onlyOutput bool) {
	if onlyOutput {
		if err := c.endpoint.ShutdownOutput(); err != nil {
			atomic.StoreInt32(&c.closed, 1)
			_ = c.endpoint.Close()
		}
		return
	}
	atomic.StoreInt32(&c.closed, 1)
	_ = c.endpoint.Close()
}

// OnIdleExpired notifies the session that the connection has been idle for
// idleFor, so it can start a graceful going-away handshake. The transport
// is not closed here; closing happens when the handshake completes or the
// driving loop observes no further progress.
func (c *Conn) OnIdleExpired(idleFor time.Duration) {
	if s := c.Session(); s != nil {
		s.GoAway()
	}
}

// IsIdle always reports false: idleness authority is delegated to the
// dispatcher's timer, not decided by the adapter.
func (c *Conn) IsIdle() bool { return false }

// IsSuspended always reports false; backpressure suspension is an
// integration decision left to the session layer.
func (c *Conn) IsSuspended() bool { return false }

// OnClose marks the adapter closed so any late Write or Flush fails fast,
// and drops the pending write without completing it.
func (c *Conn) OnClose() {
	atomic.StoreInt32(&c.closed, 1)
	c.writeMu.Lock()
	c.writeBuf, c.writeHandler, c.writeCtx = nil, nil, nil
	atomic.StoreInt32(&c.writePending, 0)
	c.writeMu.Unlock()
}

// OnInputShutdown is invoked when the peer half-closes its sending side.
// No adapter-level transition is required; the next no-progress iteration
// after a negative fill closes the connection.
func (c *Conn) OnInputShutdown() error { return nil }

// WritePending reports whether a partial write is awaiting continuation.
func (c *Conn) WritePending() bool {
	return atomic.LoadInt32(&c.writePending) == 1
}

// Stats returns a snapshot of the connection's I/O counters.
func (c *Conn) Stats() Stats {
	return Stats{
		BytesIn:       atomic.LoadInt64(&c.stats.BytesIn),
		BytesOut:      atomic.LoadInt64(&c.stats.BytesOut),
		FramesFlushed: atomic.LoadInt64(&c.stats.FramesFlushed),
		WritesResumed: atomic.LoadInt64(&c.stats.WritesResumed),
		DecodeErrors:  atomic.LoadInt64(&c.stats.DecodeErrors),
	}
}
