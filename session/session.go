// File: session/session.go
// Package session implements the frame session over a connection adapter.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package session

import (
	"sync"

	"github.com/eapache/queue"
	"github.com/valyala/bytebufferpool"

	"github.com/momentics/muxio/api"
	"github.com/momentics/muxio/protocol"
)

// entry is one queued outbound frame. The encoded bytes live in a pooled
// buffer released when the write completes or is abandoned.
type entry struct {
	buf   *bytebufferpool.ByteBuffer
	after func() // runs once the frame is fully on the wire
}

// Session multiplexes frames over a single connection adapter. It
// implements api.Session for idle-driven shutdown, api.WriteHandler for
// its own write completions, and protocol.FrameHandler for inbound
// dispatch.
type Session struct {
	ctrl api.Controller

	mu       sync.Mutex
	outbound *queue.Queue // of *entry
	writing  bool
	goneAway bool
	failed   bool

	// OnData receives inbound data frames. Optional; nil drops them.
	OnData protocol.FrameHandler

	// OnGoAway is invoked once when the peer announces it is going away.
	OnGoAway func(f protocol.Frame)
}

var (
	_ api.Session           = (*Session)(nil)
	_ api.WriteHandler      = (*Session)(nil)
	_ protocol.FrameHandler = (*Session)(nil)
)

// New creates a session writing through ctrl.
func New(ctrl api.Controller) *Session {
	return &Session{
		ctrl:     ctrl,
		outbound: queue.New(),
	}
}

// Send encodes f and queues it for transmission. Frames go out in Send
// order; returns api.ErrGoneAway once the going-away handshake has begun
// and api.ErrConnClosed after a write failure.
func (s *Session) Send(f protocol.Frame) error {
	s.mu.Lock()
	if s.goneAway {
		s.mu.Unlock()
		return api.ErrGoneAway
	}
	s.mu.Unlock()
	return s.send(f, nil)
}

func (s *Session) send(f protocol.Frame, after func()) error {
	bb := bytebufferpool.Get()
	bb.B = f.AppendTo(bb.B[:0])
	e := &entry{buf: bb, after: after}

	s.mu.Lock()
	if s.failed {
		s.mu.Unlock()
		bytebufferpool.Put(bb)
		return api.ErrConnClosed
	}
	if s.writing {
		s.outbound.Add(e)
		s.mu.Unlock()
		return nil
	}
	s.writing = true
	s.mu.Unlock()

	return s.startWrite(e)
}

// startWrite hands e to the adapter. Must only be called by the goroutine
// that owns the writing token.
func (s *Session) startWrite(e *entry) error {
	_, err := s.ctrl.Write(e.buf.B, s, e)
	if err != nil {
		// The adapter closed the connection and abandoned the write; the
		// completion will never fire. Drop everything still queued.
		bytebufferpool.Put(e.buf)
		s.fail()
		return err
	}
	return nil
}

// Complete is the adapter's write-completion callback. It releases the
// finished frame and starts the next queued one, preserving Send order.
func (s *Session) Complete(ctx any) {
	e := ctx.(*entry)
	bytebufferpool.Put(e.buf)
	if e.after != nil {
		e.after()
	}

	s.mu.Lock()
	if s.outbound.Length() == 0 {
		s.writing = false
		s.mu.Unlock()
		return
	}
	next := s.outbound.Remove().(*entry)
	s.mu.Unlock()

	_ = s.startWrite(next)
}

// fail marks the session dead and releases queued frames without
// completing them.
func (s *Session) fail() {
	s.mu.Lock()
	s.failed = true
	s.writing = false
	for s.outbound.Length() > 0 {
		e := s.outbound.Remove().(*entry)
		bytebufferpool.Put(e.buf)
	}
	s.mu.Unlock()
}

// GoAway starts the graceful shutdown handshake: a going-away frame is
// queued behind any in-flight writes, and once it is fully on the wire the
// output side of the connection is shut down. Idempotent.
func (s *Session) GoAway() {
	s.mu.Lock()
	if s.goneAway {
		s.mu.Unlock()
		return
	}
	s.goneAway = true
	s.mu.Unlock()

	_ = s.send(protocol.Frame{Type: protocol.FrameGoAway}, func() {
		s.ctrl.Close(true)
	})
}

// GoneAway reports whether the going-away handshake has started.
func (s *Session) GoneAway() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.goneAway
}

// OnFrame dispatches one inbound frame. Ping frames without the ack flag
// are echoed back with it set; data frames go to OnData.
func (s *Session) OnFrame(f protocol.Frame) error {
	switch f.Type {
	case protocol.FramePing:
		if f.Flags&protocol.FlagAck != 0 {
			return nil
		}
		pong := protocol.Frame{Type: protocol.FramePing, Flags: protocol.FlagAck, StreamID: f.StreamID}
		if err := s.Send(pong); err == api.ErrGoneAway {
			return nil
		} else if err != nil {
			return err
		}
		return nil
	case protocol.FrameGoAway:
		if s.OnGoAway != nil {
			s.OnGoAway(f)
		}
		return nil
	case protocol.FrameData, protocol.FrameReset:
		if s.OnData != nil {
			return s.OnData.OnFrame(f)
		}
		return nil
	default:
		return nil
	}
}
