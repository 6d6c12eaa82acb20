// File: api/controller.go
// Package api defines the write contract exposed to the session layer.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

// WriteHandler receives the completion of an asynchronous write. Complete
// fires exactly once per write, either synchronously from Write when all
// bytes went out immediately, or later from a Flush that drained the tail.
type WriteHandler interface {
	Complete(ctx any)
}

// WriteHandlerFunc adapts a plain function to the WriteHandler interface.
type WriteHandlerFunc func(ctx any)

func (fn WriteHandlerFunc) Complete(ctx any) { fn(ctx) }

// Controller is the write and close contract a connection adapter exposes
// to its session. At most one write may be outstanding per connection; the
// session serializes its writes, the adapter does not queue.
type Controller interface {
	// Write attempts a non-blocking write of p. If the transport accepts
	// only part of p the remainder is kept as the single pending write and
	// completed by a later flush. Returns the bytes written by this call.
	Write(p []byte, handler WriteHandler, ctx any) (int, error)

	// Close shuts the connection down. With onlyOutput it half-closes the
	// write side, escalating to a full close if that fails.
	Close(onlyOutput bool)
}

// Session is the slice of the session layer the adapter needs to see:
// the entry point of the graceful-shutdown handshake, invoked when the
// connection has been idle past its threshold.
type Session interface {
	GoAway()
}
