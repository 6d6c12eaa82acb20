// File: api/endpoint.go
// Package api defines the transport endpoint contract.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

import "time"

// Endpoint abstracts a non-blocking byte-stream transport such as a TCP
// socket. No method may block: Fill and Flush return 0 when the transport
// cannot make progress right now, and suspension is always expressed as
// "return and wait for a readiness notification".
type Endpoint interface {
	// Fill reads available bytes into p. Returns 0 with a nil error when no
	// data is available, and io.EOF (possibly wrapped) once the peer has
	// shut down its sending side.
	Fill(p []byte) (int, error)

	// Flush writes as many bytes of p as the transport accepts right now.
	Flush(p []byte) (int, error)

	// Drain pushes any endpoint-buffered outbound bytes toward the peer.
	Drain() error

	// HasProgressed reports endpoint-internal progress made since the last
	// call, independent of Fill/Flush byte counts.
	HasProgressed() bool

	// ShutdownOutput half-closes the endpoint: no more outbound bytes.
	ShutdownOutput() error

	// Close tears the endpoint down entirely.
	Close() error

	// IsOpen reports whether the endpoint can still perform I/O.
	IsOpen() bool

	// ScheduleWrite requests a future writable notification. The
	// notification eventually drives a Flush on the owning connection.
	ScheduleWrite()

	// SetCheckForIdle enables or disables idle tracking for this endpoint.
	// The driving loop disables tracking while it runs.
	SetCheckForIdle(check bool)

	// CheckForIdle reports whether idle tracking is currently enabled.
	CheckForIdle() bool

	// IdleFor reports how long the endpoint has been without I/O activity.
	IdleFor() time.Duration
}
