//go:build linux
// +build linux

// File: transport/endpoint_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Linux non-blocking socket endpoint.

package transport

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"golang.org/x/sys/unix"

	"github.com/momentics/muxio/api"
)

// Endpoint is a non-blocking socket endpoint over a raw file descriptor.
// It owns the descriptor: Close releases it.
type Endpoint struct {
	fd int

	open       int32
	outShut    int32
	checkIdle  int32
	lastActive int64 // unix nanos of the last successful I/O

	scheduleWrite atomic.Value // func(), set by the dispatcher
}

var _ api.Endpoint = (*Endpoint)(nil)

// NewEndpoint wraps fd, forcing it into non-blocking mode.
func NewEndpoint(fd int) (*Endpoint, error) {
	if err := unix.SetNonblock(fd, true); err != nil {
		return nil, fmt.Errorf("set nonblock: %w", err)
	}
	_ = unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_NODELAY, 1)
	ep := &Endpoint{fd: fd, open: 1}
	ep.touch()
	return ep, nil
}

// FD returns the descriptor for reactor registration.
func (ep *Endpoint) FD() uintptr { return uintptr(ep.fd) }

func (ep *Endpoint) touch() {
	atomic.StoreInt64(&ep.lastActive, time.Now().UnixNano())
}

// Fill reads available bytes into p. 0 with nil error means the socket
// has no data right now; io.EOF means the peer shut its sending side.
func (ep *Endpoint) Fill(p []byte) (int, error) {
	for {
		n, err := unix.Read(ep.fd, p)
		switch {
		case err == unix.EINTR:
			continue
		case err == unix.EAGAIN || err == unix.EWOULDBLOCK:
			return 0, nil
		case err != nil:
			return 0, fmt.Errorf("read: %w", err)
		case n == 0:
			return 0, io.EOF
		default:
			ep.touch()
			return n, nil
		}
	}
}

// Flush writes as many bytes of p as the socket accepts right now.
func (ep *Endpoint) Flush(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	for {
		n, err := unix.Write(ep.fd, p)
		switch {
		case err == unix.EINTR:
			continue
		case err == unix.EAGAIN || err == unix.EWOULDBLOCK:
			return 0, nil
		case err != nil:
			return 0, fmt.Errorf("write: %w", err)
		default:
			ep.touch()
			return n, nil
		}
	}
}

// Drain is a no-op: the kernel owns all outbound buffering.
func (ep *Endpoint) Drain() error { return nil }

// HasProgressed always reports false: this endpoint buffers nothing
// internally, so all progress is visible through Fill and Flush counts.
func (ep *Endpoint) HasProgressed() bool { return false }

// ShutdownOutput half-closes the socket's sending side.
func (ep *Endpoint) ShutdownOutput() error {
	if !atomic.CompareAndSwapInt32(&ep.outShut, 0, 1) {
		return nil
	}
	if err := unix.Shutdown(ep.fd, unix.SHUT_WR); err != nil {
		return fmt.Errorf("shutdown output: %w", err)
	}
	return nil
}

// Close releases the descriptor. Idempotent.
func (ep *Endpoint) Close() error {
	if !atomic.CompareAndSwapInt32(&ep.open, 1, 0) {
		return nil
	}
	return unix.Close(ep.fd)
}

// IsOpen reports whether the descriptor is still held.
func (ep *Endpoint) IsOpen() bool {
	return atomic.LoadInt32(&ep.open) == 1
}

// ScheduleWrite requests a writable notification via the dispatcher hook.
func (ep *Endpoint) ScheduleWrite() {
	if fn, ok := ep.scheduleWrite.Load().(func()); ok && fn != nil {
		fn()
	}
}

// SetScheduleWriteFunc installs the dispatcher's write re-arm hook.
func (ep *Endpoint) SetScheduleWriteFunc(fn func()) {
	ep.scheduleWrite.Store(fn)
}

// SetCheckForIdle enables or disables idle tracking.
func (ep *Endpoint) SetCheckForIdle(check bool) {
	if check {
		atomic.StoreInt32(&ep.checkIdle, 1)
		ep.touch()
	} else {
		atomic.StoreInt32(&ep.checkIdle, 0)
	}
}

// CheckForIdle reports whether idle tracking is enabled.
func (ep *Endpoint) CheckForIdle() bool {
	return atomic.LoadInt32(&ep.checkIdle) == 1
}

// IdleFor reports the time since the last successful I/O.
func (ep *Endpoint) IdleFor() time.Duration {
	return time.Duration(time.Now().UnixNano() - atomic.LoadInt64(&ep.lastActive))
}
