//go:build linux
// +build linux

// File: transport/acceptor_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// TCP acceptor handing non-blocking descriptors to the dispatcher.

package transport

import (
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"github.com/jpillora/backoff"
	"golang.org/x/sys/unix"
)

// Acceptor listens on a TCP address and invokes the accept callback with a
// fresh non-blocking endpoint per connection. Transient accept failures
// (fd exhaustion, aborted handshakes) are retried with exponential backoff
// instead of tearing the listener down.
type Acceptor struct {
	lfd      int
	onAccept func(*Endpoint)
	retry    *backoff.Backoff
	closed   int32
}

// NewAcceptor binds and listens on addr (IPv4, "host:port" or ":port").
func NewAcceptor(addr string, onAccept func(*Endpoint)) (*Acceptor, error) {
	ta, err := net.ResolveTCPAddr("tcp4", addr)
	if err != nil {
		return nil, fmt.Errorf("resolve %q: %w", addr, err)
	}

	lfd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("listen socket: %w", err)
	}
	_ = unix.SetsockoptInt(lfd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)

	sa := &unix.SockaddrInet4{Port: ta.Port}
	if ip4 := ta.IP.To4(); ip4 != nil {
		copy(sa.Addr[:], ip4)
	}
	if err := unix.Bind(lfd, sa); err != nil {
		_ = unix.Close(lfd)
		return nil, fmt.Errorf("bind %q: %w", addr, err)
	}
	if err := unix.Listen(lfd, unix.SOMAXCONN); err != nil {
		_ = unix.Close(lfd)
		return nil, fmt.Errorf("listen %q: %w", addr, err)
	}

	return &Acceptor{
		lfd:      lfd,
		onAccept: onAccept,
		retry: &backoff.Backoff{
			Min:    10 * time.Millisecond,
			Max:    time.Second,
			Factor: 2,
			Jitter: true,
		},
	}, nil
}

// Addr returns the bound address, useful when listening on port 0.
func (a *Acceptor) Addr() (*net.TCPAddr, error) {
	sa, err := unix.Getsockname(a.lfd)
	if err != nil {
		return nil, fmt.Errorf("getsockname: %w", err)
	}
	sa4, ok := sa.(*unix.SockaddrInet4)
	if !ok {
		return nil, fmt.Errorf("unexpected sockaddr %T", sa)
	}
	return &net.TCPAddr{IP: net.IP(sa4.Addr[:]), Port: sa4.Port}, nil
}

// Serve accepts connections until Close. Each accepted descriptor is
// already non-blocking and close-on-exec.
func (a *Acceptor) Serve() error {
	for {
		nfd, _, err := unix.Accept4(a.lfd, unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
		if err != nil {
			if atomic.LoadInt32(&a.closed) == 1 {
				return nil
			}
			if err == unix.EINTR {
				continue
			}
			if temporaryAcceptError(err) {
				time.Sleep(a.retry.Duration())
				continue
			}
			return fmt.Errorf("accept: %w", err)
		}
		a.retry.Reset()

		ep, err := NewEndpoint(nfd)
		if err != nil {
			_ = unix.Close(nfd)
			continue
		}
		a.onAccept(ep)
	}
}

// Close stops the accept loop and releases the listening descriptor.
func (a *Acceptor) Close() error {
	if !atomic.CompareAndSwapInt32(&a.closed, 0, 1) {
		return nil
	}
	return unix.Close(a.lfd)
}

func temporaryAcceptError(err error) bool {
	switch err {
	case unix.ECONNABORTED, unix.EMFILE, unix.ENFILE, unix.ENOBUFS, unix.ENOMEM, unix.EAGAIN:
		return true
	}
	return false
}
