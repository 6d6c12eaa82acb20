//go:build !linux
// +build !linux

// File: transport/transport_stub.go
// Author: momentics <momentics@gmail.com>
//
// Stub implementations for unsupported platforms.

package transport

import (
	"net"

	"github.com/momentics/muxio/api"
)

// Endpoint is unavailable on this platform.
type Endpoint struct{}

// NewEndpoint returns an error for unsupported platforms.
func NewEndpoint(fd int) (*Endpoint, error) {
	return nil, api.ErrNotSupported
}

// Acceptor is unavailable on this platform.
type Acceptor struct{}

// NewAcceptor returns an error for unsupported platforms.
func NewAcceptor(addr string, onAccept func(*Endpoint)) (*Acceptor, error) {
	return nil, api.ErrNotSupported
}

func (a *Acceptor) Addr() (*net.TCPAddr, error) { return nil, api.ErrNotSupported }
func (a *Acceptor) Serve() error                { return api.ErrNotSupported }
func (a *Acceptor) Close() error                { return nil }
