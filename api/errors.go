// Package api
// Author: momentics <momentics@gmail.com>
//
// Common error values used across the muxio library.

package api

import "fmt"

var (
	ErrConnClosed   = fmt.Errorf("connection is closed")
	ErrWritePending = fmt.Errorf("a write is already pending")
	ErrGoneAway     = fmt.Errorf("session is going away")
	ErrNotSupported = fmt.Errorf("operation not supported on this platform")
)
