// File: transport/doc.go
// Package transport
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Non-blocking socket endpoints for muxio, strictly separated by build
// tags. The Linux implementation drives raw descriptors through
// golang.org/x/sys/unix; other platforms expose a not-supported stub.
// Also provides the TCP acceptor that hands freshly accepted descriptors
// to the dispatcher, with backoff on transient accept failures.

package transport
