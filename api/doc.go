// Package api
// Author: momentics <momentics@gmail.com>
//
// Boundary contracts for the muxio library.
// Declares the endpoint, decoder, write-completion and session interfaces
// consumed and exposed by the connection adapter, plus the shared Region
// type used for reentrant decoding. Implementations live in the transport,
// protocol, session and fake packages.
package api
