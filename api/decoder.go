// File: api/decoder.go
// Package api defines the frame decoder contract and the Region type.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

// Decoder consumes filled bytes and synchronously dispatches decoded
// frames. A Decode call may reenter the adapter's fill and write paths;
// the Region argument is the shared state that makes such reentrancy safe.
type Decoder interface {
	Decode(r *Region) error
}

// Region is a consumable window over bytes filled from an endpoint. The
// adapter holds it for the duration of a decode call so that a reentrant
// fill observes how much of the window has already been consumed instead
// of reading the transport again.
type Region struct {
	data []byte
	off  int
}

// NewRegion wraps p in a fresh, fully unconsumed region.
func NewRegion(p []byte) *Region {
	return &Region{data: p}
}

// Bytes returns the unconsumed tail of the region. The slice aliases the
// adapter's read buffer and is valid only until the decode call returns.
func (r *Region) Bytes() []byte {
	return r.data[r.off:]
}

// Len reports the number of unconsumed bytes.
func (r *Region) Len() int {
	return len(r.data) - r.off
}

// Advance marks the next n bytes as consumed.
func (r *Region) Advance(n int) {
	if n < 0 || r.off+n > len(r.data) {
		panic("api: region advance out of range")
	}
	r.off += n
}
