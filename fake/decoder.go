// File: fake/decoder.go
// Author: momentics <momentics@gmail.com>

package fake

import (
	"sync"

	"github.com/momentics/muxio/api"
)

// Decoder is a fake api.Decoder. By default it records and consumes every
// region handed to it; OnDecode overrides the behavior entirely, which is
// how reentrant-decode scenarios are scripted.
type Decoder struct {
	mu      sync.Mutex
	decoded [][]byte

	OnDecode func(r *api.Region) error
}

var _ api.Decoder = (*Decoder)(nil)

// NewDecoder creates a recording decoder.
func NewDecoder() *Decoder { return &Decoder{} }

// Decode implements api.Decoder.
func (d *Decoder) Decode(r *api.Region) error {
	if d.OnDecode != nil {
		return d.OnDecode(r)
	}
	d.Consume(r)
	return nil
}

// Consume records and consumes the region's remaining bytes.
func (d *Decoder) Consume(r *api.Region) {
	b := r.Bytes()
	cp := make([]byte, len(b))
	copy(cp, b)
	r.Advance(len(b))

	d.mu.Lock()
	d.decoded = append(d.decoded, cp)
	d.mu.Unlock()
}

// Decoded returns the byte chunks consumed so far, one per decode.
func (d *Decoder) Decoded() [][]byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([][]byte, len(d.decoded))
	copy(out, d.decoded)
	return out
}
