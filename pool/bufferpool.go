// File: pool/bufferpool.go
// Author: momentics <momentics@gmail.com>

package pool

import "github.com/valyala/bytebufferpool"

// DefaultReadBufferSize matches one page of socket read per fill cycle.
const DefaultReadBufferSize = 4096

// ReadBufferPool hands out fixed-size read buffers.
type ReadBufferPool struct {
	size int
}

// NewReadBufferPool creates a pool of size-byte buffers. Non-positive
// sizes fall back to DefaultReadBufferSize.
func NewReadBufferPool(size int) *ReadBufferPool {
	if size <= 0 {
		size = DefaultReadBufferSize
	}
	return &ReadBufferPool{size: size}
}

// Size reports the length of buffers handed out by Get.
func (p *ReadBufferPool) Size() int { return p.size }

// Get returns a buffer whose B slice has length Size.
func (p *ReadBufferPool) Get() *bytebufferpool.ByteBuffer {
	bb := bytebufferpool.Get()
	if cap(bb.B) < p.size {
		bb.B = make([]byte, p.size)
	} else {
		bb.B = bb.B[:p.size]
	}
	return bb
}

// Put recycles a buffer obtained from Get.
func (p *ReadBufferPool) Put(bb *bytebufferpool.ByteBuffer) {
	bytebufferpool.Put(bb)
}
