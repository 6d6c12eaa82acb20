// File: protocol/parser.go
// Package protocol implements the incremental frame parser.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package protocol

import (
	"github.com/valyala/bytebufferpool"

	"github.com/momentics/muxio/api"
)

// FrameHandler receives complete frames from a Parser, synchronously. The
// handler may reenter the adapter that drives the parser; the frame's
// payload is only valid until the handler returns.
type FrameHandler interface {
	OnFrame(f Frame) error
}

// FrameHandlerFunc adapts a plain function to the FrameHandler interface.
type FrameHandlerFunc func(f Frame) error

func (fn FrameHandlerFunc) OnFrame(f Frame) error { return fn(f) }

// Parser is the default api.Decoder. Frames split across fill boundaries
// are staged in a pooled buffer until complete; frames fully contained in
// a region are dispatched without copying.
type Parser struct {
	handler FrameHandler

	partial *bytebufferpool.ByteBuffer // staged bytes of a split frame
	need    int                        // staged bytes required before the next step
}

// NewParser creates a parser dispatching to handler.
func NewParser(handler FrameHandler) *Parser {
	return &Parser{handler: handler}
}

var _ api.Decoder = (*Parser)(nil)

// Decode consumes r until it is empty or a frame is left incomplete.
// Handler errors and malformed frames abort the call; remaining staged
// state is discarded on a malformed frame.
func (p *Parser) Decode(r *api.Region) error {
	for {
		if p.partial != nil {
			if done, err := p.continuePartial(r); err != nil {
				return err
			} else if !done {
				return nil
			}
			continue
		}

		buf := r.Bytes()
		if len(buf) == 0 {
			return nil
		}
		if len(buf) < HeaderSize {
			p.stash(buf, HeaderSize)
			r.Advance(len(buf))
			return nil
		}
		total := HeaderSize + payloadLen(buf)
		if len(buf) < total {
			p.stash(buf, total)
			r.Advance(len(buf))
			return nil
		}

		frame, err := UnmarshalFrame(buf[:total])
		// Consume before dispatch: a reentrant fill must observe these
		// bytes as already decoded.
		r.Advance(total)
		if err != nil {
			return err
		}
		if err := p.handler.OnFrame(frame); err != nil {
			return err
		}
	}
}

// continuePartial feeds region bytes into the staged frame. Reports true
// when a complete frame was dispatched and parsing can continue.
func (p *Parser) continuePartial(r *api.Region) (bool, error) {
	take := p.need - len(p.partial.B)
	if take > r.Len() {
		take = r.Len()
	}
	p.partial.B = append(p.partial.B, r.Bytes()[:take]...)
	r.Advance(take)
	if len(p.partial.B) < p.need {
		return false, nil
	}

	if p.need == HeaderSize {
		if total := HeaderSize + payloadLen(p.partial.B); total > p.need {
			p.need = total
			return true, nil
		}
	}

	frame, err := UnmarshalFrame(p.partial.B)
	if err != nil {
		p.reset()
		return false, err
	}
	// Detach before dispatch: the handler may reenter Decode, which must
	// not observe the already-delivered frame as still staged.
	staged := p.partial
	p.partial = nil
	p.need = 0
	err = p.handler.OnFrame(frame)
	bytebufferpool.Put(staged)
	return err == nil, err
}

func (p *Parser) stash(b []byte, need int) {
	p.partial = bytebufferpool.Get()
	p.partial.B = append(p.partial.B[:0], b...)
	p.need = need
}

func (p *Parser) reset() {
	bytebufferpool.Put(p.partial)
	p.partial = nil
	p.need = 0
}
