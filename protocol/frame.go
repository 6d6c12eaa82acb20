// File: protocol/frame.go
// Package protocol defines the muxio frame format.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package protocol

import (
	"fmt"
	"io"

	"github.com/lithdew/bytesutil"
)

// FrameType discriminates the frame kinds understood by the codec.
type FrameType uint8

const (
	FrameData FrameType = iota
	FramePing
	FrameGoAway
	FrameReset
)

func (t FrameType) String() string {
	switch t {
	case FrameData:
		return "data"
	case FramePing:
		return "ping"
	case FrameGoAway:
		return "goaway"
	case FrameReset:
		return "reset"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(t))
	}
}

const (
	// HeaderSize is the fixed length of an encoded frame header.
	HeaderSize = 8

	// MaxPayload is the largest payload a single frame may carry.
	MaxPayload = 1<<16 - 1
)

// FlagAck marks a ping frame as a reply.
const FlagAck uint8 = 1 << 0

// Frame is one unit of the multiplexed protocol. Payload aliases decoder
// or caller memory and is valid only for the duration of the call that
// delivered it; retain a copy if needed longer.
type Frame struct {
	Type     FrameType
	Flags    uint8
	StreamID uint32
	Payload  []byte
}

// AppendTo appends the wire encoding of f to dst and returns the result.
func (f Frame) AppendTo(dst []byte) []byte {
	dst = append(dst, byte(f.Type), f.Flags)
	dst = bytesutil.AppendUint32BE(dst, f.StreamID)
	dst = bytesutil.AppendUint16BE(dst, uint16(len(f.Payload)))
	dst = append(dst, f.Payload...)
	return dst
}

// UnmarshalFrame decodes one frame from buf. The returned frame's payload
// aliases buf.
func UnmarshalFrame(buf []byte) (Frame, error) {
	var frame Frame
	if len(buf) < HeaderSize {
		return frame, io.ErrUnexpectedEOF
	}
	frame.Type, frame.Flags, buf = FrameType(buf[0]), buf[1], buf[2:]
	frame.StreamID, buf = bytesutil.Uint32BE(buf[:4]), buf[4:]
	var size uint16
	size, buf = bytesutil.Uint16BE(buf[:2]), buf[2:]
	if len(buf) < int(size) {
		return frame, io.ErrUnexpectedEOF
	}
	frame.Payload = buf[:size]
	if frame.Type > FrameReset {
		return frame, fmt.Errorf("protocol: %s frame", frame.Type)
	}
	return frame, nil
}

// payloadLen extracts the payload length from a complete header.
func payloadLen(header []byte) int {
	return int(bytesutil.Uint16BE(header[6:HeaderSize]))
}
