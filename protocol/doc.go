// Package protocol
// Author: momentics <momentics@gmail.com>
//
// Default frame codec and incremental parser for muxio. Frames carry a
// fixed 8-byte header (type, flags, stream id, payload length) followed by
// the payload. The parser implements api.Decoder: it consumes regions
// filled by a connection adapter, buffers split frames across calls, and
// dispatches complete frames synchronously to a FrameHandler.
package protocol
