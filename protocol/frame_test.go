package protocol_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/momentics/muxio/protocol"
)

func TestFrameRoundTrip(t *testing.T) {
	f := protocol.Frame{
		Type:     protocol.FrameData,
		Flags:    0x02,
		StreamID: 7,
		Payload:  []byte("payload"),
	}
	buf := f.AppendTo(nil)
	require.Len(t, buf, protocol.HeaderSize+len(f.Payload))

	got, err := protocol.UnmarshalFrame(buf)
	require.NoError(t, err)
	require.Equal(t, f.Type, got.Type)
	require.Equal(t, f.Flags, got.Flags)
	require.Equal(t, f.StreamID, got.StreamID)
	require.Equal(t, f.Payload, got.Payload)
}

func TestUnmarshalShortBuffer(t *testing.T) {
	f := protocol.Frame{Type: protocol.FramePing, StreamID: 1, Payload: []byte("ping")}
	buf := f.AppendTo(nil)

	_, err := protocol.UnmarshalFrame(buf[:protocol.HeaderSize-1])
	require.Error(t, err)

	_, err = protocol.UnmarshalFrame(buf[:len(buf)-1])
	require.Error(t, err)
}

func TestUnmarshalUnknownType(t *testing.T) {
	f := protocol.Frame{Type: protocol.FrameType(200)}
	_, err := protocol.UnmarshalFrame(f.AppendTo(nil))
	require.Error(t, err)
}

func TestFrameTypeString(t *testing.T) {
	require.Equal(t, "goaway", protocol.FrameGoAway.String())
	require.Equal(t, "unknown(99)", protocol.FrameType(99).String())
}
