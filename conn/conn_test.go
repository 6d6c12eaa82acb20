package conn_test

import (
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/momentics/muxio/api"
	"github.com/momentics/muxio/conn"
	"github.com/momentics/muxio/fake"
	"github.com/momentics/muxio/protocol"
)

var _ api.Controller = (*conn.Conn)(nil)

func newConn() (*conn.Conn, *fake.Endpoint, *fake.Decoder) {
	ep := fake.NewEndpoint()
	dec := fake.NewDecoder()
	return conn.New(ep, dec, nil), ep, dec
}

func TestWriteCompletesSynchronously(t *testing.T) {
	c, ep, _ := newConn()
	h := fake.NewWriteHandler()

	n, err := c.Write([]byte("hello"), h, "frame-1")
	require.NoError(t, err)
	require.Equal(t, 5, n)
	require.Equal(t, []byte("hello"), ep.Flushed())
	require.Equal(t, 1, h.Completions())
	require.Equal(t, "frame-1", h.Contexts()[0])
	require.False(t, c.WritePending())
	require.Zero(t, ep.Scheduled())
}

func TestPartialWriteCompletesOnFlush(t *testing.T) {
	c, ep, _ := newConn()
	h := fake.NewWriteHandler()

	ep.PushFlushBudget(3)
	n, err := c.Write([]byte("abcdefgh"), h, "frame-1")
	require.NoError(t, err)
	require.Equal(t, 3, n)
	require.True(t, c.WritePending())
	require.Equal(t, 1, ep.Scheduled())
	require.Zero(t, h.Completions(), "completion must not fire before all bytes are sent")

	flushed := c.Flush()
	require.Equal(t, 5, flushed)
	require.False(t, c.WritePending())
	require.Equal(t, []byte("abcdefgh"), ep.Flushed())
	require.Equal(t, 1, h.Completions())
	require.Equal(t, "frame-1", h.Contexts()[0])
}

func TestPartialWriteAcrossSeveralFlushes(t *testing.T) {
	c, ep, _ := newConn()
	h := fake.NewWriteHandler()

	ep.PushFlushBudget(2)
	ep.PushFlushBudget(2)
	n, err := c.Write([]byte("abcdef"), h, 42)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	require.Equal(t, 2, c.Flush())
	require.True(t, c.WritePending(), "tail still unwritten after budgeted flush")
	require.Equal(t, 2, ep.Scheduled())
	require.Zero(t, h.Completions())

	require.Equal(t, 2, c.Flush())
	require.False(t, c.WritePending())
	require.Equal(t, []byte("abcdef"), ep.Flushed())
	require.Equal(t, []any{42}, h.Contexts())
}

func TestFlushWithoutPendingIsNoop(t *testing.T) {
	c, _, _ := newConn()
	require.Zero(t, c.Flush())
}

func TestWriteErrorClosesAndAbandonsHandler(t *testing.T) {
	c, ep, _ := newConn()
	h := fake.NewWriteHandler()

	ep.SetFlushError(fmt.Errorf("broken pipe"))
	n, err := c.Write([]byte("abc"), h, "frame-1")
	require.Error(t, err)
	require.Contains(t, err.Error(), "endpoint write")
	require.Zero(t, n)
	require.True(t, ep.Closed(), "write failure must fully close the transport")
	require.Zero(t, h.Completions(), "failed writes are abandoned, never completed")

	_, err = c.Write([]byte("late"), h, "frame-2")
	require.ErrorIs(t, err, api.ErrConnClosed)
}

func TestWriteAfterCloseFailsFast(t *testing.T) {
	c, ep, _ := newConn()
	c.Close(false)
	require.True(t, ep.Closed())

	_, err := c.Write([]byte("x"), fake.NewWriteHandler(), nil)
	require.ErrorIs(t, err, api.ErrConnClosed)
	require.Zero(t, c.Flush())
}

func TestFillFeedsDecoder(t *testing.T) {
	c, ep, dec := newConn()

	ep.AddFill([]byte("hello"))
	require.Equal(t, 5, c.Fill())
	require.Equal(t, [][]byte{[]byte("hello")}, dec.Decoded())

	require.Zero(t, c.Fill(), "no data means zero, decoder untouched")
	require.Len(t, dec.Decoded(), 1)
}

func TestFillEOFSkipsDecoder(t *testing.T) {
	c, ep, dec := newConn()

	ep.SetFillError(io.EOF)
	require.Equal(t, -1, c.Fill())
	require.Empty(t, dec.Decoded())
}

func TestReentrantFillConsumesHeldRegion(t *testing.T) {
	ep := fake.NewEndpoint()
	dec := fake.NewDecoder()
	c := conn.New(ep, dec, nil)

	var nested []byte
	var nestedFill int
	outer := true
	dec.OnDecode = func(r *api.Region) error {
		if outer {
			outer = false
			r.Advance(2)
			nestedFill = c.Fill()
			require.Zero(t, r.Len(), "outer region fully consumed by nested decode")
			return nil
		}
		nested = append(nested, r.Bytes()...)
		r.Advance(r.Len())
		return nil
	}

	ep.AddFill([]byte("abcdef"))
	ep.AddFill([]byte("MUST-NOT-BE-READ"))
	require.Equal(t, 6, c.Fill())
	require.Zero(t, nestedFill, "nested fill must not read the transport again")
	require.Equal(t, "cdef", string(nested), "no bytes duplicated or dropped across the reentrant boundary")
}

func TestReentrantFillDuringStagedFrameDispatch(t *testing.T) {
	ep := fake.NewEndpoint()

	var c *conn.Conn
	var frames []protocol.Frame
	nestedFill := -1
	p := protocol.NewParser(protocol.FrameHandlerFunc(func(f protocol.Frame) error {
		cp := f
		cp.Payload = append([]byte(nil), f.Payload...)
		frames = append(frames, cp)
		if nestedFill < 0 {
			nestedFill = c.Fill()
		}
		return nil
	}))
	c = conn.New(ep, p, nil)

	wire := protocol.Frame{Type: protocol.FrameData, StreamID: 4, Payload: []byte("staged")}.AppendTo(nil)
	split := len(wire) - 3
	ep.AddFill(wire[:split])
	ep.AddFill(wire[split:])
	ep.AddFill([]byte("MUST-NOT-BE-READ"))

	require.Equal(t, split, c.Fill())
	require.Empty(t, frames, "frame still incomplete after the first fill")

	require.Equal(t, len(wire)-split, c.Fill())
	require.Len(t, frames, 1, "frame completed from staged bytes is delivered exactly once")
	require.Equal(t, []byte("staged"), frames[0].Payload)
	require.Equal(t, uint32(4), frames[0].StreamID)
	require.Zero(t, nestedFill, "nested fill must not read the transport again")
	require.False(t, ep.Closed())
}

func TestHandleClosesFullyOnEOF(t *testing.T) {
	c, ep, _ := newConn()

	ep.SetFillError(io.EOF)
	c.Handle()
	require.True(t, ep.Closed(), "EOF with no progress closes the transport")
	require.False(t, ep.OutputShutdown(), "full close, not an output-only shutdown")
	require.True(t, ep.CheckForIdle(), "idle tracking re-enabled after the loop")
}

func TestHandleDrainsScriptedReads(t *testing.T) {
	c, ep, dec := newConn()

	ep.AddFill([]byte("one"))
	ep.AddFill([]byte("two"))
	c.Handle()
	require.Equal(t, [][]byte{[]byte("one"), []byte("two")}, dec.Decoded())
	require.False(t, ep.Closed())
	require.True(t, ep.CheckForIdle())
}

func TestHandleResumesPendingWrite(t *testing.T) {
	c, ep, _ := newConn()
	h := fake.NewWriteHandler()

	ep.PushFlushBudget(1)
	_, err := c.Write([]byte("abcd"), h, "frame-1")
	require.NoError(t, err)
	require.True(t, c.WritePending())

	c.Handle()
	require.False(t, c.WritePending())
	require.Equal(t, []byte("abcd"), ep.Flushed())
	require.Equal(t, 1, h.Completions())
	require.False(t, ep.Closed())
}

func TestHandleReenablesIdleCheckOnPanic(t *testing.T) {
	c, ep, dec := newConn()

	dec.OnDecode = func(r *api.Region) error { panic("decoder blew up") }
	ep.AddFill([]byte("boom"))
	require.Panics(t, func() { c.Handle() })
	require.True(t, ep.CheckForIdle(), "idle tracking restored on exceptional exit")
}

func TestDecodeErrorClosesFully(t *testing.T) {
	c, ep, dec := newConn()

	dec.OnDecode = func(r *api.Region) error {
		r.Advance(r.Len())
		return fmt.Errorf("malformed frame")
	}
	ep.AddFill([]byte("junk"))
	c.Fill()
	require.True(t, ep.Closed())
	require.Equal(t, int64(1), c.Stats().DecodeErrors)
}

func TestIdleExpiredTriggersGoAwayNotClose(t *testing.T) {
	c, ep, _ := newConn()
	s := fake.NewSession()
	c.SetSession(s)

	c.OnIdleExpired(time.Minute)
	require.Equal(t, 1, s.GoAways())
	require.False(t, ep.Closed(), "idle expiry must not close the transport by itself")
	require.False(t, ep.OutputShutdown())
}

func TestIdleExpiredWithoutSessionIsHarmless(t *testing.T) {
	c, _, _ := newConn()
	require.NotPanics(t, func() { c.OnIdleExpired(time.Minute) })
}

func TestCloseOutputOnly(t *testing.T) {
	c, ep, _ := newConn()

	c.Close(true)
	require.True(t, ep.OutputShutdown())
	require.False(t, ep.Closed())
}

func TestCloseOutputEscalatesOnFailure(t *testing.T) {
	c, ep, _ := newConn()

	ep.SetShutdownError(fmt.Errorf("shutdown refused"))
	c.Close(true)
	require.False(t, ep.OutputShutdown())
	require.True(t, ep.Closed(), "failed half-close escalates to full close")
}

func TestLifecycleHooks(t *testing.T) {
	c, ep, _ := newConn()
	h := fake.NewWriteHandler()

	require.False(t, c.IsIdle())
	require.False(t, c.IsSuspended())
	require.NoError(t, c.OnInputShutdown())

	ep.PushFlushBudget(0)
	_, err := c.Write([]byte("abc"), h, nil)
	require.NoError(t, err)
	require.True(t, c.WritePending())

	c.OnClose()
	require.False(t, c.WritePending(), "close drops the pending write")
	require.Zero(t, c.Flush())
	require.Zero(t, h.Completions(), "dropped writes are never completed")
}

func TestStatsCounters(t *testing.T) {
	c, ep, _ := newConn()
	h := fake.NewWriteHandler()

	ep.AddFill([]byte("12345"))
	c.Fill()

	ep.PushFlushBudget(2)
	_, err := c.Write([]byte("abcd"), h, nil)
	require.NoError(t, err)
	c.Flush()

	s := c.Stats()
	require.Equal(t, int64(5), s.BytesIn)
	require.Equal(t, int64(4), s.BytesOut)
	require.Equal(t, int64(1), s.FramesFlushed)
	require.Equal(t, int64(1), s.WritesResumed)
}
