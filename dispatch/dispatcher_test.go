package dispatch_test

import (
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/momentics/muxio/api"
	"github.com/momentics/muxio/conn"
	"github.com/momentics/muxio/control"
	"github.com/momentics/muxio/dispatch"
	"github.com/momentics/muxio/fake"
	"github.com/momentics/muxio/reactor"
)

func testConfig() *control.Config {
	cfg := control.DefaultConfig()
	cfg.PollTimeoutMs = 5
	cfg.IdleSweepInterval = 5 * time.Millisecond
	cfg.IdleTimeout = time.Millisecond
	return cfg
}

func TestDispatcherDrivesReadableConn(t *testing.T) {
	defer goleak.VerifyNone(t)

	r := fake.NewReactor()
	d := dispatch.New(testConfig(), r, nil)
	d.Run()
	defer func() { require.NoError(t, d.Shutdown()) }()

	ep := fake.NewEndpoint()
	dec := fake.NewDecoder()
	c := conn.New(ep, dec, nil)

	ep.AddFill([]byte("hello"))
	require.NoError(t, d.Register(c, ep, 1))

	require.Eventually(t, func() bool {
		return len(dec.Decoded()) == 1
	}, time.Second, 5*time.Millisecond, "initial schedule must drain pre-buffered bytes")

	ep.AddFill([]byte("again"))
	r.Fire(1, reactor.EventRead)
	require.Eventually(t, func() bool {
		return len(dec.Decoded()) == 2
	}, time.Second, 5*time.Millisecond)
}

func TestWritableEventResumesPartialWrite(t *testing.T) {
	defer goleak.VerifyNone(t)

	r := fake.NewReactor()
	d := dispatch.New(testConfig(), r, nil)
	d.Run()
	defer func() { require.NoError(t, d.Shutdown()) }()

	ep := fake.NewEndpoint()
	c := conn.New(ep, fake.NewDecoder(), nil)
	require.NoError(t, d.Register(c, ep, 2))

	h := fake.NewWriteHandler()
	ep.PushFlushBudget(1)
	_, err := c.Write([]byte("abcd"), h, "frame-1")
	require.NoError(t, err)
	require.True(t, c.WritePending())

	r.Fire(2, reactor.EventWrite)
	require.Eventually(t, func() bool {
		return h.Completions() == 1
	}, time.Second, 5*time.Millisecond, "writable event must complete the pending write")
	require.Equal(t, []byte("abcd"), ep.Flushed())
	require.Equal(t, reactor.EventRead, r.Interest(2), "write interest disarmed after the event")
}

func TestIdleSweepTriggersGoAway(t *testing.T) {
	defer goleak.VerifyNone(t)

	r := fake.NewReactor()
	d := dispatch.New(testConfig(), r, nil)
	d.Run()
	defer func() { require.NoError(t, d.Shutdown()) }()

	ep := fake.NewEndpoint()
	c := conn.New(ep, fake.NewDecoder(), nil)
	s := fake.NewSession()
	c.SetSession(s)
	ep.SetIdleFor(time.Hour)
	require.NoError(t, d.Register(c, ep, 3))

	require.Eventually(t, func() bool {
		return s.GoAways() >= 1
	}, time.Second, 5*time.Millisecond)
	require.False(t, ep.Closed(), "idle expiry must not close the transport")
}

func TestEOFConnIsUnregistered(t *testing.T) {
	defer goleak.VerifyNone(t)

	r := fake.NewReactor()
	d := dispatch.New(testConfig(), r, nil)
	d.Run()
	defer func() { require.NoError(t, d.Shutdown()) }()

	ep := fake.NewEndpoint()
	ep.SetFillError(io.EOF)
	c := conn.New(ep, fake.NewDecoder(), nil)
	require.NoError(t, d.Register(c, ep, 4))

	require.Eventually(t, func() bool {
		return d.ConnCount() == 0 && ep.Closed()
	}, time.Second, 5*time.Millisecond)
}

func TestMetricsSnapshotPublished(t *testing.T) {
	defer goleak.VerifyNone(t)

	r := fake.NewReactor()
	metrics := control.NewMetricsRegistry()
	d := dispatch.New(testConfig(), r, metrics)
	d.Run()
	defer func() { require.NoError(t, d.Shutdown()) }()

	ep := fake.NewEndpoint()
	ep.AddFill([]byte("count-me"))
	c := conn.New(ep, fake.NewDecoder(), nil)
	require.NoError(t, d.Register(c, ep, 5))

	require.Eventually(t, func() bool {
		snap := metrics.GetSnapshot()
		in, ok := snap["bytes_in"].(int64)
		return ok && in == int64(len("count-me"))
	}, time.Second, 5*time.Millisecond)
}

func TestPollFailureStopsDispatcher(t *testing.T) {
	defer goleak.VerifyNone(t)

	r := fake.NewReactor()
	d := dispatch.New(testConfig(), r, nil)
	d.Run()

	// Break the reactor out from under the dispatcher.
	require.NoError(t, r.Close())

	ep := fake.NewEndpoint()
	c := conn.New(ep, fake.NewDecoder(), nil)
	require.Eventually(t, func() bool {
		return d.Register(c, ep, 7) != nil
	}, time.Second, time.Millisecond, "a dead reactor must stop new registrations")

	require.ErrorIs(t, d.Shutdown(), api.ErrConnClosed)
}

func TestRegisterAfterShutdownFails(t *testing.T) {
	defer goleak.VerifyNone(t)

	r := fake.NewReactor()
	d := dispatch.New(testConfig(), r, nil)
	d.Run()
	require.NoError(t, d.Shutdown())

	ep := fake.NewEndpoint()
	c := conn.New(ep, fake.NewDecoder(), nil)
	require.ErrorIs(t, d.Register(c, ep, 6), api.ErrConnClosed)
}
