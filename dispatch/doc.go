// Package dispatch
// Author: momentics <momentics@gmail.com>
//
// Event dispatcher for muxio connections. Owns the reactor poll loop, a
// run queue of connections with pending events, and the idle sweep. The
// run queue is drained by a single goroutine, which guarantees the driving
// loop of any one connection is never entered concurrently; the idle sweep
// and writable notifications run on auxiliary goroutines, which the
// adapter's pending-write state is built to tolerate.
package dispatch
