// Package conn
// Author: momentics <momentics@gmail.com>
//
// The muxio connection adapter. Bridges a non-blocking endpoint to a frame
// decoder: turns readable/writable readiness events into correctly-chunked
// decode calls and into the continuation of at most one partially-written
// outbound buffer, with exactly-once write completion and exactly-once
// close semantics. One adapter instance exists per physical connection.
//
// Threading: the dispatcher guarantees Handle is never entered concurrently
// for one connection, but the idle timer and the write-readiness notifier
// may call OnIdleExpired, Write or Flush concurrently with it. The pending
// write is therefore an atomic flag plus a narrow mutex around the
// buffer/handler/context triple; nothing on the fill/decode hot path takes
// a lock.
package conn
