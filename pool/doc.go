// Package pool
// Author: momentics <momentics@gmail.com>
//
// Read-buffer pooling for muxio connections. Buffers are fixed-size and
// recycled through valyala/bytebufferpool; a connection borrows one for
// the duration of a fill-and-decode cycle and returns it immediately
// after, so steady-state operation allocates nothing on the read path.
package pool
