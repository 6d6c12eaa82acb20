// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package reactor provides the readiness-notification mechanism behind
// muxio's dispatcher: epoll on Linux, an explicit not-supported stub
// elsewhere. Write interest is armed on demand (when a connection has a
// partial write pending) and disarmed once the writable event fires.
package reactor
