// control/config.go
// Author: momentics <momentics@gmail.com>
//
// Immutable per-run configuration for muxio dispatchers and acceptors.

package control

import "time"

// Config holds parameters immutable per run.
type Config struct {
	ReadBufferSize    int           // Size of per-fill read buffers
	IdleTimeout       time.Duration // Idle threshold before GoAway is triggered
	IdleSweepInterval time.Duration // How often connections are checked for idleness
	PollTimeoutMs     int           // Reactor poll timeout per cycle
	ListenAddr        string        // TCP address for the acceptor
	EnableMetrics     bool          // Whether to publish metrics snapshots
}

// DefaultConfig returns default configuration values. These sane defaults
// support typical use cases without tuning.
func DefaultConfig() *Config {
	return &Config{
		ReadBufferSize:    4096,             // One page per fill cycle
		IdleTimeout:       30 * time.Second, // GoAway after 30s of silence
		IdleSweepInterval: time.Second,      // Check idleness once per second
		PollTimeoutMs:     100,              // 100ms poll granularity
		ListenAddr:        ":9010",          // Listen on port 9010
		EnableMetrics:     true,             // Publish metrics by default
	}
}
