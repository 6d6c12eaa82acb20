// File: dispatch/idle.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package dispatch

import "time"

func newSweepTicker(interval time.Duration) *time.Ticker {
	if interval <= 0 {
		interval = time.Second
	}
	return time.NewTicker(interval)
}
