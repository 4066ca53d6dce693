//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

package timer

import (
	"sync/atomic"
	"time"

	"golang.org/x/sys/unix"
)

var (
	clockGettime = unix.ClockGettime
	// lastTicks is the latest good reading. A failed read repeats it so every reading shares CLOCK_MONOTONIC's origin
	lastTicks atomic.Int64
)

// ticks returns CLOCK_MONOTONIC in nanoseconds
func ticks() int64 {
	var ts unix.Timespec
	if err := clockGettime(unix.CLOCK_MONOTONIC, &ts); err != nil {
		return lastTicks.Load()
	}

	now := ts.Nano()
	lastTicks.Store(now)

	return now
}

func ticksToMillis(d int64) float64 {
	return float64(d) / float64(time.Millisecond)
}
