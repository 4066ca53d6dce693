//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

package timer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/sys/unix"
)

func TestTicksRepeatLastReadingOnFailure(t *testing.T) {
	t.Cleanup(func() { clockGettime = unix.ClockGettime })

	good := ticks()
	clockGettime = func(int32, *unix.Timespec) error { return unix.EINVAL }
	failed := ticks()
	assert.Equal(t, good, failed)

	// a Start during the failure and an end after it still measure on one clock
	m := NewMonotonic()
	m.Start()
	clockGettime = unix.ClockGettime
	time.Sleep(time.Millisecond)
	elapsed := m.ElapsedMillis()
	assert.GreaterOrEqual(t, elapsed, 1.0)
	assert.Less(t, elapsed, float64(time.Minute/time.Millisecond))
}
