// Package timer provides the clocks used to time a collection. Monotonic reads the platform's high-resolution counter
// live, Replay is driven by a collector that learns about a pause after the fact.
package timer

import (
	"sync/atomic"
	"time"
)

// Timer measures the time elapsed since its most recent Start
type Timer interface {
	Start()
	// ElapsedMillis returns fractional milliseconds since the most recent Start. The result is never negative
	ElapsedMillis() float64
}

// Clock is a Timer which also tells the wall-clock time
type Clock interface {
	Timer
	Now() time.Time
}

var _ Clock = (*Monotonic)(nil)

// Monotonic is a Clock backed by the platform's monotonic counter. The counter backend is selected at build time
type Monotonic struct {
	start   atomic.Int64
	started atomic.Bool
}

func NewMonotonic() *Monotonic {
	return &Monotonic{}
}

func (m *Monotonic) Start() {
	m.start.Store(ticks())
	m.started.Store(true)
}

// ElapsedMillis returns 0 when Start was never called
func (m *Monotonic) ElapsedMillis() float64 {
	now := ticks()
	if !m.started.Load() {
		return 0
	}

	return clamp(ticksToMillis(now - m.start.Load()))
}

func (m *Monotonic) Now() time.Time {
	return time.Now()
}

func clamp(ms float64) float64 {
	if ms < 0 {
		return 0
	}

	return ms
}
