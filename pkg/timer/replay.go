package timer

import (
	"sync"
	"time"
)

var _ Clock = (*Replay)(nil)

// Replay is a Clock whose readings are supplied by the caller. Collectors which learn about a pause only after it
// ended set the reading to the pause boundaries before firing their hooks.
type Replay struct {
	mx      sync.Mutex
	wall    time.Time
	mono    int64
	start   int64
	started bool
}

func NewReplay() *Replay {
	return &Replay{}
}

// Set moves the clock. mono is a monotonic reading in nanoseconds, its origin is irrelevant
func (r *Replay) Set(wall time.Time, mono int64) {
	r.mx.Lock()
	defer r.mx.Unlock()

	r.wall = wall
	r.mono = mono
}

func (r *Replay) Start() {
	r.mx.Lock()
	defer r.mx.Unlock()

	r.start = r.mono
	r.started = true
}

func (r *Replay) ElapsedMillis() float64 {
	r.mx.Lock()
	defer r.mx.Unlock()

	if !r.started {
		return 0
	}

	return clamp(float64(r.mono-r.start) / float64(time.Millisecond))
}

func (r *Replay) Now() time.Time {
	r.mx.Lock()
	defer r.mx.Unlock()

	return r.wall
}
