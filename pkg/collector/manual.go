package collector

import (
	"sync"

	"github.com/maratig/gcpause/api/object"
	"github.com/maratig/gcpause/pkg/timer"
)

// Manual is driven by its owner. Hosts running their own collection (pools, caches, arenas) call Before and After
// around it
type Manual struct {
	hooks
	clock timer.Clock
	// mx keeps collections from overlapping
	mx sync.Mutex
}

func NewManual(opts ...Option) *Manual {
	o := newOptions(opts)

	return &Manual{clock: o.clock}
}

func (m *Manual) Clock() timer.Clock {
	return m.clock
}

func (m *Manual) Before() {
	m.fireBefore()
}

func (m *Manual) After(typ object.Type, flags object.Flags) {
	m.fireAfter(typ, flags)
}

// Collect runs fn between the prologue and the epilogue
func (m *Manual) Collect(typ object.Type, flags object.Flags, fn func()) {
	m.mx.Lock()
	defer m.mx.Unlock()

	m.fireBefore()
	if fn != nil {
		fn()
	}
	m.fireAfter(typ, flags)
}
