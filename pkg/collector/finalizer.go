package collector

import (
	"runtime"
	"sync/atomic"
)

// finalizer calls callback after every garbage collection. The reference object is unreachable, so its finalizer
// runs after each cycle and re-arms itself. Callbacks run serially on the runtime's finalizer goroutine.
type finalizer struct {
	ref      *finalizerRef
	callback func()
	stopped  atomic.Bool
}

type finalizerRef struct {
	parent *finalizer
}

func finalizerHandler(ref *finalizerRef) {
	f := ref.parent
	if f.stopped.Load() {
		return
	}

	f.callback()
	runtime.SetFinalizer(ref, finalizerHandler)
}

func newFinalizer(callback func()) *finalizer {
	f := &finalizer{callback: callback}
	f.ref = &finalizerRef{parent: f}
	runtime.SetFinalizer(f.ref, finalizerHandler)
	// the sentinel must stay unreachable
	f.ref = nil

	return f
}

func (f *finalizer) stop() {
	f.stopped.Store(true)
}
