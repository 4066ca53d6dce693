package collector

import (
	"runtime"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/maratig/gcpause/api/object"
	"github.com/maratig/gcpause/pkg/timer"
)

// pauseRing is the size of runtime.MemStats pause history
const pauseRing = uint32(len(runtime.MemStats{}.PauseNs))

// Runtime reports the collections of the current process. The runtime has no hook that runs before a collection, so
// every cycle is replayed after it ended: the clock is moved to the start of the stop-the-world pause, the prologue
// fires, the clock is moved to its end and the epilogue fires
type Runtime struct {
	hooks
	clock *timer.Replay
	log   *zap.Logger

	mx         sync.Mutex
	sentinel   *finalizer
	armed      bool
	stopped    bool
	lastNumGC  uint32
	lastForced uint32
	memStats   runtime.MemStats
}

func NewRuntime(opts ...Option) *Runtime {
	o := newOptions(opts)

	return &Runtime{clock: timer.NewReplay(), log: o.log}
}

func (r *Runtime) Clock() timer.Clock {
	return r.clock
}

// AddEpilogueCallback registers fn and starts watching the runtime. Watching starts with the epilogue so a cycle
// never reaches a prologue whose epilogue is not registered yet; register the prologue first
func (r *Runtime) AddEpilogueCallback(fn func(object.Type, object.Flags)) {
	r.hooks.AddEpilogueCallback(fn)
	r.arm()
}

// Stop stops watching. A stopped collector cannot be restarted
func (r *Runtime) Stop() {
	r.mx.Lock()
	defer r.mx.Unlock()

	r.stopped = true
	if r.sentinel != nil {
		r.sentinel.stop()
		r.sentinel = nil
	}
}

func (r *Runtime) arm() {
	r.mx.Lock()
	defer r.mx.Unlock()

	if r.armed || r.stopped {
		return
	}

	// cycles completed before arming are not reported
	runtime.ReadMemStats(&r.memStats)
	r.lastNumGC = r.memStats.NumGC
	r.lastForced = r.memStats.NumForcedGC
	r.sentinel = newFinalizer(r.collect)
	r.armed = true
	r.log.Debug("runtime collector armed", zap.Uint32("num_gc", r.lastNumGC))
}

// collect replays every cycle completed since the previous call
func (r *Runtime) collect() {
	r.mx.Lock()
	defer r.mx.Unlock()

	if r.stopped {
		return
	}

	runtime.ReadMemStats(&r.memStats)
	numGC := r.memStats.NumGC
	if numGC == r.lastNumGC {
		return
	}

	cycles := numGC - r.lastNumGC
	if cycles > pauseRing {
		r.log.Warn("gc cycles lost from pause history", zap.Uint32("lost", cycles-pauseRing))
		cycles = pauseRing
	}
	forced := r.memStats.NumForcedGC != r.lastForced

	for n := numGC - cycles + 1; n != numGC+1; n++ {
		idx := (n + pauseRing - 1) % pauseRing
		end := int64(r.memStats.PauseEnd[idx])
		begin := end - int64(r.memStats.PauseNs[idx])

		flags := object.FlagStopTheWorld | object.FlagReplayed
		if forced && n == numGC {
			flags |= object.FlagForced
		}

		r.clock.Set(time.Unix(0, begin), begin)
		r.fireBefore()
		r.clock.Set(time.Unix(0, end), end)
		r.fireAfter(object.TypeMarkSweepCompact, flags)
	}

	r.lastNumGC = numGC
	r.lastForced = r.memStats.NumForcedGC
}
