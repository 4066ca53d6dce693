package collector

import (
	"context"
	"runtime"
	"runtime/debug"
	"sync"

	"go.uber.org/zap"

	apiError "github.com/maratig/gcpause/api/error"
	"github.com/maratig/gcpause/api/object"
	"github.com/maratig/gcpause/pkg/timer"
)

// Forced times explicitly requested collections of the current process
type Forced struct {
	hooks
	clock        timer.Clock
	returnMemory bool
	log          *zap.Logger
	mx           sync.Mutex
}

func NewForced(opts ...Option) *Forced {
	o := newOptions(opts)

	return &Forced{clock: o.clock, returnMemory: o.returnMemory, log: o.log}
}

func (f *Forced) Clock() timer.Clock {
	return f.clock
}

// Collect runs a blocking collection between the prologue and the epilogue
func (f *Forced) Collect(ctx context.Context) error {
	if ctx == nil {
		return apiError.ErrNilContext
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	f.mx.Lock()
	defer f.mx.Unlock()

	f.fireBefore()
	if f.returnMemory {
		// FreeOSMemory forces a collection itself
		debug.FreeOSMemory()
	} else {
		runtime.GC()
	}
	f.fireAfter(object.TypeMarkSweepCompact, object.FlagForced|object.FlagSynchronous)
	f.log.Debug("forced collection done", zap.Bool("return_memory", f.returnMemory))

	return nil
}
