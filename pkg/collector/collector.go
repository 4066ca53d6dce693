// Package collector adapts sources of garbage collections to the prologue/epilogue hook contract of gcprof.
//
// Every collector fires the prologue and then the epilogue for the same collection and never overlaps two
// collections. Hooks are called on whatever goroutine observes the collection, so they must not block.
package collector

import (
	"sync"

	"go.uber.org/zap"

	"github.com/maratig/gcpause/api/object"
	"github.com/maratig/gcpause/pkg/timer"
)

type (
	// hooks keeps registered callbacks and calls them in registration order
	hooks struct {
		mx       sync.RWMutex
		prologue []func()
		epilogue []func(object.Type, object.Flags)
	}

	options struct {
		clock                  timer.Clock
		log                    *zap.Logger
		returnMemory           bool
		endpointConnectionWait int
	}

	Option func(o *options)
)

const defaultEndpointConnectionWait = 1800

// WithClock replaces the clock of Manual and Forced collectors
func WithClock(clock timer.Clock) Option {
	return func(o *options) {
		if clock != nil {
			o.clock = clock
		}
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}

// WithReturnMemory makes the Forced collector return freed memory to the OS as part of the collection
func WithReturnMemory() Option {
	return func(o *options) {
		o.returnMemory = true
	}
}

// WithEndpointConnectionWait sets how many seconds the Trace collector keeps retrying an HTTP source which answers
// with 5xx
func WithEndpointConnectionWait(wait int) Option {
	return func(o *options) {
		if wait > 0 {
			o.endpointConnectionWait = wait
		}
	}
}

func newOptions(opts []Option) options {
	o := options{
		log:                    zap.NewNop(),
		endpointConnectionWait: defaultEndpointConnectionWait,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.clock == nil {
		o.clock = timer.NewMonotonic()
	}

	return o
}

func (h *hooks) AddPrologueCallback(fn func()) {
	if fn == nil {
		return
	}

	h.mx.Lock()
	h.prologue = append(h.prologue, fn)
	h.mx.Unlock()
}

func (h *hooks) AddEpilogueCallback(fn func(object.Type, object.Flags)) {
	if fn == nil {
		return
	}

	h.mx.Lock()
	h.epilogue = append(h.epilogue, fn)
	h.mx.Unlock()
}

func (h *hooks) fireBefore() {
	h.mx.RLock()
	fns := h.prologue
	h.mx.RUnlock()

	for _, fn := range fns {
		fn()
	}
}

func (h *hooks) fireAfter(typ object.Type, flags object.Flags) {
	h.mx.RLock()
	fns := h.epilogue
	h.mx.RUnlock()

	for _, fn := range fns {
		fn(typ, flags)
	}
}
