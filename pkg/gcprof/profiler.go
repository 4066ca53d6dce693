package gcprof

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apiError "github.com/maratig/gcpause/api/error"
	"github.com/maratig/gcpause/api/object"
	"github.com/maratig/gcpause/pkg/timer"
)

type (
	// Collector is the host collector the profiler hooks into
	Collector interface {
		AddPrologueCallback(fn func())
		AddEpilogueCallback(fn func(object.Type, object.Flags))
		// Clock times the collections reported by the collector
		Clock() timer.Clock
	}

	// Runner runs posted tasks one at a time, in post order
	Runner interface {
		Post(task func() error)
	}

	// Callback receives one completed measurement
	Callback func(startTime int64, durationMillis float64, collectorType object.Type, collectorFlags object.Flags) error

	Option func(p *Profiler)

	// Stats describes a profiling session
	Stats struct {
		ID string `json:"id"`
		// Delivered is the number of callback invocations
		Delivered uint64 `json:"delivered"`
		// Dropped counts measurements replaced by a prologue that arrived before their epilogue
		Dropped uint64 `json:"dropped"`
		// Ignored counts epilogues without a preceding prologue
		Ignored uint64 `json:"ignored"`
	}

	// Profiler is a profiling session. It owns the callback sink and the single in-flight measurement
	Profiler struct {
		id        uuid.UUID
		collector Collector
		clock     timer.Clock
		queue     *dispatchQueue
		log       *zap.Logger

		mx       sync.Mutex
		loaded   bool
		closed   bool
		callback Callback
		inflight *object.Measurement

		delivered atomic.Uint64
		dropped   atomic.Uint64
		ignored   atomic.Uint64
	}
)

func WithLogger(log *zap.Logger) Option {
	return func(p *Profiler) {
		if log != nil {
			p.log = log
		}
	}
}

// New creates a session over the collector. Measurements are delivered through runner
func New(collector Collector, runner Runner, opts ...Option) (*Profiler, error) {
	if collector == nil {
		return nil, apiError.ErrNilCollector
	}
	if runner == nil {
		return nil, apiError.ErrNilRunner
	}

	p := &Profiler{
		id:        uuid.New(),
		collector: collector,
		clock:     collector.Clock(),
		log:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.log = p.log.With(zap.String("session", p.id.String()))
	p.queue = newDispatchQueue(runner, p.deliver)

	return p, nil
}

// LoadProfiler stores cb as the session's callback and registers the hooks with the collector. A session is loaded
// once: later calls return ErrAlreadyLoaded and keep the first callback
func (p *Profiler) LoadProfiler(cb Callback) error {
	if cb == nil {
		return apiError.ErrInvalidArgument
	}

	p.mx.Lock()
	if p.closed {
		p.mx.Unlock()
		return apiError.ErrProfilerClosed
	}
	if p.loaded {
		p.mx.Unlock()
		return apiError.ErrAlreadyLoaded
	}
	p.callback = cb
	p.loaded = true
	p.mx.Unlock()

	p.collector.AddPrologueCallback(p.before)
	p.collector.AddEpilogueCallback(p.after)
	p.log.Info("gc profiler loaded")

	return nil
}

// Close detaches the session: hooks fired afterwards are ignored and a collector with a Stop method is stopped.
// Measurements already posted are still delivered
func (p *Profiler) Close() {
	p.mx.Lock()
	if p.closed {
		p.mx.Unlock()
		return
	}
	p.closed = true
	p.inflight = nil
	p.mx.Unlock()

	if s, ok := p.collector.(interface{ Stop() }); ok {
		s.Stop()
	}
	p.log.Info("gc profiler closed", zap.Uint64("delivered", p.delivered.Load()))
}

func (p *Profiler) Stats() Stats {
	return Stats{
		ID:        p.id.String(),
		Delivered: p.delivered.Load(),
		Dropped:   p.dropped.Load(),
		Ignored:   p.ignored.Load(),
	}
}

func (p *Profiler) sink() Callback {
	p.mx.Lock()
	defer p.mx.Unlock()

	return p.callback
}

// deliver is the completion of a dispatched measurement. It runs on the runner
func (p *Profiler) deliver(startTime int64, durationMillis float64, typ object.Type, flags object.Flags) error {
	cb := p.sink()
	if cb == nil {
		panic(fmt.Errorf("%w; session %s", apiError.ErrContractViolation, p.id))
	}

	p.delivered.Add(1)
	if err := cb(startTime, durationMillis, typ, flags); err != nil {
		return fmt.Errorf("%w; %w", apiError.ErrCallback, err)
	}

	return nil
}
