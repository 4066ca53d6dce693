// Package loop is a serialized task runner. Tasks posted from any goroutine are executed one at a time, in post
// order, on the goroutine which runs the loop.
package loop

import (
	"context"
	"sync"

	"go.uber.org/zap"

	apiError "github.com/maratig/gcpause/api/error"
)

type (
	Loop struct {
		mx      sync.Mutex
		tasks   []func() error
		wake    chan struct{}
		running bool
		// runMx serializes task execution between Run and RunPending
		runMx   sync.Mutex
		onError func(error)
		log     *zap.Logger
	}

	Option func(l *Loop)
)

// WithErrorHandler sets the function receiving errors returned by tasks. It is called on the loop goroutine
func WithErrorHandler(fn func(error)) Option {
	return func(l *Loop) {
		if fn != nil {
			l.onError = fn
		}
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(l *Loop) {
		if log != nil {
			l.log = log
		}
	}
}

func New(opts ...Option) *Loop {
	l := &Loop{
		wake: make(chan struct{}, 1),
		log:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.onError == nil {
		l.onError = func(err error) {
			l.log.Error("task failed", zap.Error(err))
		}
	}

	return l
}

// Post queues the task. It never blocks and is safe to call from any goroutine
func (l *Loop) Post(task func() error) {
	if task == nil {
		return
	}

	l.mx.Lock()
	l.tasks = append(l.tasks, task)
	l.mx.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Len returns the number of queued tasks
func (l *Loop) Len() int {
	l.mx.Lock()
	defer l.mx.Unlock()

	return len(l.tasks)
}

// Run executes tasks until ctx is done. Only one Run may be active at a time
func (l *Loop) Run(ctx context.Context) error {
	if ctx == nil {
		return apiError.ErrNilContext
	}

	l.mx.Lock()
	if l.running {
		l.mx.Unlock()
		return apiError.ErrLoopRunning
	}
	l.running = true
	l.mx.Unlock()

	defer func() {
		l.mx.Lock()
		l.running = false
		l.mx.Unlock()
	}()

	l.log.Debug("task loop started")
	for {
		l.RunPending()

		select {
		case <-ctx.Done():
			l.log.Debug("task loop stopped", zap.Int("pending", l.Len()))
			return ctx.Err()
		case <-l.wake:
		}
	}
}

// RunPending executes the tasks queued at the moment of the call on the calling goroutine and returns how many ran.
// Tasks posted meanwhile wait for the next call. A task is taken off the queue only when it is about to run, so
// a panicking task leaves the rest queued for a host which recovers and calls RunPending again
func (l *Loop) RunPending() int {
	l.runMx.Lock()
	defer l.runMx.Unlock()

	l.mx.Lock()
	n := len(l.tasks)
	l.mx.Unlock()

	for i := 0; i < n; i++ {
		l.mx.Lock()
		task := l.tasks[0]
		l.tasks[0] = nil
		l.tasks = l.tasks[1:]
		l.mx.Unlock()

		if err := task(); err != nil {
			l.onError(err)
		}
	}

	return n
}
