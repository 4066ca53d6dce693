package collector

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/exp/trace"

	apiError "github.com/maratig/gcpause/api/error"
	"github.com/maratig/gcpause/api/object"
	"github.com/maratig/gcpause/internal/helper"
	"github.com/maratig/gcpause/pkg/timer"
)

const (
	sweepTerminationRange = "stop-the-world (GC sweep termination)"
	markTerminationRange  = "stop-the-world (GC mark termination)"
)

// Trace reports the stop-the-world pauses of the GC found in a Go execution trace. The trace may be a file or
// a live stream of another process, e.g. its /debug/pprof/trace endpoint
type Trace struct {
	hooks
	clock      *timer.Replay
	sourcePath string
	connWait   int
	log        *zap.Logger

	mx      sync.RWMutex
	err     error
	started bool
	done    chan struct{}

	// anchor maps trace time to wall time. A live trace starts close to the moment it is read, so the first event is
	// pinned to the local clock
	anchored    bool
	anchorTrace trace.Time
	anchorWall  time.Time
	// pending is the name of the stop-the-world range whose prologue has fired
	pending string
}

func NewTrace(sourcePath string, opts ...Option) (*Trace, error) {
	if sourcePath == "" {
		return nil, apiError.ErrEmptySourcePath
	}

	o := newOptions(opts)

	return &Trace{
		clock:      timer.NewReplay(),
		sourcePath: sourcePath,
		connWait:   o.endpointConnectionWait,
		log:        o.log.With(zap.String("source_path", sourcePath)),
		done:       make(chan struct{}),
	}, nil
}

func (t *Trace) Clock() timer.Clock {
	return t.clock
}

func (t *Trace) IsInProgress(sourcePath string) bool {
	return t.sourcePath == sourcePath
}

// Err returns the error which stopped reading, nil when the trace ended normally or is still being read
func (t *Trace) Err() error {
	t.mx.RLock()
	defer t.mx.RUnlock()

	return t.err
}

// Done is closed when reading stops
func (t *Trace) Done() <-chan struct{} {
	return t.done
}

// Run opens the source and reads it on a new goroutine until the trace ends or ctx is done. A trace is read once
func (t *Trace) Run(ctx context.Context) error {
	if ctx == nil {
		return apiError.ErrNilContext
	}

	t.mx.Lock()
	if t.started {
		t.mx.Unlock()
		return apiError.ErrTraceAlreadyRunning
	}
	t.started = true
	t.mx.Unlock()

	r, closer, err := helper.OpenTrace(ctx, t.sourcePath, time.Duration(t.connWait)*time.Second)
	if err != nil {
		err = fmt.Errorf("failed to create trace reader; %w", err)
		t.mx.Lock()
		t.err = err
		t.mx.Unlock()
		close(t.done)
		return err
	}

	go func() {
		defer close(t.done)
		defer closer.Close()

		if err := t.read(ctx, r); err != nil {
			t.mx.Lock()
			t.err = err
			t.mx.Unlock()
			t.log.Error("trace reading stopped", zap.Error(err))
			return
		}
		t.log.Debug("trace reading finished")
	}()

	return nil
}

func (t *Trace) read(ctx context.Context, r *trace.Reader) error {
	for {
		if ctx.Err() != nil {
			return nil
		}

		event, err := r.ReadEvent()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("failed to read event; %w", err)
		}

		t.processEvent(&event)
	}
}

func (t *Trace) processEvent(ev *trace.Event) {
	if !t.anchored {
		t.anchor(ev.Time(), time.Now())
	}

	switch ev.Kind() {
	case trace.EventRangeBegin:
		name := ev.Range().Name
		if _, ok := pauseType(name); !ok || t.pending != "" {
			return
		}
		t.pending = name
		t.setClock(ev.Time())
		t.fireBefore()
	case trace.EventRangeEnd:
		name := ev.Range().Name
		if name != t.pending {
			return
		}
		typ, _ := pauseType(name)
		t.pending = ""
		t.setClock(ev.Time())
		t.fireAfter(typ, object.FlagStopTheWorld|object.FlagReplayed)
	default:
	}
}

func (t *Trace) anchor(at trace.Time, wall time.Time) {
	t.anchored = true
	t.anchorTrace = at
	t.anchorWall = wall
}

func (t *Trace) setClock(at trace.Time) {
	t.clock.Set(t.anchorWall.Add(at.Sub(t.anchorTrace)), int64(at))
}

func pauseType(rangeName string) (object.Type, bool) {
	switch rangeName {
	case sweepTerminationRange:
		return object.TypeSweepTermination, true
	case markTerminationRange:
		return object.TypeMarkTermination, true
	default:
		return 0, false
	}
}
