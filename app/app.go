package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	apiError "github.com/maratig/gcpause/api/error"
	"github.com/maratig/gcpause/api/object"
	"github.com/maratig/gcpause/pkg/collector"
	extApp "github.com/maratig/gcpause/pkg/ext_app"
	"github.com/maratig/gcpause/pkg/gcprof"
	"github.com/maratig/gcpause/pkg/loop"
)

// subscriberBuffer is how many measurements a slow stream subscriber may lag behind before measurements are skipped
const subscriberBuffer = 64

var (
	appInstance *App
	appErr      error
	once        sync.Once
)

type (
	App struct {
		cfg       Config
		log       *zap.Logger
		loop      *loop.Loop
		collector gcprof.Collector
		profiler  *gcprof.Profiler

		mx          sync.RWMutex
		running     bool
		latest      *object.Measurement
		nextSubID   int
		subscribers map[int]chan object.Measurement
	}

	// runnable is a collector that has to be started to observe anything
	runnable interface {
		Run(ctx context.Context) error
		Done() <-chan struct{}
		Err() error
	}
)

// NewApp returns the application instance. The first call creates it, later calls return the same instance
func NewApp(cfg Config, log *zap.Logger) (*App, error) {
	once.Do(func() {
		appInstance, appErr = newApp(cfg, log)
	})

	return appInstance, appErr
}

func newApp(cfg Config, log *zap.Logger) (*App, error) {
	cfg = initConfig(cfg)
	if log == nil {
		log = zap.NewNop()
	}

	a := &App{
		cfg:         cfg,
		log:         log,
		subscribers: make(map[int]chan object.Measurement),
	}
	a.loop = loop.New(loop.WithLogger(log.Named("loop")))

	c, err := newCollector(cfg, log.Named("collector"))
	if err != nil {
		return nil, err
	}
	a.collector = c

	a.profiler, err = gcprof.New(c, a.loop, gcprof.WithLogger(log.Named("gcprof")))
	if err != nil {
		return nil, fmt.Errorf("failed to create profiler; %w", err)
	}

	return a, nil
}

func newCollector(cfg Config, log *zap.Logger) (gcprof.Collector, error) {
	switch cfg.Source {
	case SourceRuntime:
		return collector.NewRuntime(collector.WithLogger(log)), nil
	case SourceTrace:
		c, err := collector.NewTrace(cfg.SourcePath, collector.WithLogger(log))
		if err != nil {
			return nil, fmt.Errorf("failed to create trace collector; %w", err)
		}
		return c, nil
	default:
		return nil, fmt.Errorf("%w; %q", apiError.ErrUnknownSource, cfg.Source)
	}
}

func (a *App) GetConfig() Config {
	return a.cfg
}

// Run profiles collections until ctx is done or the trace source ends. It returns nil on a normal stop
func (a *App) Run(ctx context.Context) error {
	if ctx == nil {
		return apiError.ErrNilContext
	}

	a.mx.Lock()
	if a.running {
		a.mx.Unlock()
		return apiError.ErrAppRunning
	}
	a.running = true
	a.mx.Unlock()

	if err := a.profiler.LoadProfiler(a.onMeasurement); err != nil {
		return fmt.Errorf("failed to load profiler; %w", err)
	}
	defer a.profiler.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.loop.Run(gCtx)
	})

	if r, ok := a.collector.(runnable); ok {
		if err := r.Run(gCtx); err != nil {
			cancel()
			_ = g.Wait()
			return fmt.Errorf("failed to run collector; %w", err)
		}
		g.Go(func() error {
			select {
			case <-gCtx.Done():
				return nil
			case <-r.Done():
			}
			if err := r.Err(); err != nil {
				return err
			}
			// the trace ended, stop the rest
			return errStopped
		})
	}

	if a.cfg.Workload {
		g.Go(func() error {
			extApp.RunWorkload(gCtx, workloadInterval)
			return nil
		})
	}

	a.log.Info("gc pause profiling started", zap.String("source", a.cfg.Source),
		zap.String("session", a.profiler.Stats().ID))
	err := g.Wait()
	// deliver measurements completed before the stop
	a.loop.RunPending()
	a.log.Info("gc pause profiling stopped", zap.Uint64("delivered", a.profiler.Stats().Delivered))

	if errors.Is(err, errStopped) || errors.Is(err, context.Canceled) {
		return nil
	}

	return err
}

var errStopped = errors.New("source ended")

// onMeasurement is the profiler callback. It runs on the app's loop
func (a *App) onMeasurement(startTime int64, durationMillis float64, typ object.Type, flags object.Flags) error {
	m := object.Measurement{StartTime: startTime, DurationMillis: durationMillis, Type: typ, Flags: flags}
	a.log.Info("gc pause", zap.Int64("start_time", startTime), zap.Float64("duration_ms", durationMillis),
		zap.Stringer("type", typ), zap.Stringer("flags", flags))

	a.mx.Lock()
	defer a.mx.Unlock()

	a.latest = &m
	for id, ch := range a.subscribers {
		select {
		case ch <- m:
		default:
			a.log.Warn("stream subscriber is lagging, measurement skipped", zap.Int("subscriber", id))
		}
	}

	return nil
}

// Latest returns the most recently delivered measurement
func (a *App) Latest() (object.Measurement, bool) {
	a.mx.RLock()
	defer a.mx.RUnlock()

	if a.latest == nil {
		return object.Measurement{}, false
	}

	return *a.latest, true
}

func (a *App) Session() gcprof.Stats {
	return a.profiler.Stats()
}

// Subscribe returns a channel receiving every delivered measurement and a function cancelling the subscription
func (a *App) Subscribe() (<-chan object.Measurement, func()) {
	ch := make(chan object.Measurement, subscriberBuffer)

	a.mx.Lock()
	id := a.nextSubID
	a.nextSubID++
	a.subscribers[id] = ch
	a.mx.Unlock()

	var cancelOnce sync.Once
	return ch, func() {
		cancelOnce.Do(func() {
			a.mx.Lock()
			delete(a.subscribers, id)
			a.mx.Unlock()
			close(ch)
		})
	}
}
