package gcprof

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	apiError "github.com/maratig/gcpause/api/error"
	"github.com/maratig/gcpause/api/object"
	"github.com/maratig/gcpause/pkg/collector"
	"github.com/maratig/gcpause/pkg/loop"
)

var (
	defaultProfiler *Profiler
	defaultOnce     sync.Once
)

// Default returns the process-wide session. It watches the Go runtime of the current process and delivers
// measurements on a background loop whose task errors are logged by zap's global logger
func Default() *Profiler {
	defaultOnce.Do(func() {
		log := zap.L().Named("gcprof")
		l := loop.New(loop.WithLogger(log))
		go func() {
			_ = l.Run(context.Background())
		}()

		// New fails only on nil arguments
		defaultProfiler, _ = New(collector.NewRuntime(collector.WithLogger(log)), l, WithLogger(log))
	})

	return defaultProfiler
}

// LoadProfiler loads the default session with cb
func LoadProfiler(cb Callback) error {
	if cb == nil {
		return apiError.ErrInvalidArgument
	}

	return Default().LoadProfiler(cb)
}

// LoadAny loads the default session with v, which must be a Callback or a function with the same parameters,
// returning an error or nothing. Any other value fails with ErrInvalidArgument
func LoadAny(v any) error {
	cb, err := toCallback(v)
	if err != nil {
		return err
	}

	return LoadProfiler(cb)
}

func toCallback(v any) (Callback, error) {
	switch fn := v.(type) {
	case nil:
		return nil, apiError.ErrInvalidArgument
	case Callback:
		if fn == nil {
			return nil, apiError.ErrInvalidArgument
		}
		return fn, nil
	case func(int64, float64, object.Type, object.Flags) error:
		if fn == nil {
			return nil, apiError.ErrInvalidArgument
		}
		return fn, nil
	case func(int64, float64, object.Type, object.Flags):
		if fn == nil {
			return nil, apiError.ErrInvalidArgument
		}
		return func(startTime int64, durationMillis float64, typ object.Type, flags object.Flags) error {
			fn(startTime, durationMillis, typ, flags)
			return nil
		}, nil
	default:
		return nil, fmt.Errorf("%w; got %T", apiError.ErrInvalidArgument, v)
	}
}
