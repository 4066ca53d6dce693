package error

import "errors"

var (
	ErrNilContext          = errors.New("context must not be nil")
	ErrNilApp              = errors.New("application must not be nil")
	ErrNilCollector        = errors.New("collector must not be nil")
	ErrNilRunner           = errors.New("task runner must not be nil")
	ErrEmptySourcePath     = errors.New("source path must not be empty")
	ErrUnknownSource       = errors.New("unknown collector source")
	ErrTraceAlreadyRunning = errors.New("trace with given sourcePath is running already")
	ErrLoopRunning         = errors.New("task loop is running already")
	ErrAppRunning          = errors.New("application is running already")
	ErrInvalidArgument     = errors.New("must provide a callback function to the profiler")
	ErrAlreadyLoaded       = errors.New("profiler is loaded already")
	ErrProfilerClosed      = errors.New("profiler is closed")
	ErrContractViolation   = errors.New("callback sink invoked while unset")
	ErrCallback            = errors.New("gc pause callback failed")
)
