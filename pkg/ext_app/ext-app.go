package ext_app

import (
	"context"
	"errors"
	"net"
	"net/http"
	_ "net/http/pprof"
	"time"

	"go.uber.org/zap"

	apiError "github.com/maratig/gcpause/api/error"
)

const (
	batchSize     = 10000
	allocInterval = 10 * time.Millisecond
	batchPause    = time.Second
)

// RunExternalApp runs a test application which keeps the garbage collector busy. "addr" can be used by clients for
// collecting pprof profiles and traces, e.g. as a source of the trace collector. The app stops when ctx is done
func RunExternalApp(ctx context.Context, addr string, log *zap.Logger) (net.Addr, error) {
	if ctx == nil {
		return nil, apiError.ErrNilContext
	}
	if addr == "" {
		return nil, errors.New("addr must be not empty")
	}
	if log == nil {
		log = zap.NewNop()
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	srv := &http.Server{
		Handler:           http.DefaultServeMux, // handles pprof as well
		ReadHeaderTimeout: 15 * time.Second,
	}
	go func() {
		if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			log.Error("external app server stopped", zap.Error(err))
		}
	}()
	go RunWorkload(ctx, allocInterval)

	go func() {
		<-ctx.Done()
		if err := srv.Shutdown(context.Background()); err != nil {
			log.Error("failed to shutdown external app server", zap.Error(err))
		}
	}()

	return ln.Addr(), nil
}

// RunWorkload allocates an int slice element by element, pausing for interval between appends, and throws it away
// once it is full. It blocks until ctx is done
func RunWorkload(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	a := make([]int, 0, batchSize)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		a = append(a, len(a))
		if len(a) < cap(a) {
			continue
		}

		a = make([]int, 0, batchSize)
		select {
		case <-ctx.Done():
			return
		case <-time.After(batchPause):
		}
	}
}
