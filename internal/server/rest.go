package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/pprof"
	"strconv"
	"time"

	"go.uber.org/zap"

	apiError "github.com/maratig/gcpause/api/error"
	"github.com/maratig/gcpause/app"
)

// StartRestServer serves the application's measurements on the configured port until Shutdown is called
func StartRestServer(ctx context.Context, application *app.App, log *zap.Logger) (*http.Server, error) {
	if ctx == nil {
		return nil, apiError.ErrNilContext
	}
	if application == nil {
		return nil, apiError.ErrNilApp
	}
	if log == nil {
		log = zap.NewNop()
	}

	h, err := NewHandler(ctx, application, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create handler; %w", err)
	}

	cfg := application.GetConfig()
	srv := &http.Server{
		Addr:              "127.0.0.1:" + strconv.Itoa(cfg.Port),
		Handler:           NewRouter(h),
		ReadHeaderTimeout: 15 * time.Second,
	}

	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen; %w", err)
	}

	go func() {
		if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			log.Error("failed to serve", zap.Error(err))
		}
	}()
	log.Info("rest server started", zap.String("addr", srv.Addr))

	return srv, nil
}

func NewRouter(h *Handler) *http.ServeMux {
	router := http.NewServeMux()
	router.HandleFunc("/gc-pauses/latest", h.LatestPause)
	router.HandleFunc("/gc-pauses/session", h.Session)
	router.HandleFunc("/gc-pauses/stream", h.PauseStream)
	// Add a trace so one gcpause can watch another
	router.HandleFunc("/debug/pprof/trace", pprof.Trace)

	return router
}
