package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	apiError "github.com/maratig/gcpause/api/error"
	"github.com/maratig/gcpause/api/object"
	"github.com/maratig/gcpause/pkg/gcprof"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

type (
	// PauseSource provides the measurements served by the handler
	PauseSource interface {
		Latest() (object.Measurement, bool)
		Session() gcprof.Stats
		Subscribe() (<-chan object.Measurement, func())
	}

	Handler struct {
		ctx context.Context
		src PauseSource
		log *zap.Logger
	}
)

func NewHandler(ctx context.Context, src PauseSource, log *zap.Logger) (*Handler, error) {
	if ctx == nil {
		return nil, apiError.ErrNilContext
	}
	if src == nil {
		return nil, errors.New("pause source must not be nil")
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Handler{ctx: ctx, src: src, log: log}, nil
}

func (h *Handler) LatestPause(w http.ResponseWriter, r *http.Request) {
	if !strings.EqualFold(r.Method, "GET") {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("Only GET method is allowed"))
		return
	}

	m, ok := h.src.Latest()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	writeJSON(w, m)
}

func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	if !strings.EqualFold(r.Method, "GET") {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("Only GET method is allowed"))
		return
	}

	writeJSON(w, h.src.Session())
}

// PauseStream upgrades the connection to a websocket and writes every delivered measurement as a JSON text message
func (h *Handler) PauseStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// the upgrader has replied already
		h.log.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	stream, cancel := h.src.Subscribe()
	defer cancel()

	// reading detects a closed client
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-h.ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(writeWait))
			return
		case <-closed:
			return
		case m, ok := <-stream:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(m); err != nil {
				h.log.Debug("websocket write failed", zap.Error(err))
				return
			}
		}
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("json creation error; " + err.Error()))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
