package wshandler

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/gofiber/contrib/websocket"

	"github.com/kdudkov/scanrelay/internal/relay"
)

// JSONWsHandler streams relay messages to a dashboard websocket as JSON.
type JSONWsHandler struct {
	log    *slog.Logger
	name   string
	ws     *websocket.Conn
	queue  *relay.Queue
	active int32
}

func NewHandler(log *slog.Logger, name string, ws *websocket.Conn, queueSize int) *JSONWsHandler {
	return &JSONWsHandler{
		log:    log.With("client", name),
		name:   name,
		ws:     ws,
		queue:  relay.NewQueue(name, queueSize),
		active: 1,
	}
}

// Subscriber is what gets registered in the relay.
func (w *JSONWsHandler) Subscriber() relay.Subscriber {
	return w.queue
}

func (w *JSONWsHandler) Name() string {
	return w.name
}

func (w *JSONWsHandler) IsActive() bool {
	return w != nil && atomic.LoadInt32(&w.active) == 1
}

func (w *JSONWsHandler) stop() {
	if atomic.CompareAndSwapInt32(&w.active, 1, 0) {
		w.queue.Close()
		w.ws.Close()
	}
}

func (w *JSONWsHandler) writer() {
	defer w.stop()

	for item := range w.queue.C() {
		if !w.IsActive() {
			return
		}

		if item == nil {
			continue
		}

		if err := w.ws.WriteJSON(item); err != nil {
			w.log.Warn("error on write", slog.Any("error", err))

			return
		}
	}

	if w.queue.Overflowed() {
		w.log.Warn("client is too slow, disconnecting")
	}
}

func (w *JSONWsHandler) reader() {
	defer w.stop()

	for {
		if _, _, err := w.ws.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				w.log.Error("error on read", slog.Any("error", err))
			}

			return
		}
	}
}

func (w *JSONWsHandler) closehandler(code int, text string) error {
	w.log.Info(fmt.Sprintf("closed with code %d, msg %s", code, text))
	w.stop()

	return nil
}

// Listen blocks until the client goes away or the queue is closed.
func (w *JSONWsHandler) Listen() {
	w.log.Debug("ws start")
	w.ws.SetCloseHandler(w.closehandler)

	go w.writer()
	w.reader()
	w.log.Debug("ws stop")
}
