package ingest

import (
	"net/http"
	"time"

	"QCast/internal/history"
	"QCast/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const (
	wsReadLimit    = 1 << 20
	wsPongWait     = 60 * time.Second
	wsPingInterval = 30 * time.Second
)

// WSHandler accepts streaming observations over a WebSocket. Each text
// message is a JSON observation or an array of observations; every decoded
// observation lands in the history buffer.
type WSHandler struct {
	store    *history.Store
	log      *logger.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(store *history.Store, log *logger.Logger) *WSHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &WSHandler{
		store: store,
		log:   log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// RegisterRoutes wires the stream endpoint.
func (h *WSHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws/observations", h.Stream)
}

// Stream upgrades the connection and reads observations until the client
// disconnects. Malformed messages are acknowledged with an error frame and
// skipped.
func (h *WSHandler) Stream(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	conn.SetReadLimit(wsReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	done := make(chan struct{})
	defer close(done)
	go h.pingLoop(conn, done)

	remote := conn.RemoteAddr().String()
	h.log.Info("observation stream connected", logger.String("remote", remote))

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.log.Warn("observation stream closed unexpectedly",
					logger.String("remote", remote),
					logger.Error(err),
				)
			}
			return nil
		}

		n, err := h.ingest(data)
		if err != nil {
			h.log.Warn("observation stream: bad message",
				logger.String("remote", remote),
				logger.Error(err),
			)
			_ = conn.WriteJSON(map[string]string{"error": "invalid observation payload"})
			continue
		}
		_ = conn.WriteJSON(map[string]any{"accepted": n})
	}
}

func (h *WSHandler) ingest(data []byte) (int, error) {
	batch, err := decodeObservations(data)
	if err != nil {
		return 0, err
	}
	h.store.Append(batch...)
	return len(batch), nil
}

func (h *WSHandler) pingLoop(conn *websocket.Conn, done <-chan struct{}) {
	t := time.NewTicker(wsPingInterval)
	defer t.Stop()
	for {
		select {
		case <-done:
			return
		case <-t.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				return
			}
		}
	}
}
