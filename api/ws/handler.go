package ws

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handler is the Gin handler for GET /ws/host, the connection a game host
// uses to stream hover and item-operation events.
type Handler struct {
	router   *Router
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

// NewHandler creates a new WebSocket Handler. An empty allowedOrigins
// permits every origin.
func NewHandler(router *Router, allowedOrigins []string, logger *zap.Logger) *Handler {
	h := &Handler{router: router, logger: logger}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, o := range allowedOrigins {
				if o == origin {
					return true
				}
			}
			return false
		},
	}
	return h
}

// ServeWS upgrades the request and serves the connection until it closes.
func (h *Handler) ServeWS(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	hc := NewHostConn(conn, h.logger)
	hc.logger.Info("host connected", zap.String("remote", conn.RemoteAddr().String()))
	h.readPump(hc)
}

func (h *Handler) readPump(hc *HostConn) {
	defer func() {
		hc.Close()
		hc.logger.Info("host disconnected")
	}()

	hc.SetReadDeadline()
	hc.Conn.SetPongHandler(func(string) error {
		hc.SetReadDeadline()
		return nil
	})

	for {
		_, raw, err := hc.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseNormalClosure,
				websocket.CloseNoStatusReceived) {
				hc.logger.Warn("ws unexpected close", zap.Error(err))
			}
			return
		}
		hc.SetReadDeadline()
		h.router.Dispatch(hc, raw)
	}
}
