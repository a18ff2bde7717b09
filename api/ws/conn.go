package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	sendChanBuf   = 64
	writeDeadline = 10 * time.Second
	readDeadline  = 60 * time.Second
	pingInterval  = 30 * time.Second
)

// Packet is the WS message envelope shared by both directions.
type Packet struct {
	Seq     uint64          `json:"seq"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// HostConn is one connected game host.
type HostConn struct {
	ID      string
	Conn    *websocket.Conn // nil in tests that never touch the socket
	Send    chan []byte
	Done    chan struct{}
	LastSeq uint64

	closeOnce sync.Once
	logger    *zap.Logger
}

// NewHostConn wraps conn and starts its write goroutine.
func NewHostConn(conn *websocket.Conn, logger *zap.Logger) *HostConn {
	hc := newHostConn(conn, logger)
	go hc.writePump()
	return hc
}

func newHostConn(conn *websocket.Conn, logger *zap.Logger) *HostConn {
	id := uuid.NewString()
	return &HostConn{
		ID:     id,
		Conn:   conn,
		Send:   make(chan []byte, sendChanBuf),
		Done:   make(chan struct{}),
		logger: logger.With(zap.String("conn_id", id)),
	}
}

// writePump drains Send and pings the host so dead connections are noticed.
func (hc *HostConn) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	defer hc.Conn.Close()
	for {
		select {
		case data := <-hc.Send:
			_ = hc.Conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := hc.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
				hc.logger.Warn("ws write error", zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = hc.Conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := hc.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-hc.Done:
			_ = hc.Conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// Reply encodes a packet and queues it. Dropped when the queue is full or the
// connection is closed.
func (hc *HostConn) Reply(pkt *Packet) {
	data, err := json.Marshal(pkt)
	if err != nil {
		return
	}
	select {
	case <-hc.Done:
		return
	default:
	}
	select {
	case hc.Send <- data:
	case <-hc.Done:
	default:
		hc.logger.Warn("send queue full, dropping packet", zap.String("type", pkt.Type))
	}
}

// Close signals the write goroutine to shut down.
func (hc *HostConn) Close() {
	hc.closeOnce.Do(func() { close(hc.Done) })
}

// SetReadDeadline extends the read deadline.
func (hc *HostConn) SetReadDeadline() {
	_ = hc.Conn.SetReadDeadline(time.Now().Add(readDeadline))
}
