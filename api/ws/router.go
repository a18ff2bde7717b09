package ws

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	mw "github.com/kasuganosora/stashcount/middleware"
	"go.uber.org/zap"
)

// HandlerFunc processes a decoded packet payload.
type HandlerFunc func(ctx context.Context, hc *HostConn, pkt *Packet) error

// Router dispatches incoming packets by type.
type Router struct {
	handlers map[string]HandlerFunc
	logger   *zap.Logger
}

// NewRouter creates a new Router.
func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		handlers: make(map[string]HandlerFunc),
		logger:   logger,
	}
}

// On registers fn for msgType.
func (r *Router) On(msgType string, fn HandlerFunc) {
	r.handlers[msgType] = fn
}

// Dispatch decodes raw, rejects replayed sequence numbers and invokes the
// handler for the packet type. Handler errors are reported back to the host
// as an "error" packet.
func (r *Router) Dispatch(hc *HostConn, raw []byte) {
	var pkt Packet
	if err := json.Unmarshal(raw, &pkt); err != nil {
		r.logger.Warn("malformed packet", zap.String("conn_id", hc.ID), zap.Error(err))
		return
	}

	// Seq == 0 means the host does not number its packets.
	if pkt.Seq != 0 && pkt.Seq <= hc.LastSeq {
		r.logger.Warn("replayed or out-of-order packet",
			zap.String("conn_id", hc.ID),
			zap.Uint64("seq", pkt.Seq),
			zap.Uint64("last_seq", hc.LastSeq))
		return
	}
	if pkt.Seq != 0 {
		hc.LastSeq = pkt.Seq
	}

	fn, ok := r.handlers[pkt.Type]
	if !ok {
		r.logger.Debug("unhandled message type", zap.String("type", pkt.Type))
		hc.Reply(errorPacket(pkt.Seq, "unknown type "+pkt.Type))
		return
	}

	traceID := uuid.NewString()
	ctx := mw.WithTraceID(context.Background(), traceID)
	if err := fn(ctx, hc, &pkt); err != nil {
		r.logger.Error("handler error",
			zap.String("type", pkt.Type),
			zap.String("conn_id", hc.ID),
			zap.String("trace_id", traceID),
			zap.Error(err))
		hc.Reply(errorPacket(pkt.Seq, err.Error()))
	}
}

func errorPacket(seq uint64, msg string) *Packet {
	payload, _ := json.Marshal(map[string]string{"error": msg})
	return &Packet{Seq: seq, Type: "error", Payload: payload}
}
