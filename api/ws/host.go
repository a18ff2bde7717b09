package ws

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/kasuganosora/stashcount/cache"
	"github.com/kasuganosora/stashcount/game/ownership"
	"github.com/kasuganosora/stashcount/model"
	"go.uber.org/zap"
)

// Packet types a host may send.
const (
	TypeHover  = "hover"   // payload: ContainerNode, or null when the pointer left the item
	TypeItemOp = "item_op" // payload ignored
	TypeAck    = "ack"
)

// HostHandlers forwards host packets onto the event bus, where the
// ownership bridge picks them up in arrival order.
type HostHandlers struct {
	ps     cache.PubSub
	logger *zap.Logger
}

// NewHostHandlers creates HostHandlers.
func NewHostHandlers(ps cache.PubSub, logger *zap.Logger) *HostHandlers {
	return &HostHandlers{ps: ps, logger: logger}
}

// RegisterHandlers registers all host packet types.
func (h *HostHandlers) RegisterHandlers(r *Router) {
	r.On(TypeHover, h.hover)
	r.On(TypeItemOp, h.itemOp)
}

func (h *HostHandlers) hover(ctx context.Context, hc *HostConn, pkt *Packet) error {
	var node *model.ContainerNode
	if len(pkt.Payload) > 0 && !bytes.Equal(pkt.Payload, []byte("null")) {
		node = &model.ContainerNode{}
		if err := json.Unmarshal(pkt.Payload, node); err != nil {
			return fmt.Errorf("hover payload: %w", err)
		}
	}
	if err := ownership.PublishHover(ctx, h.ps, node); err != nil {
		return fmt.Errorf("publish hover: %w", err)
	}
	hc.Reply(&Packet{Seq: pkt.Seq, Type: TypeAck})
	return nil
}

func (h *HostHandlers) itemOp(ctx context.Context, hc *HostConn, pkt *Packet) error {
	if err := ownership.PublishItemOperation(ctx, h.ps); err != nil {
		return fmt.Errorf("publish item operation: %w", err)
	}
	hc.Reply(&Packet{Seq: pkt.Seq, Type: TypeAck})
	return nil
}
