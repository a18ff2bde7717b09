package ownership

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kasuganosora/stashcount/cache"
	"github.com/kasuganosora/stashcount/model"
	"github.com/kasuganosora/stashcount/plugin/hook"
	"go.uber.org/zap"
)

// Pub/sub channels the host publishes its events on.
const (
	ChannelHover  = "ownership:hover"   // payload: JSON ContainerNode, empty when no item
	ChannelItemOp = "ownership:item_op" // payload ignored
)

// Bridge turns host events arriving over pub/sub into hook triggers. Events
// are dispatched one at a time from a single goroutine.
type Bridge struct {
	ps     cache.PubSub
	hooks  *hook.HookCenter
	logger *zap.Logger
}

// NewBridge creates a Bridge.
func NewBridge(ps cache.PubSub, hooks *hook.HookCenter, logger *zap.Logger) *Bridge {
	return &Bridge{ps: ps, hooks: hooks, logger: logger}
}

// Run subscribes and dispatches until ctx is done or the subscription closes.
// ready, if non-nil, is closed once the subscription is in place.
func (b *Bridge) Run(ctx context.Context, ready chan<- struct{}) error {
	msgs, cancel, err := b.ps.Subscribe(ctx, ChannelHover, ChannelItemOp)
	if err != nil {
		return fmt.Errorf("ownership: subscribe: %w", err)
	}
	defer cancel()
	if ready != nil {
		close(ready)
	}
	b.logger.Info("host event bridge listening",
		zap.Strings("channels", []string{ChannelHover, ChannelItemOp}))

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			b.dispatch(ctx, msg)
		}
	}
}

func (b *Bridge) dispatch(ctx context.Context, msg *cache.Message) {
	var err error
	switch msg.Channel {
	case ChannelHover:
		var node *model.ContainerNode
		node, err = decodeHover(msg.Payload)
		if err == nil {
			_, err = b.hooks.Trigger(ctx, hook.OnHoverChanged, node)
		}
	case ChannelItemOp:
		_, err = b.hooks.Trigger(ctx, hook.AfterItemOperation, nil)
	default:
		return
	}
	if err != nil {
		b.logger.Warn("host event dropped", zap.String("channel", msg.Channel), zap.Error(err))
	}
}

func decodeHover(payload string) (*model.ContainerNode, error) {
	if payload == "" {
		return nil, nil
	}
	var n model.ContainerNode
	if err := json.Unmarshal([]byte(payload), &n); err != nil {
		return nil, fmt.Errorf("ownership: bad hover payload: %w", err)
	}
	return &n, nil
}

// PublishHover publishes a hover event; nil means the pointer left the item.
func PublishHover(ctx context.Context, ps cache.PubSub, hovered *model.ContainerNode) error {
	payload := ""
	if hovered != nil {
		raw, err := json.Marshal(hovered)
		if err != nil {
			return err
		}
		payload = string(raw)
	}
	return ps.Publish(ctx, ChannelHover, payload)
}

// PublishItemOperation publishes the "item operation completed" signal.
func PublishItemOperation(ctx context.Context, ps cache.PubSub) error {
	return ps.Publish(ctx, ChannelItemOp, "")
}
